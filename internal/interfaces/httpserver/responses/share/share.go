package shareresponses

import (
	"jan-server/services/conversation-api/internal/domain/share"
	"jan-server/services/conversation-api/internal/utils/functional"
)

// ShareResponse represents the response for a share
type ShareResponse struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Slug         string `json:"slug"`
	ShareURL     string `json:"share_url,omitempty"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	ViewCount    int    `json:"view_count"`
	RevokedAt    *int64 `json:"revoked_at,omitempty"`
	LastViewedAt *int64 `json:"last_viewed_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ShareListResponse represents a list of shares
type ShareListResponse struct {
	Object string          `json:"object"`
	Data   []ShareResponse `json:"data"`
}

// PublicShareResponse is the unauthenticated view of a share
type PublicShareResponse struct {
	Object    string                `json:"object"`
	Slug      string                `json:"slug"`
	Title     string                `json:"title"`
	CreatedAt int64                 `json:"created_at"`
	Messages  []PublicMessageResult `json:"messages"`
}

type PublicMessageResult struct {
	Position int    `json:"position"`
	Role     string `json:"role"`
	Content  string `json:"content"`
}

// NewShareResponse creates a share response from a domain share
func NewShareResponse(s *share.SharedConversation, baseURL string) ShareResponse {
	resp := ShareResponse{
		ID:           s.PublicID,
		Object:       "share",
		Slug:         s.Slug,
		Title:        s.Title,
		MessageCount: s.MessageCount,
		ViewCount:    s.ViewCount,
		CreatedAt:    s.CreatedAt.Unix(),
		UpdatedAt:    s.UpdatedAt.Unix(),
	}
	if baseURL != "" {
		resp.ShareURL = s.GetShareURL(baseURL)
	}
	if s.RevokedAt != nil {
		ts := s.RevokedAt.Unix()
		resp.RevokedAt = &ts
	}
	if s.LastViewedAt != nil {
		ts := s.LastViewedAt.Unix()
		resp.LastViewedAt = &ts
	}
	return resp
}

func NewShareListResponse(shares []*share.SharedConversation, baseURL string) *ShareListResponse {
	return &ShareListResponse{
		Object: "list",
		Data: functional.Map(shares, func(s *share.SharedConversation) ShareResponse {
			return NewShareResponse(s, baseURL)
		}),
	}
}

func NewPublicShareResponse(s *share.SharedConversation) *PublicShareResponse {
	return &PublicShareResponse{
		Object:    "public_share",
		Slug:      s.Slug,
		Title:     s.Title,
		CreatedAt: s.CreatedAt.Unix(),
		Messages: functional.Map(s.Messages, func(m *share.SharedMessage) PublicMessageResult {
			return PublicMessageResult{
				Position: m.Position,
				Role:     string(m.Role),
				Content:  m.Content,
			}
		}),
	}
}

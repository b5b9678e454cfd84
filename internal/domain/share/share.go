package share

import (
	"context"
	"time"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/query"
)

// ===============================================
// Share Structure
// ===============================================

// SharedConversation is an immutable copy of a conversation's active branch.
// It owns its messages and never points back at live message rows.
type SharedConversation struct {
	ID             uint             `json:"-"`
	PublicID       string           `json:"id"`
	Slug           string           `json:"slug"`
	ConversationID uint             `json:"-"`
	OwnerID        string           `json:"-"`
	Title          string           `json:"title"`
	RevokedAt      *time.Time       `json:"revoked_at,omitempty"`
	ViewCount      int              `json:"view_count"`
	LastViewedAt   *time.Time       `json:"last_viewed_at,omitempty"`
	MessageCount   int              `json:"message_count"`
	Messages       []*SharedMessage `json:"messages,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// SharedMessage is one flattened turn. Position follows root-to-leaf order.
type SharedMessage struct {
	ID                   uint              `json:"-"`
	SharedConversationID uint              `json:"-"`
	Position             int               `json:"position"`
	Role                 conversation.Role `json:"role"`
	Content              string            `json:"content"`
	CreatedAt            time.Time         `json:"created_at"`
}

// ===============================================
// Share Filter and Repository
// ===============================================

type ShareFilter struct {
	ConversationID *uint
	OwnerID        *string
	IncludeRevoked bool
}

type ShareRepository interface {
	// Create persists the share and its Messages atomically.
	Create(ctx context.Context, share *SharedConversation) error
	FindByFilter(ctx context.Context, filter ShareFilter, pagination *query.Pagination) ([]*SharedConversation, error)
	FindByPublicID(ctx context.Context, publicID string) (*SharedConversation, error)
	// FindBySlug loads the share together with its messages.
	FindBySlug(ctx context.Context, slug string) (*SharedConversation, error)
	// FindActiveByConversationID returns nil, nil when no active share exists.
	FindActiveByConversationID(ctx context.Context, conversationID uint) (*SharedConversation, error)
	IncrementViewCount(ctx context.Context, id uint) error
	Revoke(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ===============================================
// Helper Functions
// ===============================================

func (s *SharedConversation) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *SharedConversation) IsActive() bool {
	return s.RevokedAt == nil
}

// GetShareURL returns the full URL for the share
func (s *SharedConversation) GetShareURL(baseURL string) string {
	return baseURL + "/v1/public/shares/" + s.Slug
}

package share

import (
	"context"
	"strings"
	"time"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
	"jan-server/services/conversation-api/internal/utils/functional"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

const (
	// DefaultTitleMaxLength is the max length for auto-generated titles
	DefaultTitleMaxLength = 50

	// DefaultUntitledTitle is the fallback title
	DefaultUntitledTitle = "Untitled Conversation"

	viewCountTimeout = 5 * time.Second
)

// TranscriptReader resolves the active branch of a conversation.
type TranscriptReader interface {
	GetTranscript(ctx context.Context, conv *conversation.Conversation) (*conversation.TranscriptView, error)
}

// ShareService handles business logic for conversation sharing
type ShareService struct {
	repo          ShareRepository
	transcripts   TranscriptReader
	slugGenerator *SlugGenerator
}

// NewShareService creates a new share service
func NewShareService(repo ShareRepository, transcripts TranscriptReader) *ShareService {
	return &ShareService{
		repo:          repo,
		transcripts:   transcripts,
		slugGenerator: NewSlugGenerator(repo),
	}
}

// ShareResult reports whether the share was created by this call or reused.
type ShareResult struct {
	Share   *SharedConversation
	Created bool
}

// Flatten turns a resolved transcript into ordered shared messages. Internal
// messages are dropped; positions are contiguous in transcript order.
func Flatten(transcript []*conversation.Node) []*SharedMessage {
	visible := functional.Filter(transcript, func(node *conversation.Node) bool {
		return node != nil && !node.IsInternal
	})
	out := make([]*SharedMessage, 0, len(visible))
	for i, node := range visible {
		out = append(out, &SharedMessage{
			Position:  i,
			Role:      node.Role,
			Content:   node.Content,
			CreatedAt: node.CreatedAt,
		})
	}
	return out
}

// ShareConversation snapshots the active branch. A conversation has at most
// one active share; calling again returns it unchanged.
func (s *ShareService) ShareConversation(ctx context.Context, conv *conversation.Conversation, userID string, title *string) (*ShareResult, error) {
	if conv.OwnerID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"you do not have permission to share this conversation", nil, "7d2af0e5-d4e6-4b97-87c6-1b8ac8114d17")
	}

	existing, err := s.repo.FindActiveByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up existing share")
	}
	if existing != nil {
		return &ShareResult{Share: existing}, nil
	}

	view, err := s.transcripts.GetTranscript(ctx, conv)
	if err != nil {
		return nil, err
	}
	messages := Flatten(view.Transcript)
	if len(messages) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"conversation has no messages to share", nil, "b85bea6b-0738-44fc-a10f-d9f076257b4c")
	}

	slug, err := s.slugGenerator.GenerateUniqueSlug(ctx)
	if err != nil {
		return nil, platformerrors.AsErrorWithUUID(ctx, platformerrors.LayerDomain, err, "failed to generate share slug", "faf9ecc8-59cb-44ca-9603-26703d23fbc8")
	}
	publicID, err := GenerateSharePublicID()
	if err != nil {
		return nil, platformerrors.AsErrorWithUUID(ctx, platformerrors.LayerDomain, err, "failed to generate share public ID", "0554df5d-038c-49c2-876d-0d40318f93da")
	}

	now := time.Now().UTC()
	share := &SharedConversation{
		PublicID:       publicID,
		Slug:           slug,
		ConversationID: conv.ID,
		OwnerID:        conv.OwnerID,
		Title:          determineTitle(conv, messages, title),
		MessageCount:   len(messages),
		Messages:       messages,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, share); err != nil {
		// A concurrent share of the same conversation won the unique index.
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			winner, findErr := s.repo.FindActiveByConversationID(ctx, conv.ID)
			if findErr == nil && winner != nil {
				return &ShareResult{Share: winner}, nil
			}
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create share")
	}

	return &ShareResult{Share: share, Created: true}, nil
}

// GetShareBySlug retrieves a share by its public slug
func (s *ShareService) GetShareBySlug(ctx context.Context, slug string) (*SharedConversation, error) {
	if !ValidateSlug(slug) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid share link", nil, "5b9c2e40-ee70-4ee6-b39e-7d7dd8b44b65")
	}

	share, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "share not found")
	}

	if share.IsRevoked() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"this share has been revoked", nil, "11f2a25a-76e4-45e6-9528-2449563e1b00")
	}

	// Increment view count asynchronously (fire and forget)
	shareID := share.ID
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), viewCountTimeout)
		defer cancel()
		if err := s.repo.IncrementViewCount(bgCtx, shareID); err != nil {
			log := logger.GetLogger()
			log.Debug().Err(err).Uint("share_id", shareID).Msg("failed to increment share view count")
		}
	}()

	return share, nil
}

// ListShares lists the shares of a conversation. Only the owner may list them.
func (s *ShareService) ListShares(ctx context.Context, conv *conversation.Conversation, userID string, includeRevoked bool) ([]*SharedConversation, error) {
	if conv.OwnerID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"you do not have permission to view shares for this conversation", nil, "6676c3ef-0174-45f8-b9c4-47615e0b5e13")
	}

	convID := conv.ID
	shares, err := s.repo.FindByFilter(ctx, ShareFilter{
		ConversationID: &convID,
		IncludeRevoked: includeRevoked,
	}, nil)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list shares")
	}
	return shares, nil
}

// RevokeShare disables a share link. A later ShareConversation creates a new one.
func (s *ShareService) RevokeShare(ctx context.Context, conv *conversation.Conversation, userID string, sharePublicID string) error {
	if conv.OwnerID != userID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"you do not have permission to revoke this share", nil, "43d614f3-1e60-4272-9bfc-ac1fe3f60f9b")
	}

	share, err := s.repo.FindByPublicID(ctx, sharePublicID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "share not found")
	}
	if share.ConversationID != conv.ID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"share not found", nil, "a536e23b-00ca-4abb-96c9-874116ddbda8")
	}
	if share.IsRevoked() {
		return nil
	}

	if err := s.repo.Revoke(ctx, share.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to revoke share")
	}
	return nil
}

func determineTitle(conv *conversation.Conversation, messages []*SharedMessage, inputTitle *string) string {
	if inputTitle != nil {
		if t := strings.TrimSpace(*inputTitle); t != "" {
			return t
		}
	}

	if name := strings.TrimSpace(conv.Name); name != "" {
		return name
	}

	for _, msg := range messages {
		if msg.Role != conversation.RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) > DefaultTitleMaxLength {
			return string(runes[:DefaultTitleMaxLength]) + "..."
		}
		return text
	}

	return DefaultUntitledTitle
}

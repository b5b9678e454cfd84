package conversation

import (
	"context"

	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// ParticipantChecker is consulted before any mutation of a conversation.
type ParticipantChecker interface {
	CheckParticipant(ctx context.Context, conv *Conversation, userID string) error
}

// ParticipantGuard accepts the owner and registered participants.
type ParticipantGuard struct {
	participants ParticipantRepository
}

func NewParticipantGuard(participants ParticipantRepository) ParticipantChecker {
	return &ParticipantGuard{participants: participants}
}

func (g *ParticipantGuard) CheckParticipant(ctx context.Context, conv *Conversation, userID string) error {
	if userID == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"caller is not a participant of this conversation", nil, "9e3a7d0c-5a09-42c5-a57b-8cb5d8424bb0")
	}
	if conv.OwnerID == userID {
		return nil
	}
	ok, err := g.participants.Exists(ctx, conv.ID, userID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check participant")
	}
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"caller is not a participant of this conversation", nil, "c726652d-ac54-48ab-98d3-5120c32a8169")
	}
	return nil
}

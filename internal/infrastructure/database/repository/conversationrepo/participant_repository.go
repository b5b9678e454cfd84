package conversationrepo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/dbschema"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
)

type ParticipantGormRepository struct {
	db *transaction.Database
}

var _ conversation.ParticipantRepository = (*ParticipantGormRepository)(nil)

func NewParticipantGormRepository(db *transaction.Database) conversation.ParticipantRepository {
	return &ParticipantGormRepository{db}
}

// Register inserts the membership row, ignoring an existing one.
func (repo *ParticipantGormRepository) Register(ctx context.Context, conversationID uint, userID string) error {
	model := &dbschema.ConversationParticipant{
		ConversationID: conversationID,
		UserID:         userID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.db.GetTx(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(model).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to register participant")
	}
	return nil
}

func (repo *ParticipantGormRepository) Exists(ctx context.Context, conversationID uint, userID string) (bool, error) {
	var count int64
	if err := repo.db.GetTx(ctx).
		Model(&dbschema.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error; err != nil {
		return false, database.AsRepositoryError(ctx, err, "failed to check participant")
	}
	return count > 0, nil
}

func (repo *ParticipantGormRepository) ListByConversation(ctx context.Context, conversationID uint) ([]string, error) {
	var users []string
	if err := repo.db.GetTx(ctx).
		Model(&dbschema.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id ASC").
		Pluck("user_id", &users).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to list participants")
	}
	return users, nil
}

package conversationrepo

import (
	"context"

	"gorm.io/gorm"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/dbschema"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
	"jan-server/services/conversation-api/internal/utils/functional"
)

// MessageGormRepository is the message node store.
type MessageGormRepository struct {
	db *transaction.Database
}

var _ conversation.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) conversation.MessageRepository {
	return &MessageGormRepository{db}
}

func (repo *MessageGormRepository) Create(ctx context.Context, msg *conversation.Message) error {
	model := dbschema.NewSchemaMessage(msg)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to create message")
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	msg.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByConversationID returns every node of the conversation in creation order.
func (repo *MessageGormRepository) FindByConversationID(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	var rows []dbschema.Message
	if err := repo.db.GetTx(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find messages")
	}
	return functional.Map(rows, func(item dbschema.Message) *conversation.Message {
		return item.EtoD()
	}), nil
}

func (repo *MessageGormRepository) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*conversation.Message, error) {
	var model dbschema.Message
	if err := repo.db.GetTx(ctx).
		Where("conversation_id = ? AND public_id = ?", conversationID, publicID).
		First(&model).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "message not found")
	}
	return model.EtoD(), nil
}

// Update rewrites content only; parent links are immutable.
func (repo *MessageGormRepository) Update(ctx context.Context, msg *conversation.Message) error {
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Message{}).
		Where("id = ? AND conversation_id = ?", msg.ID, msg.ConversationID).
		Updates(map[string]any{
			"content":    msg.Content,
			"updated_at": msg.UpdatedAt,
		})
	if result.Error != nil {
		return database.AsRepositoryError(ctx, result.Error, "failed to update message")
	}
	if result.RowsAffected == 0 {
		return database.AsRepositoryError(ctx, gorm.ErrRecordNotFound, "message not found")
	}
	return nil
}

// DeleteByIDs removes the given nodes of one conversation. Ids that are already
// gone are skipped, so repeating a delete is harmless.
func (repo *MessageGormRepository) DeleteByIDs(ctx context.Context, conversationID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := repo.db.GetTx(ctx).
		Where("conversation_id = ? AND id IN ?", conversationID, ids).
		Delete(&dbschema.Message{})
	if result.Error != nil {
		return 0, database.AsRepositoryError(ctx, result.Error, "failed to delete messages")
	}
	return result.RowsAffected, nil
}

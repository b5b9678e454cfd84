package conversationrepo

import (
	"context"

	"gorm.io/gorm"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/dbschema"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
	"jan-server/services/conversation-api/internal/utils/functional"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.ConversationRepository {
	return &ConversationGormRepository{db}
}

// Create implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to create conversation")
	}
	// Update the domain object with generated ID and timestamps
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByFilter implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByFilter(ctx context.Context, filter conversation.ConversationFilter, pagination *query.Pagination) ([]*conversation.Conversation, error) {
	db := repo.applyFilter(ctx, repo.db.GetTx(ctx), filter)
	db = repo.applyPagination(db, pagination)

	var rows []dbschema.Conversation
	if err := db.Find(&rows).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find conversations")
	}

	result := functional.Map(rows, func(item dbschema.Conversation) *conversation.Conversation {
		return item.EtoD()
	})
	return result, nil
}

// Count implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Count(ctx context.Context, filter conversation.ConversationFilter) (int64, error) {
	db := repo.applyFilter(ctx, repo.db.GetTx(ctx).Model(&dbschema.Conversation{}), filter)
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, database.AsRepositoryError(ctx, err, "failed to count conversations")
	}
	return count, nil
}

// FindByID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var model dbschema.Conversation
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "conversation not found")
	}
	return model.EtoD(), nil
}

// FindByPublicID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	var model dbschema.Conversation
	if err := repo.db.GetTx(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "conversation not found")
	}
	return model.EtoD(), nil
}

// Update implements conversation.ConversationRepository. The tree pointer is
// owned by UpdateCurrentNode and is never written here.
func (repo *ConversationGormRepository) Update(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", conv.ID).
		Select("name", "is_importing", "is_pinned", "folder_id", "agent_id", "model_id", "metadata", "updated_at").
		Updates(model)
	if result.Error != nil {
		return database.AsRepositoryError(ctx, result.Error, "failed to update conversation")
	}
	if result.RowsAffected == 0 {
		return database.AsRepositoryError(ctx, gorm.ErrRecordNotFound, "conversation not found")
	}
	return nil
}

// UpdateCurrentNode implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) UpdateCurrentNode(ctx context.Context, id uint, currentNodeID *uint) error {
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Update("current_node_id", currentNodeID)
	if result.Error != nil {
		return database.AsRepositoryError(ctx, result.Error, "failed to update current node")
	}
	if result.RowsAffected == 0 {
		return database.AsRepositoryError(ctx, gorm.ErrRecordNotFound, "conversation not found")
	}
	return nil
}

// Delete implements conversation.ConversationRepository. Messages and
// participants go with it through ON DELETE CASCADE.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id uint) error {
	if err := repo.db.GetTx(ctx).Delete(&dbschema.Conversation{}, id).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to delete conversation")
	}
	return nil
}

// FindDanglingPointers implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindDanglingPointers(ctx context.Context, limit int) ([]*conversation.Conversation, error) {
	db := repo.db.GetTx(ctx)
	target := db.Model(&dbschema.Message{}).
		Select("1").
		Where("messages.id = conversations.current_node_id")

	var rows []dbschema.Conversation
	if err := db.
		Where("current_node_id IS NOT NULL").
		Where("NOT EXISTS (?)", target).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find dangling pointers")
	}
	return functional.Map(rows, func(item dbschema.Conversation) *conversation.Conversation {
		return item.EtoD()
	}), nil
}

// FindUnsettledPointers implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindUnsettledPointers(ctx context.Context, limit int) ([]*conversation.Conversation, error) {
	db := repo.db.GetTx(ctx)
	children := db.Model(&dbschema.Message{}).
		Select("1").
		Where("messages.parent_id = conversations.current_node_id")

	var rows []dbschema.Conversation
	if err := db.
		Where("current_node_id IS NOT NULL").
		Where("EXISTS (?)", children).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find unsettled pointers")
	}
	return functional.Map(rows, func(item dbschema.Conversation) *conversation.Conversation {
		return item.EtoD()
	}), nil
}

func (repo *ConversationGormRepository) applyFilter(ctx context.Context, db *gorm.DB, filter conversation.ConversationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		db = db.Where("public_id = ?", *filter.PublicID)
	}
	if filter.OwnerID != nil {
		db = db.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.MemberID != nil {
		member := repo.db.GetTx(ctx).
			Model(&dbschema.ConversationParticipant{}).
			Select("conversation_id").
			Where("user_id = ?", *filter.MemberID)
		db = db.Where("owner_id = ? OR id IN (?)", *filter.MemberID, member)
	}
	if filter.IsPinned != nil {
		db = db.Where("is_pinned = ?", *filter.IsPinned)
	}
	if filter.FolderID != nil {
		db = db.Where("folder_id = ?", *filter.FolderID)
	}
	if filter.NameContain != nil {
		db = db.Where("LOWER(name) LIKE LOWER(?)", "%"+*filter.NameContain+"%")
	}
	return db
}

func (repo *ConversationGormRepository) applyPagination(db *gorm.DB, pagination *query.Pagination) *gorm.DB {
	if pagination == nil {
		return db.Order("id DESC").Limit(query.DefaultLimit)
	}
	if pagination.Order == "asc" {
		if pagination.After != nil {
			db = db.Where("id > ?", *pagination.After)
		}
		db = db.Order("id ASC")
	} else {
		if pagination.After != nil {
			db = db.Where("id < ?", *pagination.After)
		}
		db = db.Order("id DESC")
	}
	return db.Limit(pagination.EffectiveLimit())
}

package sharerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/domain/share"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/dbschema"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
	"jan-server/services/conversation-api/internal/utils/functional"
)

// ShareGormRepository implements share.ShareRepository using GORM
type ShareGormRepository struct {
	db *transaction.Database
}

var _ share.ShareRepository = (*ShareGormRepository)(nil)

// NewShareGormRepository creates a new share repository
func NewShareGormRepository(db *transaction.Database) share.ShareRepository {
	return &ShareGormRepository{db: db}
}

// Create implements share.ShareRepository. The share row and its messages are
// written in one transaction.
func (repo *ShareGormRepository) Create(ctx context.Context, s *share.SharedConversation) error {
	model := dbschema.NewSchemaSharedConversation(s)
	messages := model.Messages
	model.Messages = nil

	err := repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx)
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		for i := range messages {
			messages[i].SharedConversationID = model.ID
		}
		return tx.CreateInBatches(messages, 200).Error
	})
	if err != nil {
		return database.AsRepositoryError(ctx, err, "failed to create share")
	}

	// Update the domain object with generated IDs and timestamps
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	for i, m := range messages {
		if i < len(s.Messages) {
			s.Messages[i].ID = m.ID
			s.Messages[i].SharedConversationID = model.ID
		}
	}
	return nil
}

// FindByFilter implements share.ShareRepository.
func (repo *ShareGormRepository) FindByFilter(ctx context.Context, filter share.ShareFilter, pagination *query.Pagination) ([]*share.SharedConversation, error) {
	db := repo.applyFilter(repo.db.GetTx(ctx), filter)
	db = repo.applyPagination(db, pagination)

	var rows []dbschema.SharedConversation
	if err := db.Find(&rows).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find shares")
	}

	result := functional.Map(rows, func(item dbschema.SharedConversation) *share.SharedConversation {
		return item.EtoD()
	})
	return result, nil
}

// FindByPublicID implements share.ShareRepository.
func (repo *ShareGormRepository) FindByPublicID(ctx context.Context, publicID string) (*share.SharedConversation, error) {
	var model dbschema.SharedConversation
	if err := repo.db.GetTx(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "share not found")
	}
	return model.EtoD(), nil
}

// FindBySlug implements share.ShareRepository.
func (repo *ShareGormRepository) FindBySlug(ctx context.Context, slug string) (*share.SharedConversation, error) {
	var model dbschema.SharedConversation
	if err := repo.db.GetTx(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ?", slug).
		First(&model).Error; err != nil {
		return nil, database.AsRepositoryError(ctx, err, "share not found")
	}
	return model.EtoD(), nil
}

// FindActiveByConversationID implements share.ShareRepository.
func (repo *ShareGormRepository) FindActiveByConversationID(ctx context.Context, conversationID uint) (*share.SharedConversation, error) {
	var model dbschema.SharedConversation
	err := repo.db.GetTx(ctx).
		Where("conversation_id = ?", conversationID).
		Where("revoked_at IS NULL").
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.AsRepositoryError(ctx, err, "failed to find active share")
	}
	return model.EtoD(), nil
}

// IncrementViewCount implements share.ShareRepository.
func (repo *ShareGormRepository) IncrementViewCount(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	if err := repo.db.GetTx(ctx).
		Model(&dbschema.SharedConversation{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"view_count":     gorm.Expr("view_count + 1"),
			"last_viewed_at": now,
		}).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to increment view count")
	}
	return nil
}

// Revoke implements share.ShareRepository.
func (repo *ShareGormRepository) Revoke(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	if err := repo.db.GetTx(ctx).
		Model(&dbschema.SharedConversation{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Update("revoked_at", now).Error; err != nil {
		return database.AsRepositoryError(ctx, err, "failed to revoke share")
	}
	return nil
}

// SlugExists implements share.ShareRepository.
func (repo *ShareGormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := repo.db.GetTx(ctx).
		Model(&dbschema.SharedConversation{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, database.AsRepositoryError(ctx, err, "failed to check slug existence")
	}
	return count > 0, nil
}

// applyFilter applies filter criteria to the query
func (repo *ShareGormRepository) applyFilter(db *gorm.DB, filter share.ShareFilter) *gorm.DB {
	if filter.ConversationID != nil {
		db = db.Where("conversation_id = ?", *filter.ConversationID)
	}
	if filter.OwnerID != nil {
		db = db.Where("owner_id = ?", *filter.OwnerID)
	}
	if !filter.IncludeRevoked {
		db = db.Where("revoked_at IS NULL")
	}
	return db
}

func (repo *ShareGormRepository) applyPagination(db *gorm.DB, pagination *query.Pagination) *gorm.DB {
	if pagination == nil {
		return db.Order("created_at DESC").Order("id DESC").Limit(query.DefaultLimit)
	}
	if pagination.After != nil {
		db = db.Where("id < ?", *pagination.After)
	}
	return db.Order("created_at DESC").Order("id DESC").Limit(pagination.EffectiveLimit())
}

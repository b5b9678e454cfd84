package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// AsRepositoryError maps gorm sentinel errors onto the platform error taxonomy.
// It expects a *gorm.DB opened with TranslateError.
func AsRepositoryError(ctx context.Context, err error, message string) *platformerrors.PlatformError {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, message, err, "af2de601-caed-4cbb-9235-dda1d91d2f26")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, message, err, "0058bd2f-030b-446b-84da-8082b0a7860f")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDataIntegrity, message, err, "42866280-e93a-4bc1-a26a-3b512122c24c")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, "d10d7093-865e-4b52-afe4-f5f8c3c8ad00")
	}
}

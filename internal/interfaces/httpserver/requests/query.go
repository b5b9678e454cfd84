package requests

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

const MaxPageLimit = 100

// GetCursorPaginationFromQuery reads limit, order and after. findByLastID
// resolves a public id cursor to the numeric id used by repositories.
func GetCursorPaginationFromQuery(reqCtx *gin.Context, findByLastID func(string) (*uint, error)) (*query.Pagination, error) {
	ctx := reqCtx.Request.Context()
	limitStr := reqCtx.DefaultQuery("limit", strconv.Itoa(query.DefaultLimit))
	order := reqCtx.DefaultQuery("order", "desc")
	afterStr := reqCtx.Query("after")

	limitInt, err := strconv.Atoi(limitStr)
	if err != nil || limitInt < 1 || limitInt > MaxPageLimit {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid limit number", nil, "4b5adb05-a1fc-4b05-966e-cb5c1a6d25b3")
	}

	if order != "asc" && order != "desc" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid order", nil, "506279de-6ae1-4aef-9072-54c164ae0ccf")
	}

	var after *uint
	if afterStr != "" {
		if findByLastID == nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid pagination cursor", nil, "31fa02d7-a3bc-4158-96a1-166796c7ae3a")
		}
		lastID, err := findByLastID(afterStr)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid pagination cursor", err, "6628e9ac-af06-48c1-9f8f-080e107ab7b2")
		}
		after = lastID
	}

	return &query.Pagination{
		Limit: &limitInt,
		After: after,
		Order: order,
	}, nil
}

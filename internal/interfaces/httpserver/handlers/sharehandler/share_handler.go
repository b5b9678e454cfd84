package sharehandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/domain/share"
	"jan-server/services/conversation-api/internal/infrastructure/metrics"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/middlewares"
	sharerequests "jan-server/services/conversation-api/internal/interfaces/httpserver/requests/share"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
	shareresponses "jan-server/services/conversation-api/internal/interfaces/httpserver/responses/share"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// ShareHandler handles share-related HTTP requests
type ShareHandler struct {
	shareService *share.ShareService
	cfg          *config.Config
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *share.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		cfg:          cfg,
	}
}

// CreateShare handles POST /v1/conversations/:conv_public_id/share.
// Responds 201 when a new snapshot is taken and 200 when the active share is reused.
func (h *ShareHandler) CreateShare(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	if !h.cfg.ConversationSharingEnabled {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeForbidden,
			"conversation sharing is not enabled", "a377f713-f08a-4ee9-b4e2-a4fab492404e")
		return
	}

	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized,
			"authentication required", "f80288a2-3db4-483b-8bc8-054be74213c4")
		return
	}

	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound,
			"conversation not found", "2b8780d6-cf46-4564-a67b-b91835aa825d")
		return
	}

	var req sharerequests.CreateShareRequest
	if reqCtx.Request.ContentLength != 0 {
		if err := reqCtx.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation,
				"invalid request body", "dc9fe6c3-b0f1-47b1-b629-19fcc92030b5")
			return
		}
	}

	result, err := h.shareService.ShareConversation(ctx, conv, userID, req.Title)
	if err != nil {
		metrics.RecordShare("create", "error")
		responses.HandleError(reqCtx, err, "failed to create share")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		metrics.RecordShare("create", "success")
	} else {
		metrics.RecordShare("reuse", "success")
	}
	reqCtx.JSON(status, shareresponses.NewShareResponse(result.Share, h.getBaseURL(reqCtx)))
}

// ListShares handles GET /v1/conversations/:conv_public_id/shares
func (h *ShareHandler) ListShares(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized,
			"authentication required", "a585ff5e-5ca2-49ec-aee7-43373ccee323")
		return
	}

	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound,
			"conversation not found", "0d77c83d-6898-48f3-9e36-475a08b78ab8")
		return
	}

	var params sharerequests.ListSharesQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation,
			"invalid query parameters", "16739ec2-20d8-4e0f-b7f4-74d4459509fd")
		return
	}

	shares, err := h.shareService.ListShares(ctx, conv, userID, params.IncludeRevoked)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to list shares")
		return
	}

	reqCtx.JSON(http.StatusOK, shareresponses.NewShareListResponse(shares, h.getBaseURL(reqCtx)))
}

// RevokeShare handles DELETE /v1/conversations/:conv_public_id/shares/:share_id
func (h *ShareHandler) RevokeShare(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized,
			"authentication required", "450db316-f741-4773-a4b2-418e82d6ec97")
		return
	}

	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound,
			"conversation not found", "8c9c47df-0dd6-4e07-b63e-e29eae6e1c81")
		return
	}

	shareID := reqCtx.Param("share_id")
	if err := h.shareService.RevokeShare(ctx, conv, userID, shareID); err != nil {
		metrics.RecordShare("revoke", "error")
		responses.HandleError(reqCtx, err, "failed to revoke share")
		return
	}

	metrics.RecordShare("revoke", "success")
	reqCtx.JSON(http.StatusOK, gin.H{
		"id":      shareID,
		"object":  "share.deleted",
		"deleted": true,
	})
}

// GetPublicShare handles GET /v1/public/shares/:slug.
// Existing shares stay readable when creation is disabled.
func (h *ShareHandler) GetPublicShare(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	sh, err := h.shareService.GetShareBySlug(ctx, reqCtx.Param("slug"))
	if err != nil {
		status := http.StatusInternalServerError
		var platformErr *platformerrors.PlatformError
		if errors.As(err, &platformErr) {
			status = platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType())
		}
		metrics.RecordPublicShareRequest(strconv.Itoa(status))
		responses.HandleError(reqCtx, err, "share not found")
		return
	}

	metrics.RecordPublicShareRequest(strconv.Itoa(http.StatusOK))
	reqCtx.Header("Cache-Control", "public, max-age=300")
	reqCtx.JSON(http.StatusOK, shareresponses.NewPublicShareResponse(sh))
}

func (h *ShareHandler) getBaseURL(reqCtx *gin.Context) string {
	if h.cfg.ShareBaseURL != "" {
		return strings.TrimRight(h.cfg.ShareBaseURL, "/")
	}
	scheme := "http"
	if reqCtx.Request.TLS != nil || reqCtx.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + reqCtx.Request.Host
}

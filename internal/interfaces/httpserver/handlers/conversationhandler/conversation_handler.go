package conversationhandler

import (
	"context"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/infrastructure/metrics"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/middlewares"
	conversationrequests "jan-server/services/conversation-api/internal/interfaces/httpserver/requests/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
	conversationresponses "jan-server/services/conversation-api/internal/interfaces/httpserver/responses/conversation"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// Context keys for conversation data
type ConversationContextKey string

const (
	ConversationContextKeyPublicID ConversationContextKey = "conv_public_id"
	ConversationContextEntity      ConversationContextKey = "ConversationContextEntity"
)

// ConversationHandler handles conversation-related HTTP requests
type ConversationHandler struct {
	conversationService *conversation.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *conversation.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

// ConversationMiddleware loads the conversation named by :conv_public_id for
// the authenticated user and stores it in the gin context.
func (h *ConversationHandler) ConversationMiddleware() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		ctx := reqCtx.Request.Context()
		userID, ok := middlewares.UserIDFromContext(reqCtx)
		if !ok {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "98c56176-70e1-4c08-b062-fb09e5223096")
			return
		}

		publicID := reqCtx.Param(string(ConversationContextKeyPublicID))
		if publicID == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing conversation id", "068f2ffa-2ff5-414c-b2e6-57f7668a6a15")
			return
		}

		conv, err := h.conversationService.GetConversationForUser(ctx, publicID, userID)
		if err != nil {
			responses.HandleError(reqCtx, err, "conversation not found")
			return
		}

		reqCtx.Set(string(ConversationContextEntity), conv)
		reqCtx.Next()
	}
}

// GetConversationFromContext returns the conversation loaded by ConversationMiddleware.
func GetConversationFromContext(reqCtx *gin.Context) (*conversation.Conversation, bool) {
	val, ok := reqCtx.Get(string(ConversationContextEntity))
	if !ok {
		return nil, false
	}
	conv, ok := val.(*conversation.Conversation)
	return conv, ok
}

// CreateConversation creates a new conversation, optionally seeded with messages
func (h *ConversationHandler) CreateConversation(
	ctx context.Context,
	userID string,
	req conversationrequests.CreateConversationRequest,
) (*conversationresponses.ConversationResponse, error) {
	conv, err := h.conversationService.CreateConversation(ctx, req.ToInput(userID))
	metrics.RecordOperation("create_conversation", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to create conversation")
	}

	tree, err := h.conversationService.GetTree(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to load conversation tree")
	}
	resp := conversationresponses.NewConversationResponse(conv, tree)
	return &resp, nil
}

// GetConversation renders a conversation with its current node
func (h *ConversationHandler) GetConversation(
	ctx context.Context,
	conv *conversation.Conversation,
) (*conversationresponses.ConversationResponse, error) {
	view, err := h.conversationService.GetTranscript(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to get conversation")
	}
	resp := conversationresponses.NewConversationResponse(view.Conversation, view.Tree)
	return &resp, nil
}

// ResolveConversationPublicIDToNumericID maps a pagination cursor to a numeric id
func (h *ConversationHandler) ResolveConversationPublicIDToNumericID(
	ctx context.Context,
	userID string,
	publicID string,
) (*uint, error) {
	conv, err := h.conversationService.GetConversationForUser(ctx, publicID, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to resolve conversation ID")
	}
	return &conv.ID, nil
}

// ListConversations lists the conversations the user owns or participates in
func (h *ConversationHandler) ListConversations(
	ctx context.Context,
	userID string,
	params conversationrequests.ListConversationsQueryParams,
	pagination *query.Pagination,
) (*conversationresponses.ConversationListResponse, error) {
	filter := conversation.ConversationFilter{
		IsPinned:    params.IsPinned,
		FolderID:    params.FolderID,
		NameContain: params.Search,
	}

	// Fetch one extra row to compute has_more
	requestedLimit := pagination.EffectiveLimit()
	extraLimit := requestedLimit + 1
	pagination.Limit = &extraLimit

	convs, total, err := h.conversationService.ListConversations(ctx, userID, filter, pagination)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list conversations")
	}

	hasMore := len(convs) > requestedLimit
	if hasMore {
		convs = convs[:requestedLimit]
	}
	return conversationresponses.NewConversationListResponse(convs, hasMore, total), nil
}

// UpdateConversation updates conversation metadata
func (h *ConversationHandler) UpdateConversation(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
	req conversationrequests.UpdateConversationRequest,
) (*conversationresponses.ConversationResponse, error) {
	updated, err := h.conversationService.UpdateConversation(ctx, conv, userID, req.ToInput())
	metrics.RecordOperation("update_conversation", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to update conversation")
	}
	resp := conversationresponses.NewConversationResponse(updated, nil)
	return &resp, nil
}

// DeleteConversation deletes a conversation with its whole tree
func (h *ConversationHandler) DeleteConversation(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
) (*conversationresponses.DeletedResponse, error) {
	err := h.conversationService.DeleteConversation(ctx, conv, userID)
	metrics.RecordOperation("delete_conversation", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to delete conversation")
	}
	return &conversationresponses.DeletedResponse{
		ID:      conv.PublicID,
		Object:  "conversation.deleted",
		Deleted: true,
	}, nil
}

func (h *ConversationHandler) AddParticipant(
	ctx context.Context,
	conv *conversation.Conversation,
	actorID string,
	req conversationrequests.AddParticipantRequest,
) (*conversationresponses.ParticipantListResponse, error) {
	if err := h.conversationService.AddParticipant(ctx, conv, actorID, req.UserID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to add participant")
	}
	return h.ListParticipants(ctx, conv)
}

func (h *ConversationHandler) ListParticipants(
	ctx context.Context,
	conv *conversation.Conversation,
) (*conversationresponses.ParticipantListResponse, error) {
	participants, err := h.conversationService.ListParticipants(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list participants")
	}
	return &conversationresponses.ParticipantListResponse{
		Object: "list",
		Data:   participants,
	}, nil
}

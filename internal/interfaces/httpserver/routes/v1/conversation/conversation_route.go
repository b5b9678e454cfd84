package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/requests"
	conversationrequests "jan-server/services/conversation-api/internal/interfaces/httpserver/requests/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

type ConversationRoute struct {
	handler *conversationhandler.ConversationHandler
}

func NewConversationRoute(handler *conversationhandler.ConversationHandler) *ConversationRoute {
	return &ConversationRoute{
		handler: handler,
	}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.listConversations)
	conversations.POST("", route.createConversation)
	conversations.GET("/:conv_public_id", route.handler.ConversationMiddleware(), route.getConversation)
	conversations.PATCH("/:conv_public_id", route.handler.ConversationMiddleware(), route.updateConversation)
	conversations.DELETE("/:conv_public_id", route.handler.ConversationMiddleware(), route.deleteConversation)
	conversations.GET("/:conv_public_id/participants", route.handler.ConversationMiddleware(), route.listParticipants)
	conversations.POST("/:conv_public_id/participants", route.handler.ConversationMiddleware(), route.addParticipant)
}

// listConversations godoc
// @Summary List conversations
// @Description List conversations the authenticated user owns or participates in.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Maximum number of conversations to return"
// @Param after query string false "Return conversations after the given conversation ID"
// @Param order query string false "Sort order (asc or desc)"
// @Param is_pinned query bool false "Only pinned or unpinned conversations"
// @Param search query string false "Case-insensitive name filter"
// @Success 200 {object} conversationresponses.ConversationListResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/conversations [get]
func (route *ConversationRoute) listConversations(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "f250b80e-9761-452e-a252-9f3a09fb0afe")
		return
	}

	var params conversationrequests.ListConversationsQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "650161ac-9292-4ff3-a4f3-a7db160a6c32")
		return
	}

	pagination, err := requests.GetCursorPaginationFromQuery(reqCtx, func(publicID string) (*uint, error) {
		return route.handler.ResolveConversationPublicIDToNumericID(ctx, userID, publicID)
	})
	if err != nil {
		responses.HandleError(reqCtx, err, "invalid pagination")
		return
	}

	response, err := route.handler.ListConversations(ctx, userID, params, pagination)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to list conversations")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// createConversation godoc
// @Summary Create a conversation
// @Description Create a conversation, optionally seeded with messages that are appended in order.
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body conversationrequests.CreateConversationRequest true "Create conversation request"
// @Success 201 {object} conversationresponses.ConversationResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/conversations [post]
func (route *ConversationRoute) createConversation(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "7e840326-e2b7-45d6-996f-c317362f46f7")
		return
	}

	var req conversationrequests.CreateConversationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "cbc2f6a4-0d81-43c8-b0ed-a919cac10025")
		return
	}

	response, err := route.handler.CreateConversation(ctx, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to create conversation")
		return
	}
	reqCtx.JSON(http.StatusCreated, response)
}

// getConversation godoc
// @Summary Get a conversation
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param conv_public_id path string true "Conversation ID (format: conv_xxxxx)"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Failure 404 {object} responses.ErrorResponse "Conversation not found or access denied"
// @Router /v1/conversations/{conv_public_id} [get]
func (route *ConversationRoute) getConversation(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "40cf2529-81fb-4e13-86b5-76600457f669")
		return
	}

	response, err := route.handler.GetConversation(reqCtx.Request.Context(), conv)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to get conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// updateConversation godoc
// @Summary Update a conversation
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Param request body conversationrequests.UpdateConversationRequest true "Fields to update"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Router /v1/conversations/{conv_public_id} [patch]
func (route *ConversationRoute) updateConversation(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.UpdateConversationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "d1ad8696-b813-4777-8f9d-07e962fadd5b")
		return
	}

	response, err := route.handler.UpdateConversation(reqCtx.Request.Context(), conv, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to update conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// deleteConversation godoc
// @Summary Delete a conversation
// @Description Deletes the conversation and its whole message tree. Existing shares stay readable.
// @Tags Conversations API
// @Security BearerAuth
// @Param conv_public_id path string true "Conversation ID"
// @Success 200 {object} conversationresponses.DeletedResponse
// @Failure 403 {object} responses.ErrorResponse "Only the owner can delete"
// @Router /v1/conversations/{conv_public_id} [delete]
func (route *ConversationRoute) deleteConversation(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	response, err := route.handler.DeleteConversation(reqCtx.Request.Context(), conv, userID)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to delete conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

func (route *ConversationRoute) listParticipants(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "a4d62c2b-83b9-4dbb-b937-6cd1168a21cb")
		return
	}

	response, err := route.handler.ListParticipants(reqCtx.Request.Context(), conv)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to list participants")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

func (route *ConversationRoute) addParticipant(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.AddParticipantRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "c6ad4ac8-a95b-4abc-981c-fa8693eeb45a")
		return
	}

	response, err := route.handler.AddParticipant(reqCtx.Request.Context(), conv, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to add participant")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

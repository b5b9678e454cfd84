package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	conversationrequests "jan-server/services/conversation-api/internal/interfaces/httpserver/requests/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

type BranchRoute struct {
	handler       *conversationhandler.ConversationHandler
	branchHandler *conversationhandler.BranchHandler
}

func NewBranchRoute(
	handler *conversationhandler.ConversationHandler,
	branchHandler *conversationhandler.BranchHandler,
) *BranchRoute {
	return &BranchRoute{
		handler:       handler,
		branchHandler: branchHandler,
	}
}

func (route *BranchRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")

	conversations.GET("/:conv_public_id/messages", route.handler.ConversationMiddleware(), route.getTranscript)
	conversations.POST("/:conv_public_id/messages", route.handler.ConversationMiddleware(), route.appendMessage)
	conversations.PATCH("/:conv_public_id/messages/:message_id", route.handler.ConversationMiddleware(), route.editMessage)
	conversations.GET("/:conv_public_id/tree", route.handler.ConversationMiddleware(), route.getTree)
	conversations.PUT("/:conv_public_id/current_node", route.handler.ConversationMiddleware(), route.switchBranch)
	conversations.POST("/:conv_public_id/rewind", route.handler.ConversationMiddleware(), route.rewind)
}

// getTranscript godoc
// @Summary Get the active transcript
// @Description Resolves the branch through the current node, from its root down to the latest leaf reached by earliest children.
// @Tags Conversation Branches
// @Security BearerAuth
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Param include_internal query bool false "Include internal messages"
// @Success 200 {object} conversationresponses.TranscriptResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conv_public_id}/messages [get]
func (route *BranchRoute) getTranscript(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "7462e48a-590f-43ad-a78e-e86e53fc18c7")
		return
	}

	var params conversationrequests.TranscriptQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "cb969b77-fa07-4a11-a060-028475b3eef5")
		return
	}

	response, err := route.branchHandler.GetTranscript(reqCtx.Request.Context(), conv, params)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to get transcript")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// appendMessage godoc
// @Summary Append a message
// @Description Adds a node to the tree. A user message with message_id forks beside the edited message; an assistant message with regenerate forks beside the previous answer.
// @Tags Conversation Branches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Param request body conversationrequests.AppendMessageRequest true "Message"
// @Success 201 {object} conversationresponses.AppendMessageResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse "Conversation or edit target not found"
// @Router /v1/conversations/{conv_public_id}/messages [post]
func (route *BranchRoute) appendMessage(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.AppendMessageRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "d3a0f769-8f41-40c3-8c72-31b9d4fd1d25")
		return
	}

	response, err := route.branchHandler.AppendMessage(reqCtx.Request.Context(), conv, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to append message")
		return
	}
	reqCtx.JSON(http.StatusCreated, response)
}

func (route *BranchRoute) editMessage(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.EditMessageRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "a0679c0e-34a5-46df-a027-f5872e278e1d")
		return
	}

	response, err := route.branchHandler.EditMessage(reqCtx.Request.Context(), conv, userID, reqCtx.Param("message_id"), req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to edit message")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// getTree godoc
// @Summary Get the message tree
// @Tags Conversation Branches
// @Security BearerAuth
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Success 200 {object} conversationresponses.TreeResponse
// @Router /v1/conversations/{conv_public_id}/tree [get]
func (route *BranchRoute) getTree(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "7857b321-4a85-4507-9084-95c66e1a23c6")
		return
	}

	response, err := route.branchHandler.GetTree(reqCtx.Request.Context(), conv)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to get tree")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// switchBranch godoc
// @Summary Switch the active branch
// @Description Moves the current node to any message of the tree and settles it on the latest leaf below.
// @Tags Conversation Branches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Param request body conversationrequests.MessageRefRequest true "Target message"
// @Success 200 {object} conversationresponses.TranscriptResponse
// @Router /v1/conversations/{conv_public_id}/current_node [put]
func (route *BranchRoute) switchBranch(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.MessageRefRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "2d36ed20-7853-4c01-87b7-0055b81167c3")
		return
	}

	response, err := route.branchHandler.SwitchBranch(reqCtx.Request.Context(), conv, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to switch branch")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// rewind godoc
// @Summary Rewind to a message
// @Description Deletes every descendant of the message on all branches and makes it the current node.
// @Tags Conversation Branches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation ID"
// @Param request body conversationrequests.MessageRefRequest true "Rewind target"
// @Success 200 {object} conversationresponses.RewindResponse
// @Router /v1/conversations/{conv_public_id}/rewind [post]
func (route *BranchRoute) rewind(reqCtx *gin.Context) {
	userID, conv, ok := identityFromContext(reqCtx)
	if !ok {
		return
	}

	var req conversationrequests.MessageRefRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "c70f9568-3fdb-4b18-bedb-dba0e05eac85")
		return
	}

	response, err := route.branchHandler.Rewind(reqCtx.Request.Context(), conv, userID, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to rewind conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

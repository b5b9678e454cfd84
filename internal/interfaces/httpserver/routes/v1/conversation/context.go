package conversation

import (
	"github.com/gin-gonic/gin"

	domainconversation "jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// identityFromContext returns the caller and the conversation loaded by
// ConversationMiddleware, aborting the request when either is missing.
func identityFromContext(reqCtx *gin.Context) (string, *domainconversation.Conversation, bool) {
	userID, ok := middlewares.UserIDFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "e658a54b-34a6-406f-a7dc-3eed3fba6adf")
		return "", nil, false
	}
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "61dc462c-2ade-473c-a389-8c9f81a2db6b")
		return "", nil, false
	}
	return userID, conv, true
}

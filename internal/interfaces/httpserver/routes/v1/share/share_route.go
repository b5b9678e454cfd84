package share

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/sharehandler"
)

// ShareRoute handles routing for conversation share endpoints
type ShareRoute struct {
	handler             *sharehandler.ShareHandler
	conversationHandler *conversationhandler.ConversationHandler
}

// NewShareRoute creates a new share route handler
func NewShareRoute(
	handler *sharehandler.ShareHandler,
	conversationHandler *conversationhandler.ConversationHandler,
) *ShareRoute {
	return &ShareRoute{
		handler:             handler,
		conversationHandler: conversationHandler,
	}
}

// RegisterConversationShareRoutes registers share routes under /conversations/:conv_public_id
func (route *ShareRoute) RegisterConversationShareRoutes(router gin.IRouter) {
	router.POST("/:conv_public_id/share",
		route.conversationHandler.ConversationMiddleware(),
		route.handler.CreateShare,
	)
	router.GET("/:conv_public_id/shares",
		route.conversationHandler.ConversationMiddleware(),
		route.handler.ListShares,
	)
	router.DELETE("/:conv_public_id/shares/:share_id",
		route.conversationHandler.ConversationMiddleware(),
		route.handler.RevokeShare,
	)
}

package public

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/sharehandler"
)

// PublicShareRoute handles routing for public share endpoints (no auth required)
type PublicShareRoute struct {
	handler *sharehandler.ShareHandler
}

func NewPublicShareRoute(handler *sharehandler.ShareHandler) *PublicShareRoute {
	return &PublicShareRoute{
		handler: handler,
	}
}

// RegisterRouter registers public share routes
func (route *PublicShareRoute) RegisterRouter(router gin.IRouter) {
	publicShares := router.Group("/public/shares")
	publicShares.GET("/:slug", route.handler.GetPublicShare)
}

package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/public"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1/share"
)

type V1Route struct {
	conversation *conversation.ConversationRoute
	branch       *conversation.BranchRoute
	share        *share.ShareRoute
	publicShare  *public.PublicShareRoute
}

func NewV1Route(
	conversation *conversation.ConversationRoute,
	branch *conversation.BranchRoute,
	share *share.ShareRoute,
	publicShare *public.PublicShareRoute,
) *V1Route {
	return &V1Route{
		conversation,
		branch,
		share,
		publicShare,
	}
}

// RegisterRouter registers the authenticated /v1 endpoints
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")

	v1Route.conversation.RegisterRouter(v1Router)
	v1Route.branch.RegisterRouter(v1Router)

	conversations := v1Router.Group("/conversations")
	v1Route.share.RegisterConversationShareRoutes(conversations)
}

// RegisterPublicRouter registers endpoints that do not require authentication
func (v1Route *V1Route) RegisterPublicRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)

	v1Route.publicShare.RegisterRouter(v1Router)
}

// GetVersion godoc
// @Summary Get API build version
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/version [get]
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":         config.Version,
		"env_reloaded_at": config.GetEnvReloadedAt().Format(time.RFC3339),
	})
}

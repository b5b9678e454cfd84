package routes

import (
	"github.com/google/wire"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/public"
	v1 "jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1/conversation"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1/share"
)

var RouteProvider = wire.NewSet(
	handlers.HandlerProvider,

	v1.NewV1Route,
	conversation.NewConversationRoute,
	conversation.NewBranchRoute,
	share.NewShareRoute,
	public.NewPublicShareRoute,
)

package handlers

import (
	"github.com/google/wire"

	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/handlers/sharehandler"
)

var HandlerProvider = wire.NewSet(
	conversationhandler.NewConversationHandler,
	conversationhandler.NewBranchHandler,
	sharehandler.NewShareHandler,
)

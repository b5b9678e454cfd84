package interfaces

import (
	"github.com/google/wire"

	"jan-server/services/conversation-api/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
)

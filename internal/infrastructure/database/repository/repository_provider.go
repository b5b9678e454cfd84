package repository

import (
	"github.com/google/wire"

	"jan-server/services/conversation-api/internal/infrastructure/database/repository/conversationrepo"
	"jan-server/services/conversation-api/internal/infrastructure/database/repository/sharerepo"
)

var RepositoryProvider = wire.NewSet(
	conversationrepo.NewConversationGormRepository,
	conversationrepo.NewMessageGormRepository,
	conversationrepo.NewParticipantGormRepository,
	sharerepo.NewShareGormRepository,
)

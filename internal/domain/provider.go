package domain

import (
	"github.com/google/wire"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/share"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	// Conversation domain
	ProvideValidationConfig,
	conversation.NewConversationValidator,
	conversation.NewParticipantGuard,
	conversation.NewConversationService,

	// Share domain
	wire.Bind(new(share.TranscriptReader), new(*conversation.ConversationService)),
	share.NewShareService,
)

func ProvideValidationConfig(cfg *config.Config) *conversation.ValidationConfig {
	validationCfg := conversation.DefaultValidationConfig()
	if cfg.MaxContentLength > 0 {
		validationCfg.MaxContentLength = cfg.MaxContentLength
	}
	return validationCfg
}

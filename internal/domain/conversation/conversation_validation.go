package conversation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ===============================================
// Conversation Validation
// ===============================================

// ValidationConfig holds conversation and message limits
type ValidationConfig struct {
	MaxNameLength     int
	MaxContentLength  int
	MaxMetadataKeys   int
	MaxInitialMessage int
}

func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxNameLength:     256,
		MaxContentLength:  100000,
		MaxMetadataKeys:   16,
		MaxInitialMessage: 500,
	}
}

// ConversationValidator checks inputs before they reach the store.
type ConversationValidator struct {
	config   *ValidationConfig
	validate *validator.Validate
}

func NewConversationValidator(config *ValidationConfig) *ConversationValidator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &ConversationValidator{
		config:   config,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type messageRules struct {
	Role    string `validate:"required,oneof=user assistant"`
	Content string `validate:"required"`
	UserID  string `validate:"omitempty,max=255"`
}

// ValidateAppend checks a message append request. MessageID on an assistant
// message and Regenerate on a user message are ignored by placement, not rejected.
func (v *ConversationValidator) ValidateAppend(input AppendMessageInput) error {
	rules := messageRules{
		Role:    string(input.Role),
		Content: strings.TrimSpace(input.Content),
		UserID:  input.UserID,
	}
	if err := v.validate.Struct(rules); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if utf8.RuneCountInString(input.Content) > v.config.MaxContentLength {
		return fmt.Errorf("content exceeds %d characters", v.config.MaxContentLength)
	}
	return nil
}

// ValidateContent checks an in-place content edit.
func (v *ConversationValidator) ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > v.config.MaxContentLength {
		return fmt.Errorf("content exceeds %d characters", v.config.MaxContentLength)
	}
	return nil
}

func (v *ConversationValidator) ValidateCreate(input CreateConversationInput) error {
	if strings.TrimSpace(input.OwnerID) == "" {
		return fmt.Errorf("owner is required")
	}
	if err := v.validateName(input.Name); err != nil {
		return err
	}
	if len(input.Metadata) > v.config.MaxMetadataKeys {
		return fmt.Errorf("metadata cannot have more than %d keys", v.config.MaxMetadataKeys)
	}
	if len(input.Messages) > v.config.MaxInitialMessage {
		return fmt.Errorf("cannot import more than %d messages at once", v.config.MaxInitialMessage)
	}
	for i, msg := range input.Messages {
		if err := v.ValidateAppend(msg); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
	}
	return nil
}

func (v *ConversationValidator) ValidateUpdate(input UpdateConversationInput) error {
	if input.Name != nil {
		if err := v.validateName(*input.Name); err != nil {
			return err
		}
	}
	if len(input.Metadata) > v.config.MaxMetadataKeys {
		return fmt.Errorf("metadata cannot have more than %d keys", v.config.MaxMetadataKeys)
	}
	return nil
}

func (v *ConversationValidator) validateName(name string) error {
	if utf8.RuneCountInString(name) > v.config.MaxNameLength {
		return fmt.Errorf("name cannot exceed %d characters", v.config.MaxNameLength)
	}
	return nil
}

package conversationrequests

import "jan-server/services/conversation-api/internal/domain/conversation"

// CreateConversationRequest represents the request to create a conversation
type CreateConversationRequest struct {
	Name        string                 `json:"name"`
	IsImporting bool                   `json:"is_importing,omitempty"`
	FolderID    *string                `json:"folder_id,omitempty"`
	AgentID     *string                `json:"agent_id,omitempty"`
	ModelID     *string                `json:"model_id,omitempty"`
	Metadata    map[string]any         `json:"metadata,omitempty"`
	Messages    []AppendMessageRequest `json:"messages,omitempty" binding:"omitempty,max=100,dive"`
}

// UpdateConversationRequest represents the request to update a conversation
type UpdateConversationRequest struct {
	Name        *string        `json:"name,omitempty"`
	IsPinned    *bool          `json:"is_pinned,omitempty"`
	IsImporting *bool          `json:"is_importing,omitempty"`
	FolderID    *string        `json:"folder_id,omitempty"`
	AgentID     *string        `json:"agent_id,omitempty"`
	ModelID     *string        `json:"model_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AppendMessageRequest adds one node. MessageID names the user message being
// edited; Regenerate asks for a new assistant sibling.
type AppendMessageRequest struct {
	Role       string  `json:"role" binding:"required,oneof=user assistant"`
	Content    string  `json:"content"`
	MessageID  *string `json:"message_id,omitempty"`
	Regenerate bool    `json:"regenerate,omitempty"`
	IsInternal bool    `json:"is_internal,omitempty"`
}

// MessageRefRequest names a message of the conversation tree.
type MessageRefRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type AddParticipantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListConversationsQueryParams represents query parameters for listing conversations
type ListConversationsQueryParams struct {
	IsPinned *bool   `form:"is_pinned"`
	FolderID *string `form:"folder_id"`
	Search   *string `form:"search"`
}

type TranscriptQueryParams struct {
	IncludeInternal bool `form:"include_internal"`
}

func (r AppendMessageRequest) ToInput(userID string) conversation.AppendMessageInput {
	return conversation.AppendMessageInput{
		UserID:     userID,
		Role:       conversation.Role(r.Role),
		Content:    r.Content,
		MessageID:  r.MessageID,
		Regenerate: r.Regenerate,
		IsInternal: r.IsInternal,
	}
}

func (r CreateConversationRequest) ToInput(userID string) conversation.CreateConversationInput {
	messages := make([]conversation.AppendMessageInput, 0, len(r.Messages))
	for _, msg := range r.Messages {
		messages = append(messages, msg.ToInput(userID))
	}
	return conversation.CreateConversationInput{
		OwnerID:     userID,
		Name:        r.Name,
		IsImporting: r.IsImporting,
		FolderID:    r.FolderID,
		AgentID:     r.AgentID,
		ModelID:     r.ModelID,
		Metadata:    r.Metadata,
		Messages:    messages,
	}
}

func (r UpdateConversationRequest) ToInput() conversation.UpdateConversationInput {
	return conversation.UpdateConversationInput{
		Name:        r.Name,
		IsPinned:    r.IsPinned,
		IsImporting: r.IsImporting,
		FolderID:    r.FolderID,
		AgentID:     r.AgentID,
		ModelID:     r.ModelID,
		Metadata:    r.Metadata,
	}
}

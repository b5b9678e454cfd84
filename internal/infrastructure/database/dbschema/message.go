package dbschema

import (
	"jan-server/services/conversation-api/internal/domain/conversation"
)

// Message represents one node of a conversation tree
type Message struct {
	BaseModel
	PublicID       string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	ConversationID uint    `gorm:"index:idx_messages_conversation_created;not null"`
	AuthorID       *string `gorm:"type:varchar(255)"`
	Role           string  `gorm:"type:varchar(16);not null"`
	Content        string  `gorm:"type:text;not null"`
	ParentID       *uint   `gorm:"index"`
	IsInternal     bool    `gorm:"not null;default:false"`
}

func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		AuthorID:       m.AuthorID,
		Role:           string(m.Role),
		Content:        m.Content,
		ParentID:       m.ParentID,
		IsInternal:     m.IsInternal,
	}
}

func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		AuthorID:       m.AuthorID,
		Role:           conversation.Role(m.Role),
		Content:        m.Content,
		ParentID:       m.ParentID,
		IsInternal:     m.IsInternal,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

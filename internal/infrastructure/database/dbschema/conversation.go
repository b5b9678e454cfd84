package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"jan-server/services/conversation-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	PublicID      string            `gorm:"type:varchar(64);uniqueIndex;not null"`
	Object        string            `gorm:"type:varchar(32);not null;default:'conversation'"`
	OwnerID       string            `gorm:"type:varchar(255);index;not null"`
	Name          string            `gorm:"type:varchar(256);not null;default:''"`
	CurrentNodeID *uint             `gorm:"index"`
	IsImporting   bool              `gorm:"not null;default:false"`
	IsPinned      bool              `gorm:"not null;default:false"`
	FolderID      *string           `gorm:"type:varchar(64)"`
	AgentID       *string           `gorm:"type:varchar(64)"`
	ModelID       *string           `gorm:"type:varchar(128)"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
}

// ConversationParticipant records a user allowed to write to a conversation.
type ConversationParticipant struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"uniqueIndex:idx_conversation_participants_member;not null"`
	UserID         string `gorm:"type:varchar(255);uniqueIndex:idx_conversation_participants_member;not null"`
	CreatedAt      time.Time
}

func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	var metadata datatypes.JSONMap
	if c.Metadata != nil {
		metadata = datatypes.JSONMap(c.Metadata)
	}
	return &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		PublicID:      c.PublicID,
		Object:        c.Object,
		OwnerID:       c.OwnerID,
		Name:          c.Name,
		CurrentNodeID: c.CurrentNodeID,
		IsImporting:   c.IsImporting,
		IsPinned:      c.IsPinned,
		FolderID:      c.FolderID,
		AgentID:       c.AgentID,
		ModelID:       c.ModelID,
		Metadata:      metadata,
	}
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	var metadata map[string]any
	if c.Metadata != nil {
		metadata = map[string]any(c.Metadata)
	}
	return &conversation.Conversation{
		ID:            c.ID,
		PublicID:      c.PublicID,
		Object:        c.Object,
		OwnerID:       c.OwnerID,
		Name:          c.Name,
		CurrentNodeID: c.CurrentNodeID,
		IsImporting:   c.IsImporting,
		IsPinned:      c.IsPinned,
		FolderID:      c.FolderID,
		AgentID:       c.AgentID,
		ModelID:       c.ModelID,
		Metadata:      metadata,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

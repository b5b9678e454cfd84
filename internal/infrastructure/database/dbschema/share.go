package dbschema

import (
	"time"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/share"
	"jan-server/services/conversation-api/internal/utils/functional"
)

// SharedConversation represents the database schema for conversation shares
type SharedConversation struct {
	BaseModel
	PublicID       string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Slug           string     `gorm:"type:varchar(32);uniqueIndex;not null"`
	ConversationID uint       `gorm:"not null"`
	OwnerID        string     `gorm:"type:varchar(255);index;not null"`
	Title          string     `gorm:"type:varchar(256);not null"`
	RevokedAt      *time.Time `gorm:"type:timestamptz"`
	ViewCount      int        `gorm:"not null;default:0"`
	LastViewedAt   *time.Time `gorm:"type:timestamptz"`
	MessageCount   int        `gorm:"not null;default:0"`

	Messages []SharedMessage `gorm:"foreignKey:SharedConversationID"`
}

// SharedMessage is a copied, immutable transcript entry
type SharedMessage struct {
	ID                   uint      `gorm:"primaryKey"`
	SharedConversationID uint      `gorm:"uniqueIndex:idx_shared_messages_position;not null"`
	Position             int       `gorm:"uniqueIndex:idx_shared_messages_position;not null"`
	Role                 string    `gorm:"type:varchar(16);not null"`
	Content              string    `gorm:"type:text;not null"`
	CreatedAt            time.Time `gorm:"not null"`
}

// NewSchemaSharedConversation creates a database schema from domain share.
// Messages are converted as well so a single Create writes both tables.
func NewSchemaSharedConversation(s *share.SharedConversation) *SharedConversation {
	return &SharedConversation{
		BaseModel: BaseModel{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		},
		PublicID:       s.PublicID,
		Slug:           s.Slug,
		ConversationID: s.ConversationID,
		OwnerID:        s.OwnerID,
		Title:          s.Title,
		RevokedAt:      s.RevokedAt,
		ViewCount:      s.ViewCount,
		LastViewedAt:   s.LastViewedAt,
		MessageCount:   s.MessageCount,
		Messages: functional.Map(s.Messages, func(m *share.SharedMessage) SharedMessage {
			return SharedMessage{
				ID:                   m.ID,
				SharedConversationID: m.SharedConversationID,
				Position:             m.Position,
				Role:                 string(m.Role),
				Content:              m.Content,
				CreatedAt:            m.CreatedAt,
			}
		}),
	}
}

// EtoD converts database schema to domain share (Entity to Domain)
func (s *SharedConversation) EtoD() *share.SharedConversation {
	out := &share.SharedConversation{
		ID:             s.ID,
		PublicID:       s.PublicID,
		Slug:           s.Slug,
		ConversationID: s.ConversationID,
		OwnerID:        s.OwnerID,
		Title:          s.Title,
		RevokedAt:      s.RevokedAt,
		ViewCount:      s.ViewCount,
		LastViewedAt:   s.LastViewedAt,
		MessageCount:   s.MessageCount,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if len(s.Messages) > 0 {
		out.Messages = functional.Map(s.Messages, func(m SharedMessage) *share.SharedMessage {
			return &share.SharedMessage{
				ID:                   m.ID,
				SharedConversationID: m.SharedConversationID,
				Position:             m.Position,
				Role:                 conversation.Role(m.Role),
				Content:              m.Content,
				CreatedAt:            m.CreatedAt,
			}
		})
	}
	return out
}

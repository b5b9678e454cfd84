package conversation

import (
	"context"
	"time"

	"jan-server/services/conversation-api/internal/domain/query"
)

// ===============================================
// Conversation Types
// ===============================================

// Role is the author kind of a message node.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation is a chat session whose messages form a tree. CurrentNodeID is
// the active position used to derive the displayed transcript.
type Conversation struct {
	ID            uint           `json:"-"`
	PublicID      string         `json:"id"`
	Object        string         `json:"object"`
	OwnerID       string         `json:"owner_id"`
	Name          string         `json:"name"`
	CurrentNodeID *uint          `json:"-"`
	IsImporting   bool           `json:"is_importing"`
	IsPinned      bool           `json:"is_pinned"`
	FolderID      *string        `json:"folder_id,omitempty"`
	AgentID       *string        `json:"agent_id,omitempty"`
	ModelID       *string        `json:"model_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Message is one node of a conversation tree. ParentID is nil only for roots.
type Message struct {
	ID             uint      `json:"-"`
	PublicID       string    `json:"id"`
	ConversationID uint      `json:"-"`
	AuthorID       *string   `json:"author_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	ParentID       *uint     `json:"-"`
	IsInternal     bool      `json:"is_internal"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *Message) IsRoot() bool {
	return m.ParentID == nil
}

// ===============================================
// Repository Interfaces
// ===============================================

type ConversationFilter struct {
	ID          *uint
	PublicID    *string
	OwnerID     *string
	MemberID    *string // owner or registered participant
	IsPinned    *bool
	FolderID    *string
	NameContain *string
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByFilter(ctx context.Context, filter ConversationFilter, pagination *query.Pagination) ([]*Conversation, error)
	Count(ctx context.Context, filter ConversationFilter) (int64, error)
	Update(ctx context.Context, conv *Conversation) error
	UpdateCurrentNode(ctx context.Context, id uint, currentNodeID *uint) error
	Delete(ctx context.Context, id uint) error
	FindDanglingPointers(ctx context.Context, limit int) ([]*Conversation, error)
	FindUnsettledPointers(ctx context.Context, limit int) ([]*Conversation, error)
}

// MessageRepository is the message node store. FindByConversationID returns
// rows ordered by creation time, ties broken by id.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByConversationID(ctx context.Context, conversationID uint) ([]*Message, error)
	FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*Message, error)
	Update(ctx context.Context, msg *Message) error
	DeleteByIDs(ctx context.Context, conversationID uint, ids []uint) (int64, error)
}

type ParticipantRepository interface {
	// Register is idempotent.
	Register(ctx context.Context, conversationID uint, userID string) error
	Exists(ctx context.Context, conversationID uint, userID string) (bool, error)
	ListByConversation(ctx context.Context, conversationID uint) ([]string, error)
}

// ===============================================
// Inputs and Results
// ===============================================

type CreateConversationInput struct {
	OwnerID     string
	Name        string
	IsImporting bool
	FolderID    *string
	AgentID     *string
	ModelID     *string
	Metadata    map[string]any
	Messages    []AppendMessageInput
}

type UpdateConversationInput struct {
	Name        *string
	IsPinned    *bool
	IsImporting *bool
	FolderID    *string
	AgentID     *string
	ModelID     *string
	Metadata    map[string]any
}

// AppendMessageInput describes a new node. MessageID is the public id of an
// edit target and only applies to user messages.
type AppendMessageInput struct {
	UserID     string
	Role       Role
	Content    string
	MessageID  *string
	Regenerate bool
	IsInternal bool
}

type AppendMessageResult struct {
	Message      *Message      `json:"message"`
	Conversation *Conversation `json:"conversation"`
	Tree         *Tree         `json:"-"`
}

// TranscriptView is the resolved active branch of a conversation.
type TranscriptView struct {
	Conversation *Conversation
	Tree         *Tree
	Transcript   []*Node
	CurrentNode  *Node
	// PointerChanged is set when the settled pointer differs from the stored one.
	PointerChanged bool
}

type RewindResult struct {
	Conversation *Conversation
	Target       *Message
	DeletedCount int64
}

type ReconcileResult struct {
	DanglingCleared int
	Settled         int
	Failed          int
}

// NewConversation builds an unsaved conversation with a fresh public id.
func NewConversation(publicID string, input CreateConversationInput) *Conversation {
	now := time.Now().UTC()
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Conversation{
		PublicID:    publicID,
		Object:      "conversation",
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		IsImporting: input.IsImporting,
		FolderID:    input.FolderID,
		AgentID:     input.AgentID,
		ModelID:     input.ModelID,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

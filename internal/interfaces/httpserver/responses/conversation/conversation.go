package conversationresponses

import (
	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/utils/functional"
)

// ConversationResponse represents a conversation in API responses
type ConversationResponse struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	OwnerID     string         `json:"owner_id"`
	Name        string         `json:"name"`
	CurrentNode *string        `json:"current_node"`
	IsImporting bool           `json:"is_importing"`
	IsPinned    bool           `json:"is_pinned"`
	FolderID    *string        `json:"folder_id,omitempty"`
	AgentID     *string        `json:"agent_id,omitempty"`
	ModelID     *string        `json:"model_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
}

// ConversationListResponse represents a paginated list of conversations
type ConversationListResponse struct {
	Object  string                 `json:"object"`
	Data    []ConversationResponse `json:"data"`
	FirstID *string                `json:"first_id,omitempty"`
	LastID  *string                `json:"last_id,omitempty"`
	HasMore bool                   `json:"has_more"`
	Total   int64                  `json:"total"`
}

// MessageResponse is a single tree node. ParentID and ChildIDs carry public ids.
type MessageResponse struct {
	ID         string   `json:"id"`
	Object     string   `json:"object"`
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	AuthorID   *string  `json:"author_id,omitempty"`
	ParentID   *string  `json:"parent_id"`
	ChildIDs   []string `json:"child_ids"`
	IsInternal bool     `json:"is_internal"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
}

// TranscriptResponse is the resolved active branch, root first.
type TranscriptResponse struct {
	Object         string            `json:"object"`
	ConversationID string            `json:"conversation_id"`
	CurrentNode    *string           `json:"current_node"`
	Data           []MessageResponse `json:"data"`
}

// TreeResponse is the full node map of a conversation keyed by message id.
type TreeResponse struct {
	Object         string                     `json:"object"`
	ConversationID string                     `json:"conversation_id"`
	CurrentNode    *string                    `json:"current_node"`
	Roots          []string                   `json:"roots"`
	Mapping        map[string]MessageResponse `json:"mapping"`
}

// AppendMessageResponse is returned after a message is placed in the tree.
type AppendMessageResponse struct {
	Message     MessageResponse `json:"message"`
	CurrentNode *string         `json:"current_node,omitempty"`
}

// RewindResponse reports the rewind target and how many nodes were pruned.
type RewindResponse struct {
	Object       string  `json:"object"`
	Target       string  `json:"target"`
	CurrentNode  *string `json:"current_node"`
	DeletedCount int64   `json:"deleted_count"`
}

type ParticipantListResponse struct {
	Object string   `json:"object"`
	Data   []string `json:"data"`
}

type DeletedResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func NewConversationResponse(conv *conversation.Conversation, tree *conversation.Tree) ConversationResponse {
	resp := ConversationResponse{
		ID:          conv.PublicID,
		Object:      "conversation",
		OwnerID:     conv.OwnerID,
		Name:        conv.Name,
		IsImporting: conv.IsImporting,
		IsPinned:    conv.IsPinned,
		FolderID:    conv.FolderID,
		AgentID:     conv.AgentID,
		ModelID:     conv.ModelID,
		Metadata:    conv.Metadata,
		CreatedAt:   conv.CreatedAt.Unix(),
		UpdatedAt:   conv.UpdatedAt.Unix(),
	}
	if tree != nil {
		resp.CurrentNode = publicIDOrNil(tree, conv.CurrentNodeID)
	}
	return resp
}

func NewConversationListResponse(convs []*conversation.Conversation, hasMore bool, total int64) *ConversationListResponse {
	data := functional.Map(convs, func(conv *conversation.Conversation) ConversationResponse {
		return NewConversationResponse(conv, nil)
	})

	resp := &ConversationListResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
		Total:   total,
	}
	if len(data) > 0 {
		resp.FirstID = &data[0].ID
		resp.LastID = &data[len(data)-1].ID
	}
	return resp
}

// NewMessageResponse renders node with its tree links translated to public ids.
func NewMessageResponse(tree *conversation.Tree, node *conversation.Node) MessageResponse {
	childIDs := make([]string, 0, len(node.ChildIDs))
	for _, childID := range node.ChildIDs {
		id := childID
		childIDs = append(childIDs, tree.PublicIDOf(&id))
	}
	return MessageResponse{
		ID:         node.PublicID,
		Object:     "conversation.message",
		Role:       string(node.Role),
		Content:    node.Content,
		AuthorID:   node.AuthorID,
		ParentID:   publicIDOrNil(tree, node.ParentID),
		ChildIDs:   childIDs,
		IsInternal: node.IsInternal,
		CreatedAt:  node.CreatedAt.Unix(),
		UpdatedAt:  node.UpdatedAt.Unix(),
	}
}

// NewTranscriptResponse renders the active branch. Internal nodes are dropped
// unless includeInternal is set.
func NewTranscriptResponse(view *conversation.TranscriptView, includeInternal bool) *TranscriptResponse {
	data := make([]MessageResponse, 0, len(view.Transcript))
	for _, node := range view.Transcript {
		if node.IsInternal && !includeInternal {
			continue
		}
		data = append(data, NewMessageResponse(view.Tree, node))
	}
	return &TranscriptResponse{
		Object:         "list",
		ConversationID: view.Conversation.PublicID,
		CurrentNode:    currentNodeID(view),
		Data:           data,
	}
}

func NewTreeResponse(conv *conversation.Conversation, tree *conversation.Tree) *TreeResponse {
	mapping := make(map[string]MessageResponse, tree.Len())
	for _, node := range tree.Nodes() {
		mapping[node.PublicID] = NewMessageResponse(tree, node)
	}
	roots := functional.Map(tree.Roots(), func(node *conversation.Node) string {
		return node.PublicID
	})
	return &TreeResponse{
		Object:         "conversation.tree",
		ConversationID: conv.PublicID,
		CurrentNode:    publicIDOrNil(tree, conv.CurrentNodeID),
		Roots:          roots,
		Mapping:        mapping,
	}
}

func NewRewindResponse(result *conversation.RewindResult) *RewindResponse {
	target := result.Target.PublicID
	resp := &RewindResponse{
		Object:       "conversation.rewind",
		Target:       target,
		DeletedCount: result.DeletedCount,
	}
	if result.Conversation.CurrentNodeID != nil {
		resp.CurrentNode = &target
	}
	return resp
}

func currentNodeID(view *conversation.TranscriptView) *string {
	if view.CurrentNode == nil {
		return nil
	}
	id := view.CurrentNode.PublicID
	return &id
}

func publicIDOrNil(tree *conversation.Tree, id *uint) *string {
	if id == nil {
		return nil
	}
	publicID := tree.PublicIDOf(id)
	if publicID == "" {
		return nil
	}
	return &publicID
}

package conversation

import (
	"context"
	"strings"
	"time"

	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
	"jan-server/services/conversation-api/internal/utils/idgen"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

const pointerPersistTimeout = 5 * time.Second

// ConversationService owns every read and write of a conversation tree.
// Each call rebuilds the tree from the store; nothing is cached between calls.
type ConversationService struct {
	conversations ConversationRepository
	messages      MessageRepository
	participants  ParticipantRepository
	checker       ParticipantChecker
	validator     *ConversationValidator
}

func NewConversationService(
	conversations ConversationRepository,
	messages MessageRepository,
	participants ParticipantRepository,
	checker ParticipantChecker,
	validator *ConversationValidator,
) *ConversationService {
	if validator == nil {
		validator = NewConversationValidator(nil)
	}
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		participants:  participants,
		checker:       checker,
		validator:     validator,
	}
}

// ===============================================
// Conversation lifecycle
// ===============================================

// CreateConversation stores a new conversation and appends any initial
// messages in order, as if they had been sent one by one by the owner.
func (s *ConversationService) CreateConversation(ctx context.Context, input CreateConversationInput) (*Conversation, error) {
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "0c4f9575-6a3c-4f78-8b5d-e547a5b3a43a")
	}

	publicID, err := idgen.GenerateSecureID("conv", 16)
	if err != nil {
		return nil, platformerrors.AsErrorWithUUID(ctx, platformerrors.LayerDomain, err, "failed to generate conversation ID", "d1eacfcb-726d-49e8-9093-511c18066a91")
	}

	conv := NewConversation(publicID, input)
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}

	if len(input.Messages) == 0 {
		return conv, nil
	}

	tree, err := BuildTree(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, msg := range input.Messages {
		msg.UserID = input.OwnerID
		if _, err := s.appendToTree(ctx, conv, tree, msg); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// GetConversationByPublicID loads a conversation without any ownership check.
func (s *ConversationService) GetConversationByPublicID(ctx context.Context, publicID string) (*Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	return conv, nil
}

// GetConversationForUser loads a conversation visible to userID. A
// conversation the user neither owns nor participates in is reported as not found.
func (s *ConversationService) GetConversationForUser(ctx context.Context, publicID string, userID string) (*Conversation, error) {
	conv, err := s.GetConversationByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if conv.OwnerID == userID {
		return conv, nil
	}
	ok, err := s.participants.Exists(ctx, conv.ID, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check participant")
	}
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"conversation not found", nil, "829eb128-35fe-423b-b0a4-87686adda9d5")
	}
	return conv, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID string, filter ConversationFilter, pagination *query.Pagination) ([]*Conversation, int64, error) {
	filter.MemberID = &userID
	convs, err := s.conversations.FindByFilter(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	total, err := s.conversations.Count(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}
	return convs, total, nil
}

func (s *ConversationService) UpdateConversation(ctx context.Context, conv *Conversation, userID string, input UpdateConversationInput) (*Conversation, error) {
	if err := s.checker.CheckParticipant(ctx, conv, userID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(input); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "fc3b22ba-9f20-4f56-ab97-abb55f0355db")
	}

	if input.Name != nil {
		conv.Name = strings.TrimSpace(*input.Name)
	}
	if input.IsPinned != nil {
		conv.IsPinned = *input.IsPinned
	}
	if input.IsImporting != nil {
		conv.IsImporting = *input.IsImporting
	}
	if input.FolderID != nil {
		conv.FolderID = input.FolderID
	}
	if input.AgentID != nil {
		conv.AgentID = input.AgentID
	}
	if input.ModelID != nil {
		conv.ModelID = input.ModelID
	}
	if input.Metadata != nil {
		conv.Metadata = input.Metadata
	}
	conv.UpdatedAt = time.Now().UTC()

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}
	return conv, nil
}

// DeleteConversation removes the conversation and, by cascade, its messages.
func (s *ConversationService) DeleteConversation(ctx context.Context, conv *Conversation, userID string) error {
	if conv.OwnerID != userID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"only the owner can delete a conversation", nil, "ad180b7d-2d10-4456-86f0-5dbf718d36f5")
	}
	if err := s.conversations.Delete(ctx, conv.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// AddParticipant lets the owner grant another user write access.
func (s *ConversationService) AddParticipant(ctx context.Context, conv *Conversation, actorID string, userID string) error {
	if conv.OwnerID != actorID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"only the owner can add participants", nil, "0bf9fe20-2b43-417a-8aba-f55d7f3e47a9")
	}
	if strings.TrimSpace(userID) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"user_id is required", nil, "8e47796d-02c0-4745-a523-acb408f672cd")
	}
	if err := s.participants.Register(ctx, conv.ID, userID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to add participant")
	}
	return nil
}

func (s *ConversationService) ListParticipants(ctx context.Context, conv *Conversation) ([]string, error) {
	users, err := s.participants.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list participants")
	}
	return users, nil
}

// ===============================================
// Tree reads
// ===============================================

// GetTree rebuilds the full message tree of a conversation.
func (s *ConversationService) GetTree(ctx context.Context, conv *Conversation) (*Tree, error) {
	msgs, err := s.messages.FindByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	tree, err := BuildTree(ctx, msgs)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to build message tree")
	}
	return tree, nil
}

// ResolveTranscript resolves the active branch without writing anything. The
// view carries the settled pointer, which may differ from conv's.
func (s *ConversationService) ResolveTranscript(ctx context.Context, conv *Conversation) (*TranscriptView, error) {
	tree, err := s.GetTree(ctx, conv)
	if err != nil {
		return nil, err
	}
	return newTranscriptView(conv, tree, Resolve(tree, conv.CurrentNodeID)), nil
}

// GetTranscript resolves the active branch. When the stored pointer is not
// settled the corrected value is written in the background; the returned view
// already carries it.
func (s *ConversationService) GetTranscript(ctx context.Context, conv *Conversation) (*TranscriptView, error) {
	view, err := s.ResolveTranscript(ctx, conv)
	if err != nil {
		return nil, err
	}

	if view.PointerChanged {
		stale := *conv
		persistCtx := context.WithoutCancel(ctx)
		go func() {
			bgCtx, cancel := context.WithTimeout(persistCtx, pointerPersistTimeout)
			defer cancel()
			if _, err := s.SettlePointer(bgCtx, &stale); err != nil {
				log := logger.GetLogger()
				log.Warn().Err(err).Uint("conversation_id", stale.ID).Msg("failed to persist settled pointer")
			}
		}()
	}
	return view, nil
}

// SettlePointer re-resolves the conversation against the primary and stores
// the settled pointer when it differs from the stored one. It reports whether
// a write happened.
func (s *ConversationService) SettlePointer(ctx context.Context, conv *Conversation) (bool, error) {
	ctx = query.WithPrimary(ctx)
	tree, err := s.loadForWrite(ctx, conv)
	if err != nil {
		return false, err
	}
	resolution := Resolve(tree, conv.CurrentNodeID)
	if !resolution.Changed(conv.CurrentNodeID) {
		return false, nil
	}
	if err := s.PersistPointer(ctx, conv, resolution.SettledPointer); err != nil {
		return false, err
	}
	return true, nil
}

// loadForWrite re-reads the conversation row and its tree from the primary.
// conv may have been loaded from a read replica, so its pointer and the rows
// it names can lag behind the last committed write.
func (s *ConversationService) loadForWrite(ctx context.Context, conv *Conversation) (*Tree, error) {
	fresh, err := s.conversations.FindByID(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reload conversation")
	}
	*conv = *fresh
	return s.GetTree(ctx, conv)
}

// PersistPointer stores pointer as the conversation's current node.
func (s *ConversationService) PersistPointer(ctx context.Context, conv *Conversation, pointer *uint) error {
	if err := s.conversations.UpdateCurrentNode(ctx, conv.ID, pointer); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update current node")
	}
	conv.CurrentNodeID = copyID(pointer)
	return nil
}

// SwitchBranch moves the pointer to any node of the tree and settles it.
func (s *ConversationService) SwitchBranch(ctx context.Context, conv *Conversation, userID string, messagePublicID string) (*TranscriptView, error) {
	ctx = query.WithPrimary(ctx)
	if err := s.checker.CheckParticipant(ctx, conv, userID); err != nil {
		return nil, err
	}
	tree, err := s.loadForWrite(ctx, conv)
	if err != nil {
		return nil, err
	}
	node, ok := tree.NodeByPublicID(messagePublicID)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"message not found", nil, "cec69418-813d-4b66-b1b9-a84c17f3b468")
	}

	resolution := Resolve(tree, &node.ID)
	if err := s.PersistPointer(ctx, conv, resolution.SettledPointer); err != nil {
		return nil, err
	}
	return newTranscriptView(conv, tree, resolution), nil
}

// ===============================================
// Tree writes
// ===============================================

// AppendMessage places a new message in the tree and advances the pointer to
// it unless the message is internal.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *Conversation, input AppendMessageInput) (*AppendMessageResult, error) {
	ctx = query.WithPrimary(ctx)
	if err := s.checker.CheckParticipant(ctx, conv, input.UserID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAppend(input); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "6642780c-4cb1-49c3-beb1-e59ad3f659b3")
	}

	tree, err := s.loadForWrite(ctx, conv)
	if err != nil {
		return nil, err
	}
	msg, err := s.appendToTree(ctx, conv, tree, input)
	if err != nil {
		return nil, err
	}
	return &AppendMessageResult{Message: msg, Conversation: conv, Tree: tree}, nil
}

func (s *ConversationService) appendToTree(ctx context.Context, conv *Conversation, tree *Tree, input AppendMessageInput) (*Message, error) {
	var targetID *uint
	if input.MessageID != nil {
		target, ok := tree.NodeByPublicID(*input.MessageID)
		if !ok {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"edit target message not found", nil, "d59dd376-975b-442e-bfe4-6ad3f39ca003")
		}
		targetID = &target.ID
	}

	parentID, err := PlaceParent(ctx, tree, PlacementInput{
		Role:          input.Role,
		TargetID:      targetID,
		CurrentNodeID: conv.CurrentNodeID,
		Regenerate:    input.Regenerate,
	})
	if err != nil {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsErrorWithUUID(ctx, platformerrors.LayerDomain, err, "failed to generate message ID", "9304da18-e016-4ed2-8367-fb02707f2403")
	}

	now := time.Now().UTC()
	msg := &Message{
		PublicID:       publicID,
		ConversationID: conv.ID,
		Role:           input.Role,
		Content:        input.Content,
		ParentID:       parentID,
		IsInternal:     input.IsInternal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Role == RoleUser && input.UserID != "" {
		author := input.UserID
		msg.AuthorID = &author
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create message")
	}
	tree.Insert(msg)

	if !msg.IsInternal {
		resolution := Resolve(tree, &msg.ID)
		if err := s.PersistPointer(ctx, conv, resolution.SettledPointer); err != nil {
			return nil, err
		}
	}

	if input.UserID != "" {
		if err := s.participants.Register(ctx, conv.ID, input.UserID); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to register participant")
		}
	}
	return msg, nil
}

// EditMessageContent rewrites a message's content in place. The tree shape
// does not change; use AppendMessage with a target to fork instead.
func (s *ConversationService) EditMessageContent(ctx context.Context, conv *Conversation, userID string, messagePublicID string, content string) (*Message, error) {
	ctx = query.WithPrimary(ctx)
	if err := s.checker.CheckParticipant(ctx, conv, userID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateContent(content); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "06b1dc9c-1dd9-4da5-bbfd-32d97f55eaf3")
	}

	msg, err := s.messages.FindByPublicID(ctx, conv.ID, messagePublicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "message not found")
	}
	msg.Content = content
	msg.UpdatedAt = time.Now().UTC()
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update message")
	}
	return msg, nil
}

// Rewind deletes every descendant of the target, on all branches, and then
// points the conversation at the target. The two writes are not atomic;
// running Rewind again completes an interrupted one.
func (s *ConversationService) Rewind(ctx context.Context, conv *Conversation, userID string, messagePublicID string) (*RewindResult, error) {
	ctx = query.WithPrimary(ctx)
	if err := s.checker.CheckParticipant(ctx, conv, userID); err != nil {
		return nil, err
	}
	tree, err := s.loadForWrite(ctx, conv)
	if err != nil {
		return nil, err
	}
	target, ok := tree.NodeByPublicID(messagePublicID)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"rewind target message not found", nil, "c5cd3bc4-315a-4eac-b793-a5f8a84e5440")
	}

	descendants := CollectDescendants(tree, target.ID)
	var deleted int64
	if len(descendants) > 0 {
		deleted, err = s.messages.DeleteByIDs(ctx, conv.ID, descendants)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete descendants")
		}
	}

	targetID := target.ID
	if err := s.PersistPointer(ctx, conv, &targetID); err != nil {
		return nil, err
	}

	return &RewindResult{
		Conversation: conv,
		Target:       target.Message,
		DeletedCount: deleted,
	}, nil
}

// ===============================================
// Maintenance
// ===============================================

// ReconcilePointers clears pointers that name deleted messages and settles
// pointers that still have descendants below them.
func (s *ConversationService) ReconcilePointers(ctx context.Context, batchSize int) (ReconcileResult, error) {
	var result ReconcileResult
	log := logger.GetLogger()
	ctx = query.WithPrimary(ctx)

	dangling, err := s.conversations.FindDanglingPointers(ctx, batchSize)
	if err != nil {
		return result, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find dangling pointers")
	}
	for _, conv := range dangling {
		if err := s.PersistPointer(ctx, conv, nil); err != nil {
			result.Failed++
			log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("failed to clear dangling pointer")
			continue
		}
		result.DanglingCleared++
	}

	unsettled, err := s.conversations.FindUnsettledPointers(ctx, batchSize)
	if err != nil {
		return result, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find unsettled pointers")
	}
	for _, conv := range unsettled {
		changed, err := s.SettlePointer(ctx, conv)
		if err != nil {
			result.Failed++
			log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("failed to settle pointer")
			continue
		}
		if changed {
			result.Settled++
		}
	}
	return result, nil
}

func newTranscriptView(conv *Conversation, tree *Tree, resolution Resolution) *TranscriptView {
	snapshot := *conv
	snapshot.CurrentNodeID = copyID(resolution.SettledPointer)

	view := &TranscriptView{
		Conversation:   &snapshot,
		Tree:           tree,
		Transcript:     resolution.Transcript,
		PointerChanged: resolution.Changed(conv.CurrentNodeID),
	}
	if snapshot.CurrentNodeID != nil {
		if node, ok := tree.Node(*snapshot.CurrentNodeID); ok {
			view.CurrentNode = node
		}
	}
	return view
}

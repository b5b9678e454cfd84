package conversation_test

import (
	"context"
	"sort"
	"sync"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

type memoryStore struct {
	mu            sync.Mutex
	nextConvID    uint
	nextMsgID     uint
	conversations map[uint]*conversation.Conversation
	messages      map[uint]*conversation.Message
	participants  map[uint]map[string]struct{}
	pointerWrites int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		conversations: map[uint]*conversation.Conversation{},
		messages:      map[uint]*conversation.Message{},
		participants:  map[uint]map[string]struct{}{},
	}
}

func (s *memoryStore) pointerOf(convID uint) *uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[convID]
	if !ok || conv.CurrentNodeID == nil {
		return nil
	}
	v := *conv.CurrentNodeID
	return &v
}

func (s *memoryStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func notFound(ctx context.Context, what string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, what+" not found", nil, "")
}

// ---- conversations

type memoryConversationRepo struct{ s *memoryStore }

var _ conversation.ConversationRepository = (*memoryConversationRepo)(nil)

func (r *memoryConversationRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextConvID++
	conv.ID = r.s.nextConvID
	clone := *conv
	r.s.conversations[conv.ID] = &clone
	return nil
}

func (r *memoryConversationRepo) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[id]
	if !ok {
		return nil, notFound(ctx, "conversation")
	}
	clone := *conv
	return &clone, nil
}

func (r *memoryConversationRepo) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, conv := range r.s.conversations {
		if conv.PublicID == publicID {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, notFound(ctx, "conversation")
}

func (r *memoryConversationRepo) FindByFilter(_ context.Context, filter conversation.ConversationFilter, _ *query.Pagination) ([]*conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*conversation.Conversation
	for _, conv := range r.s.conversations {
		if filter.MemberID != nil {
			_, member := r.s.participants[conv.ID][*filter.MemberID]
			if conv.OwnerID != *filter.MemberID && !member {
				continue
			}
		}
		clone := *conv
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryConversationRepo) Count(ctx context.Context, filter conversation.ConversationFilter) (int64, error) {
	convs, err := r.FindByFilter(ctx, filter, nil)
	return int64(len(convs)), err
}

func (r *memoryConversationRepo) Update(ctx context.Context, conv *conversation.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conversations[conv.ID]; !ok {
		return notFound(ctx, "conversation")
	}
	clone := *conv
	r.s.conversations[conv.ID] = &clone
	return nil
}

func (r *memoryConversationRepo) UpdateCurrentNode(ctx context.Context, id uint, currentNodeID *uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[id]
	if !ok {
		return notFound(ctx, "conversation")
	}
	if currentNodeID == nil {
		conv.CurrentNodeID = nil
	} else {
		v := *currentNodeID
		conv.CurrentNodeID = &v
	}
	r.s.pointerWrites++
	return nil
}

func (r *memoryConversationRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.conversations, id)
	delete(r.s.participants, id)
	for msgID, msg := range r.s.messages {
		if msg.ConversationID == id {
			delete(r.s.messages, msgID)
		}
	}
	return nil
}

func (r *memoryConversationRepo) FindDanglingPointers(_ context.Context, limit int) ([]*conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*conversation.Conversation
	for _, conv := range r.s.conversations {
		if conv.CurrentNodeID == nil {
			continue
		}
		if _, ok := r.s.messages[*conv.CurrentNodeID]; ok {
			continue
		}
		clone := *conv
		out = append(out, &clone)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryConversationRepo) FindUnsettledPointers(_ context.Context, limit int) ([]*conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*conversation.Conversation
	for _, conv := range r.s.conversations {
		if conv.CurrentNodeID == nil {
			continue
		}
		hasChild := false
		for _, msg := range r.s.messages {
			if msg.ParentID != nil && *msg.ParentID == *conv.CurrentNodeID {
				hasChild = true
				break
			}
		}
		if !hasChild {
			continue
		}
		clone := *conv
		out = append(out, &clone)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---- messages

type memoryMessageRepo struct{ s *memoryStore }

var _ conversation.MessageRepository = (*memoryMessageRepo)(nil)

func (r *memoryMessageRepo) Create(_ context.Context, msg *conversation.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMsgID++
	msg.ID = r.s.nextMsgID
	clone := *msg
	r.s.messages[msg.ID] = &clone
	return nil
}

func (r *memoryMessageRepo) FindByConversationID(_ context.Context, conversationID uint) ([]*conversation.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*conversation.Message
	for _, msg := range r.s.messages {
		if msg.ConversationID == conversationID {
			clone := *msg
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryMessageRepo) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*conversation.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, msg := range r.s.messages {
		if msg.ConversationID == conversationID && msg.PublicID == publicID {
			clone := *msg
			return &clone, nil
		}
	}
	return nil, notFound(ctx, "message")
}

func (r *memoryMessageRepo) Update(ctx context.Context, msg *conversation.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[msg.ID]; !ok {
		return notFound(ctx, "message")
	}
	clone := *msg
	r.s.messages[msg.ID] = &clone
	return nil
}

func (r *memoryMessageRepo) DeleteByIDs(_ context.Context, conversationID uint, ids []uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if msg, ok := r.s.messages[id]; ok && msg.ConversationID == conversationID {
			delete(r.s.messages, id)
			n++
		}
	}
	return n, nil
}

// laggingMessageRepo serves reads from a replica that only sees messages up
// to the last catchUp, unless ctx is pinned to the primary.
type laggingMessageRepo struct {
	memoryMessageRepo
	mu           sync.Mutex
	caughtUp     uint
	replicaReads int
}

func (r *laggingMessageRepo) catchUp() {
	r.s.mu.Lock()
	last := r.s.nextMsgID
	r.s.mu.Unlock()
	r.mu.Lock()
	r.caughtUp = last
	r.mu.Unlock()
}

func (r *laggingMessageRepo) replicaReadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replicaReads
}

// visible reports whether a read of id on ctx can see the row.
func (r *laggingMessageRepo) visible(ctx context.Context, id uint) bool {
	if query.ReadsPrimary(ctx) {
		return true
	}
	return id <= r.caughtUp
}

func (r *laggingMessageRepo) FindByConversationID(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	all, err := r.memoryMessageRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !query.ReadsPrimary(ctx) {
		r.replicaReads++
	}
	out := all[:0]
	for _, msg := range all {
		if r.visible(ctx, msg.ID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *laggingMessageRepo) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*conversation.Message, error) {
	msg, err := r.memoryMessageRepo.FindByPublicID(ctx, conversationID, publicID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !query.ReadsPrimary(ctx) {
		r.replicaReads++
	}
	if !r.visible(ctx, msg.ID) {
		return nil, notFound(ctx, "message")
	}
	return msg, nil
}

// ---- participants

type memoryParticipantRepo struct{ s *memoryStore }

var _ conversation.ParticipantRepository = (*memoryParticipantRepo)(nil)

func (r *memoryParticipantRepo) Register(_ context.Context, conversationID uint, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.participants[conversationID] == nil {
		r.s.participants[conversationID] = map[string]struct{}{}
	}
	r.s.participants[conversationID][userID] = struct{}{}
	return nil
}

func (r *memoryParticipantRepo) Exists(_ context.Context, conversationID uint, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.participants[conversationID][userID]
	return ok, nil
}

func (r *memoryParticipantRepo) ListByConversation(_ context.Context, conversationID uint) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for userID := range r.s.participants[conversationID] {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out, nil
}

func newTestService() (*conversation.ConversationService, *memoryStore) {
	store := newMemoryStore()
	svc := newServiceWithMessages(store, &memoryMessageRepo{s: store})
	return svc, store
}

func newServiceWithMessages(store *memoryStore, messages conversation.MessageRepository) *conversation.ConversationService {
	participants := &memoryParticipantRepo{s: store}
	return conversation.NewConversationService(
		&memoryConversationRepo{s: store},
		messages,
		participants,
		conversation.NewParticipantGuard(participants),
		nil,
	)
}

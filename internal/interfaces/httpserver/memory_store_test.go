package httpserver_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/domain/query"
	"jan-server/services/conversation-api/internal/domain/share"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// memoryStore backs every repository interface with maps guarded by one mutex.
type memoryStore struct {
	mu            sync.Mutex
	conversations map[uint]*conversation.Conversation
	messages      map[uint]*conversation.Message
	participants  map[uint]map[string]struct{}
	shares        map[uint]*share.SharedConversation
	nextID        uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		conversations: map[uint]*conversation.Conversation{},
		messages:      map[uint]*conversation.Message{},
		participants:  map[uint]map[string]struct{}{},
		shares:        map[uint]*share.SharedConversation{},
	}
}

func (s *memoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func notFound(ctx context.Context, what string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, what+" not found", nil, "")
}

type conversationRepo struct{ *memoryStore }

func (r conversationRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = r.id()
	clone := *conv
	r.conversations[conv.ID] = &clone
	return nil
}

func (r conversationRepo) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.conversations[id]; ok {
		clone := *conv
		return &clone, nil
	}
	return nil, notFound(ctx, "conversation")
}

func (r conversationRepo) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.conversations {
		if conv.PublicID == publicID {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, notFound(ctx, "conversation")
}

func (r conversationRepo) FindByFilter(_ context.Context, filter conversation.ConversationFilter, pagination *query.Pagination) ([]*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*conversation.Conversation
	for _, conv := range r.conversations {
		if filter.MemberID != nil {
			_, member := r.participants[conv.ID][*filter.MemberID]
			if conv.OwnerID != *filter.MemberID && !member {
				continue
			}
		}
		if filter.NameContain != nil && !strings.Contains(strings.ToLower(conv.Name), strings.ToLower(*filter.NameContain)) {
			continue
		}
		clone := *conv
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if pagination != nil && len(out) > pagination.EffectiveLimit() {
		out = out[:pagination.EffectiveLimit()]
	}
	return out, nil
}

func (r conversationRepo) Count(ctx context.Context, filter conversation.ConversationFilter) (int64, error) {
	convs, err := r.FindByFilter(ctx, filter, nil)
	return int64(len(convs)), err
}

func (r conversationRepo) Update(ctx context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[conv.ID]; !ok {
		return notFound(ctx, "conversation")
	}
	clone := *conv
	r.conversations[conv.ID] = &clone
	return nil
}

func (r conversationRepo) UpdateCurrentNode(ctx context.Context, id uint, currentNodeID *uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return notFound(ctx, "conversation")
	}
	conv.CurrentNodeID = nil
	if currentNodeID != nil {
		v := *currentNodeID
		conv.CurrentNodeID = &v
	}
	return nil
}

func (r conversationRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
	delete(r.participants, id)
	for msgID, msg := range r.messages {
		if msg.ConversationID == id {
			delete(r.messages, msgID)
		}
	}
	return nil
}

func (r conversationRepo) FindDanglingPointers(context.Context, int) ([]*conversation.Conversation, error) {
	return nil, nil
}

func (r conversationRepo) FindUnsettledPointers(context.Context, int) ([]*conversation.Conversation, error) {
	return nil, nil
}

type messageRepo struct{ *memoryStore }

func (r messageRepo) Create(_ context.Context, msg *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = r.id()
	clone := *msg
	r.messages[msg.ID] = &clone
	return nil
}

func (r messageRepo) FindByConversationID(_ context.Context, conversationID uint) ([]*conversation.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*conversation.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			clone := *msg
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r messageRepo) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*conversation.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.PublicID == publicID {
			clone := *msg
			return &clone, nil
		}
	}
	return nil, notFound(ctx, "message")
}

func (r messageRepo) Update(ctx context.Context, msg *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[msg.ID]; !ok {
		return notFound(ctx, "message")
	}
	clone := *msg
	r.messages[msg.ID] = &clone
	return nil
}

func (r messageRepo) DeleteByIDs(_ context.Context, conversationID uint, ids []uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if msg, ok := r.messages[id]; ok && msg.ConversationID == conversationID {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

type participantRepo struct{ *memoryStore }

func (r participantRepo) Register(_ context.Context, conversationID uint, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.participants[conversationID] == nil {
		r.participants[conversationID] = map[string]struct{}{}
	}
	r.participants[conversationID][userID] = struct{}{}
	return nil
}

func (r participantRepo) Exists(_ context.Context, conversationID uint, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[conversationID][userID]
	return ok, nil
}

func (r participantRepo) ListByConversation(_ context.Context, conversationID uint) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for userID := range r.participants[conversationID] {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out, nil
}

type shareRepo struct{ *memoryStore }

func (r shareRepo) Create(ctx context.Context, s *share.SharedConversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shares {
		if existing.ConversationID == s.ConversationID && existing.IsActive() {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "active share exists", nil, "")
		}
	}
	s.ID = r.id()
	clone := *s
	r.shares[s.ID] = &clone
	return nil
}

func (r shareRepo) FindByFilter(_ context.Context, filter share.ShareFilter, _ *query.Pagination) ([]*share.SharedConversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*share.SharedConversation
	for _, s := range r.shares {
		if filter.ConversationID != nil && s.ConversationID != *filter.ConversationID {
			continue
		}
		if !filter.IncludeRevoked && s.IsRevoked() {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r shareRepo) find(ctx context.Context, match func(*share.SharedConversation) bool) (*share.SharedConversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shares {
		if match(s) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, notFound(ctx, "share")
}

func (r shareRepo) FindByPublicID(ctx context.Context, publicID string) (*share.SharedConversation, error) {
	return r.find(ctx, func(s *share.SharedConversation) bool { return s.PublicID == publicID })
}

func (r shareRepo) FindBySlug(ctx context.Context, slug string) (*share.SharedConversation, error) {
	return r.find(ctx, func(s *share.SharedConversation) bool { return s.Slug == slug })
}

func (r shareRepo) FindActiveByConversationID(ctx context.Context, conversationID uint) (*share.SharedConversation, error) {
	s, err := r.find(ctx, func(s *share.SharedConversation) bool {
		return s.ConversationID == conversationID && s.IsActive()
	})
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, nil
	}
	return s, err
}

func (r shareRepo) IncrementViewCount(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shares[id]; ok {
		s.ViewCount++
	}
	return nil
}

func (r shareRepo) Revoke(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shares[id]; ok {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

func (r shareRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, slug)
	return err == nil, nil
}

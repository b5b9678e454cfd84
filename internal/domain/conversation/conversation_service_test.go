package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

const owner = "user-owner"

func strPtr(s string) *string {
	return &s
}

func appendMsg(t *testing.T, svc *conversation.ConversationService, conv *conversation.Conversation, input conversation.AppendMessageInput) *conversation.Message {
	t.Helper()
	if input.UserID == "" {
		input.UserID = owner
	}
	if input.Content == "" {
		input.Content = string(input.Role) + " message"
	}
	res, err := svc.AppendMessage(context.Background(), conv, input)
	require.NoError(t, err)
	return res.Message
}

func transcriptIDs(view *conversation.TranscriptView) []string {
	out := make([]string, 0, len(view.Transcript))
	for _, n := range view.Transcript {
		out = append(out, n.PublicID)
	}
	return out
}

func newConversation(t *testing.T, svc *conversation.ConversationService) *conversation.Conversation {
	t.Helper()
	conv, err := svc.CreateConversation(context.Background(), conversation.CreateConversationInput{OwnerID: owner, Name: "test"})
	require.NoError(t, err)
	return conv
}

func TestAppendMessageLinearFlow(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	assert.Nil(t, u1.ParentID)
	require.NotNil(t, u1.AuthorID)
	assert.Equal(t, owner, *u1.AuthorID)

	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	require.NotNil(t, a1.ParentID)
	assert.Equal(t, u1.ID, *a1.ParentID)
	assert.Nil(t, a1.AuthorID)

	assert.Equal(t, a1.ID, *conv.CurrentNodeID)
	assert.Equal(t, a1.ID, *store.pointerOf(conv.ID))
}

func TestAppendMessageEditBranches(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})

	edited := appendMsg(t, svc, conv, conversation.AppendMessageInput{
		Role:      conversation.RoleUser,
		MessageID: strPtr(a1.PublicID),
		Content:   "edited",
	})
	require.NotNil(t, edited.ParentID)
	assert.Equal(t, u1.ID, *edited.ParentID, "edit must become a sibling of the target")
	assert.Equal(t, edited.ID, *conv.CurrentNodeID)

	tree, err := svc.GetTree(context.Background(), conv)
	require.NoError(t, err)
	root, _ := tree.Node(u1.ID)
	assert.Equal(t, []uint{a1.ID, edited.ID}, root.ChildIDs, "original branch is preserved")

	rootEdit := appendMsg(t, svc, conv, conversation.AppendMessageInput{
		Role:      conversation.RoleUser,
		MessageID: strPtr(u1.PublicID),
	})
	assert.Nil(t, rootEdit.ParentID, "editing a root starts a new root")
}

func TestAppendMessageRegenerateAndContinue(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})

	regen := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant, Regenerate: true})
	require.NotNil(t, regen.ParentID)
	assert.Equal(t, u1.ID, *regen.ParentID)

	tree, err := svc.GetTree(context.Background(), conv)
	require.NoError(t, err)
	root, _ := tree.Node(u1.ID)
	assert.Equal(t, []uint{a1.ID, regen.ID}, root.ChildIDs)

	cont := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	require.NotNil(t, cont.ParentID)
	assert.Equal(t, regen.ID, *cont.ParentID)
}

func TestAppendInternalMessageKeepsPointer(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)

	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	summary := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant, IsInternal: true})

	assert.Equal(t, a1.ID, *summary.ParentID)
	assert.Equal(t, a1.ID, *store.pointerOf(conv.ID))
}

func TestAppendMessageUnknownTarget(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	_, err := svc.AppendMessage(context.Background(), conv, conversation.AppendMessageInput{
		UserID:    owner,
		Role:      conversation.RoleUser,
		Content:   "edit",
		MessageID: strPtr("msg_missing"),
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestAppendMessageValidation(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)

	tests := []struct {
		name  string
		input conversation.AppendMessageInput
	}{
		{name: "empty content", input: conversation.AppendMessageInput{UserID: owner, Role: conversation.RoleUser, Content: "  "}},
		{name: "bad role", input: conversation.AppendMessageInput{UserID: owner, Role: "tool", Content: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AppendMessage(context.Background(), conv, tt.input)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestAppendMessageIgnoresFlagsOfTheOtherRole(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	// message_id only applies to user edits
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant, MessageID: strPtr(u1.PublicID)})
	require.NotNil(t, a1.ParentID)
	assert.Equal(t, u1.ID, *a1.ParentID)

	// regenerate only applies to assistant messages
	u2 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser, Regenerate: true})
	require.NotNil(t, u2.ParentID)
	assert.Equal(t, a1.ID, *u2.ParentID)
	require.NotNil(t, conv.CurrentNodeID)
	assert.Equal(t, u2.ID, *conv.CurrentNodeID)
}

func TestParticipantHook(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	_, err := svc.AppendMessage(ctx, conv, conversation.AppendMessageInput{UserID: "stranger", Role: conversation.RoleUser, Content: "hi"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))

	_, err = svc.GetConversationForUser(ctx, conv.PublicID, "stranger")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = svc.AddParticipant(ctx, conv, "stranger", "someone")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))

	require.NoError(t, svc.AddParticipant(ctx, conv, owner, "friend"))
	_, err = svc.AppendMessage(ctx, conv, conversation.AppendMessageInput{UserID: "friend", Role: conversation.RoleUser, Content: "hi"})
	require.NoError(t, err)

	got, err := svc.GetConversationForUser(ctx, conv.PublicID, "friend")
	require.NoError(t, err)
	assert.Equal(t, conv.PublicID, got.PublicID)
}

func TestAuthorRegisteredOnFirstContribution(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	users, err := svc.ListParticipants(ctx, conv)
	require.NoError(t, err)
	assert.Empty(t, users)

	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	users, err = svc.ListParticipants(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, []string{owner}, users)
}

func TestGetTranscriptSettlesPointerInBackground(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	u2 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a2 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})

	require.NoError(t, svc.PersistPointer(ctx, conv, &u1.ID))

	view, err := svc.GetTranscript(ctx, conv)
	require.NoError(t, err)
	assert.Len(t, view.Transcript, 4)
	assert.Equal(t, u2.PublicID, view.Transcript[2].PublicID)
	require.NotNil(t, view.CurrentNode)
	assert.Equal(t, a2.ID, view.CurrentNode.ID)
	assert.Equal(t, a2.ID, *view.Conversation.CurrentNodeID)

	assert.Eventually(t, func() bool {
		p := store.pointerOf(conv.ID)
		return p != nil && *p == a2.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetTranscriptEmptyAndDangling(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)

	view, err := svc.GetTranscript(context.Background(), conv)
	require.NoError(t, err)
	assert.Empty(t, view.Transcript)
	assert.Nil(t, view.CurrentNode)

	dangling := uint(4242)
	conv.CurrentNodeID = &dangling
	view, err = svc.GetTranscript(context.Background(), conv)
	require.NoError(t, err)
	assert.Empty(t, view.Transcript)
}

func TestResolveTranscriptDoesNotPersist(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	require.NoError(t, svc.PersistPointer(ctx, conv, &u1.ID))

	store.mu.Lock()
	writes := store.pointerWrites
	store.mu.Unlock()

	view, err := svc.ResolveTranscript(ctx, conv)
	require.NoError(t, err)
	assert.True(t, view.PointerChanged)
	assert.Equal(t, a1.ID, *view.Conversation.CurrentNodeID)
	assert.Equal(t, u1.ID, *conv.CurrentNodeID)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, writes, store.pointerWrites)
	assert.Equal(t, u1.ID, *store.conversations[conv.ID].CurrentNodeID)
}

func TestSwitchBranch(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	regen := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant, Regenerate: true})
	follow := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	view, err := svc.SwitchBranch(ctx, conv, owner, a1.PublicID)
	require.NoError(t, err)
	assert.Equal(t, a1.ID, *store.pointerOf(conv.ID))
	assert.Len(t, view.Transcript, 2)

	view, err = svc.SwitchBranch(ctx, conv, owner, regen.PublicID)
	require.NoError(t, err)
	assert.Equal(t, follow.ID, *store.pointerOf(conv.ID), "pointer settles to the branch leaf")
	assert.Equal(t, follow.PublicID, view.CurrentNode.PublicID)

	_, err = svc.SwitchBranch(ctx, conv, owner, "msg_nope")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestRewind(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()

	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	u2 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	// sibling branch U2b under A1
	u2b := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser, MessageID: strPtr(u2.PublicID)})
	require.Equal(t, a1.ID, *u2b.ParentID)
	require.Equal(t, 5, store.messageCount())

	res, err := svc.Rewind(ctx, conv, owner, a1.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.DeletedCount)
	assert.Equal(t, a1.ID, *store.pointerOf(conv.ID))

	tree, err := svc.GetTree(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	_, ok := tree.Node(u1.ID)
	assert.True(t, ok)
	_, ok = tree.Node(a1.ID)
	assert.True(t, ok)

	again, err := svc.Rewind(ctx, conv, owner, a1.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.DeletedCount)
	assert.Equal(t, 2, store.messageCount())
}

func TestRewindErrors(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	_, err := svc.Rewind(ctx, conv, owner, "msg_missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	_, err = svc.Rewind(ctx, conv, "stranger", "msg_missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))

	gone := *conv
	gone.ID = 999
	_, err = svc.Rewind(ctx, &gone, owner, "msg_missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestCreateConversationWithInitialMessages(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, conversation.CreateConversationInput{
		OwnerID:     owner,
		Name:        "imported",
		IsImporting: true,
		Messages: []conversation.AppendMessageInput{
			{Role: conversation.RoleUser, Content: "q1"},
			{Role: conversation.RoleAssistant, Content: "a1"},
			{Role: conversation.RoleUser, Content: "q2"},
			{Role: conversation.RoleAssistant, Content: "a2"},
		},
	})
	require.NoError(t, err)

	view, err := svc.GetTranscript(ctx, conv)
	require.NoError(t, err)
	contents := make([]string, 0, len(view.Transcript))
	for _, n := range view.Transcript {
		contents = append(contents, n.Content)
	}
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, contents)
}

func TestEditMessageContent(t *testing.T) {
	svc, _ := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()
	u1 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	msg, err := svc.EditMessageContent(ctx, conv, owner, u1.PublicID, "rewritten")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", msg.Content)

	_, err = svc.EditMessageContent(ctx, conv, owner, "msg_missing", "x")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestUpdateAndDeleteConversation(t *testing.T) {
	svc, store := newTestService()
	conv := newConversation(t, svc)
	ctx := context.Background()
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	pinned := true
	updated, err := svc.UpdateConversation(ctx, conv, owner, conversation.UpdateConversationInput{
		Name:     strPtr("  renamed "),
		IsPinned: &pinned,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.IsPinned)

	convs, total, err := svc.ListConversations(ctx, owner, conversation.ConversationFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, convs, 1)

	err = svc.DeleteConversation(ctx, conv, "friend")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))

	require.NoError(t, svc.DeleteConversation(ctx, conv, owner))
	assert.Equal(t, 0, store.messageCount())
	_, err = svc.GetConversationByPublicID(ctx, conv.PublicID)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestReconcilePointers(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	dangling := newConversation(t, svc)
	appendMsg(t, svc, dangling, conversation.AppendMessageInput{Role: conversation.RoleUser})
	missing := uint(777)
	require.NoError(t, svc.PersistPointer(ctx, dangling, &missing))

	unsettled := newConversation(t, svc)
	u1 := appendMsg(t, svc, unsettled, conversation.AppendMessageInput{Role: conversation.RoleUser})
	a1 := appendMsg(t, svc, unsettled, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	require.NoError(t, svc.PersistPointer(ctx, unsettled, &u1.ID))

	res, err := svc.ReconcilePointers(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DanglingCleared)
	assert.Equal(t, 1, res.Settled)
	assert.Zero(t, res.Failed)

	assert.Nil(t, store.pointerOf(dangling.ID))
	assert.Equal(t, a1.ID, *store.pointerOf(unsettled.ID))
}

func TestMutationsReadThroughPrimary(t *testing.T) {
	store := newMemoryStore()
	messages := &laggingMessageRepo{memoryMessageRepo: memoryMessageRepo{s: store}}
	svc := newServiceWithMessages(store, messages)
	ctx := context.Background()
	conv := newConversation(t, svc)

	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})
	appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	messages.catchUp()

	// loaded before the next write landed on the replica
	staleConv := *conv
	u2 := appendMsg(t, svc, conv, conversation.AppendMessageInput{Role: conversation.RoleUser})

	tree, err := svc.GetTree(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	replicaReads := messages.replicaReadCount()
	require.Positive(t, replicaReads)

	a2 := appendMsg(t, svc, &staleConv, conversation.AppendMessageInput{Role: conversation.RoleAssistant})
	require.NotNil(t, a2.ParentID)
	assert.Equal(t, u2.ID, *a2.ParentID)
	assert.Equal(t, a2.ID, *store.pointerOf(conv.ID))

	staleConv = *conv
	view, err := svc.SwitchBranch(ctx, &staleConv, owner, a2.PublicID)
	require.NoError(t, err)
	assert.Len(t, view.Transcript, 4)

	_, err = svc.EditMessageContent(ctx, &staleConv, owner, a2.PublicID, "edited")
	require.NoError(t, err)

	res, err := svc.Rewind(ctx, &staleConv, owner, u2.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)
	assert.Equal(t, u2.ID, *store.pointerOf(conv.ID))

	assert.Equal(t, replicaReads, messages.replicaReadCount())
}

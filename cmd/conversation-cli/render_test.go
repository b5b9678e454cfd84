package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"jan-server/services/conversation-api/internal/domain/conversation"
)

func buildFixture(t *testing.T) (*conversation.Conversation, *conversation.Tree) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	id := func(v uint) *uint { return &v }
	msgs := []*conversation.Message{
		{ID: 1, PublicID: "msg_u1", Role: conversation.RoleUser, Content: "U1", CreatedAt: base},
		{ID: 2, PublicID: "msg_a1", Role: conversation.RoleAssistant, Content: "A1", ParentID: id(1), CreatedAt: base.Add(time.Second)},
		{ID: 3, PublicID: "msg_sum", Role: conversation.RoleAssistant, Content: "summary", ParentID: id(2), IsInternal: true, CreatedAt: base.Add(2 * time.Second)},
		{ID: 4, PublicID: "msg_u2b", Role: conversation.RoleUser, Content: "U2b", ParentID: id(2), CreatedAt: base.Add(3 * time.Second)},
	}
	tree, err := conversation.BuildTree(context.Background(), msgs)
	require.NoError(t, err)
	conv := &conversation.Conversation{ID: 7, PublicID: "conv_x", CurrentNodeID: id(3)}
	return conv, tree
}

func TestNewTreeDoc(t *testing.T) {
	conv, tree := buildFixture(t)

	doc := newTreeDoc(conv, tree)
	assert.Equal(t, "conv_x", doc.Conversation)
	assert.Equal(t, "msg_sum", doc.CurrentNode)
	assert.Equal(t, []string{"msg_u1"}, doc.Roots)
	require.Len(t, doc.Nodes, 4)
	assert.Equal(t, []string{"msg_sum", "msg_u2b"}, doc.Nodes[1].Children)
	assert.Equal(t, "msg_a1", doc.Nodes[3].Parent)
	assert.Empty(t, doc.Nodes[0].Parent)
}

func TestNewTranscriptDocHidesInternal(t *testing.T) {
	conv, tree := buildFixture(t)
	resolution := conversation.Resolve(tree, conv.CurrentNodeID)
	view := &conversation.TranscriptView{Conversation: conv, Tree: tree, Transcript: resolution.Transcript}

	doc := newTranscriptDoc(view, false)
	ids := make([]string, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		ids = append(ids, m.ID)
		assert.Nil(t, m.Children)
	}
	assert.Equal(t, []string{"msg_u1", "msg_a1"}, ids)

	doc = newTranscriptDoc(view, true)
	assert.Len(t, doc.Messages, 3)
}

func TestWriteOutput(t *testing.T) {
	conv, tree := buildFixture(t)
	doc := newTreeDoc(conv, tree)

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", doc))
	var fromJSON treeDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, doc.Roots, fromJSON.Roots)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "YAML", doc))
	var fromYAML treeDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Len(t, fromYAML.Nodes, 4)
	assert.Contains(t, buf.String(), "current_node: msg_sum")

	assert.Error(t, writeOutput(&buf, "xml", doc))
}

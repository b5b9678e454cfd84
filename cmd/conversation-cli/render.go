package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jan-server/services/conversation-api/internal/domain/conversation"
)

type messageDoc struct {
	ID         string   `json:"id" yaml:"id"`
	Role       string   `json:"role" yaml:"role"`
	Content    string   `json:"content" yaml:"content"`
	Parent     string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children   []string `json:"children,omitempty" yaml:"children,omitempty"`
	IsInternal bool     `json:"is_internal,omitempty" yaml:"is_internal,omitempty"`
	CreatedAt  string   `json:"created_at" yaml:"created_at"`
}

type transcriptDoc struct {
	Conversation string       `json:"conversation" yaml:"conversation"`
	CurrentNode  string       `json:"current_node,omitempty" yaml:"current_node,omitempty"`
	Messages     []messageDoc `json:"messages" yaml:"messages"`
}

type treeDoc struct {
	Conversation string       `json:"conversation" yaml:"conversation"`
	CurrentNode  string       `json:"current_node,omitempty" yaml:"current_node,omitempty"`
	Roots        []string     `json:"roots" yaml:"roots"`
	Nodes        []messageDoc `json:"nodes" yaml:"nodes"`
}

func newMessageDoc(tree *conversation.Tree, node *conversation.Node) messageDoc {
	doc := messageDoc{
		ID:         node.PublicID,
		Role:       string(node.Role),
		Content:    node.Content,
		Parent:     tree.PublicIDOf(node.ParentID),
		IsInternal: node.IsInternal,
		CreatedAt:  node.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, childID := range node.ChildIDs {
		id := childID
		doc.Children = append(doc.Children, tree.PublicIDOf(&id))
	}
	return doc
}

func newTranscriptDoc(view *conversation.TranscriptView, includeInternal bool) transcriptDoc {
	doc := transcriptDoc{
		Conversation: view.Conversation.PublicID,
		CurrentNode:  view.Tree.PublicIDOf(view.Conversation.CurrentNodeID),
		Messages:     make([]messageDoc, 0, len(view.Transcript)),
	}
	for _, node := range view.Transcript {
		if node.IsInternal && !includeInternal {
			continue
		}
		msg := newMessageDoc(view.Tree, node)
		msg.Children = nil
		doc.Messages = append(doc.Messages, msg)
	}
	return doc
}

func newTreeDoc(conv *conversation.Conversation, tree *conversation.Tree) treeDoc {
	doc := treeDoc{
		Conversation: conv.PublicID,
		CurrentNode:  tree.PublicIDOf(conv.CurrentNodeID),
		Roots:        []string{},
		Nodes:        make([]messageDoc, 0, tree.Len()),
	}
	for _, root := range tree.Roots() {
		doc.Roots = append(doc.Roots, root.PublicID)
	}
	for _, node := range tree.Nodes() {
		doc.Nodes = append(doc.Nodes, newMessageDoc(tree, node))
	}
	return doc
}

func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q (want yaml or json)", format)
	}
}

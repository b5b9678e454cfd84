package conversation

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// Node is a message annotated with its children in creation order.
type Node struct {
	*Message
	ChildIDs []uint
}

// FirstChild returns the canonical continuation of the branch through n.
func (n *Node) FirstChild() (uint, bool) {
	if len(n.ChildIDs) == 0 {
		return 0, false
	}
	return n.ChildIDs[0], true
}

// Tree is an arena of message nodes keyed by id. Nodes reference each other
// only through ids.
type Tree struct {
	nodes    map[uint]*Node
	byPublic map[string]uint
	order    []uint
}

// BuildTree indexes messages of a single conversation. Children keep the
// creation order of the input so the first child is the earliest created one.
// A parent id missing from the input, or a parent cycle, fails the build.
func BuildTree(ctx context.Context, messages []*Message) (*Tree, error) {
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b *Message) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	tree := &Tree{
		nodes:    make(map[uint]*Node, len(sorted)),
		byPublic: make(map[string]uint, len(sorted)),
		order:    make([]uint, 0, len(sorted)),
	}
	for _, msg := range sorted {
		if _, dup := tree.nodes[msg.ID]; dup {
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDataIntegrity,
				"duplicate message id in conversation", nil, "e8ea79ec-94ac-4359-be9b-f18e09b3fd51",
				map[string]any{"message_id": msg.ID, "conversation_id": msg.ConversationID})
		}
		tree.nodes[msg.ID] = &Node{Message: msg}
		tree.byPublic[msg.PublicID] = msg.ID
		tree.order = append(tree.order, msg.ID)
	}

	for _, id := range tree.order {
		node := tree.nodes[id]
		if node.ParentID == nil {
			continue
		}
		parent, ok := tree.nodes[*node.ParentID]
		if !ok {
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDataIntegrity,
				fmt.Sprintf("message %s references a parent outside its conversation", node.PublicID), nil, "9a69656a-e9fc-4987-951e-7e7a17087cbc",
				map[string]any{"message_id": node.ID, "parent_id": *node.ParentID, "conversation_id": node.ConversationID})
		}
		parent.ChildIDs = append(parent.ChildIDs, id)
	}

	if err := tree.checkAcyclic(ctx); err != nil {
		return nil, err
	}
	return tree, nil
}

// checkAcyclic walks every parent chain once. A chain that revisits a node on
// the current walk is a cycle.
func (t *Tree) checkAcyclic(ctx context.Context) error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[uint]int, len(t.nodes))
	for _, start := range t.order {
		var path []uint
		id := start
		for {
			if state[id] == done {
				break
			}
			if state[id] == onPath {
				return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDataIntegrity,
					"message parent chain contains a cycle", nil, "0fb56c27-53f4-419a-a328-e393aad1dad2",
					map[string]any{"message_id": id})
			}
			state[id] = onPath
			path = append(path, id)
			parentID := t.nodes[id].ParentID
			if parentID == nil {
				break
			}
			id = *parentID
		}
		for _, visited := range path {
			state[visited] = done
		}
	}
	return nil
}

func (t *Tree) Len() int {
	return len(t.order)
}

func (t *Tree) Node(id uint) (*Node, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

func (t *Tree) NodeByPublicID(publicID string) (*Node, bool) {
	id, ok := t.byPublic[publicID]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

// Nodes returns every node in creation order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Roots returns the parentless nodes in creation order.
func (t *Tree) Roots() []*Node {
	var out []*Node
	for _, id := range t.order {
		if t.nodes[id].ParentID == nil {
			out = append(out, t.nodes[id])
		}
	}
	return out
}

// PublicIDOf maps an internal id to its public id, or "" when absent.
func (t *Tree) PublicIDOf(id *uint) string {
	if id == nil {
		return ""
	}
	if node, ok := t.nodes[*id]; ok {
		return node.PublicID
	}
	return ""
}

// Insert adds a freshly created message as the last child of its parent.
// The parent must already be in the tree.
func (t *Tree) Insert(msg *Message) (*Node, bool) {
	if _, exists := t.nodes[msg.ID]; exists {
		return nil, false
	}
	if msg.ParentID != nil {
		parent, ok := t.nodes[*msg.ParentID]
		if !ok {
			return nil, false
		}
		parent.ChildIDs = append(parent.ChildIDs, msg.ID)
	}
	node := &Node{Message: msg}
	t.nodes[msg.ID] = node
	t.byPublic[msg.PublicID] = msg.ID
	t.order = append(t.order, msg.ID)
	return node, true
}

// Remove drops the given ids and unlinks them from their parents.
func (t *Tree) Remove(ids []uint) {
	if len(ids) == 0 {
		return
	}
	removed := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		removed[id] = struct{}{}
	}
	for _, id := range ids {
		node, ok := t.nodes[id]
		if !ok {
			continue
		}
		if node.ParentID != nil {
			if parent, ok := t.nodes[*node.ParentID]; ok {
				parent.ChildIDs = slices.DeleteFunc(parent.ChildIDs, func(child uint) bool {
					_, gone := removed[child]
					return gone
				})
			}
		}
		delete(t.byPublic, node.PublicID)
		delete(t.nodes, id)
	}
	t.order = slices.DeleteFunc(t.order, func(id uint) bool {
		_, gone := removed[id]
		return gone
	})
}

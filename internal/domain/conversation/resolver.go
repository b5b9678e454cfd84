package conversation

import "slices"

// Resolution is the linear view derived from a tree and a pointer.
// SettledPointer is the deepest first-child descendant of the pointer.
type Resolution struct {
	Transcript     []*Node
	SettledPointer *uint
}

// Changed reports whether the settled pointer differs from stored.
func (r Resolution) Changed(stored *uint) bool {
	switch {
	case r.SettledPointer == nil && stored == nil:
		return false
	case r.SettledPointer == nil || stored == nil:
		return true
	default:
		return *r.SettledPointer != *stored
	}
}

// Resolve walks from pointer up to its root and then down through first
// children. It has no side effects; persisting a changed pointer is the
// caller's decision.
//
// A nil pointer yields an empty transcript. A pointer to a missing node is
// tolerated: the transcript is empty and the pointer comes back unchanged.
func Resolve(tree *Tree, pointer *uint) Resolution {
	if pointer == nil {
		return Resolution{}
	}
	start, ok := tree.Node(*pointer)
	if !ok {
		settled := *pointer
		return Resolution{SettledPointer: &settled}
	}

	// upward; bounded by tree size so a corrupted chain cannot spin
	var ancestors []*Node
	for node, steps := start, 0; node != nil && steps <= tree.Len(); steps++ {
		ancestors = append(ancestors, node)
		if node.ParentID == nil {
			break
		}
		parent, ok := tree.Node(*node.ParentID)
		if !ok {
			break
		}
		node = parent
	}
	slices.Reverse(ancestors)

	transcript := ancestors
	last := start
	for steps := 0; steps <= tree.Len(); steps++ {
		childID, ok := last.FirstChild()
		if !ok {
			break
		}
		child, ok := tree.Node(childID)
		if !ok {
			break
		}
		transcript = append(transcript, child)
		last = child
	}

	settled := last.ID
	return Resolution{Transcript: transcript, SettledPointer: &settled}
}

package conversation

// CollectDescendants returns every strict descendant of target, across all
// branches. The order is depth-first and carries no meaning. An unknown
// target has no descendants.
func CollectDescendants(tree *Tree, target uint) []uint {
	root, ok := tree.Node(target)
	if !ok {
		return nil
	}

	var out []uint
	stack := append([]uint(nil), root.ChildIDs...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := tree.Node(id)
		if !ok {
			continue
		}
		out = append(out, id)
		stack = append(stack, node.ChildIDs...)
	}
	return out
}

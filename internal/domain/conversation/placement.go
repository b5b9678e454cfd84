package conversation

import (
	"context"

	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// PlacementInput carries what the branching policy needs to pick a parent.
// TargetID is the edit target and is only honoured for user messages.
type PlacementInput struct {
	Role          Role
	TargetID      *uint
	CurrentNodeID *uint
	Regenerate    bool
}

// PlaceParent decides the parent of a new message.
//
//   - user editing a target: the target's parent (nil when the target is a root),
//     so the edit becomes a sibling of the target.
//   - user otherwise: the current node.
//   - assistant under a user current node: the current node.
//   - assistant under an assistant current node that has a parent: the
//     parent when regenerating, otherwise the current node.
//   - assistant when the current node has no parent or is unset: nil.
//
// A current node that no longer exists is treated as unset.
func PlaceParent(ctx context.Context, tree *Tree, input PlacementInput) (*uint, error) {
	switch input.Role {
	case RoleUser:
		if input.TargetID != nil {
			target, ok := tree.Node(*input.TargetID)
			if !ok {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
					"edit target message not found", nil, "414405c3-a732-439f-8ca6-9bb9b6af93aa")
			}
			return copyID(target.ParentID), nil
		}
		current := currentNode(tree, input.CurrentNodeID)
		if current == nil {
			return nil, nil
		}
		return copyID(&current.ID), nil

	case RoleAssistant:
		current := currentNode(tree, input.CurrentNodeID)
		if current == nil {
			return nil, nil
		}
		if current.Role == RoleUser {
			return copyID(&current.ID), nil
		}
		if current.ParentID == nil {
			return nil, nil
		}
		if input.Regenerate {
			return copyID(current.ParentID), nil
		}
		return copyID(&current.ID), nil

	default:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unsupported message role: "+string(input.Role), nil, "3132d73d-d209-40fa-93de-7129caa9dde7")
	}
}

func currentNode(tree *Tree, id *uint) *Node {
	if id == nil {
		return nil
	}
	node, ok := tree.Node(*id)
	if !ok {
		return nil
	}
	return node
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/stack"
	"github.com/sceneforge/stagedit/internal/undo"
)

// MoveSubPathRequest represents a request to move a sub-layer reference to
// a new parent and position.
type MoveSubPathRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the current parent layer
	Parent string

	// ChildPath is the reference to move, matched verbatim against the
	// parent's sub-layer list
	ChildPath string

	// DestParent is the identifier of the destination parent layer
	DestParent string

	// DestIndex is the insertion position in the destination. For a move
	// within the same parent, indices count the list with the child
	// already extracted.
	DestIndex int
}

// MoveSubPath removes a reference from its parent and inserts it into the
// destination parent. When the parents live in different directories and
// the reference is relative, it is rewritten so it still resolves to the
// same file from the new parent's location.
func (e *Engine) MoveSubPath(ctx context.Context, req *MoveSubPathRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	src, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return err
	}
	dst, err := e.resolveLayer(req.CWD, req.DestParent)
	if err != nil {
		return err
	}
	if !c.stage.CanEdit(src.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}
	if !c.stage.CanEdit(dst.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.DestParent)
	}

	srcIdx := src.IndexOfSubLayer(req.ChildPath)
	if srcIdx < 0 {
		return fmt.Errorf("%w: %s is not a sub-layer of %s", ErrNotFound, req.ChildPath, req.Parent)
	}
	childID := e.store.ResolveRelative(src, req.ChildPath)

	// Nesting a layer under itself or one of its own descendants would
	// make the reference graph cyclic.
	res := c.resolver()
	if slices.Contains(stack.Subtree(res, childID), dst.Identifier) {
		return fmt.Errorf("%w: cannot move %s under its own descendant %s", ErrCycle, req.ChildPath, req.DestParent)
	}

	if src.Identifier == dst.Identifier {
		return c.moveWithinParent(src, srcIdx, req)
	}
	return c.moveAcrossParents(src, dst, srcIdx, childID, req)
}

// moveWithinParent reorders a reference inside one parent. The destination
// index counts positions in the list with the child already extracted, so
// the valid range is [0, childCount-1].
func (c *stageCtx) moveWithinParent(parent *layers.Layer, srcIdx int, req *MoveSubPathRequest) error {
	remaining := append([]string(nil), parent.SubLayerPaths...)
	remaining = slices.Delete(remaining, srcIdx, srcIdx+1)

	if req.DestIndex < 0 || req.DestIndex > len(remaining) {
		return fmt.Errorf("%w: move index %d not in [0, %d]", ErrIndex, req.DestIndex, len(remaining))
	}
	after := slices.Insert(remaining, req.DestIndex, req.ChildPath)

	cs := undo.ChangeSet{
		Label:  "move sub-layer",
		Deltas: []undo.Delta{childrenDelta(parent, after)},
	}
	return c.commitStructural(cs)
}

// moveAcrossParents moves a reference between two distinct parents as one
// change set of two child-list deltas.
func (c *stageCtx) moveAcrossParents(src, dst *layers.Layer, srcIdx int, childID string, req *MoveSubPathRequest) error {
	if req.DestIndex < 0 || req.DestIndex > len(dst.SubLayerPaths) {
		return fmt.Errorf("%w: move index %d not in [0, %d]", ErrIndex, req.DestIndex, len(dst.SubLayerPaths))
	}
	for _, p := range dst.SubLayerPaths {
		if c.e.store.ResolveRelative(dst, p) == childID {
			return fmt.Errorf("%w: %s is already a sub-layer of %s", ErrValidation, req.ChildPath, req.DestParent)
		}
	}

	newPath, err := layers.RewriteRelative(req.ChildPath, src, dst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	srcAfter := append([]string(nil), src.SubLayerPaths...)
	srcAfter = slices.Delete(srcAfter, srcIdx, srcIdx+1)
	dstAfter := slices.Insert(append([]string(nil), dst.SubLayerPaths...), req.DestIndex, newPath)

	cs := undo.ChangeSet{
		Label: "move sub-layer",
		Deltas: []undo.Delta{
			childrenDelta(src, srcAfter),
			childrenDelta(dst, dstAfter),
		},
	}
	return c.commitStructural(cs)
}

package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/undo"
)

// AddAnonymousRequest represents a request to add a fresh anonymous layer.
type AddAnonymousRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the parent layer
	Parent string

	// Name is the display name of the new layer
	Name string
}

// AddAnonymousResult represents the result of adding an anonymous layer.
type AddAnonymousResult struct {
	// Identifier is the identifier of the new layer
	Identifier string
}

// InsertSubPathRequest represents a request to insert a sub-layer reference.
type InsertSubPathRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the parent layer
	Parent string

	// Index is the insertion position, in [0, childCount]
	Index int

	// Path is the reference to insert, stored verbatim. It does not have
	// to resolve yet.
	Path string
}

// RemoveSubPathsRequest represents a request to remove sub-layer references.
type RemoveSubPathsRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the parent layer
	Parent string

	// Indices are the positions to remove, all computed against the
	// pre-removal child list.
	Indices []int
}

// RemoveSubPathsResult represents the result of removing sub-layer references.
type RemoveSubPathsResult struct {
	// Removed is the list of removed references, in original list order
	Removed []string
}

// ReplaceSubPathRequest represents a request to rewrite a sub-layer reference.
type ReplaceSubPathRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the parent layer
	Parent string

	// OldPath is the current reference, matched verbatim
	OldPath string

	// NewPath is the replacement reference
	NewPath string
}

// ClearRequest represents a request to remove all sub-layer references.
type ClearRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Parent is the identifier of the parent layer
	Parent string
}

// DiscardEditsRequest represents a request to reload a layer from disk.
type DiscardEditsRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Layer is the identifier of the layer to reload
	Layer string
}

// AddAnonymous creates a fresh anonymous layer and inserts it at the top
// of the parent's sub-layer list. New layers are always strongest.
func (e *Engine) AddAnonymous(ctx context.Context, req *AddAnonymousRequest) (*AddAnonymousResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}
	parent, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return nil, err
	}
	if !c.stage.CanEdit(parent.Identifier) {
		return nil, fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}

	layer := e.store.CreateAnonymous(req.Name)

	after := make([]string, 0, len(parent.SubLayerPaths)+1)
	after = append(after, layer.Identifier)
	after = append(after, parent.SubLayerPaths...)

	cs := undo.ChangeSet{
		Label:  "add anonymous layer",
		Deltas: []undo.Delta{childrenDelta(parent, after)},
	}
	if err := c.commitStructural(cs); err != nil {
		return nil, err
	}

	return &AddAnonymousResult{Identifier: layer.Identifier}, nil
}

// InsertSubPath inserts a sub-layer reference at the given index. The
// reference is stored verbatim and is not required to resolve yet; opening
// it may fail later, separately.
func (e *Engine) InsertSubPath(ctx context.Context, req *InsertSubPathRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	parent, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return err
	}
	if !c.stage.CanEdit(parent.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}
	if req.Index < 0 || req.Index > len(parent.SubLayerPaths) {
		return fmt.Errorf("%w: insert index %d not in [0, %d]", ErrIndex, req.Index, len(parent.SubLayerPaths))
	}
	if parent.HasSubLayer(req.Path) {
		return fmt.Errorf("%w: %s is already a sub-layer of %s", ErrValidation, req.Path, req.Parent)
	}

	after := slices.Insert(append([]string(nil), parent.SubLayerPaths...), req.Index, req.Path)

	cs := undo.ChangeSet{
		Label:  "insert sub-layer",
		Deltas: []undo.Delta{childrenDelta(parent, after)},
	}
	return c.commitStructural(cs)
}

// RemoveSubPaths removes the references at the given indices. All indices
// are validated and resolved against the pre-removal child list, so
// removing (0, 1) drops the two entries that were on top before the call.
func (e *Engine) RemoveSubPaths(ctx context.Context, req *RemoveSubPathsRequest) (*RemoveSubPathsResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}
	parent, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return nil, err
	}
	if !c.stage.CanEdit(parent.Identifier) {
		return nil, fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}
	if len(req.Indices) == 0 {
		return nil, fmt.Errorf("%w: no indices given", ErrValidation)
	}

	drop := make(map[int]bool, len(req.Indices))
	for _, idx := range req.Indices {
		if idx < 0 || idx >= len(parent.SubLayerPaths) {
			return nil, fmt.Errorf("%w: remove index %d not in [0, %d]", ErrIndex, idx, len(parent.SubLayerPaths)-1)
		}
		if drop[idx] {
			return nil, fmt.Errorf("%w: duplicate remove index %d", ErrValidation, idx)
		}
		drop[idx] = true
	}

	var after, removed []string
	for i, p := range parent.SubLayerPaths {
		if drop[i] {
			removed = append(removed, p)
		} else {
			after = append(after, p)
		}
	}

	cs := undo.ChangeSet{
		Label:  "remove sub-layer",
		Deltas: []undo.Delta{childrenDelta(parent, after)},
	}
	if err := c.commitStructural(cs); err != nil {
		return nil, err
	}

	return &RemoveSubPathsResult{Removed: removed}, nil
}

// ReplaceSubPath rewrites a matching reference in place, preserving its
// position.
func (e *Engine) ReplaceSubPath(ctx context.Context, req *ReplaceSubPathRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	parent, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return err
	}
	if !c.stage.CanEdit(parent.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}

	idx := parent.IndexOfSubLayer(req.OldPath)
	if idx < 0 {
		return fmt.Errorf("%w: %s is not a sub-layer of %s", ErrNotFound, req.OldPath, req.Parent)
	}

	after := append([]string(nil), parent.SubLayerPaths...)
	after[idx] = req.NewPath

	cs := undo.ChangeSet{
		Label:  "replace sub-layer",
		Deltas: []undo.Delta{childrenDelta(parent, after)},
	}
	return c.commitStructural(cs)
}

// Clear removes all of the parent's sub-layer references in one reversible
// step.
func (e *Engine) Clear(ctx context.Context, req *ClearRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	parent, err := e.resolveLayer(req.CWD, req.Parent)
	if err != nil {
		return err
	}
	if !c.stage.CanEdit(parent.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Parent)
	}

	cs := undo.ChangeSet{
		Label:  "clear sub-layers",
		Deltas: []undo.Delta{childrenDelta(parent, nil)},
	}
	return c.commitStructural(cs)
}

// DiscardEdits reloads the on-disk state of a file-backed layer,
// discarding all in-memory changes since the last save, as one reversible
// step.
func (e *Engine) DiscardEdits(ctx context.Context, req *DiscardEditsRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	layer, err := e.resolveLayer(req.CWD, req.Layer)
	if err != nil {
		return err
	}
	if layer.Anonymous {
		return fmt.Errorf("%w: anonymous layer %s has no saved state to restore", ErrValidation, req.Layer)
	}
	if !c.stage.CanEdit(layer.Identifier) {
		return fmt.Errorf("%w: layer %s is locked", ErrPermission, req.Layer)
	}

	disk, err := e.store.ReadDisk(layer.Identifier)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	cs := undo.ChangeSet{
		Label: "discard edits",
		Deltas: []undo.Delta{{
			Kind:           undo.KindChildren,
			Layer:          layer.Identifier,
			ChildrenBefore: append([]string(nil), layer.SubLayerPaths...),
			ChildrenAfter:  append([]string(nil), disk.SubLayerPaths...),
			NameBefore:     layer.Name,
			NameAfter:      disk.Name,
			DirtyBefore:    layer.Dirty,
			DirtyAfter:     false,
		}},
	}
	return c.commitStructural(cs)
}

// childrenDelta captures a full before/after image of a parent's sub-layer
// list, marking the parent dirty in the after image.
func childrenDelta(parent *layers.Layer, after []string) undo.Delta {
	return undo.Delta{
		Kind:           undo.KindChildren,
		Layer:          parent.Identifier,
		ChildrenBefore: append([]string(nil), parent.SubLayerPaths...),
		ChildrenAfter:  after,
		NameBefore:     parent.Name,
		NameAfter:      parent.Name,
		DirtyBefore:    parent.Dirty,
		DirtyAfter:     true,
	}
}

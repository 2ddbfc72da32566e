package engine

import (
	"context"
	"fmt"

	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/stack"
	"github.com/sceneforge/stagedit/internal/undo"
)

// LockLayerRequest represents a request to change a layer's lock state.
type LockLayerRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Layer is the identifier of the layer to lock or unlock
	Layer string

	// Mode is the lock state to apply: 0 unlock, 1 user lock, 2 system lock
	Mode int

	// Recursive also applies the mode to every layer currently reachable
	// below Layer. Later structural changes do not re-propagate.
	Recursive bool
}

// RefreshSystemLockRequest represents a request to re-check system locks
// against filesystem write permission.
type RefreshSystemLockRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Layer is the identifier of the layer to refresh
	Layer string

	// Recursive also refreshes every layer currently reachable below Layer
	Recursive bool
}

// RefreshSystemLockResult represents the result of a system-lock refresh.
type RefreshSystemLockResult struct {
	// Unlocked is the list of layers whose system lock was lifted
	Unlocked []string
}

// MuteLayerRequest represents a request to toggle a layer's mute flag.
type MuteLayerRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Layer is the identifier of the layer to mute or unmute
	Layer string

	// Muted is the flag to apply
	Muted bool
}

// LockLayer applies a lock mode to a layer, optionally cascading to its
// descendants. Cascaded locks are recorded as independent per-layer state.
func (e *Engine) LockLayer(ctx context.Context, req *LockLayerRequest) error {
	if req.Mode < int(stack.Unlocked) || req.Mode > int(stack.SystemLocked) {
		return fmt.Errorf("%w: unknown lock mode %d", ErrValidation, req.Mode)
	}

	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	layer, err := e.resolveLayer(req.CWD, req.Layer)
	if err != nil {
		return err
	}

	targets := []string{layer.Identifier}
	if req.Recursive {
		targets = stack.Subtree(c.resolver(), layer.Identifier)
	}

	var deltas []undo.Delta
	for _, id := range targets {
		before := int(c.stage.LockOf(id))
		if before == req.Mode {
			continue
		}
		deltas = append(deltas, undo.Delta{
			Kind:       undo.KindLock,
			Layer:      id,
			LockBefore: before,
			LockAfter:  req.Mode,
		})
	}
	if len(deltas) == 0 {
		return nil
	}

	label := "lock layer"
	if req.Mode == int(stack.Unlocked) {
		label = "unlock layer"
	}
	return c.commit(undo.ChangeSet{Label: label, Deltas: deltas})
}

// RefreshSystemLock re-probes write permission for system-locked layers
// and lifts the locks that now report writable. User locks are untouched.
func (e *Engine) RefreshSystemLock(ctx context.Context, req *RefreshSystemLockRequest) (*RefreshSystemLockResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}
	layer, err := e.resolveLayer(req.CWD, req.Layer)
	if err != nil {
		return nil, err
	}

	targets := []string{layer.Identifier}
	if req.Recursive {
		targets = stack.Subtree(c.resolver(), layer.Identifier)
	}

	var deltas []undo.Delta
	var unlocked []string
	for _, id := range targets {
		if c.stage.LockOf(id) != stack.SystemLocked {
			continue
		}
		if !layers.IsAnonymousIdentifier(id) && !e.fs.CanWrite(id) {
			continue
		}
		deltas = append(deltas, undo.Delta{
			Kind:       undo.KindLock,
			Layer:      id,
			LockBefore: int(stack.SystemLocked),
			LockAfter:  int(stack.Unlocked),
		})
		unlocked = append(unlocked, id)
	}
	if len(deltas) == 0 {
		return &RefreshSystemLockResult{}, nil
	}

	cs := undo.ChangeSet{Label: "refresh system lock", Deltas: deltas}
	if err := c.commit(cs); err != nil {
		return nil, err
	}
	return &RefreshSystemLockResult{Unlocked: unlocked}, nil
}

// MuteLayer toggles a layer's inclusion in the stage's composed stack.
// Muting never alters the reference graph; the layer stays enumerable as a
// structural child.
func (e *Engine) MuteLayer(ctx context.Context, req *MuteLayerRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}
	layer, err := e.resolveLayer(req.CWD, req.Layer)
	if err != nil {
		return err
	}
	if layer.Identifier == c.stage.RootLayer {
		return fmt.Errorf("%w: the root layer cannot be muted", ErrValidation)
	}
	if c.stage.IsMuted(layer.Identifier) == req.Muted {
		return nil
	}

	label := "mute layer"
	if !req.Muted {
		label = "unmute layer"
	}
	cs := undo.ChangeSet{
		Label: label,
		Deltas: []undo.Delta{{
			Kind:        undo.KindMute,
			Layer:       layer.Identifier,
			MutedBefore: !req.Muted,
			MutedAfter:  req.Muted,
		}},
	}
	return c.commit(cs)
}

// Package engine provides the core business logic for stagedit operations.
//
// The engine package acts as the orchestration layer between CLI commands
// and the layer store, stage model, and session persistence. Every mutating
// operation follows the same shape: load the stage session, validate the
// request against live state, build a reversible change set of before/after
// images, apply it, push it onto the stage's undo history, and persist the
// session. Validation always completes before any mutation, so a failed
// operation leaves no partial state behind.
package engine

import (
	"fmt"
	"os"
	"slices"

	"github.com/sceneforge/stagedit/internal/clock"
	"github.com/sceneforge/stagedit/internal/fsops"
	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/session"
	"github.com/sceneforge/stagedit/internal/stack"
	"github.com/sceneforge/stagedit/internal/undo"
)

// Engine orchestrates all stagedit operations.
// It is the main API surface called by the CLI.
type Engine struct {
	store    *layers.FileStore
	sessions session.Store
	fs       fsops.FS
	clock    clock.Clock
}

// New creates a new Engine with the given dependencies.
func New(store *layers.FileStore, sessions session.Store, fs fsops.FS, clk clock.Clock) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		fs:       fs,
		clock:    clk,
	}
}

// openResolver resolves identifiers through the store, opening file-backed
// layers from disk on demand. Unresolvable identifiers prune traversal.
type openResolver struct {
	store *layers.FileStore
}

func (r openResolver) Find(identifier string) *layers.Layer {
	if l := r.store.Find(identifier); l != nil {
		return l
	}
	if layers.IsAnonymousIdentifier(identifier) {
		return nil
	}
	l, err := r.store.FindOrOpen(identifier)
	if err != nil {
		return nil
	}
	return l
}

func (r openResolver) ResolveRelative(base *layers.Layer, path string) string {
	return r.store.ResolveRelative(base, path)
}

// stageCtx is one loaded stage session: the live stage state plus its undo
// history. It implements undo.Applier so change sets replay onto it.
type stageCtx struct {
	e     *Engine
	stage *stack.Stage
	hist  *undo.Stack
}

// loadStage materializes a stage session: the working-set layers are
// registered with the store and the stage state is rebuilt.
func (e *Engine) loadStage(handle string) (*stageCtx, error) {
	sess, err := e.sessions.Load(handle)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: stage %s does not exist", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("failed to load stage session: %w", err)
	}

	for _, snap := range sess.Layers {
		e.store.Register(&layers.Layer{
			Identifier:    snap.Identifier,
			Name:          snap.Name,
			SubLayerPaths: append([]string(nil), snap.SubLayers...),
			Anonymous:     snap.Anonymous,
			Dirty:         snap.Dirty,
		})
	}

	st := stack.New(sess.Handle, sess.RootLayer)
	st.EditTarget = sess.EditTarget
	for _, id := range sess.Muted {
		st.SetMuted(id, true)
	}
	for id, state := range sess.Locks {
		st.SetLock(id, stack.LockState(state))
	}

	hist := sess.History
	return &stageCtx{e: e, stage: st, hist: &hist}, nil
}

// persist writes the stage session back to the session store. The working
// set captures every anonymous layer and every file-backed layer whose
// content differs from its on-disk document.
func (c *stageCtx) persist() error {
	st := c.stage

	var snaps []session.LayerSnapshot
	for _, l := range c.e.store.All() {
		if !l.Anonymous && !l.Dirty {
			continue
		}
		snaps = append(snaps, session.LayerSnapshot{
			Identifier: l.Identifier,
			Name:       l.Name,
			SubLayers:  append([]string(nil), l.SubLayerPaths...),
			Anonymous:  l.Anonymous,
			Dirty:      l.Dirty,
		})
	}

	var locks map[string]int
	if table := st.Locks(); len(table) > 0 {
		locks = make(map[string]int, len(table))
		for id, state := range table {
			locks[id] = int(state)
		}
	}

	sess := &session.StageSession{
		Handle:     st.Handle,
		RootLayer:  st.RootLayer,
		EditTarget: st.EditTarget,
		Muted:      st.MutedLayers(),
		Locks:      locks,
		Layers:     snaps,
		History:    *c.hist,
		UpdatedAt:  c.e.clock.Now(),
	}

	if err := c.e.sessions.Save(st.Handle, sess); err != nil {
		return fmt.Errorf("failed to save stage session: %w", err)
	}
	return nil
}

func (c *stageCtx) resolver() stack.Resolver {
	return openResolver{store: c.e.store}
}

// commit applies a freshly built change set, records it on the undo
// history, and persists the session.
func (c *stageCtx) commit(cs undo.ChangeSet) error {
	if err := cs.Apply(c); err != nil {
		return err
	}
	c.hist.Push(cs)
	return c.persist()
}

// commitStructural is commit for operations that rearrange the reference
// graph. After applying the structural deltas it re-checks edit-target
// reachability: when the target layer has lost its last surviving path the
// fallback to the root is captured as part of the same change set, so one
// undo restores both the structure and the previous target.
func (c *stageCtx) commitStructural(cs undo.ChangeSet) error {
	if err := cs.Apply(c); err != nil {
		return err
	}

	target := c.stage.EditTarget
	if target != c.stage.RootLayer && !c.stage.Reachable(c.resolver(), target) {
		d := undo.Delta{
			Kind:         undo.KindEditTarget,
			TargetBefore: target,
			TargetAfter:  c.stage.RootLayer,
		}
		c.stage.EditTarget = c.stage.RootLayer
		cs.Deltas = append(cs.Deltas, d)
	}

	c.hist.Push(cs)
	return c.persist()
}

// ApplyChildren implements undo.Applier.
func (c *stageCtx) ApplyChildren(layer, name string, children []string, dirty bool) error {
	l := c.e.store.Find(layer)
	if l == nil {
		var err error
		l, err = c.e.store.FindOrOpen(layer)
		if err != nil {
			return fmt.Errorf("%w: layer %s", ErrNotFound, layer)
		}
	}
	l.Name = name
	l.SubLayerPaths = append([]string(nil), children...)
	l.Dirty = dirty

	// The captured dirty flag can go stale for file-backed layers: a save
	// after the edit rewrites the file, so an image that was clean when
	// captured may no longer match disk. Derive dirtiness from the actual
	// document instead, so the layer stays in the session working set
	// until its content and its file agree again.
	if !l.Anonymous {
		disk, err := c.e.store.ReadDisk(l.Identifier)
		if err != nil {
			l.Dirty = true
		} else {
			l.Dirty = l.Name != disk.Name || !slices.Equal(l.SubLayerPaths, disk.SubLayerPaths)
		}
	}
	return nil
}

// ApplyEditTarget implements undo.Applier.
func (c *stageCtx) ApplyEditTarget(target string) error {
	c.stage.EditTarget = target
	return nil
}

// ApplyLock implements undo.Applier.
func (c *stageCtx) ApplyLock(layer string, state int) error {
	c.stage.SetLock(layer, stack.LockState(state))
	return nil
}

// ApplyMute implements undo.Applier.
func (c *stageCtx) ApplyMute(layer string, muted bool) error {
	c.stage.SetMuted(layer, muted)
	return nil
}

// resolveLayer normalizes a user-provided layer identifier against the
// working directory and resolves it to an open layer.
func (e *Engine) resolveLayer(cwd, identifier string) (*layers.Layer, error) {
	id := normalizeIdentifier(cwd, identifier)
	l, err := e.store.FindOrOpen(id)
	if err != nil {
		return nil, fmt.Errorf("%w: layer %s: %v", ErrNotFound, identifier, err)
	}
	return l, nil
}

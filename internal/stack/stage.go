// Package stack models a stage: the set of layers reachable from a root
// layer via sub-layer references, plus the stage-tracked edit target,
// mute set, and lock table.
//
// Sub-layer references form a directed acyclic graph, not a tree: the same
// layer may appear under several parents at once. All queries therefore
// work by graph traversal with identifier-keyed dedup rather than by
// following parent pointers.
package stack

import (
	"sort"

	"github.com/sceneforge/stagedit/internal/layers"
)

// Stage tracks the editing state layered on top of a root layer's
// reference graph.
type Stage struct {
	// Handle is the stable identifier of the stage session.
	Handle string

	// RootLayer is the identifier of the stage's root layer. The root is
	// always part of the stack and is never removable.
	RootLayer string

	// EditTarget is the identifier of the layer new edits are written to.
	// It always resolves to a layer reachable from the root; when the
	// targeted layer loses its last surviving path, it falls back to the
	// root.
	EditTarget string

	muted map[string]bool
	locks map[string]LockState
}

// New creates a stage rooted at the given layer, with the edit target on
// the root.
func New(handle, rootLayer string) *Stage {
	return &Stage{
		Handle:     handle,
		RootLayer:  rootLayer,
		EditTarget: rootLayer,
		muted:      make(map[string]bool),
		locks:      make(map[string]LockState),
	}
}

// Resolver looks up layers by identifier and resolves authored sub-layer
// references to identifiers. Lookups may fail at any time (the layer may
// have been dropped by its store); a nil result prunes traversal at that
// node.
type Resolver interface {
	Find(identifier string) *layers.Layer
	ResolveRelative(base *layers.Layer, path string) string
}

// walk visits the graph from start in composition-strength order: each
// layer before its sub-layers, sub-layers strongest first, shared layers
// visited once.
func (st *Stage) walk(res Resolver, start string, skipMuted bool, visit func(id string, l *layers.Layer)) {
	seen := make(map[string]bool)
	var rec func(id string)
	rec = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		l := res.Find(id)
		visit(id, l)
		if l == nil {
			return
		}
		for _, p := range l.SubLayerPaths {
			cid := res.ResolveRelative(l, p)
			if skipMuted && st.IsMuted(cid) {
				continue
			}
			rec(cid)
		}
	}
	rec(start)
}

// AllLayers returns every identifier reachable from the root, muted layers
// included, strongest first.
func (st *Stage) AllLayers(res Resolver) []string {
	var out []string
	st.walk(res, st.RootLayer, false, func(id string, _ *layers.Layer) {
		out = append(out, id)
	})
	return out
}

// LayerStack returns the composed stack: every identifier reachable from
// the root with muted layers (and their subtrees) excluded, strongest
// first.
func (st *Stage) LayerStack(res Resolver) []string {
	var out []string
	st.walk(res, st.RootLayer, true, func(id string, _ *layers.Layer) {
		out = append(out, id)
	})
	return out
}

// UsedLayers returns the composed stack restricted to identifiers that
// currently resolve to an open layer.
func (st *Stage) UsedLayers(res Resolver) []string {
	var out []string
	st.walk(res, st.RootLayer, true, func(id string, l *layers.Layer) {
		if l != nil {
			out = append(out, id)
		}
	})
	return out
}

// Reachable reports whether the identifier is reachable from the root
// through at least one surviving path. Mute state does not affect
// reachability.
func (st *Stage) Reachable(res Resolver, identifier string) bool {
	found := false
	st.walk(res, st.RootLayer, false, func(id string, _ *layers.Layer) {
		if id == identifier {
			found = true
		}
	})
	return found
}

// Subtree returns the identifiers reachable from start (inclusive),
// ignoring mute state. Used for cycle checks and lock propagation.
func Subtree(res Resolver, start string) []string {
	seen := make(map[string]bool)
	var out []string
	var rec func(id string)
	rec = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		l := res.Find(id)
		if l == nil {
			return
		}
		for _, p := range l.SubLayerPaths {
			rec(res.ResolveRelative(l, p))
		}
	}
	rec(start)
	return out
}

// IsMuted reports whether the identifier is muted on this stage.
func (st *Stage) IsMuted(identifier string) bool {
	return st.muted[identifier]
}

// SetMuted toggles the mute flag for an identifier. Muting is stage state:
// it never alters the reference graph.
func (st *Stage) SetMuted(identifier string, muted bool) {
	if muted {
		st.muted[identifier] = true
	} else {
		delete(st.muted, identifier)
	}
}

// MutedLayers returns the muted identifiers in sorted order.
func (st *Stage) MutedLayers() []string {
	out := make([]string, 0, len(st.muted))
	for id := range st.muted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Package session persists stage editing sessions between CLI invocations.
//
// A session file is the authoritative record of one stage: its root layer,
// edit target, mute and lock tables, the working copies of in-memory and
// unsaved layers, and the undo/redo history. Sessions are JSON documents
// written atomically under the stagedit data directory.
package session

import (
	"time"

	"github.com/sceneforge/stagedit/internal/undo"
)

// StageSession is the serialized state of one stage.
type StageSession struct {
	// Handle is the stable session identifier, derived from the root
	// layer identifier.
	Handle string `json:"handle"`

	// RootLayer is the identifier of the stage's root layer.
	RootLayer string `json:"rootLayer"`

	// EditTarget is the identifier of the current edit target layer.
	EditTarget string `json:"editTarget"`

	// Muted is the sorted list of muted layer identifiers.
	Muted []string `json:"muted,omitempty"`

	// Locks maps layer identifiers to their lock state (1 user, 2 system).
	Locks map[string]int `json:"locks,omitempty"`

	// Layers is the working set: anonymous layers and file-backed layers
	// whose content differs from their on-disk document, including layers
	// an undo has rolled back past a save. File-backed layers that match
	// disk are reopened on demand and are not recorded here.
	Layers []LayerSnapshot `json:"layers,omitempty"`

	// History is the stage's undo/redo record.
	History undo.Stack `json:"history"`

	// UpdatedAt is when the session was last written.
	UpdatedAt time.Time `json:"updatedAt"`
}

// LayerSnapshot is the serialized working copy of a layer.
type LayerSnapshot struct {
	Identifier string   `json:"identifier"`
	Name       string   `json:"name,omitempty"`
	SubLayers  []string `json:"subLayers,omitempty"`
	Anonymous  bool     `json:"anonymous,omitempty"`
	Dirty      bool     `json:"dirty,omitempty"`
}

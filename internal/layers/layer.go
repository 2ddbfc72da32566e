// Package layers provides the layer document model and the layer store.
//
// A layer is an addressable unit of scene description holding an ordered
// list of sub-layer references, strongest first. File-backed layers are
// identified by their absolute path and serialized as YAML documents;
// anonymous layers live only in memory and are identified by a synthetic
// "anon:" token. The same layer may be referenced as a sub-layer of several
// parents at once, so layers are owned by the store, not by their parents.
package layers

import "strings"

// anonPrefix marks synthetic identifiers of in-memory layers.
const anonPrefix = "anon:"

// Layer is a single layer document.
type Layer struct {
	// Identifier is the stable identity of the layer: an absolute file
	// path for file-backed layers, an "anon:" token otherwise.
	Identifier string

	// Name is the display name of the layer.
	Name string

	// SubLayerPaths is the ordered list of sub-layer references,
	// strongest first. Entries are stored verbatim as authored and may be
	// relative to the layer's own directory.
	SubLayerPaths []string

	// Anonymous reports whether the layer has no backing file.
	Anonymous bool

	// Dirty reports whether the layer has unsaved changes.
	Dirty bool
}

// IsAnonymousIdentifier reports whether id names an in-memory layer.
func IsAnonymousIdentifier(id string) bool {
	return strings.HasPrefix(id, anonPrefix)
}

// HasSubLayer reports whether path appears verbatim in the layer's
// sub-layer list.
func (l *Layer) HasSubLayer(path string) bool {
	for _, p := range l.SubLayerPaths {
		if p == path {
			return true
		}
	}
	return false
}

// IndexOfSubLayer returns the position of path in the sub-layer list, or -1.
func (l *Layer) IndexOfSubLayer(path string) int {
	for i, p := range l.SubLayerPaths {
		if p == path {
			return i
		}
	}
	return -1
}

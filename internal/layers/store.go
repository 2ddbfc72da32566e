package layers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sceneforge/stagedit/internal/fsops"
)

// document is the on-disk YAML form of a file-backed layer.
type document struct {
	Name      string   `yaml:"name,omitempty"`
	SubLayers []string `yaml:"subLayers"`
}

// FileStore owns all open layers, keyed by identifier. File-backed layers
// are opened from and saved to YAML documents on disk; anonymous layers are
// allocated fresh with unique identifiers and never touch disk.
//
// The store deduplicates on identifier: finding or opening the same
// identifier twice yields the same *Layer.
type FileStore struct {
	fs     fsops.FS
	layers map[string]*Layer
}

// NewFileStore creates a new FileStore.
func NewFileStore(fs fsops.FS) *FileStore {
	return &FileStore{
		fs:     fs,
		layers: make(map[string]*Layer),
	}
}

// Find returns the open layer with the given identifier, or nil.
// It never touches disk; a layer that exists on disk but was never opened
// is not found.
func (s *FileStore) Find(identifier string) *Layer {
	return s.layers[identifier]
}

// FindOrOpen returns the open layer with the given identifier, opening it
// from disk if needed. Anonymous identifiers can only be found, never
// opened.
func (s *FileStore) FindOrOpen(identifier string) (*Layer, error) {
	if l, ok := s.layers[identifier]; ok {
		return l, nil
	}
	if IsAnonymousIdentifier(identifier) {
		return nil, fmt.Errorf("anonymous layer %q is not loaded", identifier)
	}

	l, err := s.ReadDisk(identifier)
	if err != nil {
		return nil, err
	}
	s.layers[identifier] = l
	return l, nil
}

// CreateAnonymous allocates a fresh anonymous layer with a unique
// identifier and registers it with the store.
func (s *FileStore) CreateAnonymous(name string) *Layer {
	l := &Layer{
		Identifier: anonPrefix + uuid.NewString(),
		Name:       name,
		Anonymous:  true,
	}
	s.layers[l.Identifier] = l
	return l
}

// Register adopts an externally materialized layer into the store,
// replacing any previous layer with the same identifier. Used to restore a
// persisted session's working set.
func (s *FileStore) Register(l *Layer) {
	s.layers[l.Identifier] = l
}

// All returns every open layer, ordered by identifier.
func (s *FileStore) All() []*Layer {
	out := make([]*Layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// ReadDisk reads the on-disk document for a file-backed identifier and
// returns it as a detached layer. The store registry is not consulted or
// updated.
func (s *FileStore) ReadDisk(identifier string) (*Layer, error) {
	if IsAnonymousIdentifier(identifier) {
		return nil, fmt.Errorf("anonymous layer %q has no backing file", identifier)
	}

	data, err := s.fs.ReadFile(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("layer file %q does not exist", identifier)
		}
		return nil, fmt.Errorf("failed to read layer file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse layer file %q: %w", identifier, err)
	}

	return &Layer{
		Identifier:    identifier,
		Name:          doc.Name,
		SubLayerPaths: doc.SubLayers,
	}, nil
}

// Save writes a file-backed layer's document to disk and clears its dirty
// flag. Saving an anonymous layer is an error.
func (s *FileStore) Save(l *Layer) error {
	if l.Anonymous {
		return fmt.Errorf("cannot save anonymous layer %q to disk", l.Identifier)
	}

	doc := document{
		Name:      l.Name,
		SubLayers: l.SubLayerPaths,
	}
	if doc.SubLayers == nil {
		doc.SubLayers = []string{}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal layer document: %w", err)
	}

	if err := s.fs.AtomicWrite(l.Identifier, data, 0644); err != nil {
		return fmt.Errorf("failed to write layer file: %w", err)
	}

	l.Dirty = false
	return nil
}

// ResolveRelative resolves a sub-layer reference authored in base to a
// layer identifier. Absolute paths and anonymous tokens resolve to
// themselves; relative paths resolve against the base layer's directory.
// References authored in anonymous layers have no directory to resolve
// against and are returned unchanged.
func (s *FileStore) ResolveRelative(base *Layer, path string) string {
	if IsAnonymousIdentifier(path) || filepath.IsAbs(path) {
		return path
	}
	if base == nil || base.Anonymous {
		return path
	}
	return filepath.Clean(filepath.Join(filepath.Dir(base.Identifier), filepath.FromSlash(path)))
}

package engine

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sceneforge/stagedit/internal/clock"
	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/session"
)

// --- Shared engine test fixtures ---

// fakeFS is an in-memory filesystem. Paths marked read-only fail the
// write-permission probe, which is how system locks are exercised.
type fakeFS struct {
	files    map[string][]byte
	readOnly map[string]bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		files:    make(map[string][]byte),
		readOnly: make(map[string]bool),
	}
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (f *fakeFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	f.files[path] = data
	return nil
}

func (f *fakeFS) Exists(path string) (bool, error) {
	_, ok := f.files[path]
	return ok, nil
}

func (f *fakeFS) MkdirAll(path string, perm os.FileMode) error { return nil }
func (f *fakeFS) Remove(path string) error                     { delete(f.files, path); return nil }
func (f *fakeFS) ReadDir(path string) ([]string, error)        { return nil, nil }
func (f *fakeFS) ValidateIdentifier(id string) error           { return nil }

func (f *fakeFS) CanWrite(path string) bool {
	return !f.readOnly[path]
}

// writeLayerFile stores a layer document in the fake filesystem.
func (f *fakeFS) writeLayerFile(path, name string, subLayers ...string) {
	doc := "subLayers:\n"
	if name != "" {
		doc = "name: " + name + "\n" + doc
	}
	if len(subLayers) == 0 {
		doc = doc[:len(doc)-1] + " []\n"
	}
	for _, s := range subLayers {
		doc += "  - " + s + "\n"
	}
	f.files[path] = []byte(doc)
}

// memSessionStore keeps sessions as marshaled JSON, so every load is a
// fresh deserialization just like the on-disk store.
type memSessionStore struct {
	sessions map[string][]byte
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string][]byte)}
}

func (m *memSessionStore) Load(handle string) (*session.StageSession, error) {
	data, ok := m.sessions[handle]
	if !ok {
		return nil, os.ErrNotExist
	}
	var sess session.StageSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *memSessionStore) Save(handle string, sess *session.StageSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.sessions[handle] = data
	return nil
}

func (m *memSessionStore) Delete(handle string) error {
	delete(m.sessions, handle)
	return nil
}

func (m *memSessionStore) List() ([]string, error) {
	handles := make([]string, 0, len(m.sessions))
	for h := range m.sessions {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles, nil
}

// newTestEngine builds an engine on fresh fakes.
func newTestEngine() (*Engine, *fakeFS, *memSessionStore) {
	fs := newFakeFS()
	sessions := newMemSessionStore()
	return engineOn(fs, sessions), fs, sessions
}

// engineOn builds an engine sharing existing fakes. A second engine on the
// same fakes behaves like a separate CLI invocation: the layer registry
// starts empty and everything is rebuilt from the session.
func engineOn(fs *fakeFS, sessions *memSessionStore) *Engine {
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return New(layers.NewFileStore(fs), sessions, fs, clk)
}

// openFileStage writes a root layer document and opens it as a stage.
func openFileStage(t *testing.T, eng *Engine, fs *fakeFS, root string, subLayers ...string) string {
	t.Helper()
	fs.writeLayerFile(root, "", subLayers...)
	result, err := eng.StageOpen(context.Background(), &StageOpenRequest{CWD: "/ws", File: root})
	if err != nil {
		t.Fatalf("StageOpen(%s) error = %v", root, err)
	}
	return result.Handle
}

// rootChildren returns the current sub-layer list of a stage's root layer.
func rootChildren(t *testing.T, eng *Engine, root string) []string {
	t.Helper()
	l, err := eng.store.FindOrOpen(root)
	if err != nil {
		t.Fatalf("FindOrOpen(%s) error = %v", root, err)
	}
	return l.SubLayerPaths
}

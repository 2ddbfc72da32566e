package session

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/sceneforge/stagedit/internal/fsops"
	"github.com/sceneforge/stagedit/internal/undo"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(fsops.NewRealFS(), t.TempDir())
}

func sampleSession(handle string) *StageSession {
	return &StageSession{
		Handle:     handle,
		RootLayer:  "/ws/root.yaml",
		EditTarget: "anon:child",
		Muted:      []string{"/ws/b.yaml"},
		Locks:      map[string]int{"/ws/a.yaml": 2},
		Layers: []LayerSnapshot{
			{Identifier: "anon:child", Name: "child", Anonymous: true},
			{Identifier: "/ws/root.yaml", SubLayers: []string{"anon:child", "a.yaml"}, Dirty: true},
		},
		History: undo.Stack{
			Done: []undo.ChangeSet{{
				Label: "add anonymous layer",
				Deltas: []undo.Delta{{
					Kind:          undo.KindChildren,
					Layer:         "/ws/root.yaml",
					ChildrenAfter: []string{"anon:child", "a.yaml"},
					DirtyAfter:    true,
				}},
			}},
		},
		UpdatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession("abc123def456")

	if err := store.Save(sess.Handle, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(sess.Handle)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, sess) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, sess)
	}

	// The undo history survives serialization intact
	if len(loaded.History.Done) != 1 || loaded.History.Done[0].Label != "add anonymous layer" {
		t.Errorf("history = %+v", loaded.History)
	}
}

func TestFileStore_Load_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("missing12345")
	if !os.IsNotExist(err) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestFileStore_Load_InvalidHandle(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Load("../escape"); err == nil {
		t.Error("expected error for handle with path separator")
	}
	if _, err := store.Load(""); err == nil {
		t.Error("expected error for empty handle")
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession("abc123def456")

	if err := store.Save(sess.Handle, sess); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(sess.Handle); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(sess.Handle); !os.IsNotExist(err) {
		t.Errorf("Load() after Delete error = %v, want os.ErrNotExist", err)
	}

	// Deleting a missing session is not an error
	if err := store.Delete(sess.Handle); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestFileStore_List(t *testing.T) {
	store := newTestStore(t)

	handles, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(handles) != 0 {
		t.Errorf("List() on empty store = %v", handles)
	}

	for _, h := range []string{"bbb222", "aaa111"} {
		if err := store.Save(h, sampleSession(h)); err != nil {
			t.Fatal(err)
		}
	}

	handles, err = store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !reflect.DeepEqual(handles, []string{"aaa111", "bbb222"}) {
		t.Errorf("List() = %v, want sorted handles", handles)
	}
}

func TestFileStore_List_MissingDirectory(t *testing.T) {
	store := NewFileStore(fsops.NewRealFS(), t.TempDir()+"/never-created")

	handles, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if handles != nil {
		t.Errorf("List() = %v, want nil", handles)
	}
}

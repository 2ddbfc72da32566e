package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestUndo_NothingToUndo(t *testing.T) {
	eng, fs, _ := newTestEngine()
	handle := openFileStage(t, eng, fs, "/ws/root.yaml")

	_, err := eng.Undo(context.Background(), &UndoRequest{Stage: handle})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Undo() error = %v, want ErrValidation", err)
	}
}

func TestRedo_NothingToRedo(t *testing.T) {
	eng, fs, _ := newTestEngine()
	handle := openFileStage(t, eng, fs, "/ws/root.yaml")

	_, err := eng.Redo(context.Background(), &RedoRequest{Stage: handle})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Redo() error = %v, want ErrValidation", err)
	}
}

func TestUndoRedo_WalksTheWholeHistory(t *testing.T) {
	eng, fs, _ := newTestEngine()
	handle := openFileStage(t, eng, fs, "/ws/root.yaml", "a.yaml")
	ctx := context.Background()

	// Three edits
	if err := eng.InsertSubPath(ctx, &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 0, Path: "b.yaml",
	}); err != nil {
		t.Fatal(err)
	}
	if err := eng.InsertSubPath(ctx, &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 2, Path: "c.yaml",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.RemoveSubPaths(ctx, &RemoveSubPathsRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Indices: []int{1},
	}); err != nil {
		t.Fatal(err)
	}
	final := []string{"b.yaml", "c.yaml"}
	if got := rootChildren(t, eng, "/ws/root.yaml"); !reflect.DeepEqual(got, final) {
		t.Fatalf("children after edits = %v, want %v", got, final)
	}

	// Undo everything, checking depths on the way down
	for i := 3; i > 0; i-- {
		result, err := eng.Undo(ctx, &UndoRequest{Stage: handle})
		if err != nil {
			t.Fatalf("Undo() #%d error = %v", 4-i, err)
		}
		if result.UndoDepth != i-1 {
			t.Errorf("UndoDepth = %d, want %d", result.UndoDepth, i-1)
		}
	}
	if got := rootChildren(t, eng, "/ws/root.yaml"); !reflect.DeepEqual(got, []string{"a.yaml"}) {
		t.Errorf("children after full undo = %v, want the original list", got)
	}

	// Redo everything back
	for i := 0; i < 3; i++ {
		if _, err := eng.Redo(ctx, &RedoRequest{Stage: handle}); err != nil {
			t.Fatalf("Redo() #%d error = %v", i+1, err)
		}
	}
	if got := rootChildren(t, eng, "/ws/root.yaml"); !reflect.DeepEqual(got, final) {
		t.Errorf("children after full redo = %v, want %v", got, final)
	}
}

func TestUndo_AcrossInvocations(t *testing.T) {
	fs := newFakeFS()
	sessions := newMemSessionStore()

	// First invocation: edit
	eng := engineOn(fs, sessions)
	handle := openFileStage(t, eng, fs, "/ws/root.yaml", "a.yaml")
	if err := eng.InsertSubPath(context.Background(), &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 0, Path: "b.yaml",
	}); err != nil {
		t.Fatal(err)
	}

	// Second invocation: undo. The change set was rebuilt from the
	// persisted session, not from live memory.
	fresh := engineOn(fs, sessions)
	result, err := fresh.Undo(context.Background(), &UndoRequest{Stage: handle})
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if result.Label != "insert sub-layer" {
		t.Errorf("Label = %q", result.Label)
	}
	if got := rootChildren(t, fresh, "/ws/root.yaml"); !reflect.DeepEqual(got, []string{"a.yaml"}) {
		t.Errorf("children after cross-invocation undo = %v", got)
	}

	// Third invocation: redo
	third := engineOn(fs, sessions)
	if _, err := third.Redo(context.Background(), &RedoRequest{Stage: handle}); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := rootChildren(t, third, "/ws/root.yaml"); !reflect.DeepEqual(got, []string{"b.yaml", "a.yaml"}) {
		t.Errorf("children after cross-invocation redo = %v", got)
	}
}

func TestUndo_AfterSave_AcrossInvocations(t *testing.T) {
	fs := newFakeFS()
	sessions := newMemSessionStore()

	// First invocation: add a sub-layer, save the stage, then undo. The
	// file on disk keeps the saved content; the session must carry the
	// undone state past it.
	eng := engineOn(fs, sessions)
	handle := openFileStage(t, eng, fs, "/ws/root.yaml")
	ctx := context.Background()

	added, err := eng.AddAnonymous(ctx, &AddAnonymousRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Name: "scratch",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.StageSave(ctx, &StageSaveRequest{Stage: handle}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Undo(ctx, &UndoRequest{Stage: handle}); err != nil {
		t.Fatal(err)
	}
	if got := rootChildren(t, eng, "/ws/root.yaml"); len(got) != 0 {
		t.Fatalf("children after undo = %v, want none", got)
	}

	// Second invocation: the undone state wins over the saved file, and
	// the root shows up as pending a re-save.
	fresh := engineOn(fs, sessions)
	status, err := fresh.StageStatus(ctx, &StageStatusRequest{Stage: handle})
	if err != nil {
		t.Fatal(err)
	}
	if got := rootChildren(t, fresh, "/ws/root.yaml"); len(got) != 0 {
		t.Errorf("children in a new invocation = %v, want none", got)
	}
	if !reflect.DeepEqual(status.DirtyLayers, []string{"/ws/root.yaml"}) {
		t.Errorf("DirtyLayers = %v, want the root with unsaved changes", status.DirtyLayers)
	}

	// Third invocation: redo restores the saved content and the root
	// agrees with its file again.
	third := engineOn(fs, sessions)
	if _, err := third.Redo(ctx, &RedoRequest{Stage: handle}); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := rootChildren(t, third, "/ws/root.yaml"); !reflect.DeepEqual(got, []string{added.Identifier}) {
		t.Errorf("children after cross-invocation redo = %v, want %v", got, []string{added.Identifier})
	}
	status, err = third.StageStatus(ctx, &StageStatusRequest{Stage: handle})
	if err != nil {
		t.Fatal(err)
	}
	if len(status.DirtyLayers) != 0 {
		t.Errorf("DirtyLayers after redo = %v, want none", status.DirtyLayers)
	}
}

func TestHistory_FreshEditDiscardsRedo(t *testing.T) {
	eng, fs, _ := newTestEngine()
	handle := openFileStage(t, eng, fs, "/ws/root.yaml", "a.yaml")
	ctx := context.Background()

	if err := eng.InsertSubPath(ctx, &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 0, Path: "b.yaml",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Undo(ctx, &UndoRequest{Stage: handle}); err != nil {
		t.Fatal(err)
	}

	// A new edit while redo is pending discards the undone branch
	if err := eng.InsertSubPath(ctx, &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 0, Path: "c.yaml",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Redo(ctx, &RedoRequest{Stage: handle}); !errors.Is(err, ErrValidation) {
		t.Errorf("Redo() error = %v, want ErrValidation", err)
	}
}

func TestUndo_RestoresDirtyFlag(t *testing.T) {
	eng, fs, _ := newTestEngine()
	handle := openFileStage(t, eng, fs, "/ws/root.yaml", "a.yaml")
	ctx := context.Background()

	if err := eng.InsertSubPath(ctx, &InsertSubPathRequest{
		CWD: "/ws", Stage: handle, Parent: "root.yaml", Index: 0, Path: "b.yaml",
	}); err != nil {
		t.Fatal(err)
	}
	l, _ := eng.store.FindOrOpen("/ws/root.yaml")
	if !l.Dirty {
		t.Fatal("layer should be dirty after the edit")
	}

	if _, err := eng.Undo(ctx, &UndoRequest{Stage: handle}); err != nil {
		t.Fatal(err)
	}
	if l.Dirty {
		t.Error("undoing the only edit should leave the layer clean")
	}
}

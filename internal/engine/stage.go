package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/session"
	"github.com/sceneforge/stagedit/internal/stack"
	"github.com/sceneforge/stagedit/internal/undo"
)

// StageNewRequest represents a request to create a stage with a fresh
// anonymous root layer.
type StageNewRequest struct {
	// Name is the display name of the root layer
	Name string
}

// StageNewResult represents the result of creating a stage.
type StageNewResult struct {
	// Handle is the new stage handle
	Handle string

	// RootLayer is the identifier of the anonymous root layer
	RootLayer string
}

// StageOpenRequest represents a request to open a file-backed root layer
// as a stage.
type StageOpenRequest struct {
	// CWD is the current working directory
	CWD string

	// File is the path of the root layer file
	File string
}

// StageOpenResult represents the result of opening a stage.
type StageOpenResult struct {
	// Handle is the stage handle
	Handle string

	// RootLayer is the identifier of the root layer
	RootLayer string

	// Existing reports whether a session for this root already existed
	Existing bool
}

// StageInfo summarizes one stage session.
type StageInfo struct {
	// Handle is the stage handle
	Handle string `json:"handle"`

	// RootLayer is the identifier of the root layer
	RootLayer string `json:"rootLayer"`

	// EditTarget is the identifier of the current edit target
	EditTarget string `json:"editTarget"`

	// UpdatedAt is when the session was last written
	UpdatedAt time.Time `json:"updatedAt"`
}

// StageListResult represents the result of listing stages.
type StageListResult struct {
	// Stages is the list of known stage sessions
	Stages []StageInfo
}

// StageRemoveRequest represents a request to forget a stage session.
type StageRemoveRequest struct {
	// Stage is the stage handle
	Stage string
}

// StageSaveRequest represents a request to save a stage's dirty layers.
type StageSaveRequest struct {
	// Stage is the stage handle
	Stage string
}

// StageSaveResult represents the result of saving a stage.
type StageSaveResult struct {
	// Saved is the list of layers written to disk
	Saved []string

	// SkippedAnonymous is the list of anonymous layers that stay
	// session-only
	SkippedAnonymous []string
}

// StageStatusRequest represents a request for a stage's composed view.
type StageStatusRequest struct {
	// Stage is the stage handle
	Stage string
}

// StageStatusResult represents a stage's composed view.
type StageStatusResult struct {
	// Handle is the stage handle
	Handle string `json:"handle"`

	// RootLayer is the identifier of the root layer
	RootLayer string `json:"rootLayer"`

	// EditTarget is the identifier of the current edit target
	EditTarget string `json:"editTarget"`

	// Stack is the composed layer stack, strongest first, muted excluded
	Stack []string `json:"stack"`

	// UsedLayers is the composed stack restricted to resolvable layers
	UsedLayers []string `json:"usedLayers"`

	// Muted is the sorted list of muted identifiers
	Muted []string `json:"muted,omitempty"`

	// Locks maps locked identifiers to "user" or "system"
	Locks map[string]string `json:"locks,omitempty"`

	// DirtyLayers is the list of layers with unsaved changes
	DirtyLayers []string `json:"dirtyLayers,omitempty"`

	// AnyModifiable reports whether at least one layer accepts edits
	AnyModifiable bool `json:"anyModifiable"`
}

// StageNew creates a stage whose root is a fresh anonymous layer, with the
// edit target on the root.
func (e *Engine) StageNew(ctx context.Context, req *StageNewRequest) (*StageNewResult, error) {
	name := req.Name
	if name == "" {
		name = "stage"
	}
	root := e.store.CreateAnonymous(name)
	handle := session.ComputeStageHandle(root.Identifier)

	c := &stageCtx{e: e, stage: stack.New(handle, root.Identifier), hist: &undo.Stack{}}
	if err := c.persist(); err != nil {
		return nil, err
	}

	return &StageNewResult{Handle: handle, RootLayer: root.Identifier}, nil
}

// StageOpen opens (or finds) a file-backed root layer as a stage. Opening
// the same file again returns the existing session.
func (e *Engine) StageOpen(ctx context.Context, req *StageOpenRequest) (*StageOpenResult, error) {
	id := normalizeIdentifier(req.CWD, req.File)
	if _, err := e.store.FindOrOpen(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	handle := session.ComputeStageHandle(id)
	if _, err := e.sessions.Load(handle); err == nil {
		return &StageOpenResult{Handle: handle, RootLayer: id, Existing: true}, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stage session: %w", err)
	}

	c := &stageCtx{e: e, stage: stack.New(handle, id), hist: &undo.Stack{}}
	if err := c.persist(); err != nil {
		return nil, err
	}

	return &StageOpenResult{Handle: handle, RootLayer: id}, nil
}

// StageList returns all known stage sessions.
func (e *Engine) StageList(ctx context.Context) (*StageListResult, error) {
	handles, err := e.sessions.List()
	if err != nil {
		return nil, err
	}

	result := &StageListResult{}
	for _, handle := range handles {
		sess, err := e.sessions.Load(handle)
		if err != nil {
			return nil, fmt.Errorf("failed to load stage session %s: %w", handle, err)
		}
		result.Stages = append(result.Stages, StageInfo{
			Handle:     sess.Handle,
			RootLayer:  sess.RootLayer,
			EditTarget: sess.EditTarget,
			UpdatedAt:  sess.UpdatedAt,
		})
	}
	return result, nil
}

// StageRemove forgets a stage session. Layer files on disk are untouched.
func (e *Engine) StageRemove(ctx context.Context, req *StageRemoveRequest) error {
	if _, err := e.sessions.Load(req.Stage); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: stage %s does not exist", ErrNotFound, req.Stage)
		}
		return fmt.Errorf("failed to load stage session: %w", err)
	}
	return e.sessions.Delete(req.Stage)
}

// StageSave writes every dirty file-backed layer of the stage to disk.
// All layers are checked for save permission before anything is written;
// a system-locked dirty layer fails the whole save up front.
func (e *Engine) StageSave(ctx context.Context, req *StageSaveRequest) (*StageSaveResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}

	var toSave []*layers.Layer
	result := &StageSaveResult{}
	for _, id := range c.stage.AllLayers(c.resolver()) {
		l := e.store.Find(id)
		if l == nil || !l.Dirty {
			continue
		}
		if l.Anonymous {
			result.SkippedAnonymous = append(result.SkippedAnonymous, id)
			continue
		}
		if !c.stage.CanSave(id) {
			return nil, fmt.Errorf("%w: layer %s is system-locked and cannot be saved", ErrPermission, id)
		}
		toSave = append(toSave, l)
	}

	for _, l := range toSave {
		if err := e.store.Save(l); err != nil {
			return nil, err
		}
		result.Saved = append(result.Saved, l.Identifier)
	}

	if err := c.persist(); err != nil {
		return nil, err
	}
	return result, nil
}

// StageStatus returns the stage's composed view.
func (e *Engine) StageStatus(ctx context.Context, req *StageStatusRequest) (*StageStatusResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}
	res := c.resolver()

	var locks map[string]string
	if table := c.stage.Locks(); len(table) > 0 {
		locks = make(map[string]string, len(table))
		for id, state := range table {
			locks[id] = state.String()
		}
	}

	var dirty []string
	for _, id := range c.stage.AllLayers(res) {
		if l := e.store.Find(id); l != nil && l.Dirty {
			dirty = append(dirty, id)
		}
	}

	return &StageStatusResult{
		Handle:        c.stage.Handle,
		RootLayer:     c.stage.RootLayer,
		EditTarget:    c.stage.EditTarget,
		Stack:         c.stage.LayerStack(res),
		UsedLayers:    c.stage.UsedLayers(res),
		Muted:         c.stage.MutedLayers(),
		Locks:         locks,
		DirtyLayers:   dirty,
		AnyModifiable: c.stage.IsAnyLayerModifiable(res),
	}, nil
}

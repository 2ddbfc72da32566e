package engine

import (
	"context"
	"fmt"

	"github.com/sceneforge/stagedit/internal/undo"
)

// TargetQueryRequest represents a request to query a stage's edit target.
type TargetQueryRequest struct {
	// Stage is the stage handle
	Stage string
}

// TargetQueryResult represents the result of querying the edit target.
type TargetQueryResult struct {
	// Target is the identifier of the current edit target layer
	Target string
}

// TargetSetRequest represents a request to move a stage's edit target.
type TargetSetRequest struct {
	// CWD is the current working directory
	CWD string

	// Stage is the stage handle
	Stage string

	// Target is the identifier of the layer to target
	Target string
}

// TargetQuery returns the current edit target of a stage.
func (e *Engine) TargetQuery(ctx context.Context, req *TargetQueryRequest) (*TargetQueryResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}
	return &TargetQueryResult{Target: c.stage.EditTarget}, nil
}

// TargetSet moves the edit target. The target must resolve to a layer that
// is reachable in the stage's current layer stack.
func (e *Engine) TargetSet(ctx context.Context, req *TargetSetRequest) error {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return err
	}

	l, err := e.resolveLayer(req.CWD, req.Target)
	if err != nil {
		return err
	}
	if !c.stage.Reachable(c.resolver(), l.Identifier) {
		return fmt.Errorf("%w: layer %s is not in the stage's layer stack", ErrNotFound, req.Target)
	}

	if c.stage.EditTarget == l.Identifier {
		return nil
	}

	cs := undo.ChangeSet{
		Label: "set edit target",
		Deltas: []undo.Delta{{
			Kind:         undo.KindEditTarget,
			TargetBefore: c.stage.EditTarget,
			TargetAfter:  l.Identifier,
		}},
	}
	return c.commit(cs)
}

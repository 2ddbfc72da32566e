package engine

import (
	"context"
	"fmt"
)

// UndoRequest represents a request to undo the last operation on a stage.
type UndoRequest struct {
	// Stage is the stage handle
	Stage string
}

// RedoRequest represents a request to re-apply the last undone operation.
type RedoRequest struct {
	// Stage is the stage handle
	Stage string
}

// HistoryResult represents the result of an undo or redo.
type HistoryResult struct {
	// Label describes the operation that was undone or redone
	Label string

	// UndoDepth is the number of operations that can still be undone
	UndoDepth int

	// RedoDepth is the number of operations that can still be redone
	RedoDepth int
}

// Undo reverts the most recent change set on the stage. The captured
// before images are replayed in reverse order, restoring the exact
// pre-operation state including the edit target.
func (e *Engine) Undo(ctx context.Context, req *UndoRequest) (*HistoryResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}

	cs, ok := c.hist.Undo()
	if !ok {
		return nil, fmt.Errorf("%w: nothing to undo", ErrValidation)
	}
	if err := cs.Revert(c); err != nil {
		return nil, fmt.Errorf("failed to undo %q: %w", cs.Label, err)
	}
	if err := c.persist(); err != nil {
		return nil, err
	}

	return &HistoryResult{
		Label:     cs.Label,
		UndoDepth: len(c.hist.Done),
		RedoDepth: len(c.hist.Undone),
	}, nil
}

// Redo re-applies the most recently undone change set in its original
// order.
func (e *Engine) Redo(ctx context.Context, req *RedoRequest) (*HistoryResult, error) {
	c, err := e.loadStage(req.Stage)
	if err != nil {
		return nil, err
	}

	cs, ok := c.hist.Redo()
	if !ok {
		return nil, fmt.Errorf("%w: nothing to redo", ErrValidation)
	}
	if err := cs.Apply(c); err != nil {
		return nil, fmt.Errorf("failed to redo %q: %w", cs.Label, err)
	}
	if err := c.persist(); err != nil {
		return nil, err
	}

	return &HistoryResult{
		Label:     cs.Label,
		UndoDepth: len(c.hist.Done),
		RedoDepth: len(c.hist.Undone),
	}, nil
}

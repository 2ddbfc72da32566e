package engine

import "errors"

var (
	// ErrNotFound indicates an unresolvable layer, parent, or stage.
	ErrNotFound = errors.New("not found")

	// ErrIndex indicates an out-of-range insertion, removal, or move index.
	ErrIndex = errors.New("index out of range")

	// ErrCycle indicates a move that would nest a layer under its own
	// descendant.
	ErrCycle = errors.New("cycle detected")

	// ErrPermission indicates a mutation attempted on a locked layer.
	ErrPermission = errors.New("permission denied")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")
)

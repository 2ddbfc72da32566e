package stack

import "sort"

// LockState is the tri-state write permission of a layer on a stage.
type LockState int

const (
	// Unlocked layers accept edits and saves.
	Unlocked LockState = iota

	// UserLocked layers refuse edits until explicitly unlocked by the
	// user. Saving is still permitted.
	UserLocked

	// SystemLocked layers refuse both edits and saves. The lock derives
	// from filesystem write permission and is lifted only by a refresh
	// that re-probes the file as writable.
	SystemLocked
)

// String returns the CLI-facing name of the lock state.
func (s LockState) String() string {
	switch s {
	case UserLocked:
		return "user"
	case SystemLocked:
		return "system"
	default:
		return "unlocked"
	}
}

// LockOf returns the lock state recorded for the identifier.
func (st *Stage) LockOf(identifier string) LockState {
	return st.locks[identifier]
}

// SetLock records a lock state for the identifier. Each layer's state is
// independent: cascaded locks are recorded per layer at propagation time
// and are not re-derived on later structural changes.
func (st *Stage) SetLock(identifier string, state LockState) {
	if state == Unlocked {
		delete(st.locks, identifier)
	} else {
		st.locks[identifier] = state
	}
}

// CanEdit reports whether the layer's content (including its sub-layer
// list) may be modified.
func (st *Stage) CanEdit(identifier string) bool {
	return st.locks[identifier] == Unlocked
}

// CanSave reports whether the layer may be written to its backing file.
// Only a system lock blocks saving.
func (st *Stage) CanSave(identifier string) bool {
	return st.locks[identifier] != SystemLocked
}

// LockedLayers returns the identifiers with a non-default lock state, in
// sorted order.
func (st *Stage) LockedLayers() []string {
	out := make([]string, 0, len(st.locks))
	for id := range st.locks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Locks returns a copy of the stage's lock table.
func (st *Stage) Locks() map[string]LockState {
	out := make(map[string]LockState, len(st.locks))
	for id, state := range st.locks {
		out[id] = state
	}
	return out
}

// IsAnyLayerModifiable reports whether at least one layer in the stage's
// full layer stack still has edit permission.
func (st *Stage) IsAnyLayerModifiable(res Resolver) bool {
	for _, id := range st.AllLayers(res) {
		if st.CanEdit(id) {
			return true
		}
	}
	return false
}

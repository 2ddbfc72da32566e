// Package undo provides the reversible change-set framework.
//
// Every mutating operation captures one ChangeSet up front: a sequence of
// typed deltas holding full before and after images of each affected piece
// of state (a parent's child list, the edit target, a lock or mute flag).
// Applying a change set replays the after images in order; reverting
// replays the before images in reverse order. Inversion is a pure function
// of the captured memento, never recomputed from live state, so undo
// restores exactly what was there even when live recomputation (e.g.
// reachability of a shared layer) would now produce a different answer.
//
// Deltas are plain JSON-serializable values, which lets a stage's undo and
// redo history persist across CLI invocations as part of its session file.
package undo

// Kind discriminates delta payloads.
type Kind string

const (
	// KindChildren replaces a layer's sub-layer list, display name, and
	// dirty flag.
	KindChildren Kind = "children"

	// KindEditTarget moves the stage's edit target.
	KindEditTarget Kind = "editTarget"

	// KindLock changes a layer's lock state on the stage.
	KindLock Kind = "lock"

	// KindMute changes a layer's mute flag on the stage.
	KindMute Kind = "mute"
)

// Delta is one reversible state transition. Only the fields relevant to
// its Kind are populated.
type Delta struct {
	Kind Kind `json:"kind"`

	// Layer is the affected layer identifier (children, lock, mute).
	Layer string `json:"layer,omitempty"`

	ChildrenBefore []string `json:"childrenBefore,omitempty"`
	ChildrenAfter  []string `json:"childrenAfter,omitempty"`
	NameBefore     string   `json:"nameBefore,omitempty"`
	NameAfter      string   `json:"nameAfter,omitempty"`
	DirtyBefore    bool     `json:"dirtyBefore,omitempty"`
	DirtyAfter     bool     `json:"dirtyAfter,omitempty"`

	TargetBefore string `json:"targetBefore,omitempty"`
	TargetAfter  string `json:"targetAfter,omitempty"`

	LockBefore int `json:"lockBefore,omitempty"`
	LockAfter  int `json:"lockAfter,omitempty"`

	MutedBefore bool `json:"mutedBefore,omitempty"`
	MutedAfter  bool `json:"mutedAfter,omitempty"`
}

// Applier materializes delta images onto live state. The engine's stage
// context implements it.
type Applier interface {
	ApplyChildren(layer, name string, children []string, dirty bool) error
	ApplyEditTarget(target string) error
	ApplyLock(layer string, state int) error
	ApplyMute(layer string, muted bool) error
}

// ChangeSet is one user-facing operation's worth of deltas, applied and
// reverted atomically in order.
type ChangeSet struct {
	Label  string  `json:"label"`
	Deltas []Delta `json:"deltas"`
}

// Apply replays the after images in recorded order.
func (cs *ChangeSet) Apply(a Applier) error {
	for i := range cs.Deltas {
		d := &cs.Deltas[i]
		if err := applyImage(a, d, false); err != nil {
			return err
		}
	}
	return nil
}

// Revert replays the before images in reverse order.
func (cs *ChangeSet) Revert(a Applier) error {
	for i := len(cs.Deltas) - 1; i >= 0; i-- {
		d := &cs.Deltas[i]
		if err := applyImage(a, d, true); err != nil {
			return err
		}
	}
	return nil
}

func applyImage(a Applier, d *Delta, before bool) error {
	switch d.Kind {
	case KindChildren:
		if before {
			return a.ApplyChildren(d.Layer, d.NameBefore, d.ChildrenBefore, d.DirtyBefore)
		}
		return a.ApplyChildren(d.Layer, d.NameAfter, d.ChildrenAfter, d.DirtyAfter)
	case KindEditTarget:
		if before {
			return a.ApplyEditTarget(d.TargetBefore)
		}
		return a.ApplyEditTarget(d.TargetAfter)
	case KindLock:
		if before {
			return a.ApplyLock(d.Layer, d.LockBefore)
		}
		return a.ApplyLock(d.Layer, d.LockAfter)
	case KindMute:
		if before {
			return a.ApplyMute(d.Layer, d.MutedBefore)
		}
		return a.ApplyMute(d.Layer, d.MutedAfter)
	}
	return nil
}

// Stack is a stage's undo/redo history. Pushing a fresh change set
// discards anything previously undone, matching host undo queue behavior.
type Stack struct {
	Done   []ChangeSet `json:"done,omitempty"`
	Undone []ChangeSet `json:"undone,omitempty"`
}

// Push records a newly applied change set and clears the redo history.
func (s *Stack) Push(cs ChangeSet) {
	s.Done = append(s.Done, cs)
	s.Undone = nil
}

// Undo moves the most recent change set onto the redo side and returns it.
func (s *Stack) Undo() (ChangeSet, bool) {
	if len(s.Done) == 0 {
		return ChangeSet{}, false
	}
	cs := s.Done[len(s.Done)-1]
	s.Done = s.Done[:len(s.Done)-1]
	s.Undone = append(s.Undone, cs)
	return cs, true
}

// Redo moves the most recently undone change set back onto the done side
// and returns it.
func (s *Stack) Redo() (ChangeSet, bool) {
	if len(s.Undone) == 0 {
		return ChangeSet{}, false
	}
	cs := s.Undone[len(s.Undone)-1]
	s.Undone = s.Undone[:len(s.Undone)-1]
	s.Done = append(s.Done, cs)
	return cs, true
}

// Package history keeps the undo and redo stacks of surface snapshots.
package history

import (
	"github.com/example/sketchpad/internal/canvas"
)

// History holds two stacks of snapshots. A new recording clears the redo
// stack. Limit caps the undo depth; zero keeps every entry.
type History struct {
	undo  []canvas.Snapshot
	redo  []canvas.Snapshot
	limit int
}

// New returns an empty history. A non-positive limit means unbounded.
func New(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Limit reports the configured undo depth, zero for unbounded.
func (h *History) Limit() int { return h.limit }

// Record pushes snap onto the undo stack and discards every redo entry.
func (h *History) Record(snap canvas.Snapshot) {
	h.undo = append(h.undo, snap)
	h.redo = h.redo[:0]
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		copy(h.undo, h.undo[drop:])
		for i := len(h.undo) - drop; i < len(h.undo); i++ {
			h.undo[i] = canvas.Snapshot{}
		}
		h.undo = h.undo[:len(h.undo)-drop]
	}
}

// Undo hands the newest undo entry to apply. Only when apply succeeds is the
// entry popped and current pushed onto the redo stack, so a failed apply
// leaves both stacks as they were. An empty stack reports false with no error.
func (h *History) Undo(current canvas.Snapshot, apply func(canvas.Snapshot) error) (bool, error) {
	return step(&h.undo, &h.redo, current, apply)
}

// Redo is the mirror of Undo.
func (h *History) Redo(current canvas.Snapshot, apply func(canvas.Snapshot) error) (bool, error) {
	return step(&h.redo, &h.undo, current, apply)
}

func step(from, to *[]canvas.Snapshot, current canvas.Snapshot, apply func(canvas.Snapshot) error) (bool, error) {
	n := len(*from)
	if n == 0 {
		return false, nil
	}
	top := (*from)[n-1]
	if err := apply(top); err != nil {
		return false, err
	}
	(*from)[n-1] = canvas.Snapshot{}
	*from = (*from)[:n-1]
	*to = append(*to, current)
	return true, nil
}

// CanUndo reports whether an undo entry exists.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo entry exists.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the depth of both stacks.
func (h *History) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

// Reset empties both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

package history

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/example/sketchpad/internal/canvas"
)

func snap(t *testing.T, v uint8) canvas.Snapshot {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: v, A: 255})
	s, err := canvas.Encode(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return s
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	h := New(0)
	called := false
	apply := func(canvas.Snapshot) error { called = true; return nil }
	for name, fn := range map[string]func(canvas.Snapshot, func(canvas.Snapshot) error) (bool, error){
		"undo": h.Undo,
		"redo": h.Redo,
	} {
		ok, err := fn(snap(t, 1), apply)
		if ok || err != nil {
			t.Fatalf("%s on empty history: got %v, %v", name, ok, err)
		}
	}
	if called {
		t.Fatal("apply called on empty history")
	}
}

func TestUndoRedoMoveEntries(t *testing.T) {
	h := New(0)
	s0, s1, s2 := snap(t, 10), snap(t, 20), snap(t, 30)
	h.Record(s0)
	h.Record(s1)

	var got canvas.Snapshot
	apply := func(s canvas.Snapshot) error { got = s; return nil }

	ok, err := h.Undo(s2, apply)
	if !ok || err != nil {
		t.Fatalf("undo: %v %v", ok, err)
	}
	if !got.Equal(s1) {
		t.Fatal("undo applied the wrong snapshot")
	}
	if u, r := h.Len(); u != 1 || r != 1 {
		t.Fatalf("expected 1/1 entries, got %d/%d", u, r)
	}

	ok, err = h.Redo(s1, apply)
	if !ok || err != nil {
		t.Fatalf("redo: %v %v", ok, err)
	}
	if !got.Equal(s2) {
		t.Fatal("redo applied the wrong snapshot")
	}
	if h.CanRedo() {
		t.Fatal("redo stack should be empty")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	h := New(0)
	h.Record(snap(t, 1))
	if _, err := h.Undo(snap(t, 2), func(canvas.Snapshot) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !h.CanRedo() {
		t.Fatal("expected redo entry after undo")
	}
	h.Record(snap(t, 3))
	if h.CanRedo() {
		t.Fatal("record did not clear redo")
	}
}

func TestFailedApplyKeepsStacks(t *testing.T) {
	h := New(0)
	h.Record(snap(t, 1))
	h.Record(snap(t, 2))
	boom := errors.New("boom")
	ok, err := h.Undo(snap(t, 3), func(canvas.Snapshot) error { return boom })
	if ok || !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v %v", ok, err)
	}
	if u, r := h.Len(); u != 2 || r != 0 {
		t.Fatalf("stacks changed after failed apply: %d/%d", u, r)
	}
}

func TestLimitDropsOldest(t *testing.T) {
	h := New(2)
	h.Record(snap(t, 1))
	h.Record(snap(t, 2))
	h.Record(snap(t, 3))
	if u, _ := h.Len(); u != 2 {
		t.Fatalf("expected 2 entries, got %d", u)
	}
	var seen []canvas.Snapshot
	apply := func(s canvas.Snapshot) error { seen = append(seen, s); return nil }
	for h.CanUndo() {
		if _, err := h.Undo(snap(t, 9), apply); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 2 || !seen[0].Equal(snap(t, 3)) || !seen[1].Equal(snap(t, 2)) {
		t.Fatal("limit dropped the wrong entries")
	}
}

func TestReset(t *testing.T) {
	h := New(0)
	h.Record(snap(t, 1))
	h.Reset()
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("reset left entries behind")
	}
}

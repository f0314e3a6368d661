// Package storetest holds the behaviour every core.DrawingStore must share.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/example/sketchpad/internal/core"
)

// PNG returns an encoded w x h image with one red pixel.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Run exercises save, get, list and delete against s, which must start
// empty.
func Run(t *testing.T, s core.DrawingStore) {
	t.Helper()
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d drawings", len(list))
	}

	first := PNG(t, 4, 3)
	d1, err := s.Save(ctx, "first.png", first)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if d1.Width != 4 || d1.Height != 3 || d1.Name != "first.png" || d1.Size != len(first) {
		t.Fatalf("unexpected metadata %+v", d1)
	}
	d2, err := s.Save(ctx, "second.png", PNG(t, 2, 2))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, d1.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got.Data, first) || got.Name != "first.png" || got.Width != 4 {
		t.Fatalf("get returned %+v", got.Meta())
	}

	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 drawings, got %d", len(list))
	}
	if list[0].ID != d2.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}
	for _, d := range list {
		if d.Data != nil {
			t.Fatal("list should not carry data")
		}
	}

	if _, err := s.Save(ctx, "bad", []byte("not a png")); err == nil {
		t.Fatal("saving non-PNG data should fail")
	}

	if err := s.Delete(ctx, d1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, d1.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	if err := s.Delete(ctx, d1.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, ulid.Make().String()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get unknown: %v", err)
	}
}

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/sketchpad/internal/canvas"
)

func TestCheckerboardAlternates(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	c := DefaultChecker()
	Checkerboard(dst, image.Rect(4, 4, 16, 16), c)
	if dst.RGBAAt(4, 4) != c.Light {
		t.Fatal("pattern should start light at the rectangle origin")
	}
	if dst.RGBAAt(12, 4) != c.Dark {
		t.Fatal("expected dark square after one step")
	}
	if dst.RGBAAt(0, 0).A != 0 {
		t.Fatal("checkerboard painted outside its rectangle")
	}
}

func TestComposeWithoutBackdropKeepsAlpha(t *testing.T) {
	s := canvas.New(10, 10)
	s.Stroke(image.Pt(0, 0), image.Pt(9, 0), color.RGBA{R: 255, A: 255}, 1)
	out := Compose(s.Image(), Options{})
	if !canvas.SamePixels(out, s.Image()) {
		t.Fatal("plain composition should equal the surface")
	}
}

func TestComposeBackdropShowsThroughTransparency(t *testing.T) {
	s := canvas.New(10, 10)
	red := color.RGBA{R: 255, A: 255}
	s.Stroke(image.Pt(0, 0), image.Pt(9, 0), red, 1)
	c := DefaultChecker()
	out := Compose(s.Image(), Options{Backdrop: &c})
	if out.RGBAAt(3, 0) != red {
		t.Fatal("surface pixels should cover the backdrop")
	}
	if px := out.RGBAAt(3, 5); px != c.Light && px != c.Dark {
		t.Fatalf("expected backdrop at transparent pixel, got %v", px)
	}
}

func TestComposePreviewLeavesSurface(t *testing.T) {
	s := canvas.New(40, 40)
	before := s.Clone()
	sh := canvas.Shape{Kind: canvas.ShapeLine, From: image.Pt(0, 20), To: image.Pt(39, 20), Color: color.RGBA{B: 255, A: 255}, Width: 1}
	out := Compose(s.Image(), Options{Preview: &sh})
	if out.RGBAAt(20, 20) != sh.Color {
		t.Fatal("preview not painted")
	}
	if !canvas.SamePixels(before, s.Image()) {
		t.Fatal("preview modified the surface")
	}
}

func TestComposeIntoOffsetClipsPreview(t *testing.T) {
	s := canvas.New(10, 10)
	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	sh := canvas.Shape{Kind: canvas.ShapeLine, From: image.Pt(-10, 5), To: image.Pt(20, 5), Color: color.RGBA{G: 255, A: 255}, Width: 1}
	ComposeInto(dst, image.Pt(10, 10), s.Image(), Options{Preview: &sh})
	if dst.RGBAAt(15, 15) != sh.Color {
		t.Fatal("preview missing inside the canvas area")
	}
	if dst.RGBAAt(5, 15).A != 0 || dst.RGBAAt(25, 15).A != 0 {
		t.Fatal("preview leaked outside the canvas area")
	}
}

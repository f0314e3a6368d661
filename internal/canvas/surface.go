// Package canvas implements the raster drawing surface and its snapshots.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is a fixed-size RGBA raster that starts fully transparent. It is
// not safe for concurrent use.
type Surface struct {
	img *image.RGBA
}

// New creates a transparent surface. Dimensions below one are raised to one.
func New(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// FromImage creates a surface holding a copy of src rebased to the origin.
func FromImage(src image.Image) *Surface {
	b := src.Bounds()
	s := New(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
	return s
}

// Bounds returns the surface rectangle, always anchored at (0,0).
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Image exposes the live pixels. Callers must not retain it across mutations.
func (s *Surface) Image() *image.RGBA { return s.img }

// Clone returns an independent copy of the pixels.
func (s *Surface) Clone() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Stroke draws a round-capped segment.
func (s *Surface) Stroke(from, to image.Point, col color.RGBA, width int) {
	strokeLine(s.img, from.X, from.Y, to.X, to.Y, width, col)
}

// StrokeRect outlines the rectangle with corners a and b.
func (s *Surface) StrokeRect(a, b image.Point, col color.RGBA, width int) {
	strokeRect(s.img, a, b, width, col)
}

// StrokeCircle outlines a circle of radius r around center.
func (s *Surface) StrokeCircle(center image.Point, r float64, col color.RGBA, width int) {
	strokeCircle(s.img, center.X, center.Y, r, width, col)
}

// DrawShape rasterises a discrete shape.
func (s *Surface) DrawShape(sh Shape) { Paint(s.img, sh) }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// Replace clears the surface and copies src onto it at the origin. Parts of
// src outside the surface are clipped.
func (s *Surface) Replace(src image.Image) {
	s.Clear()
	b := src.Bounds()
	draw.Draw(s.img, image.Rect(0, 0, b.Dx(), b.Dy()), src, b.Min, draw.Src)
}

// Encode captures the current pixels.
func (s *Surface) Encode() (Snapshot, error) { return Encode(s.img) }

// Restore decodes snap and replaces the surface with it. The surface is left
// untouched when decoding fails.
func (s *Surface) Restore(snap Snapshot) error {
	img, err := DecodeImage(snap.data)
	if err != nil {
		return err
	}
	s.Replace(img)
	return nil
}

// SamePixels reports whether two images have identical bounds and pixels.
func SamePixels(a, b *image.RGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.Bounds().Eq(b.Bounds()) {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

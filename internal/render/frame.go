// Package render composes what hosts display: the surface over a
// transparency checkerboard plus the live preview of a pending shape.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/example/sketchpad/internal/canvas"
)

// Checker describes the backdrop shown behind transparent pixels.
type Checker struct {
	Size  int
	Light color.RGBA
	Dark  color.RGBA
}

// DefaultChecker returns the light grey backdrop.
func DefaultChecker() Checker {
	return Checker{Size: 8, Light: color.RGBA{220, 220, 220, 255}, Dark: color.RGBA{192, 192, 192, 255}}
}

// Checkerboard fills rect of dst with c. Squares are aligned to rect.Min so
// the pattern does not shift with the destination offset.
func Checkerboard(dst *image.RGBA, rect image.Rectangle, c Checker) {
	size := c.Size
	if size < 1 {
		size = 1
	}
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 == 0 {
				dst.SetRGBA(x, y, c.Light)
			} else {
				dst.SetRGBA(x, y, c.Dark)
			}
		}
	}
}

// Options controls Compose.
type Options struct {
	// Backdrop draws a checkerboard under the surface when set.
	Backdrop *Checker
	// Preview, when set, is painted on top without touching the surface.
	Preview *canvas.Shape
}

// Compose returns a new image the size of surface holding the frame.
func Compose(surface *image.RGBA, opts Options) *image.RGBA {
	b := surface.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	ComposeInto(out, out.Bounds().Min, surface, opts)
	return out
}

// ComposeInto draws the frame onto dst with the surface origin at at.
func ComposeInto(dst *image.RGBA, at image.Point, surface *image.RGBA, opts Options) {
	b := surface.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	op := draw.Src
	if opts.Backdrop != nil {
		Checkerboard(dst, r, *opts.Backdrop)
		op = draw.Over
	}
	draw.Draw(dst, r, surface, b.Min, op)
	if opts.Preview != nil {
		PaintPreview(dst, r, at, *opts.Preview)
	}
}

// PaintPreview paints sh onto dst translated by at and clipped to clip.
func PaintPreview(dst *image.RGBA, clip image.Rectangle, at image.Point, sh canvas.Shape) {
	sh.From = sh.From.Add(at)
	sh.To = sh.To.Add(at)
	area := sh.Bounds().Intersect(clip).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	sub, ok := dst.SubImage(area).(*image.RGBA)
	if !ok {
		return
	}
	canvas.Paint(sub, sh)
}

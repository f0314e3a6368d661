package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// ShapeKind identifies a discrete primitive.
type ShapeKind int

const (
	ShapeLine ShapeKind = iota
	ShapeRect
	ShapeCircle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeLine:
		return "line"
	case ShapeRect:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is a discrete primitive described by the two points of a gesture.
// For circles From is the centre and To lies on the circumference.
type Shape struct {
	Kind  ShapeKind
	From  image.Point
	To    image.Point
	Color color.RGBA
	Width int
}

// Radius returns the Euclidean distance between From and To.
func (s Shape) Radius() float64 {
	return math.Hypot(float64(s.To.X-s.From.X), float64(s.To.Y-s.From.Y))
}

// Bounds returns a rectangle covering every pixel the shape may touch.
func (s Shape) Bounds() image.Rectangle {
	pad := s.Width/2 + 1
	switch s.Kind {
	case ShapeCircle:
		r := int(math.Ceil(s.Radius())) + pad
		return image.Rect(s.From.X-r, s.From.Y-r, s.From.X+r+1, s.From.Y+r+1)
	default:
		r := image.Rectangle{Min: s.From, Max: s.To}.Canon()
		r.Max = r.Max.Add(image.Pt(1, 1))
		return r.Inset(-pad)
	}
}

// Paint rasterises the shape onto img.
func Paint(img *image.RGBA, s Shape) {
	switch s.Kind {
	case ShapeLine:
		strokeLine(img, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Width, s.Color)
	case ShapeRect:
		strokeRect(img, s.From, s.To, s.Width, s.Color)
	case ShapeCircle:
		strokeCircle(img, s.From.X, s.From.Y, s.Radius(), s.Width, s.Color)
	}
}

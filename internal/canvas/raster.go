package canvas

import (
	"image"
	"image/color"
	"math"
)

// clipBox returns the pixels of img inside the closed box [x0,x1]x[y0,y1].
// The box is clamped before conversion, so it may extend arbitrarily far.
func clipBox(img *image.RGBA, x0, y0, x1, y1 float64) image.Rectangle {
	b := img.Bounds()
	clamp := func(v float64, lo, hi int) int {
		if v < float64(lo) {
			return lo
		}
		if v > float64(hi) {
			return hi
		}
		return int(v)
	}
	r := image.Rect(
		clamp(math.Floor(x0), b.Min.X, b.Max.X),
		clamp(math.Floor(y0), b.Min.Y, b.Max.Y),
		clamp(math.Floor(x1)+1, b.Min.X, b.Max.X),
		clamp(math.Floor(y1)+1, b.Min.Y, b.Max.Y),
	)
	return r.Intersect(b)
}

// strokeLine paints every pixel whose centre lies within width/2 of the
// segment, giving round caps. A zero-length segment paints a disc. Only the
// segment's bounding box clipped to img is scanned.
func strokeLine(img *image.RGBA, x0, y0, x1, y1, width int, col color.RGBA) {
	if width < 1 {
		width = 1
	}
	r := float64(width) / 2
	ax, ay := float64(x0), float64(y0)
	vx, vy := float64(x1)-ax, float64(y1)-ay
	len2 := vx*vx + vy*vy
	area := clipBox(img, math.Min(ax, ax+vx)-r, math.Min(ay, ay+vy)-r, math.Max(ax, ax+vx)+r, math.Max(ay, ay+vy)+r)
	r2 := r * r
	for y := area.Min.Y; y < area.Max.Y; y++ {
		py := float64(y) - ay
		for x := area.Min.X; x < area.Max.X; x++ {
			px := float64(x) - ax
			t := 0.0
			if len2 > 0 {
				t = (px*vx + py*vy) / len2
				t = math.Max(0, math.Min(1, t))
			}
			dx, dy := px-t*vx, py-t*vy
			if dx*dx+dy*dy <= r2 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// strokeRect outlines the rectangle spanned by the two corner points with
// square corners. The corners are inclusive and the order of the points does
// not matter. Equal points paint nothing.
func strokeRect(img *image.RGBA, a, c image.Point, width int, col color.RGBA) {
	if a == c {
		return
	}
	if width < 1 {
		width = 1
	}
	r := image.Rectangle{Min: a, Max: c}.Canon()
	lo := float64((width - 1) / 2)
	hi := float64(width) - lo - 1
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X), float64(r.Max.Y)
	bands := []image.Rectangle{
		clipBox(img, minX-lo, minY-lo, maxX+hi, minY+hi),
		clipBox(img, minX-lo, maxY-lo, maxX+hi, maxY+hi),
		clipBox(img, minX-lo, minY-lo, minX+hi, maxY+hi),
		clipBox(img, maxX-lo, minY-lo, maxX+hi, maxY+hi),
	}
	for _, band := range bands {
		for y := band.Min.Y; y < band.Max.Y; y++ {
			for x := band.Min.X; x < band.Max.X; x++ {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// strokeCircle paints the annulus of the given width centred on the circle of
// radius r. A zero radius paints nothing.
func strokeCircle(img *image.RGBA, cx, cy int, r float64, width int, col color.RGBA) {
	if r <= 0 {
		return
	}
	half := float64(width) / 2
	if half < 0.5 {
		half = 0.5
	}
	inner := r - half
	if inner < 0 {
		inner = 0
	}
	outer := r + half
	fx, fy := float64(cx), float64(cy)
	area := clipBox(img, fx-outer, fy-outer, fx+outer, fy+outer)
	in2, out2 := inner*inner, outer*outer
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x) - fx
			dy := float64(y) - fy
			d2 := dx*dx + dy*dy
			if d2 >= in2 && d2 <= out2 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

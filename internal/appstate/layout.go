package appstate

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	titleHeight    = 24
	bottomHeight   = 24
	buttonHeight   = 24
	swatchSize     = 16
	swatchStep     = 18
	widthRowHeight = 16
	sectionGap     = 4
	minToolbar     = 48
)

// region identifies the part of the window under a point.
type region int

const (
	regionNone region = iota
	regionCanvas
	regionTool
	regionSwatch
	regionWidth
	regionShortcut
)

// layout holds the screen rectangles of every window part for one window
// size. The canvas is drawn 1:1 with its origin just right of the toolbar.
type layout struct {
	width, height int
	toolbarWidth  int
	canvas        image.Rectangle
	tools         []image.Rectangle
	swatches      []image.Rectangle
	widths        []image.Rectangle
	shortcuts     []image.Rectangle
}

// toolbarWidthFor returns a toolbar wide enough for the title and every label.
func toolbarWidthFor(labels ...string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	w := minToolbar
	for _, lbl := range labels {
		if lw := d.MeasureString(lbl).Ceil() + 8; lw > w {
			w = lw
		}
	}
	return w
}

func newLayout(winW, winH int, canvasSize image.Point, toolbarW, nTools, nColors, nWidths int, shortcutLabels []string) layout {
	l := layout{width: winW, height: winH, toolbarWidth: toolbarW}
	l.canvas = image.Rectangle{Min: image.Pt(toolbarW, titleHeight)}
	l.canvas.Max = l.canvas.Min.Add(canvasSize)

	y := titleHeight
	for i := 0; i < nTools; i++ {
		l.tools = append(l.tools, image.Rect(0, y, toolbarW, y+buttonHeight))
		y += buttonHeight
	}

	y += sectionGap
	cols := paletteColumns(toolbarW)
	for i := 0; i < nColors; i++ {
		x := 4 + (i%cols)*swatchStep
		sy := y + (i/cols)*swatchStep
		l.swatches = append(l.swatches, image.Rect(x, sy, x+swatchSize, sy+swatchSize))
	}
	y += ((nColors + cols - 1) / cols) * swatchStep

	y += sectionGap
	for i := 0; i < nWidths; i++ {
		l.widths = append(l.widths, image.Rect(0, y, toolbarW, y+widthRowHeight))
		y += widthRowHeight
	}

	d := &font.Drawer{Face: basicfont.Face7x13}
	x := toolbarW + 4
	top := winH - bottomHeight + 2
	for _, lbl := range shortcutLabels {
		w := d.MeasureString(lbl).Ceil()
		r := image.Rect(x-2, top, x+w+2, top+20)
		l.shortcuts = append(l.shortcuts, r)
		x = r.Max.X + 8
	}
	return l
}

func paletteColumns(toolbarW int) int {
	cols := (toolbarW - 4) / swatchStep
	if cols < 1 {
		return 1
	}
	return cols
}

// toolbarBottom is the lowest y used by toolbar widgets.
func (l layout) toolbarBottom() int {
	bottom := titleHeight
	for _, group := range [][]image.Rectangle{l.tools, l.swatches, l.widths} {
		for _, r := range group {
			if r.Max.Y > bottom {
				bottom = r.Max.Y
			}
		}
	}
	return bottom
}

// windowSize returns the initial window size needed to show everything.
func (l layout) windowSize() image.Point {
	w := l.canvas.Max.X
	if len(l.shortcuts) > 0 {
		if sw := l.shortcuts[len(l.shortcuts)-1].Max.X + 4; sw > w {
			w = sw
		}
	}
	h := l.canvas.Max.Y
	if tb := l.toolbarBottom(); tb > h {
		h = tb
	}
	return image.Pt(w, h+bottomHeight)
}

// hit reports which part of the window contains p and the index within it.
func (l layout) hit(p image.Point) (region, int) {
	if p.Y >= l.height-bottomHeight {
		for i, r := range l.shortcuts {
			if p.In(r) {
				return regionShortcut, i
			}
		}
		return regionNone, -1
	}
	if p.X < l.toolbarWidth {
		for _, g := range []struct {
			kind  region
			rects []image.Rectangle
		}{{regionTool, l.tools}, {regionSwatch, l.swatches}, {regionWidth, l.widths}} {
			for i, r := range g.rects {
				if p.In(r) {
					return g.kind, i
				}
			}
		}
		return regionNone, -1
	}
	if p.In(l.canvas) {
		return regionCanvas, 0
	}
	return regionNone, -1
}

// inCanvas reports whether p lies on the visible part of the canvas.
func (l layout) inCanvas(p image.Point) bool {
	visible := l.canvas.Intersect(image.Rect(l.toolbarWidth, titleHeight, l.width, l.height-bottomHeight))
	return p.In(visible)
}

// toCanvas converts window coordinates into canvas coordinates.
func (l layout) toCanvas(p image.Point) image.Point { return p.Sub(l.canvas.Min) }

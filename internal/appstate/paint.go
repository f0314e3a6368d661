package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/render"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
	"github.com/example/sketchpad/internal/theme"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const appTitle = "Sketchpad"

var (
	faceOnce    sync.Once
	messageFace font.Face = basicfont.Face7x13
)

func loadFaces() {
	faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			logrus.WithError(err).Warn("parse font")
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 24, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			logrus.WithError(err).Warn("font face")
			return
		}
		messageFace = face
	})
}

// shortcutBar lists the clickable entries of the bottom bar.
var shortcutBar = []struct{ label, action string }{
	{"^Z:undo", "undo"},
	{"^Y:redo", "redo"},
	{"^S:save", "save"},
	{"^O:load", "load"},
	{"^C:copy", "copy"},
	{"^V:paste", "paste"},
	{"+/-:size", "grow"},
	{"Q:quit", "quit"},
}

func shortcutLabels() []string {
	out := make([]string, len(shortcutBar))
	for i, s := range shortcutBar {
		out[i] = s.label
	}
	return out
}

type hoverState struct {
	tool, swatch, width, shortcut int
}

func noHover() hoverState { return hoverState{-1, -1, -1, -1} }

// paintState is everything a frame needs, captured on the event goroutine so
// painting never reads the live session.
type paintState struct {
	lay     layout
	theme   *theme.Theme
	buttons []*CacheButton
	surface *image.RGBA
	preview *canvas.Shape
	tool    session.Tool
	color   color.RGBA
	size    int
	undo    int
	redo    int
	state   session.State
	hover   hoverState
	message string
	prompt  string
}

func captureState(sess *session.Session, lay layout, th *theme.Theme, buttons []*CacheButton, hover hoverState) paintState {
	undo, redo := sess.Depth()
	st := paintState{
		lay:     lay,
		theme:   th,
		buttons: buttons,
		surface: sess.Snapshot(),
		tool:    sess.Tool(),
		color:   sess.Color(),
		size:    sess.Size(),
		undo:    undo,
		redo:    redo,
		state:   sess.State(),
		hover:   hover,
	}
	if sh, ok := sess.Preview(); ok {
		st.preview = &sh
	}
	return st
}

func (st paintState) statusLine() string {
	line := fmt.Sprintf("%s  size %d  %s  undo %d  redo %d  %dx%d",
		st.tool, st.size, style.Describe(st.color), st.undo, st.redo,
		st.surface.Bounds().Dx(), st.surface.Bounds().Dy())
	if st.state == session.StateGesturing {
		line += "  drawing"
	}
	return line
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.lay.width, st.lay.height})
	if err != nil {
		logrus.WithError(err).Error("new buffer")
		return
	}
	defer b.Release()

	if !renderFrame(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// renderFrame paints the whole window into dst. It returns false when ctx was
// cancelled part way.
func renderFrame(ctx context.Context, dst *image.RGBA, st paintState) bool {
	th := st.theme
	fill(dst, dst.Bounds(), th.Background)

	checker := render.Checker{Size: 8, Light: th.CheckerLight, Dark: th.CheckerDark}
	render.ComposeInto(dst, st.lay.canvas.Min, st.surface, render.Options{Backdrop: &checker, Preview: st.preview})
	strokeBox(dst, st.lay.canvas.Inset(-1), th.CanvasBorder)
	if ctx.Err() != nil {
		return false
	}

	drawTitle(dst, st)
	drawToolbar(dst, st)
	drawShortcuts(dst, st)
	if ctx.Err() != nil {
		return false
	}

	if st.prompt != "" {
		drawPrompt(dst, st)
	}
	if st.message != "" {
		drawMessage(dst, st)
	}
	return ctx.Err() == nil
}

func fill(dst *image.RGBA, r image.Rectangle, col color.RGBA) {
	draw.Draw(dst, r, &image.Uniform{col}, image.Point{}, draw.Src)
}

func text(dst *image.RGBA, x, baseline int, s string, col color.RGBA) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, baseline)}
	d.DrawString(s)
}

func drawTitle(dst *image.RGBA, st paintState) {
	th := st.theme
	fill(dst, image.Rect(0, 0, st.lay.width, titleHeight), th.StatusBackground)
	text(dst, 4, 16, appTitle, th.Foreground)
	text(dst, st.lay.toolbarWidth+4, 16, st.statusLine(), th.StatusText)
}

func drawToolbar(dst *image.RGBA, st paintState) {
	th := st.theme
	fill(dst, image.Rect(0, titleHeight, st.lay.toolbarWidth, st.lay.height-bottomHeight), th.ToolbarBackground)

	for i, cb := range st.buttons {
		if i >= len(st.lay.tools) {
			break
		}
		cb.SetRect(st.lay.tools[i])
		state := StateDefault
		if tb, ok := cb.Button.(*ToolButton); ok && tb.tool == st.tool {
			state = StatePressed
		} else if i == st.hover.tool {
			state = StateHover
		}
		cb.Draw(dst, state)
	}

	selected := style.IndexOf(st.color)
	palette := style.Palette()
	for i, rect := range st.lay.swatches {
		if i >= len(palette) {
			break
		}
		fill(dst, rect, palette[i])
		if i == st.hover.swatch {
			draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
		}
		if i == selected {
			strokeBox(dst, rect, th.SwatchSelected)
			strokeBox(dst, rect.Inset(1), th.SwatchSelected)
		} else {
			strokeBox(dst, rect, th.SwatchBorder)
		}
	}

	widths := style.WidthOptions()
	for i, rect := range st.lay.widths {
		if i >= len(widths) {
			break
		}
		bg := th.ButtonBackground
		if widths[i] == st.size {
			bg = th.ButtonBackgroundActive
		} else if i == st.hover.width {
			bg = th.ButtonBackgroundHover
		}
		fill(dst, rect, bg)
		text(dst, rect.Min.X+4, rect.Min.Y+12, fmt.Sprintf("%d", widths[i]), th.ButtonText)
		mid := rect.Min.Y + rect.Dy()/2
		sample := canvas.Shape{
			Kind:  canvas.ShapeLine,
			From:  image.Pt(rect.Min.X+26, mid),
			To:    image.Pt(rect.Max.X-6, mid),
			Color: st.color,
			Width: widths[i],
		}
		render.PaintPreview(dst, rect, image.Point{}, sample)
	}
}

func drawShortcuts(dst *image.RGBA, st paintState) {
	th := st.theme
	fill(dst, image.Rect(0, st.lay.height-bottomHeight, st.lay.width, st.lay.height), th.StatusBackground)
	for i, rect := range st.lay.shortcuts {
		if i >= len(shortcutBar) {
			break
		}
		sc := Shortcut{label: label{text: shortcutBar[i].label, rect: rect, theme: th, border: true}, name: shortcutBar[i].action}
		state := StateDefault
		if i == st.hover.shortcut {
			state = StateHover
		}
		sc.Draw(dst, state)
	}
}

func drawPrompt(dst *image.RGBA, st paintState) {
	th := st.theme
	d := &font.Drawer{Face: basicfont.Face7x13}
	w := d.MeasureString(st.prompt).Ceil()
	x := st.lay.toolbarWidth + 8
	y := titleHeight + 8
	rect := image.Rect(x, y, x+w+16, y+24)
	fill(dst, rect, th.StatusBackground)
	strokeBox(dst, rect, th.ButtonBorder)
	text(dst, x+8, y+16, st.prompt, th.StatusText)
}

func drawMessage(dst *image.RGBA, st paintState) {
	loadFaces()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(st.theme.Foreground), Face: messageFace}
	wmsg := d.MeasureString(st.message).Ceil()
	m := messageFace.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	px := (st.lay.width - wmsg) / 2
	py := (st.lay.height-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	bg := st.theme.Background
	draw.Draw(dst, rect, &image.Uniform{color.NRGBA{bg.R, bg.G, bg.B, 230}}, image.Point{}, draw.Over)
	strokeBox(dst, rect, st.theme.ButtonBorder)
	strokeBox(dst, rect.Inset(1), st.theme.ButtonBorder)
	d.Dot = fixed.P(px, py)
	d.DrawString(st.message)
}

package appstate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/theme"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

// label is the text part shared by tool buttons and shortcut chips.
type label struct {
	text   string
	rect   image.Rectangle
	theme  *theme.Theme
	action func()
	border bool
}

func (l *label) colors(state ButtonState) (bg, fg color.RGBA) {
	switch state {
	case StateHover:
		return l.theme.ButtonBackgroundHover, l.theme.ButtonText
	case StatePressed:
		return l.theme.ButtonBackgroundActive, l.theme.ButtonTextActive
	}
	return l.theme.ButtonBackground, l.theme.ButtonText
}

func (l *label) Draw(dst *image.RGBA, state ButtonState) {
	bg, fg := l.colors(state)
	draw.Draw(dst, l.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	if l.border {
		strokeBox(dst, l.rect, l.theme.ButtonBorder)
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13,
		Dot: fixed.P(l.rect.Min.X+4, l.rect.Min.Y+(l.rect.Dy()+9)/2)}
	d.DrawString(l.text)
}

func (l *label) Rect() image.Rectangle { return l.rect }

func (l *label) SetRect(r image.Rectangle) { l.rect = r }

func (l *label) Activate() {
	if l.action != nil {
		l.action()
	}
}

// ToolButton selects a drawing tool.
type ToolButton struct {
	label
	tool session.Tool
}

// toolBindings lists the toolbar order, keyboard keys and labels.
var toolBindings = []struct {
	tool  session.Tool
	key   rune
	label string
}{
	{session.ToolPencil, 'p', "P:Pencil"},
	{session.ToolEraser, 'e', "E:Eraser"},
	{session.ToolLine, 'l', "L:Line"},
	{session.ToolRect, 'r', "R:Rect"},
	{session.ToolCircle, 'c', "C:Circle"},
}

func newToolButtons(th *theme.Theme, onSelect func(session.Tool)) []*CacheButton {
	out := make([]*CacheButton, 0, len(toolBindings))
	for _, b := range toolBindings {
		t := b.tool
		tb := &ToolButton{tool: t}
		tb.label = label{text: b.label, theme: th, action: func() { onSelect(t) }}
		out = append(out, &CacheButton{Button: tb})
	}
	return out
}

// Shortcut is a clickable entry in the bottom bar.
type Shortcut struct {
	label
	name string
}

func strokeBox(dst *image.RGBA, r image.Rectangle, col color.RGBA) {
	if r.Empty() {
		return
	}
	u := &image.Uniform{col}
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

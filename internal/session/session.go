// Package session implements the drawing session: the tool and style
// selection, the gesture state machine and the undo/redo history around a
// single canvas surface.
//
// A Session is owned by one host and is not safe for concurrent use. Hosts
// deliver events one at a time and each call runs to completion.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/history"
)

var (
	// ErrInvalidSize is returned for brush sizes below one pixel.
	ErrInvalidSize = errors.New("brush size must be positive")
	// ErrUnknownTool is returned when a tool name or value is not recognised.
	ErrUnknownTool = errors.New("unknown tool")
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	DefaultSize   = 5
)

var (
	DefaultColor  = color.RGBA{A: 255}
	DefaultEraser = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// State is the gesture state.
type State int

const (
	StateIdle State = iota
	StateGesturing
)

func (s State) String() string {
	if s == StateGesturing {
		return "gesturing"
	}
	return "idle"
}

// EventKind classifies a change notification.
type EventKind int

const (
	// EventSurface means pixels changed.
	EventSurface EventKind = iota
	// EventSettings means the tool, color or size changed.
	EventSettings
	// EventHistory means the undo or redo depth changed.
	EventHistory
	// EventPreview means the pending shape moved.
	EventPreview
)

func (k EventKind) String() string {
	switch k {
	case EventSurface:
		return "surface"
	case EventSettings:
		return "settings"
	case EventHistory:
		return "history"
	case EventPreview:
		return "preview"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered to the listener after the session changes.
type Event struct {
	Kind EventKind
}

// Session couples a surface with its history and the current gesture.
type Session struct {
	surface *canvas.Surface
	hist    *history.History

	tool   Tool
	color  color.RGBA
	size   int
	eraser color.RGBA

	state  State
	origin image.Point
	last   image.Point

	recordImports bool
	log           logrus.FieldLogger
	listener      func(Event)

	width, height int
	historyLimit  int
}

// Option configures a Session.
type Option func(*Session)

// WithCanvasSize sets the dimensions of a fresh transparent surface.
func WithCanvasSize(w, h int) Option {
	return func(s *Session) { s.width, s.height = w, h }
}

// WithSurface starts the session on an existing surface.
func WithSurface(sf *canvas.Surface) Option { return func(s *Session) { s.surface = sf } }

// WithTool sets the initial tool.
func WithTool(t Tool) Option { return func(s *Session) { s.tool = t } }

// WithColor sets the initial stroke color without changing the tool.
func WithColor(c color.RGBA) Option { return func(s *Session) { s.color = c } }

// WithBrushSize sets the initial stroke width.
func WithBrushSize(n int) Option { return func(s *Session) { s.size = n } }

// WithEraserColor overrides the color painted by the eraser.
func WithEraserColor(c color.RGBA) Option { return func(s *Session) { s.eraser = c } }

// WithHistoryLimit caps the undo depth. Zero keeps everything.
func WithHistoryLimit(n int) Option { return func(s *Session) { s.historyLimit = n } }

// WithImportHistory makes Import record an undo entry like a gesture does.
func WithImportHistory(on bool) Option { return func(s *Session) { s.recordImports = on } }

// WithLogger sets the logger used for tracing.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Session) { s.log = l } }

// WithListener registers a callback for change notifications.
func WithListener(fn func(Event)) Option { return func(s *Session) { s.listener = fn } }

// New creates an idle session with empty history.
func New(opts ...Option) *Session {
	s := &Session{
		tool:   ToolPencil,
		color:  DefaultColor,
		size:   DefaultSize,
		eraser: DefaultEraser,
		width:  DefaultWidth,
		height: DefaultHeight,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.surface == nil {
		s.surface = canvas.New(s.width, s.height)
	}
	if s.size < 1 {
		s.size = DefaultSize
	}
	if !s.tool.Valid() {
		s.tool = ToolPencil
	}
	s.color.A = 0xff
	s.hist = history.New(s.historyLimit)
	return s
}

func (s *Session) notify(k EventKind) {
	if s.listener != nil {
		s.listener(Event{Kind: k})
	}
}

// PointerDown starts a gesture at p. The surface is captured onto the undo
// stack before anything is drawn and the redo stack is cleared. A down
// during a gesture abandons it and starts again.
func (s *Session) PointerDown(p image.Point) error {
	if err := s.record(); err != nil {
		s.state = StateIdle
		return err
	}
	s.state = StateGesturing
	s.origin, s.last = p, p
	s.log.WithFields(logrus.Fields{"tool": s.tool, "x": p.X, "y": p.Y}).Debug("gesture start")
	s.notify(EventHistory)
	return nil
}

func (s *Session) record() error {
	snap, err := s.surface.Encode()
	if err != nil {
		return fmt.Errorf("capture undo state: %w", err)
	}
	s.hist.Record(snap)
	return nil
}

// PointerMove extends the gesture to p. Pencil and eraser paint from the last
// point; discrete tools only move their preview. Ignored while idle.
func (s *Session) PointerMove(p image.Point) {
	if s.state != StateGesturing {
		return
	}
	if s.tool.Continuous() {
		s.surface.Stroke(s.last, p, s.strokeColor(), s.size)
		s.last = p
		s.notify(EventSurface)
		return
	}
	s.last = p
	s.notify(EventPreview)
}

// PointerUp ends the gesture at p and commits a line, rectangle or circle.
// Ignored while idle.
func (s *Session) PointerUp(p image.Point) {
	if s.state != StateGesturing {
		return
	}
	s.state = StateIdle
	s.last = p
	if sh, ok := s.pending(); ok {
		s.surface.DrawShape(sh)
		s.log.WithFields(logrus.Fields{"shape": sh.Kind, "from": sh.From, "to": sh.To}).Debug("shape committed")
	}
	s.notify(EventSurface)
}

// PointerLeave abandons the gesture. The undo entry taken at PointerDown
// stays.
func (s *Session) PointerLeave() {
	if s.state != StateGesturing {
		return
	}
	s.state = StateIdle
	s.log.Debug("gesture abandoned")
	s.notify(EventPreview)
}

func (s *Session) strokeColor() color.RGBA {
	if s.tool == ToolEraser {
		return s.eraser
	}
	return s.color
}

func (s *Session) pending() (canvas.Shape, bool) {
	kind, ok := s.tool.shape()
	if !ok {
		return canvas.Shape{}, false
	}
	return canvas.Shape{Kind: kind, From: s.origin, To: s.last, Color: s.color, Width: s.size}, true
}

// Preview returns the shape a discrete tool would commit if released at the
// last reported position.
func (s *Session) Preview() (canvas.Shape, bool) {
	if s.state != StateGesturing {
		return canvas.Shape{}, false
	}
	return s.pending()
}

// Undo restores the newest undo entry. It reports false without error when
// there is nothing to undo. A snapshot that fails to decode leaves the
// surface and both stacks untouched and returns an error wrapping
// canvas.ErrDecode.
func (s *Session) Undo() (bool, error) {
	return s.travel("undo", s.hist.Undo)
}

// Redo reapplies the newest redo entry with the same guarantees as Undo.
func (s *Session) Redo() (bool, error) {
	return s.travel("redo", s.hist.Redo)
}

func (s *Session) travel(op string, step func(canvas.Snapshot, func(canvas.Snapshot) error) (bool, error)) (bool, error) {
	if s.state == StateGesturing {
		s.state = StateIdle
	}
	current, err := s.surface.Encode()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	ok, err := step(current, s.surface.Restore)
	if err != nil {
		s.log.WithError(err).Warnf("%s failed", op)
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		s.notify(EventSurface)
		s.notify(EventHistory)
	}
	return ok, nil
}

// SetTool selects the active tool.
func (s *Session) SetTool(t Tool) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTool, int(t))
	}
	s.tool = t
	s.notify(EventSettings)
	return nil
}

// SetColor changes the stroke color. Choosing a color also switches to the
// pencil, so picking a color while erasing draws with it straight away.
// TODO: confirm with product whether a color change should keep shape tools.
func (s *Session) SetColor(c color.RGBA) {
	c.A = 0xff
	s.color = c
	s.tool = ToolPencil
	s.notify(EventSettings)
}

// SetSize changes the stroke width.
func (s *Session) SetSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	s.size = n
	s.notify(EventSettings)
	return nil
}

// Export captures the surface as a PNG snapshot.
func (s *Session) Export() (canvas.Snapshot, error) {
	return s.surface.Encode()
}

// Import decodes data and replaces the surface with it, anchored at the
// origin and clipped to the surface. By default the history is left alone;
// see WithImportHistory.
func (s *Session) Import(data []byte) error {
	img, err := canvas.DecodeImage(data)
	if err != nil {
		s.log.WithError(err).Warn("import failed")
		return fmt.Errorf("import: %w", err)
	}
	if s.recordImports {
		if err := s.record(); err != nil {
			return err
		}
		s.notify(EventHistory)
	}
	s.state = StateIdle
	s.surface.Replace(img)
	s.log.WithField("size", img.Bounds().Size()).Debug("imported image")
	s.notify(EventSurface)
	return nil
}

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// Color returns the stroke color.
func (s *Session) Color() color.RGBA { return s.color }

// Size returns the stroke width.
func (s *Session) Size() int { return s.size }

// State returns the gesture state.
func (s *Session) State() State { return s.state }

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Depth returns the number of undo and redo entries.
func (s *Session) Depth() (undo, redo int) { return s.hist.Len() }

// Bounds returns the surface rectangle.
func (s *Session) Bounds() image.Rectangle { return s.surface.Bounds() }

// Image exposes the live surface pixels.
func (s *Session) Image() *image.RGBA { return s.surface.Image() }

// Snapshot returns an independent copy of the surface pixels.
func (s *Session) Snapshot() *image.RGBA { return s.surface.Clone() }

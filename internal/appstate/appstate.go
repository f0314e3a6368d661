// Package appstate is the desktop host: a shiny window that feeds mouse and
// keyboard input to a drawing session and paints the result.
package appstate

import (
	"context"
	"errors"
	"image"
	"sync"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/sketchpad/internal/notify"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
	"github.com/example/sketchpad/internal/theme"
)

// ErrClosed is returned by Do once the window has gone away.
var ErrClosed = errors.New("window closed")

// AppState holds the session shown in the window and the host settings.
type AppState struct {
	sess  *session.Session
	ctl   *controller
	theme *theme.Theme
	log   logrus.FieldLogger

	controlMu   sync.Mutex
	sendControl func(controlEvent)
	closed      chan struct{}

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithOutput sets the file written by the save shortcut.
func WithOutput(out string) Option { return func(a *AppState) { a.ctl.output = out } }

// WithSaveDir sets the directory relative output paths are saved into.
func WithSaveDir(dir string) Option { return func(a *AppState) { a.ctl.saveDir = dir } }

// WithTheme sets the window colors.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.theme = t } }

// WithNotifier sends desktop notifications for save, copy and load.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.ctl.notifier = n } }

// WithLogger sets the logger for user-facing messages and failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *AppState) {
		a.log = l
		a.ctl.log = l
	}
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState hosting sess.
func New(sess *session.Session, opts ...Option) *AppState {
	a := &AppState{
		sess:   sess,
		ctl:    newController(sess),
		theme:  theme.Default(),
		log:    logrus.StandardLogger(),
		closed: make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Session returns the hosted session. Only touch it through Do while the
// window is open.
func (a *AppState) Session() *session.Session { return a.sess }

type controlEvent struct {
	fn    func(*session.Session) error
	reply chan error
	quit  bool
}

// Do runs fn against the session on the window's event goroutine and waits
// for it. Before the window opens fn runs directly.
func (a *AppState) Do(fn func(*session.Session) error) error {
	a.controlMu.Lock()
	sender := a.sendControl
	if sender == nil {
		defer a.controlMu.Unlock()
		select {
		case <-a.closed:
			return ErrClosed
		default:
		}
		return fn(a.sess)
	}
	a.controlMu.Unlock()

	reply := make(chan error, 1)
	sender(controlEvent{fn: fn, reply: reply})
	select {
	case err := <-reply:
		return err
	case <-a.closed:
		return ErrClosed
	}
}

// Close asks the window to shut down. Without a window it only marks the
// state closed.
func (a *AppState) Close() {
	a.controlMu.Lock()
	sender := a.sendControl
	a.controlMu.Unlock()
	if sender == nil {
		a.notifyClose()
		return
	}
	sender(controlEvent{quit: true})
}

// Done is closed when the window closes.
func (a *AppState) Done() <-chan struct{} { return a.closed }

func (a *AppState) setControlSender(fn func(controlEvent)) {
	a.controlMu.Lock()
	a.sendControl = fn
	a.controlMu.Unlock()
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.setControlSender(nil)
		close(a.closed)
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) newLayout(winW, winH int) layout {
	labels := []string{appTitle}
	for _, b := range toolBindings {
		labels = append(labels, b.label)
	}
	return newLayout(winW, winH, a.sess.Bounds().Size(), toolbarWidthFor(labels...),
		len(toolBindings), len(style.Palette()), len(style.WidthOptions()), shortcutLabels())
}

// Main runs the window until it is closed or the user quits.
func (a *AppState) Main(s screen.Screen) {
	defer a.notifyClose()

	initial := a.newLayout(0, 0).windowSize()
	lay := a.newLayout(initial.X, initial.Y)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: initial.X, Height: initial.Y, Title: appTitle})
	if err != nil {
		a.log.WithError(err).Error("new window")
		return
	}
	defer w.Release()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	a.setControlSender(func(ev controlEvent) { w.Send(ev) })

	var router pointerRouter
	var input *prompt
	hover := noHover()
	quit := false
	ctl := a.ctl

	buttons := newToolButtons(a.theme, func(t session.Tool) { ctl.selectTool(t) })

	actions := map[string]func(){}
	keyboardAction := map[KeyShortcut]string{}
	register := func(name string, keys KeyboardShortcuts, fn func()) {
		actions[name] = fn
		if keys != nil {
			for _, sc := range keys.KeyboardShortcuts() {
				keyboardAction[sc] = name
			}
		}
	}
	register("undo", shortcutList{{Rune: 'z', Modifiers: key.ModControl}}, ctl.undo)
	register("redo", shortcutList{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}, ctl.redo)
	register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, ctl.save)
	register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, ctl.copy)
	register("paste", shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, ctl.paste)
	register("load", shortcutList{{Rune: 'o', Modifiers: key.ModControl}}, func() {
		router.cancel(a.sess)
		input = &prompt{label: "load: "}
	})
	register("grow", shortcutList{{Rune: '+'}, {Rune: '='}, {Rune: '+', Modifiers: key.ModShift}}, func() { ctl.stepSize(1) })
	register("shrink", shortcutList{{Rune: '-'}}, func() { ctl.stepSize(-1) })
	register("quit", shortcutList{{Rune: 'q'}}, func() { quit = true })
	for _, b := range toolBindings {
		t := b.tool
		register(t.String(), shortcutList{{Rune: b.key}}, func() { ctl.selectTool(t) })
	}

	repaint := func() { w.Send(paint.Event{}) }
	trigger := func(action string) {
		if fn, ok := actions[action]; ok {
			fn()
		}
		repaint()
	}

	for !quit {
		switch e := w.NextEvent().(type) {
		case controlEvent:
			if e.quit {
				quit = true
				continue
			}
			e.reply <- e.fn(a.sess)
			repaint()

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}

		case size.Event:
			lay = a.newLayout(e.WidthPx, e.HeightPx)
			repaint()

		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := captureState(a.sess, lay, a.theme, buttons, hover)
			st.message = ctl.visibleMessage()
			if input != nil {
				st.prompt = input.String()
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}

		case mouse.Event:
			if input != nil {
				continue
			}
			if e.Direction == mouse.DirPress && ctl.dismissMessage() {
				repaint()
				continue
			}
			p := image.Pt(int(e.X), int(e.Y))
			where, idx := lay.hit(p)
			prev := hover
			hover = noHover()
			press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress

			if !router.pressed {
				switch where {
				case regionTool:
					hover.tool = idx
					if press {
						buttons[idx].Activate()
					}
				case regionSwatch:
					hover.swatch = idx
					if press {
						ctl.pickColor(idx)
					}
				case regionWidth:
					hover.width = idx
					if press {
						ctl.pickWidth(idx)
					}
				case regionShortcut:
					hover.shortcut = idx
					if press {
						trigger(shortcutBar[idx].action)
						continue
					}
				}
			}
			changed, err := router.handle(a.sess, lay, e)
			if err != nil {
				ctl.fail("draw", err)
				changed = true
			}
			if changed || hover != prev || press {
				repaint()
			}

		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if input != nil {
				switch input.handle(e) {
				case promptSubmit:
					path := input.text
					input = nil
					ctl.load(path)
				case promptCancel:
					input = nil
				}
				repaint()
				continue
			}
			ks := KeyShortcut{Modifiers: e.Modifiers}
			if e.Rune > 0 {
				ks.Rune = unicode.ToLower(e.Rune)
			} else {
				ks.Code = e.Code
			}
			action, ok := keyboardAction[ks]
			if !ok && e.Modifiers&key.ModShift != 0 {
				ks.Modifiers &^= key.ModShift
				action, ok = keyboardAction[ks]
			}
			if ok {
				trigger(action)
			}
		}
	}
	stopPaint()
}

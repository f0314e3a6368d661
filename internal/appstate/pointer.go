package appstate

import (
	"image"

	"golang.org/x/mobile/event/mouse"

	"github.com/example/sketchpad/internal/session"
)

// pointerRouter turns window mouse events into session pointer events. A
// gesture only starts with a left press on the canvas; dragging off the
// canvas reports a leave and the gesture does not resume on re-entry.
type pointerRouter struct {
	pressed bool
	inside  bool
}

// handle forwards e to sess and reports whether anything visible changed.
func (r *pointerRouter) handle(sess *session.Session, l layout, e mouse.Event) (bool, error) {
	p := image.Pt(int(e.X), int(e.Y))
	on := l.inCanvas(p)
	pt := l.toCanvas(p)

	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		if !on {
			return false, nil
		}
		r.pressed, r.inside = true, true
		return true, sess.PointerDown(pt)

	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if !r.pressed {
			return false, nil
		}
		r.pressed = false
		if !r.inside {
			return false, nil
		}
		r.inside = false
		if on {
			sess.PointerUp(pt)
		} else {
			sess.PointerLeave()
		}
		return true, nil

	case e.Direction == mouse.DirNone:
		if !r.pressed || !r.inside {
			return false, nil
		}
		if !on {
			r.inside = false
			sess.PointerLeave()
			return true, nil
		}
		sess.PointerMove(pt)
		return true, nil
	}
	return false, nil
}

// cancel forgets a held button, e.g. when a modal prompt opens.
func (r *pointerRouter) cancel(sess *session.Session) {
	if r.pressed && r.inside {
		sess.PointerLeave()
	}
	r.pressed, r.inside = false, false
}

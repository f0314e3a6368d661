// Package script drives a drawing session from line-oriented text commands.
// It backs the interactive shell and the replay command.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
)

// ErrExit is returned by Exec for the exit and quit commands.
var ErrExit = errors.New("exit")

// LineError reports a failed command together with its position.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Interpreter executes commands against one session.
type Interpreter struct {
	sess *session.Session
	out  io.Writer
	log  logrus.FieldLogger

	readFile  func(string) ([]byte, error)
	writeFile func(string, []byte) error
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where status and help text go.
func WithOutput(w io.Writer) Option { return func(i *Interpreter) { i.out = w } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(i *Interpreter) { i.log = l } }

// WithFiles replaces the functions used by import and export.
func WithFiles(read func(string) ([]byte, error), write func(string, []byte) error) Option {
	return func(i *Interpreter) {
		i.readFile = read
		i.writeFile = write
	}
}

// New returns an interpreter bound to sess.
func New(sess *session.Session, opts ...Option) *Interpreter {
	i := &Interpreter{
		sess:      sess,
		out:       io.Discard,
		log:       logrus.StandardLogger(),
		readFile:  os.ReadFile,
		writeFile: func(p string, b []byte) error { return os.WriteFile(p, b, 0o644) },
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Session returns the session being driven.
func (i *Interpreter) Session() *session.Session { return i.sess }

// Run executes every line of r. With keepGoing set, failing lines are logged
// and the run continues; the first error is still returned at the end.
func (i *Interpreter) Run(ctx context.Context, r io.Reader, keepGoing bool) error {
	sc := bufio.NewScanner(r)
	n := 0
	var first error
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		text := strings.TrimSpace(sc.Text())
		err := i.Exec(text)
		if errors.Is(err, ErrExit) {
			break
		}
		if err != nil {
			lerr := &LineError{Line: n, Text: text, Err: err}
			if !keepGoing {
				return lerr
			}
			i.log.WithField("line", n).Warn(err)
			if first == nil {
				first = lerr
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return first
}

// Exec runs a single command line. Blank lines and comments are ignored.
func (i *Interpreter) Exec(line string) error {
	fields := stripComment(strings.Fields(line))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "down", "move", "up":
		pts, err := points(args, 1, 1)
		if err != nil {
			return err
		}
		return i.pointer(cmd, pts[0])
	case "leave":
		i.sess.PointerLeave()
		return nil
	case "line", "rect", "rectangle", "circle":
		pts, err := points(args, 2, 2)
		if err != nil {
			return err
		}
		t, _ := session.ParseTool(cmd)
		return i.gestureWith(t, pts)
	case "stroke":
		pts, err := points(args, 2, -1)
		if err != nil {
			return err
		}
		if !i.sess.Tool().Continuous() {
			return i.gestureWith(session.ToolPencil, pts)
		}
		return i.gesture(pts)
	case "tool":
		if len(args) != 1 {
			return fmt.Errorf("usage: tool NAME")
		}
		t, err := session.ParseTool(args[0])
		if err != nil {
			return err
		}
		return i.sess.SetTool(t)
	case "color", "colour":
		if len(args) == 0 {
			return fmt.Errorf("usage: color SPEC")
		}
		c, err := style.ParseColor(strings.Join(args, " "))
		if err != nil {
			return err
		}
		i.sess.SetColor(c)
		return nil
	case "size", "width":
		if len(args) != 1 {
			return fmt.Errorf("usage: size N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid size %q", args[0])
		}
		return i.sess.SetSize(n)
	case "undo":
		ok, err := i.sess.Undo()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(i.out, "nothing to undo")
		}
		return nil
	case "redo":
		ok, err := i.sess.Redo()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(i.out, "nothing to redo")
		}
		return nil
	case "import", "load", "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: import PATH")
		}
		data, err := i.readFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		return i.sess.Import(data)
	case "export", "save":
		path := "drawing.png"
		if len(args) == 1 {
			path = args[0]
		} else if len(args) > 1 {
			return fmt.Errorf("usage: export [PATH]")
		}
		snap, err := i.sess.Export()
		if err != nil {
			return err
		}
		if err := i.writeFile(path, snap.Bytes()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(i.out, "saved %s\n", path)
		return nil
	case "status":
		fmt.Fprintln(i.out, Status(i.sess))
		return nil
	case "help", "?":
		fmt.Fprint(i.out, Help)
		return nil
	case "exit", "quit":
		return ErrExit
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

// stripComment drops everything from the first field starting with '#',
// except the argument of a color command.
func stripComment(fields []string) []string {
	for k, f := range fields {
		if !strings.HasPrefix(f, "#") {
			continue
		}
		if k == 1 && (strings.EqualFold(fields[0], "color") || strings.EqualFold(fields[0], "colour")) {
			continue
		}
		return fields[:k]
	}
	return fields
}

func (i *Interpreter) pointer(kind string, p image.Point) error {
	switch kind {
	case "down":
		return i.sess.PointerDown(p)
	case "move":
		i.sess.PointerMove(p)
	case "up":
		i.sess.PointerUp(p)
	}
	return nil
}

func (i *Interpreter) gesture(pts []image.Point) error {
	if err := i.sess.PointerDown(pts[0]); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		i.sess.PointerMove(p)
	}
	i.sess.PointerUp(pts[len(pts)-1])
	return nil
}

// gestureWith runs a gesture with tool t selected and then switches back to
// whatever tool was active before.
func (i *Interpreter) gestureWith(t session.Tool, pts []image.Point) error {
	prev := i.sess.Tool()
	if err := i.sess.SetTool(t); err != nil {
		return err
	}
	err := i.gesture(pts)
	if rerr := i.sess.SetTool(prev); err == nil {
		err = rerr
	}
	return err
}

// points parses coordinate pairs. hi < 0 means no upper bound.
func points(args []string, lo, hi int) ([]image.Point, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("coordinates must come in x y pairs")
	}
	n := len(args) / 2
	if n < lo || (hi >= 0 && n > hi) {
		if lo == hi {
			return nil, fmt.Errorf("expected %d point(s), got %d", lo, n)
		}
		return nil, fmt.Errorf("expected at least %d points, got %d", lo, n)
	}
	out := make([]image.Point, n)
	for k := 0; k < n; k++ {
		x, err := strconv.Atoi(args[2*k])
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", args[2*k])
		}
		y, err := strconv.Atoi(args[2*k+1])
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", args[2*k+1])
		}
		out[k] = image.Pt(x, y)
	}
	return out, nil
}

// Status describes the session in one line.
func Status(s *session.Session) string {
	undo, redo := s.Depth()
	b := s.Bounds()
	return fmt.Sprintf("tool=%s color=%s size=%d state=%s undo=%d redo=%d canvas=%dx%d",
		s.Tool(), style.Describe(s.Color()), s.Size(), s.State(), undo, redo, b.Dx(), b.Dy())
}

// IsDecodeError reports whether err came from an image that failed to decode.
func IsDecodeError(err error) bool { return errors.Is(err, canvas.ErrDecode) }

// Help lists the commands understood by Exec.
const Help = `Commands:
  down X Y | move X Y | up X Y   pointer events
  leave                          abandon the current gesture
  line|rect|circle X0 Y0 X1 Y1   draw a shape in one step (tool is kept)
  stroke X0 Y0 X1 Y1 ...         draw a pencil or eraser stroke (tool is kept)
  tool NAME                      pencil, eraser, line, rect, circle
  color SPEC                     name or #rrggbb (selects the pencil)
  size N                         stroke width in pixels
  undo | redo
  import PATH | export [PATH]
  status | help | exit
`

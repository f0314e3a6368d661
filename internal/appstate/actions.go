package appstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/clipboard"
	"github.com/example/sketchpad/internal/notify"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
)

const messageDuration = 2 * time.Second

// controller performs the window's commands against the session and keeps the
// status message shown to the user.
type controller struct {
	sess     *session.Session
	output   string
	saveDir  string
	notifier *notify.Notifier
	log      logrus.FieldLogger

	readFile  func(string) ([]byte, error)
	writeFile func(string, []byte) error
	copyPNG   func([]byte) error
	pastePNG  func() ([]byte, error)
	now       func() time.Time

	message      string
	messageUntil time.Time
}

func newController(sess *session.Session) *controller {
	return &controller{
		sess:      sess,
		output:    "drawing.png",
		log:       logrus.StandardLogger(),
		readFile:  os.ReadFile,
		writeFile: func(p string, b []byte) error { return os.WriteFile(p, b, 0o644) },
		copyPNG:   clipboard.WritePNG,
		pastePNG:  clipboard.ReadPNG,
		now:       time.Now,
	}
}

func (c *controller) say(format string, args ...any) {
	c.message = fmt.Sprintf(format, args...)
	c.messageUntil = c.now().Add(messageDuration)
	c.log.Info(c.message)
}

func (c *controller) fail(op string, err error) {
	c.message = fmt.Sprintf("%s: %v", op, err)
	c.messageUntil = c.now().Add(messageDuration)
	c.log.WithError(err).WithField("op", op).Warn("action failed")
}

// visibleMessage returns the message while it has not expired.
func (c *controller) visibleMessage() string {
	if c.message == "" || !c.now().Before(c.messageUntil) {
		return ""
	}
	return c.message
}

func (c *controller) dismissMessage() bool {
	if c.visibleMessage() == "" {
		return false
	}
	c.messageUntil = time.Time{}
	return true
}

// outputPath resolves the save target against the configured directory.
func (c *controller) outputPath() string {
	out := c.output
	if out == "" {
		out = "drawing.png"
	}
	if c.saveDir != "" && !filepath.IsAbs(out) {
		out = filepath.Join(c.saveDir, out)
	}
	return out
}

func (c *controller) save() {
	snap, err := c.sess.Export()
	if err != nil {
		c.fail("save", err)
		return
	}
	path := c.outputPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.fail("save", err)
			return
		}
	}
	if err := c.writeFile(path, snap.Bytes()); err != nil {
		c.fail("save", err)
		return
	}
	c.say("saved %s", path)
	c.notifier.Save(path)
}

func (c *controller) load(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	data, err := c.readFile(path)
	if err != nil {
		c.fail("load", err)
		return
	}
	if err := c.sess.Import(data); err != nil {
		if errors.Is(err, canvas.ErrDecode) {
			c.fail("load", fmt.Errorf("%s is not a supported image", path))
			return
		}
		c.fail("load", err)
		return
	}
	c.say("loaded %s", path)
	c.notifier.Load(path)
}

func (c *controller) copy() {
	snap, err := c.sess.Export()
	if err != nil {
		c.fail("copy", err)
		return
	}
	if err := c.copyPNG(snap.Bytes()); err != nil {
		c.fail("copy", err)
		return
	}
	c.say("drawing copied to clipboard")
	c.notifier.Copy("drawing", c.sess.Snapshot())
}

func (c *controller) paste() {
	data, err := c.pastePNG()
	if err != nil {
		c.fail("paste", err)
		return
	}
	if err := c.sess.Import(data); err != nil {
		c.fail("paste", err)
		return
	}
	c.say("pasted image from clipboard")
	c.notifier.Load("")
}

func (c *controller) undo() {
	ok, err := c.sess.Undo()
	switch {
	case err != nil:
		c.fail("undo", err)
	case !ok:
		c.say("nothing to undo")
	}
}

func (c *controller) redo() {
	ok, err := c.sess.Redo()
	switch {
	case err != nil:
		c.fail("redo", err)
	case !ok:
		c.say("nothing to redo")
	}
}

func (c *controller) selectTool(t session.Tool) {
	if err := c.sess.SetTool(t); err != nil {
		c.fail("tool", err)
	}
}

func (c *controller) pickColor(idx int) {
	c.sess.SetColor(style.ColorAt(idx))
}

func (c *controller) pickWidth(idx int) {
	ws := style.WidthOptions()
	if idx < 0 || idx >= len(ws) {
		return
	}
	if err := c.sess.SetSize(ws[idx]); err != nil {
		c.fail("size", err)
	}
}

func (c *controller) stepSize(dir int) {
	if err := c.sess.SetSize(style.StepWidth(c.sess.Size(), dir)); err != nil {
		c.fail("size", err)
	}
}

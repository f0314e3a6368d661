package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/appstate"
	"github.com/example/sketchpad/internal/script"
	"github.com/example/sketchpad/internal/session"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// interactiveCmd reads drawing commands from stdin. With -window the canvas
// is shown live and every command runs on the window's event loop.
type interactiveCmd struct {
	*root
	fs     *flag.FlagSet
	execs  commandList
	window bool
	width  int
	height int
	output string
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	i := &interactiveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(i)
	fs.Var(&i.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.BoolVar(&i.window, "window", false, "show the canvas in a window while commands run")
	fs.IntVar(&i.width, "width", 0, "canvas width in pixels")
	fs.IntVar(&i.height, "height", 0, "canvas height in pixels")
	fs.StringVar(&i.output, "output", "", "file written by the window's save shortcut")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: i}
	}
	return i, nil
}

func (i *interactiveCmd) Run() error {
	opts, err := i.sessionOptions(i.width, i.height)
	if err != nil {
		return err
	}
	sess := session.New(opts...)
	interp := script.New(sess, script.WithOutput(i.stdout), script.WithLogger(logrus.StandardLogger()))

	if !i.window {
		exec := func(line string) error { return interp.Exec(line) }
		if len(i.execs) > 0 {
			return i.runImmediate(exec)
		}
		return i.loop(exec)
	}

	output := i.output
	if output == "" {
		output = i.config.Output
	}
	app := appstate.New(sess,
		appstate.WithOutput(output),
		appstate.WithSaveDir(i.config.SaveDir),
		appstate.WithTheme(i.activeTheme),
		appstate.WithNotifier(i.notifier),
		appstate.WithLogger(logrus.StandardLogger()),
	)
	exec := func(line string) error {
		return app.Do(func(*session.Session) error { return interp.Exec(line) })
	}
	errc := make(chan error, 1)
	go func() {
		var err error
		if len(i.execs) > 0 {
			err = i.runImmediate(exec)
		} else {
			err = i.loop(exec)
		}
		if errors.Is(err, appstate.ErrClosed) {
			err = nil
		}
		errc <- err
		if len(i.execs) == 0 {
			app.Close()
		}
	}()
	runWindow(app)
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// runImmediate executes the -e commands in order and stops at the first
// failure.
func (i *interactiveCmd) runImmediate(exec func(string) error) error {
	for _, line := range i.execs {
		err := exec(line)
		if errors.Is(err, script.ErrExit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", line, err)
		}
	}
	return nil
}

func (i *interactiveCmd) loop(exec func(string) error) error {
	fmt.Fprintln(i.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(i.stdin)
	for {
		fmt.Fprint(i.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		err := exec(line)
		if errors.Is(err, script.ErrExit) {
			return nil
		}
		if errors.Is(err, appstate.ErrClosed) {
			return err
		}
		if err != nil {
			fmt.Fprintln(i.stderr, err)
		}
	}
	return scanner.Err()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/appstate"
	"github.com/example/sketchpad/internal/script"
	"github.com/example/sketchpad/internal/session"
)

// drawCmd opens the drawing window on a fresh or imported canvas.
type drawCmd struct {
	*root
	fs        *flag.FlagSet
	width     int
	height    int
	open      string
	output    string
	saveDir   string
	script    string
	keepGoing bool
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	fs.IntVar(&d.width, "width", 0, "canvas width in pixels (defaults to the configured width)")
	fs.IntVar(&d.height, "height", 0, "canvas height in pixels (defaults to the configured height)")
	fs.StringVar(&d.open, "open", "", "image to load into the canvas before the window opens")
	fs.StringVar(&d.output, "output", "", "file written by the save shortcut")
	fs.StringVar(&d.saveDir, "save-dir", "", "directory relative output paths are saved into")
	fs.StringVar(&d.script, "script", "", "command script replayed before the window opens")
	fs.BoolVar(&d.keepGoing, "keep-going", false, "continue the script after a failing line")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: d}
	}
	return d, nil
}

// prepare builds the session and window state without opening the window.
func (d *drawCmd) prepare() (*appstate.AppState, error) {
	opts, err := d.sessionOptions(d.width, d.height)
	if err != nil {
		return nil, err
	}
	sess := session.New(opts...)
	if d.open != "" {
		data, err := os.ReadFile(d.open)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", d.open, err)
		}
		if err := sess.Import(data); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", d.open, err)
		}
	}
	if d.script != "" {
		f, err := os.Open(d.script)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		defer f.Close()
		interp := script.New(sess, script.WithOutput(d.stdout), script.WithLogger(logrus.StandardLogger()))
		if err := interp.Run(context.Background(), f, d.keepGoing); err != nil {
			return nil, fmt.Errorf("script %s: %w", d.script, err)
		}
	}

	output, saveDir := d.output, d.saveDir
	if output == "" {
		output = d.config.Output
	}
	if saveDir == "" {
		saveDir = d.config.SaveDir
	}
	return appstate.New(sess,
		appstate.WithOutput(output),
		appstate.WithSaveDir(saveDir),
		appstate.WithTheme(d.activeTheme),
		appstate.WithNotifier(d.notifier),
		appstate.WithLogger(logrus.StandardLogger()),
	), nil
}

func (d *drawCmd) Run() error {
	app, err := d.prepare()
	if err != nil {
		return err
	}
	runWindow(app)
	return nil
}

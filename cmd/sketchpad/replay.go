package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/script"
	"github.com/example/sketchpad/internal/session"
)

// replayCmd runs command scripts against a headless session and writes the
// result.
type replayCmd struct {
	*root
	fs        *flag.FlagSet
	width     int
	height    int
	input     string
	output    string
	keepGoing bool
	scripts   []string
}

func (p *replayCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	p := &replayCmd{root: r, fs: fs}
	fs.Usage = usageFunc(p)
	fs.IntVar(&p.width, "width", 0, "canvas width in pixels")
	fs.IntVar(&p.height, "height", 0, "canvas height in pixels")
	fs.StringVar(&p.input, "input", "", "image imported before the first command")
	fs.StringVar(&p.output, "output", "", "file the final canvas is exported to")
	fs.BoolVar(&p.keepGoing, "keep-going", false, "continue after a failing line")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	p.scripts = fs.Args()
	if len(p.scripts) == 0 {
		p.scripts = []string{"-"}
	}
	return p, nil
}

func (p *replayCmd) Run() error {
	opts, err := p.sessionOptions(p.width, p.height)
	if err != nil {
		return err
	}
	sess := session.New(opts...)
	if p.input != "" {
		data, err := os.ReadFile(p.input)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if err := sess.Import(data); err != nil {
			return fmt.Errorf("failed to import %s: %w", p.input, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interp := script.New(sess, script.WithOutput(p.stdout), script.WithLogger(logrus.StandardLogger()))
	var first error
	for _, name := range p.scripts {
		err := p.runOne(ctx, interp, name)
		if err == nil {
			continue
		}
		if !p.keepGoing {
			return err
		}
		if first == nil {
			first = err
		}
	}

	if p.output != "" {
		snap, err := sess.Export()
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		if err := os.WriteFile(p.output, snap.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.output, err)
		}
		logrus.WithField("path", p.output).Info("saved drawing")
	}
	fmt.Fprintln(p.stdout, script.Status(sess))
	return first
}

func (p *replayCmd) runOne(ctx context.Context, interp *script.Interpreter, name string) error {
	var src io.Reader = p.stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		defer f.Close()
		src = f
	}
	if err := interp.Run(ctx, src, p.keepGoing); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
	"github.com/example/sketchpad/internal/theme"
)

// listCmd prints one of the option lists. Each list shares the same flag
// handling and differs only in what it prints.
type listCmd struct {
	*root
	fs       *flag.FlagSet
	name     string
	template string
	print    func(*listCmd) error
}

func parseListCmd(name string, args []string, r *root, print func(*listCmd) error) (*listCmd, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cmd := &listCmd{root: r, fs: fs, name: name, template: name + ".txt", print: print}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *listCmd) Run() error {
	return c.print(c)
}

func (c *listCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *listCmd) Template() string {
	return c.template
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func parseColorsCmd(args []string, r *root) (*listCmd, error) {
	return parseListCmd("colors", args, r, printColors)
}

func printColors(c *listCmd) error {
	palette := style.PaletteColors()
	if len(palette) == 0 {
		fmt.Fprintln(c.stdout, "no colors available")
		return nil
	}
	fmt.Fprintln(c.stdout, "available palette colors (* marks the default color):")
	defaultIdx := clampIndex(style.DefaultColorIndex(), len(palette))
	for idx, entry := range palette {
		marker := " "
		if idx == defaultIdx {
			marker = "*"
		}
		hex := style.FormatHex(entry.Color)
		name := entry.Name
		if name == "" {
			name = hex
		}
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", entry.Color.R, entry.Color.G, entry.Color.B)
		fmt.Fprintf(c.stdout, "%s %2d: %-12s %s %s\n", marker, idx, name, hex, block)
	}
	return nil
}

func parseWidthsCmd(args []string, r *root) (*listCmd, error) {
	return parseListCmd("widths", args, r, printWidths)
}

func printWidths(c *listCmd) error {
	widths := style.WidthOptions()
	if len(widths) == 0 {
		fmt.Fprintln(c.stdout, "no widths available")
		return nil
	}
	fmt.Fprintln(c.stdout, "available stroke widths (* marks the default width):")
	for _, width := range widths {
		marker := " "
		if width == style.DefaultWidth() {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %3dpx\n", marker, width)
	}
	return nil
}

func parseToolsCmd(args []string, r *root) (*listCmd, error) {
	return parseListCmd("tools", args, r, printTools)
}

func printTools(c *listCmd) error {
	fmt.Fprintln(c.stdout, "available tools (* marks the configured tool):")
	current, _ := session.ParseTool(c.config.Tool)
	for _, t := range session.Tools {
		marker := " "
		if t == current {
			marker = "*"
		}
		kind := "shape, drawn on release"
		if t.Continuous() {
			kind = "freehand, paints while dragging"
		}
		fmt.Fprintf(c.stdout, "%s %-10s %s\n", marker, t, kind)
	}
	return nil
}

func parseThemesCmd(args []string, r *root) (*listCmd, error) {
	return parseListCmd("themes", args, r, printThemes)
}

func printThemes(c *listCmd) error {
	fmt.Fprintln(c.stdout, "available themes (* marks the active theme):")
	active := ""
	if c.activeTheme != nil {
		active = c.activeTheme.Name
	}
	seen := map[string]bool{}
	list := func(name, origin string) {
		if seen[name] {
			return
		}
		seen[name] = true
		marker := " "
		if strings.EqualFold(name, active) {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %-16s %s\n", marker, name, origin)
	}
	list(theme.Default().Name, "built in")
	for _, name := range theme.Names() {
		list(name, "embedded")
	}
	custom := make([]string, 0, len(c.config.Themes))
	for name := range c.config.Themes {
		custom = append(custom, name)
	}
	sort.Strings(custom)
	for _, name := range custom {
		list(name, "config")
	}
	return nil
}

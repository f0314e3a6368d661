package main

import (
	"flag"
	"fmt"

	"github.com/example/sketchpad/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	case "path":
		fmt.Fprintln(c.stdout, c.configFilePath())
		return nil
	case "save":
		path := c.configFilePath()
		if len(args) > 1 {
			path = args[1]
		}
		return c.runSave(path)
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

// configFilePath is the file in use, or where a new one would be written.
func (c *configCmd) configFilePath() string {
	override := c.configPath
	if override == "" {
		override = configPathOverride
	}
	if path := config.NewLoader(version, override).GetConfigPath(); path != "" {
		return path
	}
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}

func (c *configCmd) runSave(path string) error {
	if path == "" {
		return fmt.Errorf("no config location available, pass a path")
	}
	if err := config.Save(c.config, path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	fmt.Fprintf(c.stderr, "Configuration saved to %s\n", path)
	return nil
}

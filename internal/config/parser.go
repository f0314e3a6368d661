package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
	"github.com/example/sketchpad/internal/theme"
)

// EnvPrefix prefixes the environment variables that override config keys,
// e.g. SKETCHPAD_SIZE or SKETCHPAD_SERVER_LISTEN.
const EnvPrefix = "SKETCHPAD_"

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if themeName, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		sep := "="
		if !strings.Contains(line, "=") {
			sep = ":"
		}
		key, value, ok := strings.Cut(line, sep)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "server":
			err = setServerField(&cfg.Server, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d: error in section [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "output":
		cfg.Output = value
	case "canvas_width":
		return setPositive(&cfg.CanvasWidth, key, value)
	case "canvas_height":
		return setPositive(&cfg.CanvasHeight, key, value)
	case "size":
		return setPositive(&cfg.Size, key, value)
	case "history_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid history limit %q", value)
		}
		cfg.HistoryLimit = n
	case "color":
		if _, err := style.ParseColor(value); err != nil {
			return err
		}
		cfg.Color = value
	case "tool":
		t, err := session.ParseTool(value)
		if err != nil {
			return err
		}
		cfg.Tool = t.String()
	case "record_imports":
		return setBool(&cfg.RecordImports, key, value)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	switch strings.ToLower(key) {
	case "save":
		return setBool(&n.Save, key, value)
	case "copy":
		return setBool(&n.Copy, key, value)
	case "load":
		return setBool(&n.Load, key, value)
	}
	return nil
}

func setServerField(s *Server, key, value string) error {
	switch strings.ToLower(key) {
	case "listen":
		s.Listen = value
	case "allowed_origins":
		s.AllowedOrigins = nil
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.AllowedOrigins = append(s.AllowedOrigins, o)
			}
		}
	case "session_ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		s.SessionTTL = d
	case "storage":
		s.Storage = strings.ToLower(value)
	case "storage_path":
		s.StoragePath = value
	case "data_source":
		s.DataSource = value
	case "bucket":
		s.Bucket = value
	case "prefix":
		s.Prefix = value
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setPositive(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	*dst = n
	return nil
}

var rootKeys = []string{
	"theme", "save_dir", "output", "canvas_width", "canvas_height",
	"color", "size", "tool", "history_limit", "record_imports",
}

var serverKeys = []string{
	"listen", "allowed_origins", "session_ttl", "storage",
	"storage_path", "data_source", "bucket", "prefix",
}

var notifyKeys = []string{"save", "copy", "load"}

// ApplyEnv overrides settings from SKETCHPAD_* variables found by lookup.
// Pass os.LookupEnv for the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	apply := func(prefix string, keys []string, set func(k, v string) error) error {
		for _, k := range keys {
			v, ok := lookup(EnvPrefix + prefix + strings.ToUpper(k))
			if !ok {
				continue
			}
			if err := set(k, strings.TrimSpace(v)); err != nil {
				return fmt.Errorf("%s%s%s: %w", EnvPrefix, prefix, strings.ToUpper(k), err)
			}
		}
		return nil
	}
	if err := apply("", rootKeys, func(k, v string) error { return setRootField(c, k, v) }); err != nil {
		return err
	}
	if err := apply("NOTIFY_", notifyKeys, func(k, v string) error { return setNotifyField(&c.Notify, k, v) }); err != nil {
		return err
	}
	return apply("SERVER_", serverKeys, func(k, v string) error { return setServerField(&c.Server, k, v) })
}

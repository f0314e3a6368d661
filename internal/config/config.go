package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
	"github.com/example/sketchpad/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
	Load bool
}

// Server holds settings for the browser host.
type Server struct {
	Listen         string
	AllowedOrigins []string
	SessionTTL     time.Duration
	Storage        string
	StoragePath    string
	DataSource     string
	Bucket         string
	Prefix         string
}

// Config holds the application configuration.
type Config struct {
	Theme         string
	SaveDir       string
	Output        string
	CanvasWidth   int
	CanvasHeight  int
	Color         string
	Size          int
	Tool          string
	HistoryLimit  int
	RecordImports bool
	Notify        Notify
	Server        Server
	Themes        map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:        "", // Default to empty to allow fallback to Env/Default
		Output:       "drawing.png",
		CanvasWidth:  session.DefaultWidth,
		CanvasHeight: session.DefaultHeight,
		Size:         session.DefaultSize,
		Tool:         session.ToolPencil.String(),
		Server: Server{
			Listen:     ":8080",
			SessionTTL: time.Hour,
			Storage:    "memory",
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// SessionOptions turns the drawing defaults into session options.
func (c *Config) SessionOptions(log logrus.FieldLogger) ([]session.Option, error) {
	opts := []session.Option{
		session.WithCanvasSize(c.CanvasWidth, c.CanvasHeight),
		session.WithBrushSize(c.Size),
		session.WithHistoryLimit(c.HistoryLimit),
		session.WithImportHistory(c.RecordImports),
	}
	if log != nil {
		opts = append(opts, session.WithLogger(log))
	}
	if c.Color != "" {
		col, err := style.ParseColor(c.Color)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithColor(col))
	}
	if c.Tool != "" {
		t, err := session.ParseTool(c.Tool)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithTool(t))
	}
	return opts, nil
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	fmt.Fprintf(&sb, "output = %s\n", c.Output)
	fmt.Fprintf(&sb, "canvas_width = %d\n", c.CanvasWidth)
	fmt.Fprintf(&sb, "canvas_height = %d\n", c.CanvasHeight)
	if c.Color != "" {
		fmt.Fprintf(&sb, "color = %s\n", c.Color)
	}
	fmt.Fprintf(&sb, "size = %d\n", c.Size)
	fmt.Fprintf(&sb, "tool = %s\n", c.Tool)
	fmt.Fprintf(&sb, "history_limit = %d\n", c.HistoryLimit)
	fmt.Fprintf(&sb, "record_imports = %v\n", c.RecordImports)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "load = %v\n", c.Notify.Load)
	sb.WriteString("\n")

	sb.WriteString("[server]\n")
	fmt.Fprintf(&sb, "listen = %s\n", c.Server.Listen)
	if len(c.Server.AllowedOrigins) > 0 {
		fmt.Fprintf(&sb, "allowed_origins = %s\n", strings.Join(c.Server.AllowedOrigins, ","))
	}
	fmt.Fprintf(&sb, "session_ttl = %s\n", c.Server.SessionTTL)
	fmt.Fprintf(&sb, "storage = %s\n", c.Server.Storage)
	for _, kv := range [][2]string{
		{"storage_path", c.Server.StoragePath},
		{"data_source", c.Server.DataSource},
		{"bucket", c.Server.Bucket},
		{"prefix", c.Server.Prefix},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, strings.ToUpper(style.FormatHex(f.Color)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/assets"
	"github.com/example/sketchpad/internal/server"
	"github.com/example/sketchpad/internal/stores"
)

// serveCmd hosts drawing sessions for the browser page over HTTP.
type serveCmd struct {
	*root
	fs      *flag.FlagSet
	envFile string
	listen  string
	storage string
	origins string
	ttl     time.Duration
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(s)
	srv := r.config.Server
	fs.StringVar(&s.envFile, "env-file", ".env", "dotenv file loaded before reading SKETCHPAD_SERVER_* variables")
	fs.StringVar(&s.listen, "listen", srv.Listen, "the address to listen on")
	fs.StringVar(&s.storage, "storage", srv.Storage, "drawing storage: memory, filesystem, sqlite or s3")
	fs.StringVar(&s.origins, "origins", strings.Join(srv.AllowedOrigins, ","), "comma separated origins allowed besides localhost")
	fs.DurationVar(&s.ttl, "ttl", srv.SessionTTL, "idle time after which a session is discarded (0 keeps sessions)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

// applyEnvFile loads the dotenv file and re-reads the environment into the
// config. Flags given on the command line keep their values.
func (s *serveCmd) applyEnvFile() error {
	if s.envFile == "" {
		return nil
	}
	if err := godotenv.Load(s.envFile); err != nil {
		logrus.WithField("path", s.envFile).Info("No .env file found")
		return nil
	}
	if err := s.config.ApplyEnv(os.LookupEnv); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	set := map[string]bool{}
	s.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	srv := s.config.Server
	if !set["listen"] {
		s.listen = srv.Listen
	}
	if !set["storage"] {
		s.storage = srv.Storage
	}
	if !set["origins"] {
		s.origins = strings.Join(srv.AllowedOrigins, ",")
	}
	if !set["ttl"] {
		s.ttl = srv.SessionTTL
	}
	return nil
}

func (s *serveCmd) allowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// handler assembles the router and its store. The returned function releases
// the store.
func (s *serveCmd) handler(ctx context.Context) (*server.Registry, http.Handler, func() error, error) {
	srv := s.config.Server
	store, closer, err := stores.Open(ctx, stores.Options{
		Type:       strings.ToLower(s.storage),
		Path:       srv.StoragePath,
		DataSource: srv.DataSource,
		Bucket:     srv.Bucket,
		Prefix:     srv.Prefix,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	opts, err := s.sessionOptions(0, 0)
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	reg := server.NewRegistry(opts...)
	router := server.NewRouter(server.Options{
		Registry:       reg,
		Store:          store,
		Static:         assets.Web(),
		AllowedOrigins: s.allowedOrigins(),
	})
	return reg, router, closer.Close, nil
}

func (s *serveCmd) Run() error {
	if err := s.applyEnvFile(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, router, release, err := s.handler(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logrus.WithError(err).Warn("closing storage")
		}
	}()
	return server.Serve(ctx, s.listen, router, reg, s.ttl)
}

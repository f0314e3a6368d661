// Package server is the browser host: a chi HTTP API over a registry of
// drawing sessions, plus the embedded drawing page.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/core"
)

// Options configures the router.
type Options struct {
	Registry       *Registry
	Store          core.DrawingStore
	Static         fs.FS
	AllowedOrigins []string
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "::1":
					return true
				}
			}
			for _, o := range origins {
				if o == origin {
					return true
				}
			}
			return false
		},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}
}

// NewRouter wires every route.
func NewRouter(opts Options) *chi.Mux {
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", HandleCreateSession(reg))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandleGetSession(reg))
			r.Delete("/", HandleDeleteSession(reg))
			r.Post("/pointer", HandlePointer(reg))
			r.Post("/tool", HandleTool(reg))
			r.Post("/color", HandleColor(reg))
			r.Post("/size", HandleSize(reg))
			r.Post("/undo", HandleUndo(reg))
			r.Post("/redo", HandleRedo(reg))
			r.Get("/export", HandleExport(reg))
			r.Get("/frame", HandleFrame(reg))
			r.Put("/import", HandleImport(reg))
			if opts.Store != nil {
				r.Post("/drawings", HandleSaveDrawing(reg, opts.Store))
				r.Post("/drawings/{drawingId}/load", HandleLoadDrawing(reg, opts.Store))
			}
		})
	})

	if opts.Store != nil {
		r.Route("/api/drawings", func(r chi.Router) {
			r.Get("/", HandleListDrawings(opts.Store))
			r.Get("/{drawingId}", HandleGetDrawing(opts.Store))
			r.Delete("/{drawingId}", HandleDeleteDrawing(opts.Store))
		})
	} else {
		logrus.Warn("Drawing API not available - no store configured")
	}

	if opts.Static != nil {
		r.Handle("/*", http.FileServer(http.FS(opts.Static)))
	}
	return r
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions are expired every sweep when ttl is positive.
func Serve(ctx context.Context, addr string, handler http.Handler, reg *Registry, ttl time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("starting server")
		errc <- srv.ListenAndServe()
	}()

	var sweep <-chan time.Time
	if reg != nil && ttl > 0 {
		t := time.NewTicker(ttl / 2)
		defer t.Stop()
		sweep = t.C
	}
	for {
		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sweep:
			if n := reg.Expire(ttl); n > 0 {
				logrus.WithField("expired", n).Info("Expired idle sessions")
			}
		case <-ctx.Done():
			logrus.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

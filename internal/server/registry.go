package server

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/sketchpad/internal/session"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// MaxCanvasSide bounds the width and height a client may request.
const MaxCanvasSide = 4096

type entry struct {
	mu      sync.Mutex
	sess    *session.Session
	touched time.Time
}

// Registry holds the live sessions of the browser host. Each session has its
// own lock so events for one session run one at a time while different
// sessions proceed independently.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	base     []session.Option
	now      func() time.Time
}

// NewRegistry returns an empty registry. base is applied to every new
// session before the requested canvas size.
func NewRegistry(base ...session.Option) *Registry {
	return &Registry{sessions: make(map[string]*entry), base: base, now: time.Now}
}

// Create starts a session with the given canvas size. Zero dimensions use
// the session default.
func (r *Registry) Create(width, height int) string {
	opts := append([]session.Option(nil), r.base...)
	if width > 0 && height > 0 {
		opts = append(opts, session.WithCanvasSize(min(width, MaxCanvasSide), min(height, MaxCanvasSide)))
	}
	id := ulid.Make().String()
	e := &entry{sess: session.New(opts...), touched: r.now()}
	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()
	return id
}

// With runs fn while holding the session's lock.
func (r *Registry) With(id string, fn func(*session.Session) error) error {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = r.now()
	return fn(e.sess)
}

// Delete drops a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire drops sessions idle for longer than ttl and returns how many went.
func (r *Registry) Expire(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := e.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/core"
)

type memStore struct {
	mu       sync.RWMutex
	drawings map[string]*core.Drawing
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{drawings: make(map[string]*core.Drawing)}
}

func (s *memStore) Save(ctx context.Context, name string, data []byte) (*core.Drawing, error) {
	d, err := core.NewDrawing(name, append([]byte(nil), data...))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.drawings[d.ID] = d
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"drawing_id":  d.ID,
		"data_length": d.Size,
	}).Info("Drawing saved")
	return d.Meta(), nil
}

func (s *memStore) Get(ctx context.Context, id string) (*core.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drawings[id]
	if !ok {
		logrus.WithField("drawing_id", id).Warn("Drawing not found")
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	out := *d
	out.Data = append([]byte(nil), d.Data...)
	return &out, nil
}

func (s *memStore) List(ctx context.Context) ([]*core.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Drawing, 0, len(s.drawings))
	for _, d := range s.drawings {
		out = append(out, d.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	logrus.Debugf("Listed %d drawings", len(out))
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drawings[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	delete(s.drawings, id)
	logrus.WithField("drawing_id", id).Info("Drawing deleted")
	return nil
}

package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/core"
)

// fsStore keeps each drawing as <id>.png next to an <id>.json metadata file.
type fsStore struct {
	basePath string
}

// NewStore creates a filesystem store rooted at basePath, creating it if
// needed.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) paths(id string) (png, meta string) {
	return filepath.Join(s.basePath, id+".png"), filepath.Join(s.basePath, id+".json")
}

func (s *fsStore) Save(ctx context.Context, name string, data []byte) (*core.Drawing, error) {
	d, err := core.NewDrawing(name, data)
	if err != nil {
		return nil, err
	}
	pngPath, metaPath := s.paths(d.ID)
	log := logrus.WithFields(logrus.Fields{"drawing_id": d.ID, "path": pngPath})

	meta, err := json.Marshal(d.Meta())
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(pngPath, data, 0o644); err != nil {
		log.WithError(err).Error("Failed to write drawing")
		return nil, err
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		log.WithError(err).Error("Failed to write drawing metadata")
		_ = os.Remove(pngPath)
		return nil, err
	}
	log.Info("Drawing saved")
	return d.Meta(), nil
}

func (s *fsStore) readMeta(id string) (*core.Drawing, error) {
	_, metaPath := s.paths(id)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, err
	}
	var d core.Drawing
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("read metadata for %s: %w", id, err)
	}
	d.ID = id
	return &d, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (*core.Drawing, error) {
	if err := core.CheckID(id); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	d, err := s.readMeta(id)
	if err != nil {
		logrus.WithField("drawing_id", id).WithError(err).Warn("Drawing not found")
		return nil, err
	}
	pngPath, _ := s.paths(id)
	data, err := os.ReadFile(pngPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, err
	}
	d.Data = data
	return d, nil
}

func (s *fsStore) List(ctx context.Context) ([]*core.Drawing, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("path", s.basePath)
	out := make([]*core.Drawing, 0, len(entries)/2)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		if core.CheckID(id) != nil {
			continue
		}
		d, err := s.readMeta(id)
		if err != nil {
			log.WithError(err).Warnf("Skipping %s", e.Name())
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	log.Debugf("Listed %d drawings", len(out))
	return out, nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	if err := core.CheckID(id); err != nil {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	pngPath, metaPath := s.paths(id)
	err := os.Remove(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if err := os.Remove(pngPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	logrus.WithField("drawing_id", id).Info("Drawing deleted")
	return nil
}

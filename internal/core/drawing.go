// Package core defines the saved-drawing model shared by the stores and the
// HTTP host.
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by stores for unknown drawing IDs.
var ErrNotFound = errors.New("drawing not found")

// ErrInvalidID is returned for IDs that are not ULIDs.
var ErrInvalidID = errors.New("invalid drawing id")

type (
	// Drawing is an exported canvas kept by a DrawingStore. Data holds the
	// PNG bytes and is left empty in list results.
	Drawing struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Width     int       `json:"width"`
		Height    int       `json:"height"`
		Size      int       `json:"size"`
		CreatedAt time.Time `json:"createdAt"`
		Data      []byte    `json:"-"`
	}

	// DrawingStore persists whole-canvas PNG exports.
	DrawingStore interface {
		// Save stores data under a new ID.
		Save(ctx context.Context, name string, data []byte) (*Drawing, error)
		// Get returns the drawing including its data.
		Get(ctx context.Context, id string) (*Drawing, error)
		// List returns metadata for every drawing, newest first.
		List(ctx context.Context) ([]*Drawing, error)
		// Delete removes a drawing. Unknown IDs report ErrNotFound.
		Delete(ctx context.Context, id string) error
	}
)

// NewDrawing validates that data is a PNG and fills in the metadata for a new
// drawing with a fresh ULID.
func NewDrawing(name string, data []byte) (*Drawing, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("drawing is not a PNG: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "drawing.png"
	}
	return &Drawing{
		ID:        ulid.Make().String(),
		Name:      name,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Size:      len(data),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Data:      data,
	}, nil
}

// CheckID rejects anything that is not a ULID, which keeps IDs safe to use as
// file names and object keys.
func CheckID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Meta returns a copy of d without its data.
func (d *Drawing) Meta() *Drawing {
	c := *d
	c.Data = nil
	return &c
}

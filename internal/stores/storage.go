// Package stores selects a drawing store backend.
package stores

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/core"
	"github.com/example/sketchpad/internal/stores/aws"
	"github.com/example/sketchpad/internal/stores/filesystem"
	"github.com/example/sketchpad/internal/stores/memory"
	"github.com/example/sketchpad/internal/stores/sqlite"
)

// Options chooses and configures a backend.
type Options struct {
	// Type is one of memory, filesystem, sqlite or s3. Empty means memory.
	Type string
	// Path is the directory used by the filesystem backend.
	Path string
	// DataSource is the sqlite database file.
	DataSource string
	// Bucket and Prefix locate drawings for the s3 backend.
	Bucket string
	Prefix string
}

// Open returns the configured store. The returned closer releases backend
// resources and is never nil.
func Open(ctx context.Context, opts Options) (core.DrawingStore, io.Closer, error) {
	fields := logrus.Fields{"storageType": opts.Type}
	var (
		store  core.DrawingStore
		closer io.Closer = nopCloser{}
	)
	switch opts.Type {
	case "filesystem":
		path := opts.Path
		if path == "" {
			path = "./data"
		}
		fields["basePath"] = path
		s, err := filesystem.NewStore(path)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "sqlite":
		dsn := opts.DataSource
		if dsn == "" {
			dsn = "sketchpad.db"
		}
		fields["dataSourceName"] = dsn
		s, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	case "s3":
		fields["bucketName"] = opts.Bucket
		s, err := aws.NewStore(ctx, opts.Bucket, opts.Prefix)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "", "memory":
		store = memory.NewStore()
		fields["storageType"] = "in-memory"
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", opts.Type)
	}
	logrus.WithFields(fields).Info("Use storage")
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/example/sketchpad/internal/core"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens dataSourceName and creates the drawings table if needed.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	tableStmt := `
	CREATE TABLE IF NOT EXISTS drawings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		size INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(tableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create drawings table: %w", err)
	}
	return &sqliteStore{db}, nil
}

// Close releases the database handle.
func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) Save(ctx context.Context, name string, data []byte) (*core.Drawing, error) {
	d, err := core.NewDrawing(name, data)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"drawing_id": d.ID, "data_length": d.Size})
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO drawings (id, name, width, height, size, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		d.ID, d.Name, d.Width, d.Height, d.Size, data, d.CreatedAt.UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to save drawing")
		return nil, err
	}
	log.Info("Drawing saved")
	return d.Meta(), nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*core.Drawing, error) {
	d := core.Drawing{ID: id}
	var created int64
	err := s.db.QueryRowContext(ctx,
		"SELECT name, width, height, size, data, created_at FROM drawings WHERE id = ?", id).
		Scan(&d.Name, &d.Width, &d.Height, &d.Size, &d.Data, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("drawing_id", id).Warn("Drawing not found")
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, err
	}
	d.CreatedAt = time.UnixMilli(created).UTC()
	return &d, nil
}

func (s *sqliteStore) List(ctx context.Context) ([]*core.Drawing, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, width, height, size, created_at FROM drawings ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*core.Drawing{}
	for rows.Next() {
		var d core.Drawing
		var created int64
		if err := rows.Scan(&d.ID, &d.Name, &d.Width, &d.Height, &d.Size, &created); err != nil {
			return nil, err
		}
		d.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM drawings WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	logrus.WithField("drawing_id", id).Info("Drawing deleted")
	return nil
}

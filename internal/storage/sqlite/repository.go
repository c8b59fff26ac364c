// Package sqlite persists blobs in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendlog/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	getBlobSQL = `SELECT value FROM blobs WHERE key = ?`
	setBlobSQL = `INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

type Repository struct {
	db *sql.DB
}

var _ storage.BlobStore = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements storage.BlobStore
func (r *Repository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	var blob []byte
	err := r.db.QueryRowContext(ctx, getBlobSQL, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob %q: %w", key, err)
	}
	return blob, true, nil
}

// Set implements storage.BlobStore
func (r *Repository) Set(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if blob == nil {
		blob = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, setBlobSQL, key, blob); err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite", "key", key, "size", len(blob))
	return nil
}

// Package otscache is the default SQLite-backed implementation of the
// Cache collaborator: block-header lookups, upgrade cooldowns, and
// verdict memoization all persist here across process restarts.
package otscache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"otsproof/internal/otsproof/attestation"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key         TEXT PRIMARY KEY,
    value       BLOB NOT NULL,
    expires_at  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
`

// Store is a SQLite-backed attestation.Cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("otscache: create database directory: %w", err)
	}

	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("otscache: open lock file: %w", err)
	}
	defer lockFile.Close()
	if err := lockSchemaFile(lockFile); err != nil {
		return nil, fmt.Errorf("otscache: lock database: %w", err)
	}
	defer unlockSchemaFile(lockFile)

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("otscache: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("otscache: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements attestation.Cache. An expired entry is treated as a
// miss and lazily deleted.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&value, &expiresAt)
	if err != nil {
		return nil, false
	}
	if expiresAt.Valid && time.Now().UnixNano() > expiresAt.Int64 {
		s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false
	}
	return value, true
}

// Put implements attestation.Cache. ttl of zero means the entry never
// expires.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: time.Now().Add(ttl).UnixNano(), Valid: true}
	}
	s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
}

// Delete implements attestation.Cache.
func (s *Store) Delete(ctx context.Context, key string) {
	s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
}

var _ attestation.Cache = (*Store)(nil)

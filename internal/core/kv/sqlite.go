package kv

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	// sqlite driver
	_ "modernc.org/sqlite"
)

// SQLite keeps the store in a single local database file, the default
// backend: like the browser storage it replaces, it needs no server.
type SQLite struct {
	conn *sql.DB
	mu   sync.Mutex
}

func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS kv_entries (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	)`); err != nil {
		return nil, err
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRowContext(ctx, `SELECT v FROM kv_entries WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO kv_entries (k, v) VALUES (?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	return err
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.ExecContext(ctx, `DELETE FROM kv_entries WHERE k = ?`, key)
	return err
}

func (s *SQLite) Close() error { return s.conn.Close() }

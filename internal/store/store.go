// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/epulse/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the key-value table and the results log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers; the server handler may run concurrently.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			text_length INTEGER NOT NULL,
			duration REAL NOT NULL,
			error_keys TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored under key. The boolean reports whether it exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// AppendResult adds a result to the append-only results log. Repeated IDs are kept.
func (s *Store) AppendResult(ctx context.Context, r model.Result) error {
	errorKeys := ""
	if len(r.ErrorKeys) > 0 {
		raw, err := json.Marshal(r.ErrorKeys)
		if err != nil {
			return fmt.Errorf("failed to encode error keys: %w", err)
		}
		errorKeys = string(raw)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, wpm, accuracy, timestamp, text_length, duration, error_keys)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.WPM, r.Accuracy, r.Timestamp, r.TextLength, r.Duration, errorKeys)
	return err
}

// ListResults returns logged results, most recent first. A positive limit caps the count.
func (s *Store) ListResults(ctx context.Context, limit int) ([]model.Result, error) {
	query := `SELECT id, wpm, accuracy, timestamp, text_length, duration, error_keys
		FROM results
		ORDER BY timestamp DESC, seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.Result
	for rows.Next() {
		var r model.Result
		var errorKeys string
		if err := rows.Scan(&r.ID, &r.WPM, &r.Accuracy, &r.Timestamp, &r.TextLength, &r.Duration, &errorKeys); err != nil {
			return nil, err
		}
		if errorKeys != "" {
			if err := json.Unmarshal([]byte(errorKeys), &r.ErrorKeys); err != nil {
				return nil, fmt.Errorf("failed to decode error keys for %s: %w", r.ID, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountResults returns the number of logged results.
func (s *Store) CountResults(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

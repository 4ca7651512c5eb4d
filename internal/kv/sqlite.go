// ABOUTME: SQLite-backed Backend storing keys in a single kv table.
// ABOUTME: Uses WAL mode and one connection; SQLITE_FULL maps to ErrQuotaExceeded.
package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteBackend stores keys as rows of a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the database file at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %v", ErrUnavailable, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Get implements Backend.
func (b *SQLiteBackend) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set implements Backend.
func (b *SQLiteBackend) Set(key, value string) error {
	_, err := b.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return err
	}
	return nil
}

// Remove implements Backend.
func (b *SQLiteBackend) Remove(key string) error {
	_, err := b.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys implements Backend.
func (b *SQLiteBackend) Keys() ([]string, error) {
	rows, err := b.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ABOUTME: Flat string-keyed storage primitive consumed by the entry store.
// ABOUTME: Defines the Backend contract, its error kinds, and UTF-16 size accounting.
package kv

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf16"
)

var (
	// ErrQuotaExceeded is returned by Set when the backend refuses a write for capacity reasons.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")

	// ErrUnavailable is returned when the backend cannot be used at all.
	ErrUnavailable = errors.New("kv: storage unavailable")
)

// Backend is a flat string-to-string mapping with key enumeration.
type Backend interface {
	// Get returns the value for key. ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys lists every key currently held.
	Keys() ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindDisk   = "disk"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Layout under the data directory.
const (
	DiskDirName = "entries"
	SQLiteFile  = "journal.db"
)

// Open creates a backend of the given kind rooted at the data directory dir.
func Open(kind, dir string) (Backend, error) {
	switch kind {
	case "", KindDisk:
		return NewDiskBackend(filepath.Join(dir, DiskDirName))
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, SQLiteFile))
	case KindMemory:
		return NewMemoryBackend(0), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want disk, sqlite, or memory)", kind)
	}
}

// SizeOf returns the storage size of s at 2 bytes per UTF-16 code unit.
func SizeOf(s string) int64 {
	var units int64
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		units += int64(n)
	}
	return units * 2
}

// ABOUTME: Disk-backed Backend built on diskv with one file per key.
// ABOUTME: Writes go through a temp dir and rename so a crash never leaves a torn value.
package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/diskv/v3"
)

const tempDirName = ".tmp"

// DiskBackend stores each key as a file directly under its base directory.
type DiskBackend struct {
	d        *diskv.Diskv
	basePath string
}

// NewDiskBackend creates a disk backend rooted at dir, creating it if needed.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: disk backend needs a directory", ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}
	tmp := filepath.Join(dir, tempDirName)
	if err := os.MkdirAll(tmp, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", ErrUnavailable, err)
	}

	return &DiskBackend{
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			TempDir:           tmp,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      0,
			FilePerm:          0o600,
			PathPerm:          0o750,
		}),
		basePath: dir,
	}, nil
}

// Dir returns the directory holding the stored files.
func (b *DiskBackend) Dir() string {
	return b.basePath
}

// Get implements Backend.
func (b *DiskBackend) Get(key string) (string, bool, error) {
	val, err := b.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(val), true, nil
}

// Set implements Backend.
func (b *DiskBackend) Set(key, value string) error {
	if err := b.d.WriteString(key, value); err != nil {
		if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return err
	}
	return nil
}

// Remove implements Backend.
func (b *DiskBackend) Remove(key string) error {
	if err := b.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Keys implements Backend.
func (b *DiskBackend) Keys() ([]string, error) {
	if _, err := os.Stat(b.basePath); err != nil {
		return nil, err
	}
	cancel := make(chan struct{})
	defer close(cancel)

	var keys []string
	for key := range b.d.Keys(cancel) {
		// leftovers in the temp dir are not keys
		if strings.Contains(key, "/") {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Close implements Backend.
func (b *DiskBackend) Close() error {
	return nil
}

// keyToPath keeps every key at the top level of the base directory.
func keyToPath(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: key,
	}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(pk.Path, pk.FileName), "/")
}

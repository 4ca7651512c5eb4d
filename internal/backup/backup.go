// ABOUTME: Export and import of the journal as a portable JSON snapshot.
// ABOUTME: Imports are schema-checked and merge only entries whose ids are new.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/2389-research/jotter/internal/logging"
	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/mood"
	"github.com/2389-research/jotter/internal/storage"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = "2.1.2"

// Result counts the outcome of an import.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Engine exports and imports snapshots of a journal store.
type Engine struct {
	store  storage.JournalStore
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for export dates and file names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrDiscard(l) }
}

// New creates an engine over store.
func New(store storage.JournalStore, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export captures the current collection.
func (e *Engine) Export() models.Snapshot {
	entries := e.store.List()
	return models.Snapshot{
		ExportDate:   e.now().UTC(),
		Version:      SnapshotVersion,
		EntriesCount: len(entries),
		Entries:      entries,
	}
}

// WriteSnapshot writes an export to w as indented JSON.
func (e *Engine) WriteSnapshot(w io.Writer) (models.Snapshot, error) {
	snap := e.Export()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return snap, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return snap, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return snap, nil
}

// Filename is the suggested file name for an export taken at t.
func Filename(t time.Time) string {
	return "journal_backup_" + t.UTC().Format("2006-01-02") + ".json"
}

// ExportFile writes a snapshot into dir under Filename and returns its path.
func (e *Engine) ExportFile(dir string) (string, models.Snapshot, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", models.Snapshot{}, fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(e.now()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", models.Snapshot{}, fmt.Errorf("failed to create export file: %w", err)
	}
	snap, err := e.WriteSnapshot(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close export file: %w", cerr)
	}
	if err != nil {
		return "", snap, err
	}
	e.logger.Info("backup: exported", "path", path, "entries", snap.EntriesCount)
	return path, snap, nil
}

// Import merges the entries of a snapshot document into the store. Entries
// whose id already exists, or repeats an earlier id in the same document,
// are skipped. Entries without a mood are classified on the way in. A
// document that adds nothing performs no write.
func (e *Engine) Import(data []byte) (Result, error) {
	if err := Validate(data); err != nil {
		return Result{}, err
	}

	var doc struct {
		Entries []models.Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var res Result
	err := e.store.Apply(func(current []models.Entry) ([]models.Entry, error) {
		seen := make(map[models.EntryID]struct{}, len(current)+len(doc.Entries))
		for _, c := range current {
			seen[c.ID] = struct{}{}
		}

		var fresh []models.Entry
		for _, in := range doc.Entries {
			if _, dup := seen[in.ID]; dup {
				res.Skipped++
				continue
			}
			seen[in.ID] = struct{}{}
			if in.Mood == "" {
				in.Mood = mood.Classify(in.Text)
			}
			fresh = append(fresh, in)
		}
		res.Imported = len(fresh)
		if len(fresh) == 0 {
			return nil, nil
		}

		merged := append(current, fresh...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Timestamp.After(merged[j].Timestamp)
		})
		return merged, nil
	})
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return Result{}, err
	}

	e.logger.Info("backup: imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, err
}

// ImportReader reads a whole document from r and imports it.
func (e *Engine) ImportReader(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read backup: %w", err)
	}
	return e.Import(data)
}

// ImportFile imports the snapshot stored at path.
func (e *Engine) ImportFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	return e.Import(data)
}

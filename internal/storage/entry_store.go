// ABOUTME: Journal entry store persisting the whole collection under one key.
// ABOUTME: Enforces the size ceiling before writing and degrades to memory when storage fails.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/logging"
	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/mood"
	"github.com/2389-research/jotter/internal/quota"
)

// Defaults for the persisted collection.
const (
	DefaultKey           = "journal_entries"
	DefaultCeiling int64 = quota.CriticalBytes
)

// Option configures an EntryStore.
type Option func(*EntryStore)

// WithKey sets the backend key the collection is stored under.
func WithKey(key string) Option {
	return func(s *EntryStore) { s.key = key }
}

// WithCeiling sets the largest serialized size a write may reach.
func WithCeiling(limit int64) Option {
	return func(s *EntryStore) { s.ceiling = limit }
}

// WithClock replaces time.Now for id and timestamp assignment.
func WithClock(now func() time.Time) Option {
	return func(s *EntryStore) { s.now = now }
}

// WithClassifier replaces the mood classifier applied to untagged entries.
func WithClassifier(classify func(string) models.Mood) Option {
	return func(s *EntryStore) { s.classify = classify }
}

// WithLogger sets the logger for read and write failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *EntryStore) { s.logger = logging.OrDiscard(l) }
}

// EntryStore keeps the journal as a single serialized collection, newest
// first. The collection is loaded lazily and cached; every mutation goes
// through one size-checked write.
type EntryStore struct {
	mu       sync.Mutex
	backend  kv.Backend
	key      string
	ceiling  int64
	now      func() time.Time
	classify func(string) models.Mood
	logger   *slog.Logger

	loaded   bool
	entries  []models.Entry
	degraded bool
	lastID   int64
}

var _ JournalStore = (*EntryStore)(nil)

// Open creates a store over backend. A nil backend yields a store that
// keeps everything in memory and reports itself degraded.
func Open(backend kv.Backend, opts ...Option) *EntryStore {
	s := &EntryStore{
		backend:  backend,
		key:      DefaultKey,
		ceiling:  DefaultCeiling,
		now:      time.Now,
		classify: mood.Classify,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if backend == nil {
		s.logger.Warn("storage: no backend available, entries will not persist")
	}
	return s
}

// List returns the collection in stored order.
func (s *EntryStore) List() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return models.CloneEntries(s.entries)
}

// Get returns the entry with the given id.
func (s *EntryStore) Get(id models.EntryID) (models.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if i := indexOf(s.entries, id); i >= 0 {
		return models.CloneEntries(s.entries[i : i+1])[0], true
	}
	return models.Entry{}, false
}

// Add stores a new entry at the front of the collection. The returned error
// may be ErrStorageUnavailable, in which case the entry was still added in
// memory and is returned.
func (s *EntryStore) Add(partial models.Entry) (models.Entry, error) {
	if strings.TrimSpace(partial.Text) == "" {
		return models.Entry{}, ErrEmptyText
	}
	if partial.Mood != "" && !partial.Mood.IsValid() {
		return models.Entry{}, fmt.Errorf("%w: %q", ErrInvalidMood, partial.Mood)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	entry := partial
	entry.ID = s.nextID()
	entry.Timestamp = s.now().UTC()
	entry.UpdatedAt = nil
	if entry.Mood == "" {
		entry.Mood = s.classify(entry.Text)
	}

	next := make([]models.Entry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)

	if err := s.commit(next); err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			return entry, err
		}
		return models.Entry{}, err
	}
	return entry, nil
}

// Update merges patch over the matching entry and stamps its update time.
func (s *EntryStore) Update(id models.EntryID, patch models.EntryPatch) (bool, error) {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return false, ErrEmptyText
	}
	if patch.Mood != nil && !patch.Mood.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidMood, *patch.Mood)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	i := indexOf(s.entries, id)
	if i < 0 {
		return false, nil
	}

	updated := patch.ApplyTo(s.entries[i])
	stamp := s.now().UTC()
	updated.UpdatedAt = &stamp

	next := models.CloneEntries(s.entries)
	next[i] = updated
	if err := s.commit(next); err != nil {
		return errors.Is(err, ErrStorageUnavailable), err
	}
	return true, nil
}

// Delete removes the matching entry.
func (s *EntryStore) Delete(id models.EntryID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	i := indexOf(s.entries, id)
	if i < 0 {
		return false, nil
	}

	next := make([]models.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:i]...)
	next = append(next, s.entries[i+1:]...)
	if err := s.commit(next); err != nil {
		return errors.Is(err, ErrStorageUnavailable), err
	}
	return true, nil
}

// Clear removes the collection from the backend. It reports false when there
// is no backend or the backend refuses; the in-memory collection is emptied
// either way. A successful remove leaves memory and storage in agreement, so
// it also ends degraded mode.
func (s *EntryStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.entries = nil

	if s.backend == nil {
		return false
	}
	if err := s.backend.Remove(s.key); err != nil {
		s.logger.Warn("storage: clear failed", "key", s.key, "err", err)
		return false
	}
	s.degraded = false
	return true
}

// Apply hands fn a copy of the collection and commits what it returns.
// Returning a nil slice skips the write.
func (s *EntryStore) Apply(fn func(current []models.Entry) ([]models.Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	next, err := fn(models.CloneEntries(s.entries))
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if dup, ok := firstDuplicate(next); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, dup)
	}
	for _, e := range next {
		if n, err := strconv.ParseInt(string(e.ID), 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	return s.commit(next)
}

// Search returns entries containing query, case-insensitively. An empty
// mood matches every entry.
func (s *EntryStore) Search(query string, m models.Mood) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Entry
	for _, e := range s.entries {
		if m != "" && e.Mood != m {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Text), q) {
			continue
		}
		out = append(out, e)
	}
	return models.CloneEntries(out)
}

// Recent returns up to n entries from the front of the collection.
func (s *EntryStore) Recent(n int) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	if n < 0 {
		n = 0
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return models.CloneEntries(s.entries[:n])
}

// Degraded reports whether the last write failed or no backend exists.
func (s *EntryStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend == nil || s.degraded
}

// Close closes the backend.
func (s *EntryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *EntryStore) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.entries = s.readDurable()
	for _, e := range s.entries {
		if n, err := strconv.ParseInt(string(e.ID), 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
}

// readDurable loads the stored collection. Missing, unreadable, and
// malformed payloads all yield an empty collection.
func (s *EntryStore) readDurable() []models.Entry {
	if s.backend == nil {
		return nil
	}
	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		s.logger.Warn("storage: read failed, starting empty", "key", s.key, "err", err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var entries []models.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn("storage: stored entries are malformed, starting empty", "key", s.key, "err", err)
		return nil
	}
	return entries
}

// commit persists next and adopts it as the cached collection. A quota
// rejection leaves the cache untouched; a backend outage keeps the change
// in memory.
func (s *EntryStore) commit(next []models.Entry) error {
	err := s.persist(next)
	if err != nil && !errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	s.entries = next
	return err
}

func (s *EntryStore) persist(entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	projected := kv.SizeOf(string(data))
	if projected > s.ceiling {
		s.logger.Warn("storage: write rejected by size ceiling",
			"projected", projected, "limit", s.ceiling)
		return &QuotaError{Projected: projected, Limit: s.ceiling}
	}

	if s.backend == nil {
		return ErrStorageUnavailable
	}
	if err := s.backend.Set(s.key, string(data)); err != nil {
		if errors.Is(err, kv.ErrQuotaExceeded) {
			s.logger.Warn("storage: backend rejected write for size", "projected", projected, "err", err)
			return &QuotaError{Projected: projected, Limit: s.ceiling, Err: err}
		}
		s.degraded = true
		s.logger.Warn("storage: write failed, keeping changes in memory", "err", err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.degraded = false
	return nil
}

// nextID returns a millisecond-clock id that is strictly greater than any
// id issued or loaded so far.
func (s *EntryStore) nextID() models.EntryID {
	ms := s.now().UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	for indexOf(s.entries, models.EntryID(strconv.FormatInt(ms, 10))) >= 0 {
		ms++
	}
	s.lastID = ms
	return models.EntryID(strconv.FormatInt(ms, 10))
}

func indexOf(entries []models.Entry, id models.EntryID) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func firstDuplicate(entries []models.Entry) (models.EntryID, bool) {
	seen := make(map[models.EntryID]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			return e.ID, true
		}
		seen[e.ID] = struct{}{}
	}
	return "", false
}

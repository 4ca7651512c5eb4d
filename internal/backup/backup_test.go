// ABOUTME: Tests for snapshot export, validation, and deduplicating import.
// ABOUTME: Uses in-memory stores so every import outcome can be inspected directly.
package backup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/storage"
)

var exportTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return exportTime }

func newStore(t *testing.T, opts ...storage.Option) (*storage.EntryStore, *kv.MemoryBackend) {
	t.Helper()
	backend := kv.NewMemoryBackend(0)
	store := storage.Open(backend, append([]storage.Option{storage.WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = store.Close() })
	return store, backend
}

func seed(t *testing.T, store *storage.EntryStore, texts ...string) {
	t.Helper()
	for _, text := range texts {
		_, err := store.Add(models.Entry{Text: text})
		require.NoError(t, err)
	}
}

func at(day int) time.Time {
	return time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)
}

func TestExport(t *testing.T) {
	store, _ := newStore(t)
	seed(t, store, "one", "two")

	snap := New(store, WithClock(clock)).Export()
	assert.Equal(t, exportTime, snap.ExportDate)
	assert.Equal(t, "2.1.2", snap.Version)
	assert.Equal(t, 2, snap.EntriesCount)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "two", snap.Entries[0].Text)
}

func TestWriteSnapshotIsIndentedJSON(t *testing.T) {
	store, _ := newStore(t)
	seed(t, store, "hello")

	var buf bytes.Buffer
	_, err := New(store, WithClock(clock)).WriteSnapshot(&buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "\n  \"exportDate\": \"2024-06-01T08:00:00Z\"")
	assert.Contains(t, buf.String(), "\n  \"entriesCount\": 1")

	var decoded models.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.EntriesCount)
}

func TestRoundTripImportsNothing(t *testing.T) {
	store, backend := newStore(t)
	seed(t, store, "one", "two", "three")
	engine := New(store, WithClock(clock))

	var buf bytes.Buffer
	_, err := engine.WriteSnapshot(&buf)
	require.NoError(t, err)
	before, _, _ := backend.Get(storage.DefaultKey)

	res, err := engine.Import(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 0, Skipped: 3}, res)

	after, _, _ := backend.Get(storage.DefaultKey)
	assert.Equal(t, before, after)
}

func TestImportIntoEmptyStore(t *testing.T) {
	source, _ := newStore(t)
	seed(t, source, "first", "second")
	var buf bytes.Buffer
	_, err := New(source).WriteSnapshot(&buf)
	require.NoError(t, err)

	target, _ := newStore(t)
	res, err := New(target).Import(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2, Skipped: 0}, res)
	assert.Equal(t, source.List(), target.List())
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	docs := map[string]string{
		"not json":         `not json`,
		"null":             `null`,
		"top-level list":   `[]`,
		"missing entries":  `{"version":"2.1.2"}`,
		"entries object":   `{"entries":{}}`,
		"entries null":     `{"entries":null}`,
		"missing id":       `{"entries":[{"text":"x"}]}`,
		"empty id":         `{"entries":[{"id":"","text":"x"}]}`,
		"fractional id":    `{"entries":[{"id":1.5,"text":"x"}]}`,
		"missing text":     `{"entries":[{"id":"1"}]}`,
		"non-string text":  `{"entries":[{"id":"1","text":5}]}`,
		"non-object entry": `{"entries":["hello"]}`,
		"empty text":       `{"entries":[{"id":"1","text":""}]}`,
		"blank text":       `{"entries":[{"id":"1","text":" \n\t "}]}`,
		"unknown mood":     `{"entries":[{"id":"1","text":"hi","mood":"happy"}]}`,
		"non-string mood":  `{"entries":[{"id":"1","text":"hi","mood":3}]}`,
		"one bad entry":    `{"entries":[{"id":"1","text":"fine","mood":"neutral"},{"id":"2","text":"   ","mood":"furious"}]}`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			store, backend := newStore(t)
			seed(t, store, "keep me")
			before, _, _ := backend.Get(storage.DefaultKey)

			_, err := New(store).Import([]byte(doc))
			require.ErrorIs(t, err, ErrInvalidFormat)

			after, _, _ := backend.Get(storage.DefaultKey)
			assert.Equal(t, before, after)
			assert.Len(t, store.List(), 1)
		})
	}
}

func TestImportMergesNewEntriesByTimestamp(t *testing.T) {
	store, _ := newStore(t)
	err := store.Apply(func([]models.Entry) ([]models.Entry, error) {
		return []models.Entry{
			{ID: "c", Text: "day 3", Timestamp: at(3)},
			{ID: "a", Text: "day 1", Timestamp: at(1)},
		}, nil
	})
	require.NoError(t, err)

	doc := models.Snapshot{Entries: []models.Entry{
		{ID: "b", Text: "day 2", Timestamp: at(2)},
		{ID: "a", Text: "imposter", Timestamp: at(9)},
		{ID: "d", Text: "day 4", Timestamp: at(4)},
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := New(store).Import(data)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2, Skipped: 1}, res)

	var got []string
	for _, e := range store.List() {
		got = append(got, e.Text)
	}
	assert.Equal(t, []string{"day 4", "day 3", "day 2", "day 1"}, got)
}

func TestImportSkipsRepeatsWithinDocument(t *testing.T) {
	store, _ := newStore(t)
	data := []byte(`{"entries":[
		{"id":"x","text":"first copy","timestamp":"2024-01-01T00:00:00Z"},
		{"id":"x","text":"second copy","timestamp":"2024-01-02T00:00:00Z"}
	]}`)

	res, err := New(store).Import(data)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Skipped: 1}, res)

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "first copy", list[0].Text)
}

func TestImportClassifiesMissingMoods(t *testing.T) {
	store, _ := newStore(t)
	data := []byte(`{"entries":[
		{"id":"1","text":"so grateful for friends","timestamp":"2024-01-02T00:00:00Z"},
		{"id":"2","text":"a tired and anxious week","timestamp":"2024-01-01T00:00:00Z","mood":"positive"}
	]}`)

	res, err := New(store).Import(data)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2}, res)

	first, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, models.MoodPositive, first.Mood)

	second, ok := store.Get("2")
	require.True(t, ok)
	assert.Equal(t, models.MoodPositive, second.Mood, "a valid stored mood is kept as-is")
}

func TestImportLegacyNumericIDs(t *testing.T) {
	store, _ := newStore(t)
	data := []byte(`{"entries":[{"id":1700000000000,"text":"legacy","date":"2023-11-14T22:13:20Z","extra":true}]}`)

	res, err := New(store).Import(data)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	e, ok := store.Get("1700000000000")
	require.True(t, ok)
	assert.Equal(t, "legacy", e.Text)
	assert.Equal(t, int64(1700000000000), e.Timestamp.UnixMilli())

	res, err = New(store).Import(data)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 0, Skipped: 1}, res)
}

func TestImportQuotaFailureLeavesStoreUntouched(t *testing.T) {
	store, _ := newStore(t, storage.WithCeiling(400))
	seed(t, store, "small")

	big := make([]byte, 0, 1024)
	big = append(big, `{"entries":[{"id":"big","text":"`...)
	big = append(big, bytes.Repeat([]byte("z"), 500)...)
	big = append(big, `"}]}`...)

	_, err := New(store).Import(big)
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.Len(t, store.List(), 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "journal_backup_2024-06-01.json", Filename(exportTime))
}

func TestExportFileThenImportFile(t *testing.T) {
	source, _ := newStore(t)
	seed(t, source, "alpha", "beta")
	dir := filepath.Join(t.TempDir(), "exports")

	path, snap, err := New(source, WithClock(clock)).ExportFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "journal_backup_2024-06-01.json"), path)
	assert.Equal(t, 2, snap.EntriesCount)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	target, _ := newStore(t)
	res, err := New(target).ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2}, res)

	_, err = New(target).ImportFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

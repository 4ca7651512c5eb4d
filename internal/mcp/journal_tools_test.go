// ABOUTME: Tests for journal, backup, and storage MCP tool handlers.
// ABOUTME: Calls handlers directly against an in-memory entry store.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/quota"
	"github.com/2389-research/jotter/internal/storage"
)

var fixedTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func makeServer(t *testing.T, opts ...ServerOption) (*Server, *storage.EntryStore) {
	t.Helper()
	backend := kv.NewMemoryBackend(0)
	journal := storage.Open(backend, storage.WithClock(func() time.Time { return fixedTime }))
	opts = append([]ServerOption{WithQuotaMonitor(quota.NewMonitor(backend, nil))}, opts...)
	server, err := NewServer(journal, opts...)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return server, journal
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}

	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}

	handlers := map[string]func(context.Context, *gomcp.CallToolRequest) (*gomcp.CallToolResult, error){
		"write_entry":      s.handleWriteEntry,
		"list_entries":     s.handleListEntries,
		"update_entry":     s.handleUpdateEntry,
		"delete_entry":     s.handleDeleteEntry,
		"search_entries":   s.handleSearchEntries,
		"storage_status":   s.handleStorageStatus,
		"export_entries":   s.handleExportEntries,
		"import_entries":   s.handleImportEntries,
		"generate_insight": s.handleGenerateInsight,
	}
	handler, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func getTextContent(result *gomcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*gomcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestWriteEntry(t *testing.T) {
	s, journal := makeServer(t)

	result := callTool(t, s, "write_entry", map[string]string{
		"text": "Had a great walk by the river",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}

	text := getTextContent(result)
	if !strings.Contains(text, "ID: 1710498600000") {
		t.Errorf("expected entry id in response, got: %s", text)
	}
	if !strings.Contains(text, "Mood: positive") {
		t.Errorf("expected inferred mood in response, got: %s", text)
	}

	entries := journal.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(entries))
	}
	if entries[0].Source != "mcp" {
		t.Errorf("expected source 'mcp', got %q", entries[0].Source)
	}
}

func TestWriteEntryExplicitMood(t *testing.T) {
	s, journal := makeServer(t)

	result := callTool(t, s, "write_entry", map[string]string{
		"text": "Had a great walk",
		"mood": "reflective",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if got := journal.List()[0].Mood; got != models.MoodReflective {
		t.Errorf("expected explicit mood to win, got %q", got)
	}
}

func TestWriteEntryRejectsBadInput(t *testing.T) {
	s, journal := makeServer(t)

	tests := []struct {
		name string
		args map[string]string
	}{
		{"blank text", map[string]string{"text": "   "}},
		{"missing text", map[string]string{}},
		{"unknown mood", map[string]string{"text": "hello", "mood": "ecstatic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, "write_entry", tt.args)
			if !result.IsError {
				t.Errorf("expected error result, got: %s", getTextContent(result))
			}
		})
	}
	if n := len(journal.List()); n != 0 {
		t.Errorf("rejected writes should not store anything, got %d entries", n)
	}
}

func TestListEntries(t *testing.T) {
	s, _ := makeServer(t)

	result := callTool(t, s, "list_entries", map[string]interface{}{})
	if result.IsError || getTextContent(result) != "No entries found." {
		t.Fatalf("unexpected empty list result: %s", getTextContent(result))
	}

	callTool(t, s, "write_entry", map[string]string{"text": "first: a good day"})
	callTool(t, s, "write_entry", map[string]string{"text": "second: feeling tired"})
	callTool(t, s, "write_entry", map[string]string{"text": "third: plain notes"})

	text := getTextContent(callTool(t, s, "list_entries", map[string]interface{}{}))
	if strings.Count(text, "\n") != 3 {
		t.Errorf("expected 3 lines, got:\n%s", text)
	}
	if strings.Index(text, "third") > strings.Index(text, "first") {
		t.Errorf("expected newest first, got:\n%s", text)
	}

	limited := getTextContent(callTool(t, s, "list_entries", map[string]interface{}{"limit": 1}))
	if strings.Count(limited, "\n") != 1 || !strings.Contains(limited, "third") {
		t.Errorf("expected only the newest entry, got:\n%s", limited)
	}

	filtered := getTextContent(callTool(t, s, "list_entries", map[string]interface{}{"mood": "reflective"}))
	if !strings.Contains(filtered, "second") || strings.Contains(filtered, "first") {
		t.Errorf("expected only reflective entries, got:\n%s", filtered)
	}
}

func TestUpdateEntry(t *testing.T) {
	s, journal := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "draft"})
	id := string(journal.List()[0].ID)

	result := callTool(t, s, "update_entry", map[string]string{"id": id, "text": "final words", "mood": "positive"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}

	entry, ok := journal.Get(models.EntryID(id))
	if !ok {
		t.Fatal("entry disappeared after update")
	}
	if entry.Text != "final words" || entry.Mood != models.MoodPositive {
		t.Errorf("update not applied: %+v", entry)
	}
	if entry.UpdatedAt == nil {
		t.Error("expected updatedAt to be stamped")
	}
}

func TestUpdateEntryErrors(t *testing.T) {
	s, journal := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "draft"})
	id := string(journal.List()[0].ID)

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"missing id", map[string]string{"text": "x"}, "id is required"},
		{"empty patch", map[string]string{"id": id}, "nothing to update"},
		{"unknown id", map[string]string{"id": "42", "text": "x"}, "not found"},
		{"blank text", map[string]string{"id": id, "text": " "}, "failed to update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, "update_entry", tt.args)
			if !result.IsError {
				t.Fatalf("expected error result, got: %s", getTextContent(result))
			}
			if !strings.Contains(getTextContent(result), tt.want) {
				t.Errorf("expected %q in error, got: %s", tt.want, getTextContent(result))
			}
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	s, journal := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "short lived"})
	id := string(journal.List()[0].ID)

	result := callTool(t, s, "delete_entry", map[string]string{"id": id})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if n := len(journal.List()); n != 0 {
		t.Errorf("expected empty journal, got %d entries", n)
	}

	again := callTool(t, s, "delete_entry", map[string]string{"id": id})
	if !again.IsError {
		t.Error("expected error deleting a missing entry")
	}
}

func TestSearchEntries(t *testing.T) {
	s, _ := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "This is a unique search target string"})
	callTool(t, s, "write_entry", map[string]string{"text": "Something else entirely"})

	result := callTool(t, s, "search_entries", map[string]interface{}{"query": "UNIQUE search"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "unique search target") || strings.Contains(text, "Something else") {
		t.Errorf("unexpected search result: %s", text)
	}

	none := callTool(t, s, "search_entries", map[string]interface{}{"query": "nonexistent xyz123"})
	if none.IsError || !strings.Contains(getTextContent(none), "No matching entries") {
		t.Errorf("expected no-match message, got: %s", getTextContent(none))
	}

	empty := callTool(t, s, "search_entries", map[string]interface{}{"query": "  "})
	if !empty.IsError {
		t.Error("expected error for empty query")
	}
}

func TestStorageStatus(t *testing.T) {
	s, _ := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "one"})
	callTool(t, s, "write_entry", map[string]string{"text": "two"})

	result := callTool(t, s, "storage_status", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "Entries: 2") {
		t.Errorf("expected entry count, got: %s", text)
	}
	if !strings.Contains(text, "Bytes used") {
		t.Errorf("expected formatted size, got: %s", text)
	}
	if strings.Contains(text, "Warning") || strings.Contains(text, "Critical") {
		t.Errorf("small journal should not warn, got: %s", text)
	}
}

func TestExportEntriesInline(t *testing.T) {
	s, _ := makeServer(t)
	callTool(t, s, "write_entry", map[string]string{"text": "export me"})

	result := callTool(t, s, "export_entries", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(getTextContent(result)), &snap); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if snap.EntriesCount != 1 || len(snap.Entries) != 1 || snap.Entries[0].Text != "export me" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestExportThenImportFile(t *testing.T) {
	src, _ := makeServer(t)
	callTool(t, src, "write_entry", map[string]string{"text": "carried over"})

	dir := t.TempDir()
	result := callTool(t, src, "export_entries", map[string]string{"dir": dir})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "journal_backup_*.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one backup file, got %v", matches)
	}

	dst, journal := makeServer(t)
	imported := callTool(t, dst, "import_entries", map[string]string{"path": matches[0]})
	if imported.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(imported))
	}
	if !strings.Contains(getTextContent(imported), "Imported 1 entries, skipped 0") {
		t.Errorf("unexpected import summary: %s", getTextContent(imported))
	}
	if entries := journal.List(); len(entries) != 1 || entries[0].Text != "carried over" {
		t.Errorf("unexpected journal after import: %+v", entries)
	}

	again := callTool(t, dst, "import_entries", map[string]string{"path": matches[0]})
	if !strings.Contains(getTextContent(again), "Imported 0 entries, skipped 1") {
		t.Errorf("expected duplicate to be skipped, got: %s", getTextContent(again))
	}
}

func TestImportEntriesErrors(t *testing.T) {
	s, _ := makeServer(t)

	if result := callTool(t, s, "import_entries", map[string]string{}); !result.IsError {
		t.Error("expected error with neither data nor path")
	}
	if result := callTool(t, s, "import_entries", map[string]string{"data": `{"entries": 3}`}); !result.IsError {
		t.Error("expected error for invalid document")
	}

	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := os.Stat(missing); err == nil {
		t.Fatal("fixture path unexpectedly exists")
	}
	if result := callTool(t, s, "import_entries", map[string]string{"path": missing}); !result.IsError {
		t.Error("expected error for missing file")
	}
}

func TestImportEntriesInline(t *testing.T) {
	s, journal := makeServer(t)

	data := `{"entries": [
		{"id": "1", "text": "older", "timestamp": "2024-01-01T00:00:00Z", "mood": "neutral"},
		{"id": "2", "text": "newer", "timestamp": "2024-02-01T00:00:00Z", "mood": "positive"}
	]}`
	result := callTool(t, s, "import_entries", map[string]string{"data": data})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}

	entries := journal.List()
	if len(entries) != 2 || entries[0].Text != "newer" {
		t.Errorf("expected entries sorted newest first, got %+v", entries)
	}
}

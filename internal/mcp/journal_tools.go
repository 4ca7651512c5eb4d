// ABOUTME: MCP tool implementations for journal entry operations.
// ABOUTME: Registers write_entry, list_entries, update_entry, delete_entry, search_entries, storage_status.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/storage"
)

const defaultListLimit = 10

func (s *Server) registerJournalTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "write_entry",
		Description: "Write a new journal entry. The mood is inferred from the text unless given.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "The entry text"},
				"mood": {"type": "string", "enum": ["positive", "reflective", "neutral"], "description": "Mood tag (inferred when omitted)"},
				"source": {"type": "string", "description": "Where the entry came from (default: mcp)"}
			},
			"required": ["text"]
		}`),
	}, s.handleWriteEntry)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_entries",
		Description: "List journal entries, newest first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of entries to return (default: 10)"},
				"mood": {"type": "string", "enum": ["positive", "reflective", "neutral"], "description": "Only list entries with this mood"}
			}
		}`),
	}, s.handleListEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "update_entry",
		Description: "Change the text or mood of an existing entry.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry id"},
				"text": {"type": "string", "description": "Replacement text"},
				"mood": {"type": "string", "enum": ["positive", "reflective", "neutral"], "description": "Replacement mood"}
			},
			"required": ["id"]
		}`),
	}, s.handleUpdateEntry)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "delete_entry",
		Description: "Delete a journal entry by id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry id"}
			},
			"required": ["id"]
		}`),
	}, s.handleDeleteEntry)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_entries",
		Description: "Search journal entries by text, case-insensitively.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Text to look for"},
				"mood": {"type": "string", "enum": ["positive", "reflective", "neutral"], "description": "Only match entries with this mood"},
				"limit": {"type": "number", "description": "Maximum number of results (default 10)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "storage_status",
		Description: "Report how much of the storage quota the journal uses.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleStorageStatus)
}

func (s *Server) handleWriteEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Text   string `json:"text"`
		Mood   string `json:"mood"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	partial := models.Entry{Text: args.Text, Source: args.Source}
	if partial.Source == "" {
		partial.Source = "mcp"
	}
	if args.Mood != "" {
		m, err := models.ParseMood(args.Mood)
		if err != nil {
			return toolError("%v", err), nil
		}
		partial.Mood = m
	}

	entry, err := s.journal.Add(partial)
	var warning string
	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		warning = "\nWarning: storage is unavailable; this entry is kept in memory only."
	case err != nil:
		return toolError("failed to write entry: %v", err), nil
	}

	return textResult(fmt.Sprintf("Entry written:\nID: %s\nDate: %s\nMood: %s%s",
		entry.ID, entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Mood, warning)), nil
}

func (s *Server) handleListEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int    `json:"limit"`
		Mood  string `json:"mood"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}

	var mood models.Mood
	if args.Mood != "" {
		m, err := models.ParseMood(args.Mood)
		if err != nil {
			return toolError("%v", err), nil
		}
		mood = m
	}

	entries := s.journal.Search("", mood)
	if len(entries) == 0 {
		return textResult("No entries found."), nil
	}
	if len(entries) > args.Limit {
		entries = entries[:args.Limit]
	}
	return textResult(formatEntryList(entries)), nil
}

func (s *Server) handleUpdateEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID   string  `json:"id"`
		Text *string `json:"text"`
		Mood *string `json:"mood"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID == "" {
		return toolError("id is required"), nil
	}

	patch := models.EntryPatch{Text: args.Text}
	if args.Mood != nil {
		m, err := models.ParseMood(*args.Mood)
		if err != nil {
			return toolError("%v", err), nil
		}
		patch.Mood = &m
	}
	if patch.IsEmpty() {
		return toolError("nothing to update: provide text or mood"), nil
	}

	ok, err := s.journal.Update(models.EntryID(args.ID), patch)
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return toolError("failed to update entry: %v", err), nil
	}
	if !ok {
		return toolError("entry %s not found", args.ID), nil
	}
	return textResult(fmt.Sprintf("Entry %s updated.", args.ID)), nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID == "" {
		return toolError("id is required"), nil
	}

	ok, err := s.journal.Delete(models.EntryID(args.ID))
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return toolError("failed to delete entry: %v", err), nil
	}
	if !ok {
		return toolError("entry %s not found", args.ID), nil
	}
	return textResult(fmt.Sprintf("Entry %s deleted.", args.ID)), nil
}

func (s *Server) handleSearchEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Mood  string `json:"mood"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return toolError("query is required"), nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}

	var mood models.Mood
	if args.Mood != "" {
		m, err := models.ParseMood(args.Mood)
		if err != nil {
			return toolError("%v", err), nil
		}
		mood = m
	}

	results := s.journal.Search(args.Query, mood)
	if len(results) == 0 {
		return textResult("No matching entries found."), nil
	}
	if len(results) > args.Limit {
		results = results[:args.Limit]
	}

	var sb strings.Builder
	for i, entry := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(fmt.Sprintf("ID: %s\n", entry.ID))
		sb.WriteString(fmt.Sprintf("Date: %s\n", entry.Timestamp.Format("2006-01-02 15:04:05")))
		sb.WriteString(fmt.Sprintf("Mood: %s\n\n", entry.Mood))
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleStorageStatus(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	st := s.quota.Status()
	count := len(s.journal.List())

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Storage: %s used (%.1f%% of quota)\n", st.SizeFormatted, st.Percentage))
	sb.WriteString(fmt.Sprintf("Entries: %d\n", count))
	switch {
	case s.journal.Degraded():
		sb.WriteString("Warning: storage is unavailable; changes are kept in memory only.\n")
	case st.IsCritical:
		sb.WriteString("Critical: storage is nearly full. Export and delete old entries.\n")
	case st.IsWarning:
		sb.WriteString("Warning: storage is filling up. Consider exporting old entries.\n")
	}
	return textResult(sb.String()), nil
}

// formatEntryList renders one line per entry.
func formatEntryList(entries []models.Entry) string {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("- %s [%s] (%s) %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.ID,
			entry.Mood,
			preview(entry.Text, 80),
		))
	}
	return sb.String()
}

// preview flattens text to one line of at most n runes.
func preview(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n-1]) + "…"
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

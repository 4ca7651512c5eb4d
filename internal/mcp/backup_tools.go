// ABOUTME: MCP tool implementations for exporting and importing journal backups.
// ABOUTME: Registers export_entries and import_entries over the backup engine.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jotter/internal/backup"
	"github.com/2389-research/jotter/internal/config"
	"github.com/2389-research/jotter/internal/storage"
)

func (s *Server) registerBackupTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "export_entries",
		Description: "Export every journal entry as a JSON backup. Writes a dated file when dir is given, otherwise returns the JSON.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"dir": {"type": "string", "description": "Directory to write journal_backup_YYYY-MM-DD.json into"}
			}
		}`),
	}, s.handleExportEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "import_entries",
		Description: "Import entries from a JSON backup. Entries whose id already exists are skipped.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"data": {"type": "string", "description": "Backup document as JSON text"},
				"path": {"type": "string", "description": "Path to a backup file"}
			}
		}`),
	}, s.handleImportEntries)
}

func (s *Server) handleExportEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Dir string `json:"dir"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Dir != "" {
		dir, err := config.ExpandPath(args.Dir)
		if err != nil {
			return toolError("invalid dir: %v", err), nil
		}
		path, snap, err := s.backup.ExportFile(dir)
		if err != nil {
			return toolError("export failed: %v", err), nil
		}
		return textResult(fmt.Sprintf("Exported %d entries to %s", snap.EntriesCount, path)), nil
	}

	var buf bytes.Buffer
	if _, err := s.backup.WriteSnapshot(&buf); err != nil {
		return toolError("export failed: %v", err), nil
	}
	return textResult(buf.String()), nil
}

func (s *Server) handleImportEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Data string `json:"data"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	var (
		res backup.Result
		err error
	)
	switch {
	case strings.TrimSpace(args.Data) != "":
		res, err = s.backup.Import([]byte(args.Data))
	case args.Path != "":
		path, perr := config.ExpandPath(args.Path)
		if perr != nil {
			return toolError("invalid path: %v", perr), nil
		}
		res, err = s.backup.ImportFile(path)
	default:
		return toolError("provide either data or path"), nil
	}

	var warning string
	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		warning = "\nWarning: storage is unavailable; imported entries are kept in memory only."
	case err != nil:
		return toolError("import failed: %v", err), nil
	}

	return textResult(fmt.Sprintf("Imported %d entries, skipped %d duplicates.%s",
		res.Imported, res.Skipped, warning)), nil
}

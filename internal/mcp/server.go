// ABOUTME: MCP server initialization and configuration for jotter.
// ABOUTME: Sets up server with entry, backup, storage, and insight tools for AI agent access.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jotter/internal/backup"
	"github.com/2389-research/jotter/internal/insight"
	"github.com/2389-research/jotter/internal/logging"
	"github.com/2389-research/jotter/internal/quota"
	"github.com/2389-research/jotter/internal/storage"
)

// Version is reported to MCP clients.
const Version = "2.1.2"

// Server wraps the MCP server with the journal and its supporting services.
type Server struct {
	mcp     *gomcp.Server
	journal storage.JournalStore
	backup  *backup.Engine
	quota   *quota.Monitor
	insight *insight.Client
	logger  *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithInsightClient enables the generate_insight tool.
func WithInsightClient(c *insight.Client) ServerOption {
	return func(s *Server) {
		s.insight = c
	}
}

// WithQuotaMonitor sets the monitor used by storage_status.
func WithQuotaMonitor(m *quota.Monitor) ServerOption {
	return func(s *Server) {
		s.quota = m
	}
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logging.OrDiscard(l)
	}
}

// NewServer creates an MCP server over the journal store.
func NewServer(journal storage.JournalStore, opts ...ServerOption) (*Server, error) {
	if journal == nil {
		return nil, fmt.Errorf("journal store is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "jotter",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		journal: journal,
		logger:  logging.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.quota == nil {
		s.quota = quota.NewMonitor(nil, s.logger)
	}
	s.backup = backup.New(journal, backup.WithLogger(s.logger))

	s.registerJournalTools()
	s.registerBackupTools()
	if s.insight != nil {
		s.registerInsightTools()
	}

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp: serving on stdio")
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

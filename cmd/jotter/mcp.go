// ABOUTME: MCP server command implementation for jotter.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/jotter/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to write,
search, export, and reflect on journal entries through a standardized protocol.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []mcppkg.ServerOption{
		mcppkg.WithQuotaMonitor(globalQuota),
		mcppkg.WithLogger(globalLogger),
	}
	client, err := newInsightClient(globalConfig, globalLogger)
	if err != nil {
		globalLogger.Warn("insight tools disabled", "err", err)
	} else if client != nil {
		opts = append(opts, mcppkg.WithInsightClient(client))
	}

	server, err := mcppkg.NewServer(globalJournal, opts...)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}

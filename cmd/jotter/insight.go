// ABOUTME: CLI command asking the AI companion to reflect on recent entries.
// ABOUTME: Builds an insight client from config and prints plain or structured results.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/insight"
	mcppkg "github.com/2389-research/jotter/internal/mcp"
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Get AI reflections on recent entries",
	Long: `Send your most recent entries to the configured insight endpoint and
print the companion's reflections. Run "jotter setup" to configure an endpoint.`,
	RunE: runInsight,
}

var insightLimit int

func init() {
	rootCmd.AddCommand(insightCmd)
	insightCmd.Flags().IntVar(&insightLimit, "limit", insight.MaxPromptEntries, "Number of recent entries to include")
}

func runInsight(cmd *cobra.Command, args []string) error {
	client, err := newInsightClient(globalConfig, globalLogger)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("no insight endpoint configured; run `jotter setup`")
	}

	limit := insightLimit
	if limit <= 0 || limit > insight.MaxPromptEntries {
		limit = insight.MaxPromptEntries
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := client.Generate(ctx, globalJournal.Recent(limit))
	if errors.Is(err, insight.ErrNoEntries) {
		return fmt.Errorf("no journal entries yet; write one first with `jotter write`")
	}
	if err != nil {
		return fmt.Errorf("failed to generate insight: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), mcppkg.FormatInsight(result))
	return nil
}

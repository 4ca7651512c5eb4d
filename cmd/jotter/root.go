// ABOUTME: Root Cobra command and global flags for the jotter CLI.
// ABOUTME: Sets up lifecycle hooks for config, logging, backend, and store initialization.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/config"
	"github.com/2389-research/jotter/internal/insight"
	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/logging"
	"github.com/2389-research/jotter/internal/quota"
	"github.com/2389-research/jotter/internal/storage"
)

var globalConfig *config.Config
var globalLogger *slog.Logger
var globalJournal *storage.EntryStore
var globalQuota *quota.Monitor

// Flags
var (
	flagDataDir  string
	flagBackend  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "jotter",
	Short: "Private journaling with mood tags and AI reflections",
	Long: `
     ██╗ ██████╗ ████████╗████████╗███████╗██████╗
     ██║██╔═══██╗╚══██╔══╝╚══██╔══╝██╔════╝██╔══██╗
     ██║██║   ██║   ██║      ██║   █████╗  ██████╔╝
██   ██║██║   ██║   ██║      ██║   ██╔══╝  ██╔══██╗
╚█████╔╝╚██████╔╝   ██║      ██║   ███████╗██║  ██║
 ╚════╝  ╚═════╝    ╚═╝      ╚═╝   ╚══════╝╚═╝  ╚═╝

A private journal that lives on your machine.
Entries are mood-tagged, exportable, and can be reflected on by an AI companion.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagDataDir != "" {
			cfg.Storage.DataDir = flagDataDir
		}
		if flagBackend != "" {
			cfg.Storage.Backend = flagBackend
		}
		if flagLogLevel != "" {
			cfg.Log.Level = flagLogLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		globalConfig = cfg

		logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		globalLogger = logger

		dataDir, err := cfg.GetDataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data dir: %w", err)
		}

		// An unusable backend leaves the journal running in memory.
		backend, err := kv.Open(cfg.Storage.Backend, dataDir)
		if err != nil {
			logger.Warn("storage backend unavailable", "backend", cfg.Storage.Backend, "dir", dataDir, "err", err)
			backend = nil
		}
		globalJournal = storage.Open(backend, storage.WithLogger(logger))
		globalQuota = quota.NewMonitor(backend, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalJournal == nil {
			return nil
		}
		err := globalJournal.Close()
		globalJournal = nil
		if err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory holding journal data (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: disk, sqlite, or memory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, or error (overrides config)")
}

// newInsightClient builds an insight client from the loaded config. It returns
// nil when no endpoint is configured.
func newInsightClient(cfg *config.Config, logger *slog.Logger) (*insight.Client, error) {
	if cfg == nil || !cfg.HasInsight() {
		return nil, nil
	}
	completer, err := insight.NewCompleter(cfg.Insight.Provider, cfg.Insight.APIURL, cfg.Insight.APIKey)
	if err != nil {
		return nil, err
	}
	return insight.NewClient(completer,
		insight.WithModel(cfg.Insight.Model),
		insight.WithMaxTokens(cfg.Insight.MaxTokens),
		insight.WithTimeout(cfg.Insight.Timeout),
		insight.WithMaxRetries(cfg.Insight.MaxRetries),
		insight.WithLogger(logger),
	), nil
}

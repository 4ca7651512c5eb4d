// ABOUTME: CLI commands for exporting and importing journal backups.
// ABOUTME: Writes dated JSON snapshots and merges backup files, skipping known ids.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/backup"
	"github.com/2389-research/jotter/internal/config"
	"github.com/2389-research/jotter/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every entry to a JSON backup",
	Long:  "Write journal_backup_YYYY-MM-DD.json into --out (default: current directory), or print it with --stdout.",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entries from a JSON backup",
	Long:  "Merge entries from a backup file. Entries whose id already exists are skipped. Use - to read stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

// Flags
var (
	exportDir    string
	exportStdout bool
)

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVar(&exportDir, "out", ".", "Directory to write the backup into")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Print the backup instead of writing a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	engine := backup.New(globalJournal, backup.WithLogger(globalLogger))

	if exportStdout {
		if _, err := engine.WriteSnapshot(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return nil
	}

	dir, err := config.ExpandPath(exportDir)
	if err != nil {
		return fmt.Errorf("invalid --out: %w", err)
	}
	path, snap, err := engine.ExportFile(dir)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", snap.EntriesCount, path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	engine := backup.New(globalJournal, backup.WithLogger(globalLogger))

	var (
		res backup.Result
		err error
	)
	if args[0] == "-" {
		res, err = engine.ImportReader(cmd.InOrStdin())
	} else {
		path, perr := config.ExpandPath(args[0])
		if perr != nil {
			return fmt.Errorf("invalid path: %w", perr)
		}
		res, err = engine.ImportFile(path)
	}

	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		warnf(cmd.ErrOrStderr(), "storage is unavailable; imported entries are kept in memory only")
	case err != nil:
		return fmt.Errorf("import failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries, skipped %d duplicates.\n", res.Imported, res.Skipped)
	warnIfFilling(cmd)
	return nil
}

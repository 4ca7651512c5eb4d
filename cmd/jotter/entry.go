// ABOUTME: CLI commands for journal entry operations.
// ABOUTME: Provides write, list, show, edit, delete, clear, and search subcommands.
package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/models"
	"github.com/2389-research/jotter/internal/storage"
)

var writeCmd = &cobra.Command{
	Use:   "write [text]",
	Short: "Write a journal entry",
	Long:  "Create a journal entry from the argument, or from stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWrite,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	Long:  "List journal entries, newest first.",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an entry's text or mood",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every journal entry",
	Long:  "Remove the whole journal from storage. Export first if you want to keep it.",
	RunE:  runClear,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search journal entries",
	Long:  "Search journal entries by case-insensitive substring matching.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

// Flags
var (
	entryMood   string
	entrySource string
	editText    string
	listLimit   int
	clearYes    bool
)

func init() {
	rootCmd.AddCommand(writeCmd, listCmd, showCmd, editCmd, deleteCmd, clearCmd, searchCmd)

	writeCmd.Flags().StringVar(&entryMood, "mood", "", "Mood tag: positive, reflective, or neutral (inferred when omitted)")
	writeCmd.Flags().StringVar(&entrySource, "source", "cli", "Where the entry came from")

	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of entries to show (0 for all)")
	listCmd.Flags().StringVar(&entryMood, "mood", "", "Only list entries with this mood")

	editCmd.Flags().StringVar(&editText, "text", "", "Replacement text")
	editCmd.Flags().StringVar(&entryMood, "mood", "", "Replacement mood")

	searchCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of results (0 for all)")
	searchCmd.Flags().StringVar(&entryMood, "mood", "", "Only match entries with this mood")

	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting every entry")
}

func parseMoodFlag() (models.Mood, error) {
	if entryMood == "" {
		return "", nil
	}
	return models.ParseMood(entryMood)
}

func runWrite(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	m, err := parseMoodFlag()
	if err != nil {
		return err
	}

	entry, err := globalJournal.Add(models.Entry{Text: text, Mood: m, Source: entrySource})
	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		warnf(cmd.ErrOrStderr(), "storage is unavailable; this entry is kept in memory only")
	case err != nil:
		return fmt.Errorf("failed to write entry: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Entry written: %s (%s)\n", entry.ID, moodColor(entry.Mood).Sprint(entry.Mood))
	warnIfFilling(cmd)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	m, err := parseMoodFlag()
	if err != nil {
		return err
	}
	entries := globalJournal.Search("", m)
	if listLimit > 0 && len(entries) > listLimit {
		entries = entries[:listLimit]
	}
	printEntryTable(cmd.OutOrStdout(), entries)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	entry, ok := globalJournal.Get(models.EntryID(args[0]))
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}
	printEntry(cmd.OutOrStdout(), entry)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	var patch models.EntryPatch
	if cmd.Flags().Changed("text") {
		patch.Text = &editText
	}
	if cmd.Flags().Changed("mood") {
		m, err := parseMoodFlag()
		if err != nil {
			return err
		}
		patch.Mood = &m
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change: pass --text or --mood")
	}

	ok, err := globalJournal.Update(models.EntryID(args[0]), patch)
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}
	if err != nil {
		warnf(cmd.ErrOrStderr(), "storage is unavailable; the change is kept in memory only")
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Entry %s updated.\n", args[0])
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ok, err := globalJournal.Delete(models.EntryID(args[0]))
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}
	if err != nil {
		warnf(cmd.ErrOrStderr(), "storage is unavailable; the deletion is kept in memory only")
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Entry %s deleted.\n", args[0])
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to delete every entry without --yes")
	}
	if !globalJournal.Clear() {
		return fmt.Errorf("failed to clear stored entries")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All entries deleted.")
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}
	m, err := parseMoodFlag()
	if err != nil {
		return err
	}
	results := globalJournal.Search(query, m)
	if listLimit > 0 && len(results) > listLimit {
		results = results[:listLimit]
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No matching entries found.")
		return nil
	}
	printEntryTable(cmd.OutOrStdout(), results)
	return nil
}

// warnIfFilling prints a notice when storage crosses the warning threshold.
func warnIfFilling(cmd *cobra.Command) {
	st := globalQuota.Status()
	switch {
	case st.IsCritical:
		warnf(cmd.ErrOrStderr(), "storage is %.1f%% full; export and delete old entries", st.Percentage)
	case st.IsWarning:
		warnf(cmd.ErrOrStderr(), "storage is %.1f%% full; consider exporting old entries", st.Percentage)
	}
}


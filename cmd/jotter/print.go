// ABOUTME: Terminal rendering helpers shared by jotter commands.
// ABOUTME: Prints entry tables, single entries, and mood colors with uitable and fatih/color.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/wordwrap"

	"github.com/2389-research/jotter/internal/models"
)

const (
	timeLayout = "2006-01-02 15:04"
	wrapWidth  = 80
)

func moodColor(m models.Mood) *color.Color {
	switch m {
	case models.MoodPositive:
		return color.New(color.FgGreen)
	case models.MoodReflective:
		return color.New(color.FgBlue)
	default:
		return color.New(color.Faint)
	}
}

// printEntryTable writes one row per entry.
func printEntryTable(w io.Writer, entries []models.Entry) {
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintln(w, "No entries found.")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow("ID", "DATE", "MOOD", "TEXT")
	for _, e := range entries {
		tbl.AddRow(
			string(e.ID),
			e.Timestamp.Local().Format(timeLayout),
			moodColor(e.Mood).Sprint(e.Mood),
			truncate(strings.Join(strings.Fields(e.Text), " "), 60),
		)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// printEntry writes one entry in full.
func printEntry(w io.Writer, e models.Entry) {
	label := color.New(color.Bold)
	_, _ = label.Fprint(w, "ID:   ")
	_, _ = fmt.Fprintln(w, e.ID)
	_, _ = label.Fprint(w, "Date: ")
	_, _ = fmt.Fprintln(w, e.Timestamp.Local().Format(timeLayout))
	if e.UpdatedAt != nil {
		_, _ = label.Fprint(w, "Edit: ")
		_, _ = fmt.Fprintln(w, e.UpdatedAt.Local().Format(timeLayout))
	}
	_, _ = label.Fprint(w, "Mood: ")
	_, _ = moodColor(e.Mood).Fprintln(w, e.Mood)
	if e.Source != "" {
		_, _ = label.Fprint(w, "From: ")
		_, _ = fmt.Fprintln(w, e.Source)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, wordwrap.String(e.Text, wrapWidth))
}

// warnf prints a yellow warning line.
func warnf(w io.Writer, format string, args ...interface{}) {
	_, _ = color.New(color.FgYellow).Fprintf(w, "Warning: "+format+"\n", args...)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

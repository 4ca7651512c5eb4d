// ABOUTME: CLI command reporting storage quota usage.
// ABOUTME: Renders a lipgloss usage bar once or continuously with --watch.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/quota"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show storage usage",
	Long:  "Report how much of the storage quota the journal uses. With --watch, refresh on every change.",
	RunE:  runQuota,
}

// Flags
var (
	quotaWatch    bool
	quotaInterval time.Duration
)

const barWidth = 30

var (
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func init() {
	rootCmd.AddCommand(quotaCmd)

	quotaCmd.Flags().BoolVar(&quotaWatch, "watch", false, "Keep running and print usage whenever it changes")
	quotaCmd.Flags().DurationVar(&quotaInterval, "interval", quota.DefaultInterval, "Polling interval for --watch")
}

func runQuota(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !quotaWatch {
		renderStatus(out, globalQuota.Status(), globalJournal.Degraded())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for st := range globalQuota.Watch(ctx, quotaInterval, watchDirs()...) {
		_, _ = fmt.Fprintf(out, "[%s] ", time.Now().Format("15:04:05"))
		renderStatus(out, st, globalJournal.Degraded())
	}
	return nil
}

// watchDirs returns the directories the configured backend writes into.
func watchDirs() []string {
	dataDir, err := globalConfig.GetDataDir()
	if err != nil {
		return nil
	}
	switch globalConfig.Storage.Backend {
	case kv.KindMemory:
		return nil
	case kv.KindSQLite:
		return []string{dataDir}
	default:
		return []string{filepath.Join(dataDir, kv.DiskDirName)}
	}
}

func renderStatus(w io.Writer, st quota.Status, degraded bool) {
	style := okStyle
	switch {
	case st.IsCritical:
		style = criticalStyle
	case st.IsWarning:
		style = warnStyle
	}

	filled := int(st.Percentage / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := style.Render(strings.Repeat("█", filled)) + emptyStyle.Render(strings.Repeat("░", barWidth-filled))

	_, _ = fmt.Fprintf(w, "%s %s / %s (%.1f%%)\n",
		bar, st.SizeFormatted, quota.FormatBytes(quota.CapacityBytes), st.Percentage)

	switch {
	case degraded:
		warnf(w, "storage is unavailable; changes are kept in memory only")
	case st.IsCritical:
		_, _ = fmt.Fprintln(w, criticalStyle.Render("Storage is nearly full. Export and delete old entries."))
	case st.IsWarning:
		_, _ = fmt.Fprintln(w, warnStyle.Render("Storage is filling up. Consider exporting old entries."))
	}
}

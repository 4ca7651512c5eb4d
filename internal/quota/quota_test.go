// ABOUTME: Tests for quota usage accounting, thresholds, formatting, and watching.
// ABOUTME: Uses the in-memory and disk backends to drive deterministic sizes.
package quota

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/jotter/internal/kv"
)

func TestUsageBytesCountsKeysAndValues(t *testing.T) {
	b := kv.NewMemoryBackend(0)
	require.NoError(t, b.Set("journal_entries", "[]"))
	require.NoError(t, b.Set("theme", "dark"))

	m := NewMonitor(b, nil)
	// (15 + 2 + 5 + 4) chars * 2 bytes
	assert.Equal(t, int64(52), m.UsageBytes())
}

func TestUsageBytesEmptyAndNil(t *testing.T) {
	assert.Equal(t, int64(0), NewMonitor(kv.NewMemoryBackend(0), nil).UsageBytes())
	assert.Equal(t, int64(0), NewMonitor(nil, nil).UsageBytes())
}

type brokenBackend struct{ kv.Backend }

func (brokenBackend) Keys() ([]string, error) { return nil, errors.New("disk on fire") }

func TestUsageBytesNeverFails(t *testing.T) {
	m := NewMonitor(brokenBackend{kv.NewMemoryBackend(0)}, nil)
	assert.Equal(t, int64(0), m.UsageBytes())
	assert.False(t, m.Status().IsWarning)
}

func TestStatusThresholds(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		warning  bool
		critical bool
		pct      float64
	}{
		{"empty", 0, false, false, 0},
		{"at warning", WarningBytes, false, false, 80},
		{"above warning", WarningBytes + 1, true, false, 80},
		{"at critical", CriticalBytes, true, false, 90},
		{"above critical", CriticalBytes + 1, true, true, 90},
		{"full", CapacityBytes, true, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StatusFor(tt.size)
			assert.Equal(t, tt.size, s.SizeBytes)
			assert.Equal(t, tt.warning, s.IsWarning)
			assert.Equal(t, tt.critical, s.IsCritical)
			assert.InDelta(t, tt.pct, s.Percentage, 0.05)
		})
	}
}

func TestMonitorStatusFromBackend(t *testing.T) {
	b := kv.NewMemoryBackend(0)
	// 2.2M chars -> 4.4 MB, between warning and critical
	require.NoError(t, b.Set("k", strings.Repeat("x", 2_200_000)))

	s := NewMonitor(b, nil).Status()
	assert.True(t, s.IsWarning)
	assert.False(t, s.IsCritical)
	assert.Equal(t, "4.2 MB", s.SizeFormatted)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{CriticalBytes, "4.5 MB"},
		{5 * 1024 * 1024 * 1024, "5120 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestWatchEmitsImmediatelyAndOnChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "entries")
	b, err := kv.NewDiskBackend(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(b, nil)
	updates := m.Watch(ctx, time.Hour, dir)

	select {
	case s := <-updates:
		assert.Equal(t, int64(0), s.SizeBytes)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an initial status")
	}

	require.NoError(t, b.Set("journal_entries", "[]"))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-updates:
			if s.SizeBytes > 0 {
				return
			}
		case <-deadline:
			t.Fatal("expected a status after the backend changed")
		}
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	updates := NewMonitor(kv.NewMemoryBackend(0), nil).Watch(ctx, time.Hour)

	<-updates
	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "channel should close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

// ABOUTME: Storage quota monitor estimating the backend's footprint.
// ABOUTME: Classifies usage against fixed capacity, warning, and critical thresholds.
package quota

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/2389-research/jotter/internal/kv"
	"github.com/2389-research/jotter/internal/logging"
)

// Policy constants. The real backend quota cannot be queried portably, so
// usage is judged against a conservative fixed assumption.
const (
	CapacityBytes int64 = 5 * 1024 * 1024
	WarningBytes  int64 = 4 * 1024 * 1024
	CriticalBytes int64 = 4.5 * 1024 * 1024
)

// Status is a point-in-time view of storage usage.
type Status struct {
	SizeBytes     int64   `json:"sizeBytes"`
	SizeFormatted string  `json:"sizeFormatted"`
	Percentage    float64 `json:"percentage"`
	IsWarning     bool    `json:"isWarning"`
	IsCritical    bool    `json:"isCritical"`
}

// Monitor reads a backend and reports how much of the quota it uses.
type Monitor struct {
	backend kv.Backend
	logger  *slog.Logger
}

// NewMonitor creates a monitor over backend. A nil logger discards output.
func NewMonitor(backend kv.Backend, logger *slog.Logger) *Monitor {
	return &Monitor{backend: backend, logger: logging.OrDiscard(logger)}
}

// UsageBytes sums the size of every key and value held by the backend.
// Read failures count as zero.
func (m *Monitor) UsageBytes() int64 {
	if m.backend == nil {
		return 0
	}
	keys, err := m.backend.Keys()
	if err != nil {
		m.logger.Warn("quota: list keys failed", "err", err)
		return 0
	}

	var total int64
	for _, key := range keys {
		value, ok, err := m.backend.Get(key)
		if err != nil {
			m.logger.Warn("quota: read key failed", "key", key, "err", err)
			continue
		}
		if !ok {
			continue
		}
		total += kv.SizeOf(key) + kv.SizeOf(value)
	}
	return total
}

// Status reports current usage against the fixed capacity.
func (m *Monitor) Status() Status {
	return StatusFor(m.UsageBytes())
}

// StatusFor classifies a byte count.
func StatusFor(size int64) Status {
	pct := float64(size) / float64(CapacityBytes) * 100
	return Status{
		SizeBytes:     size,
		SizeFormatted: FormatBytes(size),
		Percentage:    math.Round(pct*10) / 10,
		IsWarning:     size > WarningBytes,
		IsCritical:    size > CriticalBytes,
	}
}

var units = []string{"Bytes", "KB", "MB"}

// FormatBytes renders a byte count as a human-readable string such as "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i, div := 0, int64(1)
	for i < len(units)-1 && n >= div*1024 {
		i++
		div *= 1024
	}
	v := math.Round(float64(n)/float64(div)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}

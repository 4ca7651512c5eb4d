// ABOUTME: Periodic quota polling with filesystem change notifications.
// ABOUTME: Emits a fresh Status on every tick and on writes inside watched directories.
package quota

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the polling period used by callers that do not pick one.
const DefaultInterval = 30 * time.Second

// settleDelay coalesces bursts of file events into one refresh.
const settleDelay = 100 * time.Millisecond

// Watch emits the current Status immediately, then again every interval and
// shortly after any change inside dirs. The channel is closed when ctx is done.
// Watching is read-only. Directories that cannot be watched fall back to polling.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, dirs ...string) <-chan Status {
	if interval <= 0 {
		interval = DefaultInterval
	}
	out := make(chan Status, 1)

	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	var watcher *fsnotify.Watcher
	if len(dirs) > 0 {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			m.logger.Warn("quota: file watcher unavailable, polling only", "err", err)
		} else {
			watcher = w
			for _, dir := range dirs {
				if err := watcher.Add(dir); err != nil {
					m.logger.Warn("quota: watch directory failed", "dir", dir, "err", err)
				}
			}
			fsEvents = watcher.Events
			fsErrors = watcher.Errors
		}
	}

	go func() {
		defer close(out)
		if watcher != nil {
			defer func() { _ = watcher.Close() }()
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var settle *time.Timer
		var settleC <-chan time.Time
		defer func() {
			if settle != nil {
				settle.Stop()
			}
		}()

		emit := func() bool {
			select {
			case out <- m.Status():
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !emit() {
					return
				}
			case _, ok := <-fsEvents:
				if !ok {
					fsEvents = nil
					continue
				}
				if settle == nil {
					settle = time.NewTimer(settleDelay)
					settleC = settle.C
				}
			case err, ok := <-fsErrors:
				if !ok {
					fsErrors = nil
					continue
				}
				m.logger.Debug("quota: watcher error", "err", err)
			case <-settleC:
				settle, settleC = nil, nil
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}

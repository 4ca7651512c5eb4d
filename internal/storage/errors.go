// ABOUTME: Error kinds surfaced by the entry store's write path.
// ABOUTME: QuotaError carries the projected and allowed sizes for quota rejections.
package storage

import (
	"errors"
	"fmt"

	"github.com/2389-research/jotter/internal/quota"
)

var (
	// ErrQuotaExceeded matches any write rejected for size, whether by the
	// pre-flight check or by the backend itself.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrStorageUnavailable means the mutation was applied in memory only and
	// will not survive a restart.
	ErrStorageUnavailable = errors.New("storage unavailable: changes are kept in memory only")

	// ErrEmptyText rejects entries whose text is blank after trimming.
	ErrEmptyText = errors.New("entry text is empty")

	// ErrInvalidMood rejects moods outside the known set.
	ErrInvalidMood = errors.New("invalid mood")

	// ErrDuplicateID rejects a collection in which two entries share an id.
	ErrDuplicateID = errors.New("duplicate entry id")
)

// QuotaError reports a write that would push storage past its ceiling.
type QuotaError struct {
	Projected int64
	Limit     int64
	Err       error // backend rejection, if any
}

func (e *QuotaError) Error() string {
	msg := fmt.Sprintf("storage quota exceeded: %s would exceed the %s limit; export and delete old entries",
		quota.FormatBytes(e.Projected), quota.FormatBytes(e.Limit))
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Is makes errors.Is(err, ErrQuotaExceeded) true for every QuotaError.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

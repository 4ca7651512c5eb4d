// ABOUTME: Error kinds for insight requests and the retry rule built on them.
// ABOUTME: Timeouts, transport failures, and 5xx responses are retryable; 4xx never are.
package insight

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoEntries rejects a request with nothing to analyze.
var ErrNoEntries = errors.New("no journal entries to analyze")

// Kind classifies a failed insight request.
type Kind string

const (
	KindTimeout  Kind = "timeout"
	KindNetwork  Kind = "network"
	KindUpstream Kind = "upstream"
)

// Error is returned for every failed completion attempt.
type Error struct {
	Kind   Kind
	Status int // HTTP status for KindUpstream
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("insight request timed out: %v", e.Err)
	case KindUpstream:
		return fmt.Sprintf("insight service returned %d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
	default:
		return fmt.Sprintf("insight service unreachable: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindUpstream:
		return e.Status >= 500
	default:
		return false
	}
}

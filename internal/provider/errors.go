package provider

import (
	"errors"
	"fmt"
	"time"
)

// Fetch-cycle error taxonomy. Row-level problems never surface here; they
// are absorbed by the normalizer and merger. Everything below escalates to
// the ingestion service after local retries are exhausted.
var (
	// ErrUnavailable is the only error callers of the ingestion service
	// ever see: no fresh data, no stale generation to fall back to.
	ErrUnavailable = errors.New("station data temporarily unavailable")

	// ErrUpstreamSchema marks a response body that does not parse into the
	// expected envelope. Retrying cannot fix a structural mismatch.
	ErrUpstreamSchema = errors.New("upstream response schema mismatch")
)

// TransientError wraps connection failures, timeouts and non-2xx transport
// errors after retry exhaustion, carrying the last underlying cause.
type TransientError struct {
	Provider string
	Attempts int
	Cause    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure after %d attempts: %v", e.Provider, e.Attempts, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// RateLimitError signals quota exhaustion, either pre-empted locally or
// reported by the upstream. ResetIn is the mandatory wait before retrying.
type RateLimitError struct {
	Provider string
	ResetIn  time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded, resets in %s", e.Provider, e.ResetIn)
}

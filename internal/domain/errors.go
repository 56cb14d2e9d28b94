package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimitedError reports an upstream HTTP 429. It is an expected,
// recoverable condition, never surfaced as fatal.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (429), retry after %s", e.RetryAfter)
	}
	return "rate limited (429)"
}

// NetworkError wraps a connection or timeout failure talking to upstream.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError wraps a parse failure on an upstream body.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrInsufficientData means a price history was too short or degenerate
// for indicator computation. This is the only condition reported upward
// as a per-asset error state.
var ErrInsufficientData = errors.New("insufficient price history for analysis")

// IsRateLimited reports whether err is (or wraps) a 429.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// IsRetryable reports whether a history fetch failure should enter the
// retry/backoff path. Cancellation is not retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *RateLimitedError
	var ne *NetworkError
	var me *MalformedResponseError
	return errors.As(err, &rl) || errors.As(err, &ne) || errors.As(err, &me)
}

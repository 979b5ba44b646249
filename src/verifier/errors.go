package verifier

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoAPIKey is the ConfigurationError for a missing credential.
var ErrNoAPIKey = errors.New("no API key configured")

// ValidationError marks caller input that cannot be processed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// RateLimitedError is returned when the caller-facing ceiling is hit before
// any upstream call is made.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// AuthError marks an upstream credential rejection. Never retried: the key is
// not model-specific.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream rejected credentials (status %d)", e.StatusCode)
}

// QuotaError marks upstream backpressure against the caller's own quota.
// Trying other models will not help.
type QuotaError struct {
	StatusCode int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("upstream quota exhausted (status %d)", e.StatusCode)
}

// TimeoutError carries the elapsed time when the analysis deadline fired.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("verification timed out after %.1fs", e.Elapsed.Seconds())
}

// modelError is a per-model failure that may advance the fallback chain.
type modelError struct {
	Model      string
	StatusCode int
	Err        error
}

func (e *modelError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *modelError) Unwrap() error { return e.Err }

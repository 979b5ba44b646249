package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind tells the coordinator whether a failed attempt is worth retrying
// on the same strategy or the strategy should be abandoned outright.
type ErrorKind int

const (
	Retryable ErrorKind = iota
	Terminal
)

// ErrNoCaptions marks a video that has no caption data at all for a strategy.
var ErrNoCaptions = errors.New("no captions available")

// StrategyError wraps a strategy failure with its retry classification.
type StrategyError struct {
	Strategy string
	Kind     ErrorKind
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

func terminalErr(strategy string, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Kind: Terminal, Err: err}
}

func retryableErr(strategy string, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Kind: Retryable, Err: err}
}

// IsTerminal reports whether err carries a Terminal classification. Untyped
// errors (plain network failures) default to retryable.
func IsTerminal(err error) bool {
	var se *StrategyError
	if errors.As(err, &se) {
		return se.Kind == Terminal
	}
	return false
}

// kindForStatus classifies an upstream HTTP status. Rate limiting and server
// errors are transient; anything else 4xx means this strategy will not work
// for the video.
func kindForStatus(status int) ErrorKind {
	if status == http.StatusTooManyRequests || status >= 500 {
		return Retryable
	}
	return Terminal
}

// Strategy is one self-contained technique for obtaining a raw transcript.
// Implementations return the raw (unnormalized) transcript text or a
// StrategyError.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, videoID, lang string) (string, error)
}

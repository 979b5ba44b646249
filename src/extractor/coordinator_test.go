package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stake-plus/vidcheck/src/cache"
	"github.com/stake-plus/vidcheck/src/ratelimit"
)

type stubStrategy struct {
	name    string
	results []func() (string, error)
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	return s.results[idx]()
}

func succeed(text string) func() (string, error) {
	return func() (string, error) { return text, nil }
}

func failWith(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

var longTranscript = strings.Repeat("the quick brown fox jumps over the lazy dog ", 3)

func newTestCoordinator(strategies ...Strategy) *Coordinator {
	return New(Config{
		Strategies:  strategies,
		Cache:       cache.NewStore[string](time.Minute, 16),
		PerAttempt:  time.Second,
		MaxAttempts: 2,
		Progress:    func(Event) {},
	})
}

func TestExtractFirstStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){succeed(longTranscript)}}
	second := &stubStrategy{name: "b", results: []func() (string, error){succeed("never used never used never used never used never used")}}

	c := newTestCoordinator(first, second)
	got, err := c.Extract(context.Background(), "vid1", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != Normalize(longTranscript) {
		t.Fatalf("Extract = %q, want normalized first strategy output", got)
	}
	if second.calls != 0 {
		t.Fatal("second strategy should not have been invoked")
	}
}

func TestExtractFallsBackOnTerminal(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){
		failWith(terminalErr("a", ErrNoCaptions)),
	}}
	second := &stubStrategy{name: "b", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first, second)
	got, err := c.Extract(context.Background(), "vid1", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got == "" {
		t.Fatal("expected transcript from fallback strategy")
	}
	if first.calls != 1 {
		t.Fatalf("terminal failure should not be retried, got %d calls", first.calls)
	}
}

func TestExtractRetriesRetryableThenAdvances(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){
		failWith(retryableErr("a", errors.New("connection reset"))),
	}}
	second := &stubStrategy{name: "b", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first, second)
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if first.calls != 2 {
		t.Fatalf("retryable failure should use the retry budget, got %d calls", first.calls)
	}
	if second.calls != 1 {
		t.Fatal("fallback strategy should have been invoked once")
	}
}

func TestExtractShortTranscriptIsFailure(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){succeed("too short")}}
	second := &stubStrategy{name: "b", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first, second)
	got, err := c.Extract(context.Background(), "vid1", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != Normalize(longTranscript) {
		t.Fatal("short result should have advanced to the next strategy")
	}
	if first.calls != 1 {
		t.Fatal("short transcript is terminal for that strategy, no retry")
	}
}

func TestExtractExhaustedCarriesLastError(t *testing.T) {
	sentinel := errors.New("player endpoint status 500")
	only := &stubStrategy{name: "a", results: []func() (string, error){
		failWith(retryableErr("a", sentinel)),
	}}

	c := newTestCoordinator(only)
	_, err := c.Extract(context.Background(), "vid1", Options{})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want ExhaustedError", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatal("exhausted error should wrap the last underlying cause")
	}
}

func TestExtractServedFromCache(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first)
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract (cached): %v", err)
	}
	if first.calls != 1 {
		t.Fatalf("cache hit should not invoke strategies, got %d calls", first.calls)
	}
}

func TestExtractForceRefreshBypassesCache(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first)
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := c.Extract(context.Background(), "vid1", Options{ForceRefresh: true}); err != nil {
		t.Fatalf("Extract (refresh): %v", err)
	}
	if first.calls != 2 {
		t.Fatalf("forceRefresh should re-run strategies, got %d calls", first.calls)
	}
}

func TestExtractRateLimitedStrategySkipped(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	// Exhaust the ceiling for the first strategy key.
	limiter.Allow("upstream:a")

	first := &stubStrategy{name: "a", results: []func() (string, error){succeed(longTranscript)}}
	second := &stubStrategy{name: "b", results: []func() (string, error){succeed(longTranscript)}}

	c := New(Config{
		Strategies:  []Strategy{first, second},
		Cache:       cache.NewStore[string](time.Minute, 16),
		Limiter:     limiter,
		PerAttempt:  time.Second,
		MaxAttempts: 1,
		Progress:    func(Event) {},
	})

	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if first.calls != 0 {
		t.Fatal("rate-limited strategy should fail fast without invocation")
	}
	if second.calls != 1 {
		t.Fatal("next strategy should have served the request")
	}
}

func TestInvalidate(t *testing.T) {
	first := &stubStrategy{name: "a", results: []func() (string, error){succeed(longTranscript)}}

	c := newTestCoordinator(first)
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	c.Invalidate("vid1")
	if _, err := c.Extract(context.Background(), "vid1", Options{}); err != nil {
		t.Fatalf("Extract after invalidate: %v", err)
	}
	if first.calls != 2 {
		t.Fatal("invalidate should force a fresh extraction")
	}
}

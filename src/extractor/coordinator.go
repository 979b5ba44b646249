package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jpillora/backoff"
	"github.com/stake-plus/vidcheck/src/cache"
	"github.com/stake-plus/vidcheck/src/ratelimit"
)

// ExhaustedError is returned when every strategy has failed for a video.
type ExhaustedError struct {
	VideoID string
	Last    error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("extraction exhausted for %s", e.VideoID)
	}
	return fmt.Sprintf("extraction exhausted for %s: %v", e.VideoID, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Event reports one strategy attempt outcome for observability.
type Event struct {
	VideoID  string
	Strategy string
	Attempt  int
	Outcome  string
	Err      error
}

type ProgressFunc func(Event)

type Options struct {
	ForceRefresh bool
}

type Config struct {
	Strategies  []Strategy
	Cache       *cache.Store[string]
	Limiter     *ratelimit.Limiter
	Language    string
	PerAttempt  time.Duration // timeout applied to each strategy invocation
	MaxAttempts int           // retry budget per strategy for transient failures
	Progress    ProgressFunc
}

// DefaultStrategies returns the chain in priority order: highest historical
// success rate first.
func DefaultStrategies(base string) []Strategy {
	return []Strategy{
		NewInnerTubeWeb(base),
		NewInnerTubeAndroid(base),
		NewWatchPage(base),
		NewTranscriptPanel(base),
		NewTimedText(base),
	}
}

// Coordinator drives the ordered strategy chain with caching, retry and rate
// limiting. One coordinator per process; callers share it.
type Coordinator struct {
	strategies  []Strategy
	cache       *cache.Store[string]
	limiter     *ratelimit.Limiter
	language    string
	perAttempt  time.Duration
	maxAttempts int
	progress    ProgressFunc
}

func New(cfg Config) *Coordinator {
	c := &Coordinator{
		strategies:  cfg.Strategies,
		cache:       cfg.Cache,
		limiter:     cfg.Limiter,
		language:    cfg.Language,
		perAttempt:  cfg.PerAttempt,
		maxAttempts: cfg.MaxAttempts,
		progress:    cfg.Progress,
	}
	if len(c.strategies) == 0 {
		c.strategies = DefaultStrategies("")
	}
	if c.cache == nil {
		c.cache = cache.NewStore[string](6*time.Hour, 256)
	}
	if c.language == "" {
		c.language = "en"
	}
	if c.perAttempt <= 0 {
		c.perAttempt = 20 * time.Second
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 3
	}
	if c.progress == nil {
		c.progress = logProgress
	}
	return c
}

func logProgress(ev Event) {
	if ev.Err != nil {
		log.Printf("extractor: %s attempt %d %s: %v", ev.Strategy, ev.Attempt, ev.Outcome, ev.Err)
		return
	}
	log.Printf("extractor: %s attempt %d %s", ev.Strategy, ev.Attempt, ev.Outcome)
}

// Extract returns the normalized transcript for videoID, from cache when a
// live entry exists and ForceRefresh is unset, otherwise by walking the
// strategy chain. Fresh successes are always (re)cached.
func (c *Coordinator) Extract(ctx context.Context, videoID string, opts Options) (string, error) {
	if !opts.ForceRefresh {
		if transcript, ok := c.cache.Get(videoID); ok {
			return transcript, nil
		}
	}

	var lastErr error

	for _, strategy := range c.strategies {
		transcript, err := c.runStrategy(ctx, strategy, videoID)
		if err == nil {
			c.cache.Set(videoID, transcript)
			return transcript, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return "", &ExhaustedError{VideoID: videoID, Last: lastErr}
}

func (c *Coordinator) runStrategy(ctx context.Context, strategy Strategy, videoID string) (string, error) {
	name := strategy.Name()

	if c.limiter != nil && !c.limiter.Allow("upstream:"+name) {
		err := fmt.Errorf("upstream rate ceiling reached for %s", name)
		c.progress(Event{VideoID: videoID, Strategy: name, Attempt: 1, Outcome: "rate-limited", Err: err})
		return "", terminalErr(name, err)
	}

	delay := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    8 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.perAttempt)
		raw, err := strategy.Fetch(attemptCtx, videoID, c.language)
		cancel()

		if err == nil {
			transcript := Normalize(raw)
			if !Usable(transcript) {
				err := fmt.Errorf("transcript too short (%d chars)", len(transcript))
				c.progress(Event{VideoID: videoID, Strategy: name, Attempt: attempt, Outcome: "too-short", Err: err})
				return "", terminalErr(name, err)
			}
			c.progress(Event{VideoID: videoID, Strategy: name, Attempt: attempt, Outcome: "success"})
			return transcript, nil
		}

		lastErr = err
		if IsTerminal(err) {
			c.progress(Event{VideoID: videoID, Strategy: name, Attempt: attempt, Outcome: "terminal", Err: err})
			return "", err
		}

		c.progress(Event{VideoID: videoID, Strategy: name, Attempt: attempt, Outcome: "retryable", Err: err})
		if attempt == c.maxAttempts {
			break
		}
		if !sleepWithContext(ctx, delay.Duration()) {
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// Invalidate drops the cached transcript for one video.
func (c *Coordinator) Invalidate(videoID string) {
	c.cache.Delete(videoID)
}

// InvalidateAll clears the transcript cache.
func (c *Coordinator) InvalidateAll() {
	c.cache.Clear()
}

func sleepWithContext(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

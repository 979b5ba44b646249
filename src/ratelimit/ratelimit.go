package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request counter. Each key keeps the timestamps
// of its admitted requests; the list is pruned to the trailing window on every
// check and a request is admitted only while the pruned count stays below the
// ceiling.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	ceiling int
	window  time.Duration
	now     func() time.Time
}

func New(ceiling int, window time.Duration) *Limiter {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Limiter{
		windows: make(map[string][]time.Time),
		ceiling: ceiling,
		window:  window,
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now and records it if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.pruneLocked(key, now)
	if len(kept) >= l.ceiling {
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// Remaining returns how many requests key has left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.pruneLocked(key, l.now())
	l.windows[key] = kept
	return l.ceiling - len(kept)
}

// RetryAfter returns how long key must wait before the next request can be
// admitted. Zero means a request would be admitted immediately.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.pruneLocked(key, now)
	l.windows[key] = kept
	if len(kept) < l.ceiling {
		return 0
	}
	return kept[0].Add(l.window).Sub(now)
}

// Reset forgets all history for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Cleanup drops keys whose entire history has aged out of the window.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.windows {
		if kept := l.pruneLocked(key, now); len(kept) == 0 {
			delete(l.windows, key)
		} else {
			l.windows[key] = kept
		}
	}
}

// StartCleanup sweeps idle keys on the given interval until stop is closed.
func (l *Limiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

func (l *Limiter) pruneLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	stamps := l.windows[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

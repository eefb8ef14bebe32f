// Package ratelimit provides a process-local sliding-window request limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults applied to the shared limiter guarding the HTTP endpoints.
const (
	DefaultLimit  = 100
	DefaultWindow = 60 * time.Second
)

// Limiter admits at most limit calls per sliding window. It is safe for
// concurrent use. State is in-memory only: each process instance keeps its
// own window, so a scaled-out deployment multiplies the effective limit.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	calls []time.Time
}

// New returns a limiter using the wall clock.
func New(limit int, window time.Duration) *Limiter {
	return NewWithClock(limit, window, time.Now)
}

// NewWithClock returns a limiter with an injectable clock, for tests.
func NewWithClock(limit int, window time.Duration, now func() time.Time) *Limiter {
	return &Limiter{limit: limit, window: window, now: now}
}

// Allow reports whether a call may proceed, and records it if so.
// Calls aged exactly one window or more are evicted before counting, so the
// admitted set is always the calls in the half-open interval (now-window, now].
func (l *Limiter) Allow() bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.calls[:0]
	for _, ts := range l.calls {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.calls = kept

	if len(l.calls) >= l.limit {
		return false
	}
	l.calls = append(l.calls, now)
	return true
}

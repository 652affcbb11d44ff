// Package ratelimit caps outbound call rate with a sliding window over
// request timestamps.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most limit calls within any rolling window. Wait blocks
// the caller until the window has room; correctness depends on callers
// sharing one Limiter for a given upstream.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	// Overridable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Wait blocks until a call may be dispatched, then records it.
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.stamps) >= l.limit {
		wait := l.window - now.Sub(l.stamps[0])
		if wait > 0 {
			l.sleep(wait)
		}
		now = l.now()
		l.evict(now)
	}
	l.stamps = append(l.stamps, now)
}

// Pending returns the number of calls currently inside the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.stamps)
}

// evict drops timestamps that have left the window. Callers hold mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	l.stamps = l.stamps[i:]
}

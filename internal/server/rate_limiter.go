package server

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window cap on inbound events, keyed by
// connection and action type so a chat flood cannot starve game actions.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[string][]time.Time
}

// NewRateLimiter allows limit events per key per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records an event and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)
	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// Forget drops a key's history, typically when its connection closes.
func (l *RateLimiter) Forget(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.hits {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(l.hits, key)
		}
	}
}

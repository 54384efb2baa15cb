// Package security holds the gateway's request throttling.
package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a client exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds configurable rate limits.
type RateLimitConfig struct {
	RequestsPerMin int `yaml:"requests_per_min"`
}

// DefaultRequestsPerMin is the per-client chat request limit.
const DefaultRequestsPerMin = 5

// RateLimiter implements per-client sliding window rate limiting using
// stdlib only. Each bucket tracks timestamps of recent requests from one
// client within the window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = DefaultRequestsPerMin
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   cfg.RequestsPerMin,
		window:  time.Minute,
		now:     time.Now,
	}
}

// Allow checks whether a request from the given client key (typically the
// remote IP) is allowed. Returns nil if allowed, ErrRateLimited otherwise.
func (rl *RateLimiter) Allow(key string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{}
		rl.buckets[key] = b
	}
	b.evict(now, rl.window)

	if len(b.events) >= rl.limit {
		return ErrRateLimited
	}

	b.events = append(b.events, now)
	return nil
}

// Prune drops clients with no requests inside the window and returns how
// many were removed. Allow never deletes buckets, so the cron prune job
// calls this periodically to bound memory across distinct client keys.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var n int
	now := rl.now()
	for key, b := range rl.buckets {
		b.evict(now, rl.window)
		if len(b.events) == 0 {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// evict removes events outside the sliding window.
func (b *bucket) evict(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	// Events are chronologically ordered; find the first inside the window.
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}

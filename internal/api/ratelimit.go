package api

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a per-user sliding-window rate limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter and starts the background eviction
// goroutine, which stops when ctx is done.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.evict(ctx)
	return rl
}

// Allow checks if a request is allowed for userID.
func (r *RateLimiter) Allow(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	recent := fresh(r.requests[userID], now.Add(-r.window))

	if len(recent) >= r.limit {
		r.requests[userID] = recent
		return false
	}

	r.requests[userID] = append(recent, now)
	return true
}

// evict periodically removes expired keys so the map does not grow without
// bound.
func (r *RateLimiter) evict(ctx context.Context) {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		cutoff := time.Now().Add(-r.window)
		for key, times := range r.requests {
			if kept := fresh(times, cutoff); len(kept) == 0 {
				delete(r.requests, key)
			} else {
				r.requests[key] = kept
			}
		}
		r.mu.Unlock()
	}
}

func fresh(times []time.Time, cutoff time.Time) []time.Time {
	var kept []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

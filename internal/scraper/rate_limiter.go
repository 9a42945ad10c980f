package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter manages rate limiting for different sources
type RateLimiter struct {
	limiters map[string]*sourceLimiter
	mu       sync.RWMutex
}

// sourceLimiter pairs a token bucket with the limit it was built for
type sourceLimiter struct {
	limiter *rate.Limiter
	limit   int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*sourceLimiter),
	}
}

// Wait waits for permission to make a request to the specified source
func (rl *RateLimiter) Wait(ctx context.Context, source string, requestsPerMinute int) error {
	return rl.For(source, requestsPerMinute).Wait(ctx)
}

// For returns the token bucket for a source, creating or replacing it when the limit changes.
// A non-positive limit means unlimited.
func (rl *RateLimiter) For(source string, requestsPerMinute int) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[source]
	rl.mu.RUnlock()

	if exists && limiter.limit == requestsPerMinute {
		return limiter.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := rl.limiters[source]; exists && limiter.limit == requestsPerMinute {
		return limiter.limiter
	}

	limiter = &sourceLimiter{
		limiter: newLimiter(requestsPerMinute),
		limit:   requestsPerMinute,
	}
	rl.limiters[source] = limiter
	return limiter.limiter
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	// burst of 1 spreads requests evenly across the minute
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound calls to a shared upstream quota.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows a burst of maxTokens calls and refills one token
// every refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(refillInterval), maxTokens)}
}

// Wait blocks until a token is available. It fails early when ctx is
// cancelled or its deadline would pass before a token frees up.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

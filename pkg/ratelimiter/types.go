package ratelimiter

import (
	"context"
	"time"
)

// Result is the outcome of one rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the bucket capacity.
	Limit int

	// Remaining is the number of tokens left after this check.
	Remaining int

	// ResetAt is when the bucket will be full again.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 for allowed requests.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// BucketConfig describes a token bucket: Rate tokens refill per Interval, up
// to Burst capacity.
type BucketConfig struct {
	Rate     int
	Interval time.Duration
	Burst    int
}

// refillPerSecond is the continuous refill rate.
func (c BucketConfig) refillPerSecond() float64 {
	return float64(c.Rate) / c.Interval.Seconds()
}

// Limiter is the rate limiting interface the HTTP middleware consumes.
type Limiter interface {
	// Allow checks and consumes one token for the key.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN checks and consumes n tokens for the key.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Reset clears the bucket for the key.
	Reset(ctx context.Context, key string) error
}

// Store holds bucket state. Take must be atomic per key so concurrent
// requests cannot overdraw the bucket.
type Store interface {
	// Take refills the bucket per cfg and consumes n tokens when available.
	Take(ctx context.Context, key string, n int, cfg BucketConfig) (*Result, error)

	// Reset removes the bucket for the key.
	Reset(ctx context.Context, key string) error
}

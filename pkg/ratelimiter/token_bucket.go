package ratelimiter

import (
	"context"
	"time"
)

// TokenBucket is a token bucket limiter over a Store. The single atomic
// store operation keeps it correct under concurrent requests and across
// service replicas.
type TokenBucket struct {
	store Store
	cfg   BucketConfig
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithBurst sets the bucket capacity. Defaults to the refill rate.
func WithBurst(burst int) TokenBucketOption {
	return func(tb *TokenBucket) {
		if burst > 0 {
			tb.cfg.Burst = burst
		}
	}
}

// NewTokenBucket creates a limiter refilling rate tokens per interval.
func NewTokenBucket(store Store, rate int, interval time.Duration, opts ...TokenBucketOption) (*TokenBucket, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if rate <= 0 {
		return nil, ErrInvalidRate
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	tb := &TokenBucket{
		store: store,
		cfg:   BucketConfig{Rate: rate, Interval: interval, Burst: rate},
	}
	for _, opt := range opts {
		opt(tb)
	}
	return tb, nil
}

// Allow checks and consumes one token for the key.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	return tb.AllowN(ctx, key, 1)
}

// AllowN checks and consumes n tokens for the key.
func (tb *TokenBucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		n = 1
	}
	return tb.store.Take(ctx, key, n, tb.cfg)
}

// Reset clears the bucket for the key.
func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return tb.store.Reset(ctx, key)
}

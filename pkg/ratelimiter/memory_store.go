package ratelimiter

import (
	"context"
	"math"
	"sync"
	"time"
)

// bucket is the refill-on-access state for one key.
type bucket struct {
	tokens  float64
	updated time.Time
}

// MemoryStore keeps bucket state in process memory. Suitable for a single
// service instance; use the redis store when replicas must share limits.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the clock. Test hook.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Take(ctx context.Context, key string, n int, cfg BucketConfig) (*Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(cfg.Burst), updated: now}
		s.buckets[key] = b
	}

	elapsed := now.Sub(b.updated).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(cfg.Burst), b.tokens+elapsed*cfg.refillPerSecond())
		b.updated = now
	}

	allowed := b.tokens >= float64(n)
	if allowed {
		b.tokens -= float64(n)
	}

	return &Result{
		Allowed:   allowed,
		Limit:     cfg.Burst,
		Remaining: int(b.tokens),
		ResetAt:   resetAt(now, b.tokens, cfg),
	}, nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// resetAt estimates when the bucket is full again at the configured refill
// rate.
func resetAt(now time.Time, tokens float64, cfg BucketConfig) time.Time {
	missing := float64(cfg.Burst) - tokens
	if missing <= 0 {
		return now
	}
	return now.Add(time.Duration(missing / cfg.refillPerSecond() * float64(time.Second)))
}

package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript implements the whole refill-and-consume cycle server side so a
// single round trip is atomic across replicas.
var takeScript = redis.NewScript(`
local key = KEYS[1]
local burst = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call("HMGET", key, "tokens", "updated")
local tokens = tonumber(state[1])
local updated = tonumber(state[2])
if tokens == nil then
  tokens = burst
  updated = now
end

local elapsed = now - updated
if elapsed > 0 then
  tokens = math.min(burst, tokens + elapsed * refill)
end

local allowed = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "updated", now)
redis.call("EXPIRE", key, ttl)
return {allowed, tostring(tokens)}
`)

// RedisStore keeps bucket state in redis so rate limits hold across service
// replicas.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a store over an existing redis client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	return &RedisStore{client: client, keyPrefix: "ratelimit:"}, nil
}

func (s *RedisStore) Take(ctx context.Context, key string, n int, cfg BucketConfig) (*Result, error) {
	// Keys idle for two full refill windows are stale and may expire.
	ttl := int64((2 * cfg.Interval).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	raw, err := takeScript.Run(ctx, s.client, []string{s.keyPrefix + key},
		cfg.Burst,
		cfg.refillPerSecond(),
		float64(time.Now().UnixNano())/float64(time.Second),
		n,
		ttl,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 2 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", raw)
	}

	allowed, _ := raw[0].(int64)
	var tokens float64
	if s, ok := raw[1].(string); ok {
		fmt.Sscanf(s, "%f", &tokens)
	}

	now := time.Now()
	return &Result{
		Allowed:   allowed == 1,
		Limit:     cfg.Burst,
		Remaining: int(tokens),
		ResetAt:   resetAt(now, tokens, cfg),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

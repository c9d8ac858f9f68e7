// Package redis connects to the Redis instance backing the distributed rate
// limiter. The URL is optional; when unset the service falls back to the
// in-memory limiter store.
package redis

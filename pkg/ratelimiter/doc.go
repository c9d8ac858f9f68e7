// Package ratelimiter provides token bucket rate limiting for the send
// endpoint, keyed by sender address. The bucket state lives in a pluggable
// store: the memory store serves a single instance, the redis store shares
// limits across replicas.
package ratelimiter

package ratelimiter

import "errors"

var (
	ErrStoreRequired   = errors.New("store is required")
	ErrKeyRequired     = errors.New("key is required")
	ErrInvalidRate     = errors.New("rate must be positive")
	ErrInvalidInterval = errors.New("interval must be positive")
)

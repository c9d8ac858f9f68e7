package gateway

import "errors"

var (
	// ErrProvider wraps transport, auth and rate-limit failures from the
	// delivery provider. The outbox retries these with backoff.
	ErrProvider = errors.New("delivery provider request failed")

	// ErrNotFound is returned when the referenced message or domain does not
	// exist on the provider side.
	ErrNotFound = errors.New("not found on delivery provider")

	// ErrInvalidConfig is returned when the gateway configuration is unusable.
	ErrInvalidConfig = errors.New("invalid gateway config")
)

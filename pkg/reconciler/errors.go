package reconciler

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is passed to the constructor.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrUnknownEventType is returned for event types outside the provider's
	// documented set. The webhook handler maps this to a client error.
	ErrUnknownEventType = errors.New("unknown event type")
)

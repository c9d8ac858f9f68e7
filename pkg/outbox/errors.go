package outbox

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrStorageNil is returned when a nil storage is passed to a constructor.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrGatewayNil is returned when a nil gateway is passed to a constructor.
	ErrGatewayNil = errors.New("gateway cannot be nil")

	// ErrMessageNotFound is returned when the referenced message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotCancelable is returned when cancellation is requested for a
	// message that already left the pending state.
	ErrNotCancelable = errors.New("message is not cancelable")

	// ErrNoMessagesToClaim signals an empty drain cycle. Not a failure.
	ErrNoMessagesToClaim = errors.New("no messages to claim")

	// ErrWorkerAlreadyStarted is returned on a second Start call.
	ErrWorkerAlreadyStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned when Stop is called before Start.
	ErrWorkerNotStarted = errors.New("worker not started")
)

// ValidationError reports why an enqueue request was rejected. It is returned
// before anything is persisted, so a rejected request leaves no trace in the
// outbox.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError builds a ValidationError from field/reason pairs.
func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

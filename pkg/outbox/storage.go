package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Storage persists outbox messages. Implementations must make ClaimBatch an
// atomic conditional transition so that two workers never claim the same
// message.
type Storage interface {
	// Insert persists a new pending message.
	Insert(ctx context.Context, msg mailer.Message) error

	// GetByID returns a message by id or ErrMessageNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (mailer.Message, error)

	// ClaimBatch transitions up to limit eligible pending messages to
	// sending and returns them. Eligible means status is pending and
	// nextRetryAt is unset or not after now. Ordering is priority
	// descending, then createdAt ascending.
	ClaimBatch(ctx context.Context, limit int, now time.Time) ([]mailer.Message, error)

	// MarkSent records provider acceptance: providerMessageID, sentAt and
	// the sent status.
	MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string, sentAt time.Time) error

	// ScheduleRetry returns a claimed message to pending with the new retry
	// count, error message and earliest next attempt time.
	ScheduleRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8, nextRetryAt time.Time) error

	// MarkFailed transitions a claimed message to failed with the final
	// error message and retry count.
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8) error

	// Cancel transitions a message from pending to canceled. Returns
	// ErrNotCancelable when the message already left pending, or
	// ErrMessageNotFound.
	Cancel(ctx context.Context, id uuid.UUID) error
}

package outbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/gateway"
)

// Canceler withdraws pending messages from the outbox. Local state is
// authoritative; the provider cancel is best effort for messages that were
// already handed over as scheduled sends.
type Canceler struct {
	storage Storage
	gateway gateway.Gateway
	log     *slog.Logger
}

// NewCanceler creates a canceler. gw may be nil when no provider-side cancel
// is wanted.
func NewCanceler(storage Storage, gw gateway.Gateway, log *slog.Logger) (*Canceler, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Canceler{storage: storage, gateway: gw, log: log}, nil
}

// Cancel transitions the message from pending to canceled. Messages in any
// other state return ErrNotCancelable. After a successful local cancel, a
// known provider message id triggers a best-effort provider cancel whose
// failure is logged, never returned.
func (c *Canceler) Cancel(ctx context.Context, id uuid.UUID) error {
	msg, err := c.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := c.storage.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel message %s: %w", id, err)
	}

	if c.gateway != nil && msg.ProviderMessageID != nil {
		if _, err := c.gateway.Cancel(ctx, *msg.ProviderMessageID); err != nil {
			c.log.WarnContext(ctx, "provider-side cancel failed",
				slog.String("message_id", id.String()),
				slog.String("provider_message_id", *msg.ProviderMessageID),
				slog.String("error", err.Error()))
		}
	}

	c.log.InfoContext(ctx, "message canceled", slog.String("message_id", id.String()))
	return nil
}

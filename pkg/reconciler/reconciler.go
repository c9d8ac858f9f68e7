package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Storage is the persistence surface the reconciler needs. Implementations
// must make InsertEvent idempotent on the natural event key and
// SetEventTimestamp first-write-wins per timestamp column.
type Storage interface {
	// GetMessageByProviderID returns the message the provider id belongs to.
	// found is false when no message carries that provider id.
	GetMessageByProviderID(ctx context.Context, providerMessageID string) (msg mailer.Message, found bool, err error)

	// InsertEvent appends the event to the log. inserted is false when an
	// event with the same (providerMessageID, eventType, occurredAt) already
	// exists; the duplicate is not stored.
	InsertEvent(ctx context.Context, event mailer.DeliveryEvent) (inserted bool, err error)

	// SetEventTimestamp records the engagement timestamp for the event type
	// on the message. Only the first write per column sticks.
	SetEventTimestamp(ctx context.Context, messageID uuid.UUID, eventType mailer.EventType, occurredAt time.Time) error

	// UpdateStatus sets the message status.
	UpdateStatus(ctx context.Context, messageID uuid.UUID, status mailer.Status) error
}

// Outcome reports what Apply did with an event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// Result describes the reconciliation of one event. Reason is set for
// ignored events.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Meta carries optional client details from engagement events.
type Meta struct {
	IPAddress string
	UserAgent string
	Location  string
}

// Reconciler applies provider delivery events to the outbox.
type Reconciler struct {
	storage Storage
	log     *slog.Logger
}

// New creates a reconciler.
func New(storage Storage, log *slog.Logger) (*Reconciler, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{storage: storage, log: log}, nil
}

// Apply records one provider event and folds it into the message it belongs
// to. Events for unknown provider ids are kept in the log with no message
// reference and reported as ignored, not as errors: a webhook retry storm
// must never see failures for data that simply arrived early or late.
func (r *Reconciler) Apply(ctx context.Context, providerMessageID string, eventType mailer.EventType, occurredAt time.Time, payload json.RawMessage, meta Meta) (Result, error) {
	if !eventType.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	event := mailer.DeliveryEvent{
		ID:                uuid.New(),
		ProviderMessageID: providerMessageID,
		EventType:         eventType,
		OccurredAt:        occurredAt.UTC(),
		RawPayload:        payload,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		Location:          meta.Location,
		CreatedAt:         time.Now().UTC(),
	}

	msg, found, err := r.storage.GetMessageByProviderID(ctx, providerMessageID)
	if err != nil {
		return Result{}, fmt.Errorf("lookup message by provider id: %w", err)
	}

	if !found {
		if _, err := r.storage.InsertEvent(ctx, event); err != nil {
			return Result{}, fmt.Errorf("store orphan event: %w", err)
		}
		r.log.WarnContext(ctx, "event for unknown message",
			slog.String("provider_message_id", providerMessageID),
			slog.String("event_type", string(eventType)))
		return Result{Outcome: OutcomeIgnored, Reason: "unknown provider message id"}, nil
	}

	event.MessageID = &msg.ID
	inserted, err := r.storage.InsertEvent(ctx, event)
	if err != nil {
		return Result{}, fmt.Errorf("store event: %w", err)
	}
	if !inserted {
		return Result{Outcome: OutcomeIgnored, Reason: "duplicate event"}, nil
	}

	// Engagement timestamps are independent of status precedence: a late
	// delivered event still sets deliveredAt even after an open won the
	// status race.
	switch eventType {
	case mailer.EventDelivered, mailer.EventOpened, mailer.EventClicked, mailer.EventBounced:
		if err := r.storage.SetEventTimestamp(ctx, msg.ID, eventType, event.OccurredAt); err != nil {
			return Result{}, fmt.Errorf("set %s timestamp: %w", eventType, err)
		}
	}

	candidate := eventType.Status()
	if candidate != msg.Status && mailer.Supersedes(msg.Status, candidate, statusTime(msg), event.OccurredAt) {
		if err := r.storage.UpdateStatus(ctx, msg.ID, candidate); err != nil {
			return Result{}, fmt.Errorf("update status: %w", err)
		}
		r.log.InfoContext(ctx, "message status reconciled",
			slog.String("message_id", msg.ID.String()),
			slog.String("from", string(msg.Status)),
			slog.String("to", string(candidate)),
			slog.String("event_type", string(eventType)))
	}

	return Result{Outcome: OutcomeApplied}, nil
}

// statusTime returns the occurrence time behind the message's current status,
// used as the tiebreaker at equal severity.
func statusTime(msg mailer.Message) time.Time {
	switch msg.Status {
	case mailer.StatusDelivered:
		if msg.DeliveredAt != nil {
			return *msg.DeliveredAt
		}
	case mailer.StatusOpened:
		if msg.OpenedAt != nil {
			return *msg.OpenedAt
		}
	case mailer.StatusClicked:
		if msg.ClickedAt != nil {
			return *msg.ClickedAt
		}
	case mailer.StatusBounced:
		if msg.BouncedAt != nil {
			return *msg.BouncedAt
		}
	}
	if msg.SentAt != nil {
		return *msg.SentAt
	}
	return msg.CreatedAt
}

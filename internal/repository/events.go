package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

func (r *Repository) GetMessageByProviderID(ctx context.Context, providerMessageID string) (mailer.Message, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE provider_message_id = $1`,
		providerMessageID)
	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mailer.Message{}, false, nil
	}
	if err != nil {
		return mailer.Message{}, false, fmt.Errorf("get message by provider id: %w", err)
	}
	return msg, true, nil
}

// InsertEvent appends to the delivery event log. The unique index on the
// natural key turns duplicate webhook deliveries into no-ops.
func (r *Repository) InsertEvent(ctx context.Context, event mailer.DeliveryEvent) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO delivery_events (id, message_id, provider_message_id, event_type,
			occurred_at, raw_payload, ip_address, user_agent, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (provider_message_id, event_type, occurred_at) DO NOTHING`,
		event.ID, event.MessageID, event.ProviderMessageID, event.EventType,
		event.OccurredAt, []byte(event.RawPayload), event.IPAddress,
		event.UserAgent, event.Location, event.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert delivery event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetEventTimestamp records an engagement timestamp, first write wins.
func (r *Repository) SetEventTimestamp(ctx context.Context, messageID uuid.UUID, eventType mailer.EventType, occurredAt time.Time) error {
	var column string
	switch eventType {
	case mailer.EventDelivered:
		column = "delivered_at"
	case mailer.EventOpened:
		column = "opened_at"
	case mailer.EventClicked:
		column = "clicked_at"
	case mailer.EventBounced:
		column = "bounced_at"
	default:
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET `+column+` = COALESCE(`+column+`, $2) WHERE id = $1`,
		messageID, occurredAt)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, messageID uuid.UUID, status mailer.Status) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET status = $2 WHERE id = $1`, messageID, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// ListEvents returns the delivery event log for one message, oldest first.
func (r *Repository) ListEvents(ctx context.Context, messageID uuid.UUID) ([]mailer.DeliveryEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, provider_message_id, event_type, occurred_at,
			raw_payload, ip_address, user_agent, location, created_at
		FROM delivery_events
		WHERE message_id = $1
		ORDER BY occurred_at ASC`, messageID)
	if err != nil {
		return nil, fmt.Errorf("list delivery events: %w", err)
	}
	defer rows.Close()

	var events []mailer.DeliveryEvent
	for rows.Next() {
		var event mailer.DeliveryEvent
		var payload []byte
		if err := rows.Scan(&event.ID, &event.MessageID, &event.ProviderMessageID,
			&event.EventType, &event.OccurredAt, &payload, &event.IPAddress,
			&event.UserAgent, &event.Location, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.RawPayload = payload
		events = append(events, event)
	}
	return events, rows.Err()
}

package mailer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents a provider-reported delivery event.
type EventType string

const (
	EventSent            EventType = "sent"
	EventDelivered       EventType = "delivered"
	EventDeliveryDelayed EventType = "delivery_delayed"
	EventComplained      EventType = "complained"
	EventBounced         EventType = "bounced"
	EventOpened          EventType = "opened"
	EventClicked         EventType = "clicked"
)

func (e EventType) Valid() bool {
	switch e {
	case EventSent, EventDelivered, EventDeliveryDelayed, EventComplained, EventBounced, EventOpened, EventClicked:
		return true
	}
	return false
}

// Status returns the message status this event maps to.
// delivery_delayed does not change the externally visible status beyond sent.
func (e EventType) Status() Status {
	switch e {
	case EventDelivered:
		return StatusDelivered
	case EventOpened:
		return StatusOpened
	case EventClicked:
		return StatusClicked
	case EventBounced:
		return StatusBounced
	case EventComplained:
		return StatusComplained
	default:
		return StatusSent
	}
}

// severity ranks post-dispatch statuses for reconciliation. Bounces and
// complaints are sticky: a late-arriving open or click must not erase them.
var severity = map[Status]int{
	StatusSent:       0,
	StatusDelivered:  1,
	StatusOpened:     2,
	StatusClicked:    3,
	StatusBounced:    4,
	StatusComplained: 4,
}

// Supersedes reports whether a status change from current to candidate is
// allowed under the precedence rule: a higher-severity status always wins;
// at equal severity the event with the later occurrence time wins.
func Supersedes(current, candidate Status, currentAt, candidateAt time.Time) bool {
	cur, okCur := severity[current]
	cand, okCand := severity[candidate]
	if !okCand {
		return false
	}
	if !okCur {
		// Current status is still a queue state; any delivery event applies.
		return true
	}
	if cand != cur {
		return cand > cur
	}
	return candidateAt.After(currentAt)
}

// DeliveryEvent is one append-only row in the delivery event log. Events are
// never mutated; the natural key (ProviderMessageID, EventType, OccurredAt)
// deduplicates at-least-once webhook deliveries.
type DeliveryEvent struct {
	ID                uuid.UUID       `json:"id"`
	MessageID         *uuid.UUID      `json:"message_id,omitempty"`
	ProviderMessageID string          `json:"provider_message_id"`
	EventType         EventType       `json:"event_type"`
	OccurredAt        time.Time       `json:"occurred_at"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
	IPAddress         string          `json:"ip_address,omitempty"`
	UserAgent         string          `json:"user_agent,omitempty"`
	Location          string          `json:"location,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

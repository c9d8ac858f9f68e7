package mailer

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an outgoing message.
type Status string

const (
	// Queue lifecycle states, owned by the outbox.
	StatusPending  Status = "pending"
	StatusSending  Status = "sending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"

	// Post-dispatch states, owned by the event reconciler.
	StatusDelivered  Status = "delivered"
	StatusOpened     Status = "opened"
	StatusClicked    Status = "clicked"
	StatusBounced    Status = "bounced"
	StatusComplained Status = "complained"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSending, StatusSent, StatusFailed, StatusCanceled,
		StatusDelivered, StatusOpened, StatusClicked, StatusBounced, StatusComplained:
		return true
	}
	return false
}

// Terminal reports whether no further automatic queue transition occurs.
// Post-dispatch states are terminal from the outbox's point of view; the
// reconciler may still move between them by event precedence.
func (s Status) Terminal() bool {
	switch s {
	case StatusPending, StatusSending:
		return false
	}
	return true
}

// queueTransitions is the closed transition table for the dispatch lifecycle.
// sending->pending is the retry edge; cancel is only reachable from pending.
var queueTransitions = map[Status][]Status{
	StatusPending: {StatusSending, StatusCanceled, StatusFailed},
	StatusSending: {StatusSent, StatusPending, StatusFailed},
}

// CanTransitionTo reports whether the outbox may move a message from s to
// next. Post-dispatch states are not governed by this table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range queueTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Category classifies outgoing mail for reporting and filtering.
type Category string

const (
	CategoryTransactional Category = "transactional"
	CategoryMarketing     Category = "marketing"
	CategoryNotification  Category = "notification"
	CategorySupport       Category = "support"
	CategoryInternal      Category = "internal"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTransactional, CategoryMarketing, CategoryNotification, CategorySupport, CategoryInternal:
		return true
	}
	return false
}

// Priority represents message priority (0-100, higher drains sooner).
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityMedium  Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within valid range.
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// Message is one row in the durable outbox. The outbox owns it exclusively
// until it reaches a terminal state; afterwards only the reconciler touches
// the post-dispatch fields. ProviderMessageID is set exactly once, at the
// transition into sent, and is the join key for all later delivery events.
type Message struct {
	ID                uuid.UUID         `json:"id"`
	ProviderMessageID *string           `json:"provider_message_id,omitempty"`
	From              string            `json:"from"`
	To                []string          `json:"to"`
	Cc                []string          `json:"cc,omitempty"`
	Bcc               []string          `json:"bcc,omitempty"`
	ReplyTo           string            `json:"reply_to,omitempty"`
	Subject           string            `json:"subject"`
	HTMLBody          string            `json:"html_body,omitempty"`
	TextBody          string            `json:"text_body,omitempty"`
	TemplateID        string            `json:"template_id,omitempty"`
	TemplateVariables map[string]string `json:"template_variables,omitempty"`
	Category          Category          `json:"category"`
	Priority          Priority          `json:"priority"`
	Status            Status            `json:"status"`
	RetryCount        int8              `json:"retry_count"`
	MaxRetries        int8              `json:"max_retries"`
	NextRetryAt       *time.Time        `json:"next_retry_at,omitempty"`
	ErrorMessage      *string           `json:"error_message,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	SentAt            *time.Time        `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	OpenedAt          *time.Time        `json:"opened_at,omitempty"`
	ClickedAt         *time.Time        `json:"clicked_at,omitempty"`
	BouncedAt         *time.Time        `json:"bounced_at,omitempty"`
}

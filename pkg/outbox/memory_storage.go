package outbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// MemoryStorage is an in-memory backend for tests and local development. It
// implements both the outbox Storage and the reconciler's persistence
// surface, mirroring what the Postgres repository provides. All methods
// return copies so callers cannot mutate stored state.
type MemoryStorage struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*mailer.Message
	events   map[eventKey]*mailer.DeliveryEvent
}

// eventKey is the natural dedupe key of the delivery event log.
type eventKey struct {
	providerMessageID string
	eventType         mailer.EventType
	occurredAt        time.Time
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages: make(map[uuid.UUID]*mailer.Message),
		events:   make(map[eventKey]*mailer.DeliveryEvent),
	}
}

func (s *MemoryStorage) Insert(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.messages[msg.ID]; exists {
		return fmt.Errorf("message %s already exists", msg.ID)
	}
	stored := copyMessage(msg)
	s.messages[msg.ID] = &stored
	return nil
}

func (s *MemoryStorage) GetByID(ctx context.Context, id uuid.UUID) (mailer.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return mailer.Message{}, ErrMessageNotFound
	}
	return copyMessage(*msg), nil
}

func (s *MemoryStorage) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]mailer.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eligible := make([]*mailer.Message, 0)
	for _, msg := range s.messages {
		if msg.Status != mailer.StatusPending {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		eligible = append(eligible, msg)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority > eligible[j].Priority
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]mailer.Message, 0, len(eligible))
	for _, msg := range eligible {
		msg.Status = mailer.StatusSending
		out = append(out, copyMessage(*msg))
	}
	return out, nil
}

func (s *MemoryStorage) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	if !msg.Status.CanTransitionTo(mailer.StatusSent) {
		return fmt.Errorf("message %s: cannot transition %s to sent", id, msg.Status)
	}
	msg.Status = mailer.StatusSent
	msg.ProviderMessageID = &providerMessageID
	msg.SentAt = &sentAt
	msg.NextRetryAt = nil
	msg.ErrorMessage = nil
	return nil
}

func (s *MemoryStorage) ScheduleRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8, nextRetryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	// Pending is allowed through so the retry window of an already
	// requeued message can be adjusted.
	if msg.Status != mailer.StatusPending && !msg.Status.CanTransitionTo(mailer.StatusPending) {
		return fmt.Errorf("message %s: cannot transition %s to pending", id, msg.Status)
	}
	msg.Status = mailer.StatusPending
	msg.RetryCount = retryCount
	msg.ErrorMessage = &errorMessage
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (s *MemoryStorage) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	if !msg.Status.CanTransitionTo(mailer.StatusFailed) {
		return fmt.Errorf("message %s: cannot transition %s to failed", id, msg.Status)
	}
	msg.Status = mailer.StatusFailed
	msg.RetryCount = retryCount
	msg.ErrorMessage = &errorMessage
	msg.NextRetryAt = nil
	return nil
}

func (s *MemoryStorage) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	if msg.Status != mailer.StatusPending {
		return ErrNotCancelable
	}
	msg.Status = mailer.StatusCanceled
	return nil
}

// GetMessageByProviderID finds the message the provider assigned the given id.
func (s *MemoryStorage) GetMessageByProviderID(ctx context.Context, providerMessageID string) (mailer.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ProviderMessageID != nil && *msg.ProviderMessageID == providerMessageID {
			return copyMessage(*msg), true, nil
		}
	}
	return mailer.Message{}, false, nil
}

// InsertEvent appends a delivery event, deduplicating on the natural key.
func (s *MemoryStorage) InsertEvent(ctx context.Context, event mailer.DeliveryEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eventKey{event.ProviderMessageID, event.EventType, event.OccurredAt}
	if _, exists := s.events[key]; exists {
		return false, nil
	}
	stored := event
	s.events[key] = &stored
	return true, nil
}

// SetEventTimestamp records an engagement timestamp, first write wins.
func (s *MemoryStorage) SetEventTimestamp(ctx context.Context, messageID uuid.UUID, eventType mailer.EventType, occurredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	switch eventType {
	case mailer.EventDelivered:
		if msg.DeliveredAt == nil {
			msg.DeliveredAt = &occurredAt
		}
	case mailer.EventOpened:
		if msg.OpenedAt == nil {
			msg.OpenedAt = &occurredAt
		}
	case mailer.EventClicked:
		if msg.ClickedAt == nil {
			msg.ClickedAt = &occurredAt
		}
	case mailer.EventBounced:
		if msg.BouncedAt == nil {
			msg.BouncedAt = &occurredAt
		}
	}
	return nil
}

// UpdateStatus sets the message status without transition checks; the
// reconciler owns post-dispatch precedence.
func (s *MemoryStorage) UpdateStatus(ctx context.Context, messageID uuid.UUID, status mailer.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Status = status
	return nil
}

// Events returns all stored delivery events, oldest first. Test helper.
func (s *MemoryStorage) Events() []mailer.DeliveryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.DeliveryEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

// All returns every stored message, newest first. Test helper.
func (s *MemoryStorage) All() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, copyMessage(*msg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func copyMessage(msg mailer.Message) mailer.Message {
	out := msg
	out.To = append([]string(nil), msg.To...)
	out.Cc = append([]string(nil), msg.Cc...)
	out.Bcc = append([]string(nil), msg.Bcc...)
	if msg.TemplateVariables != nil {
		out.TemplateVariables = make(map[string]string, len(msg.TemplateVariables))
		for k, v := range msg.TemplateVariables {
			out.TemplateVariables[k] = v
		}
	}
	out.ProviderMessageID = copyPtr(msg.ProviderMessageID)
	out.ErrorMessage = copyPtr(msg.ErrorMessage)
	out.NextRetryAt = copyPtr(msg.NextRetryAt)
	out.SentAt = copyPtr(msg.SentAt)
	out.DeliveredAt = copyPtr(msg.DeliveredAt)
	out.OpenedAt = copyPtr(msg.OpenedAt)
	out.ClickedAt = copyPtr(msg.ClickedAt)
	out.BouncedAt = copyPtr(msg.BouncedAt)
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
	"github.com/dmitrymomot/mailroom/pkg/reconciler"
)

// sentMessage seeds the storage with one sent message carrying the given
// provider message id.
func sentMessage(t *testing.T, storage *outbox.MemoryStorage, providerMessageID string) mailer.Message {
	t.Helper()
	ctx := context.Background()

	msg := mailer.Message{
		ID:         uuid.New(),
		From:       "noreply@example.com",
		To:         []string{"user@test.com"},
		Subject:    "subj",
		TextBody:   "body",
		Priority:   mailer.PriorityDefault,
		Status:     mailer.StatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, storage.Insert(ctx, msg))
	_, err := storage.ClaimBatch(ctx, 1, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, storage.MarkSent(ctx, msg.ID, providerMessageID, time.Now().UTC().Add(-30*time.Minute)))

	stored, err := storage.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	return stored
}

func TestReconciler_Apply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("delivered event updates status and timestamp", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		result, err := rec.Apply(ctx, "pm-1", mailer.EventDelivered, now, []byte(`{"type":"email.delivered"}`), reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeApplied, result.Outcome)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusDelivered, stored.Status)
		require.NotNil(t, stored.DeliveredAt)
		assert.True(t, stored.DeliveredAt.Equal(now))

		events := storage.Events()
		require.Len(t, events, 1)
		require.NotNil(t, events[0].MessageID)
		assert.Equal(t, msg.ID, *events[0].MessageID)
	})

	t.Run("duplicate webhook delivery is ignored", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		result, err := rec.Apply(ctx, "pm-1", mailer.EventOpened, now, nil, reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeApplied, result.Outcome)

		result, err = rec.Apply(ctx, "pm-1", mailer.EventOpened, now, nil, reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeIgnored, result.Outcome)
		assert.Equal(t, "duplicate event", result.Reason)

		assert.Len(t, storage.Events(), 1)
		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusOpened, stored.Status)
	})

	t.Run("unknown provider id keeps the event and reports ignored", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		result, err := rec.Apply(ctx, "pm-unknown", mailer.EventDelivered, now, []byte(`{}`), reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeIgnored, result.Outcome)
		assert.Equal(t, "unknown provider message id", result.Reason)

		events := storage.Events()
		require.Len(t, events, 1)
		assert.Nil(t, events[0].MessageID)
		assert.Equal(t, "pm-unknown", events[0].ProviderMessageID)
	})

	t.Run("earlier bounce beats later open", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		openedAt := now.Add(2 * time.Minute)
		bouncedAt := now.Add(1 * time.Minute)

		_, err = rec.Apply(ctx, "pm-1", mailer.EventOpened, openedAt, nil, reconciler.Meta{})
		require.NoError(t, err)
		_, err = rec.Apply(ctx, "pm-1", mailer.EventBounced, bouncedAt, nil, reconciler.Meta{})
		require.NoError(t, err)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusBounced, stored.Status)
		require.NotNil(t, stored.OpenedAt)
		assert.True(t, stored.OpenedAt.Equal(openedAt))
		require.NotNil(t, stored.BouncedAt)
		assert.True(t, stored.BouncedAt.Equal(bouncedAt))
	})

	t.Run("late open never erases a bounce", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		_, err = rec.Apply(ctx, "pm-1", mailer.EventBounced, now, nil, reconciler.Meta{})
		require.NoError(t, err)
		result, err := rec.Apply(ctx, "pm-1", mailer.EventOpened, now.Add(time.Hour), nil, reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeApplied, result.Outcome, "event is recorded even when status stands")

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusBounced, stored.Status)
		assert.NotNil(t, stored.OpenedAt)
	})

	t.Run("complaint updates status without touching bounce timestamp", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		result, err := rec.Apply(ctx, "pm-1", mailer.EventComplained, now, nil, reconciler.Meta{})
		require.NoError(t, err)
		assert.Equal(t, reconciler.OutcomeApplied, result.Outcome)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusComplained, stored.Status)
		assert.Nil(t, stored.BouncedAt, "only a bounce sets the bounce timestamp")
	})

	t.Run("engagement timestamp is first write wins", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		first := now
		second := now.Add(time.Minute)
		_, err = rec.Apply(ctx, "pm-1", mailer.EventDelivered, first, nil, reconciler.Meta{})
		require.NoError(t, err)
		_, err = rec.Apply(ctx, "pm-1", mailer.EventDelivered, second, nil, reconciler.Meta{})
		require.NoError(t, err)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.DeliveredAt)
		assert.True(t, stored.DeliveredAt.Equal(first))
	})

	t.Run("click after open escalates status", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		msg := sentMessage(t, storage, "pm-1")
		rec, err := reconciler.New(storage, nil)
		require.NoError(t, err)

		_, err = rec.Apply(ctx, "pm-1", mailer.EventOpened, now, nil, reconciler.Meta{})
		require.NoError(t, err)
		_, err = rec.Apply(ctx, "pm-1", mailer.EventClicked, now.Add(time.Second), nil, reconciler.Meta{})
		require.NoError(t, err)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusClicked, stored.Status)
	})

	t.Run("unknown event type is rejected", func(t *testing.T) {
		t.Parallel()

		rec, err := reconciler.New(outbox.NewMemoryStorage(), nil)
		require.NoError(t, err)

		_, err = rec.Apply(ctx, "pm-1", mailer.EventType("email.exploded"), now, nil, reconciler.Meta{})
		require.ErrorIs(t, err, reconciler.ErrUnknownEventType)
	})

	t.Run("nil storage", func(t *testing.T) {
		t.Parallel()

		_, err := reconciler.New(nil, nil)
		require.ErrorIs(t, err, reconciler.ErrStorageNil)
	})
}

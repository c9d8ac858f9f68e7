package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/address"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
	"github.com/dmitrymomot/mailroom/pkg/template"
)

func newTestEnqueuer(t *testing.T, storage outbox.Storage) *outbox.Enqueuer {
	t.Helper()
	enq, err := outbox.NewEnqueuer(
		storage,
		template.NewRegistry(),
		address.NewAllowlist([]string{"example.com"}),
		outbox.WithMaxRetries(3),
	)
	require.NoError(t, err)
	return enq
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("persists pending message with defaults", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		enq := newTestEnqueuer(t, storage)

		msg, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:     "noreply@example.com",
			To:       []string{"user@test.com"},
			Subject:  "Hello",
			TextBody: "hi there",
		})
		require.NoError(t, err)

		stored, err := storage.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, mailer.StatusPending, stored.Status)
		assert.Equal(t, mailer.PriorityDefault, stored.Priority)
		assert.Equal(t, mailer.CategoryTransactional, stored.Category)
		assert.Equal(t, int8(3), stored.MaxRetries)
		assert.Equal(t, int8(0), stored.RetryCount)
		assert.Nil(t, stored.ProviderMessageID)
	})

	t.Run("rejects unverified sender domain", func(t *testing.T) {
		t.Parallel()

		enq := newTestEnqueuer(t, outbox.NewMemoryStorage())

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:     "noreply@evil.com",
			To:       []string{"user@test.com"},
			Subject:  "Hello",
			TextBody: "hi",
		})

		var verr *outbox.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "from")
	})

	t.Run("rejects invalid recipients", func(t *testing.T) {
		t.Parallel()

		enq := newTestEnqueuer(t, outbox.NewMemoryStorage())

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:     "noreply@example.com",
			To:       []string{"valid@test.com", "not-an-email"},
			Subject:  "Hello",
			TextBody: "hi",
		})

		var verr *outbox.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields["to"], "not-an-email")
	})

	t.Run("rejects missing subject and body", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		enq := newTestEnqueuer(t, storage)

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From: "noreply@example.com",
			To:   []string{"user@test.com"},
		})

		var verr *outbox.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "subject")
		assert.Contains(t, verr.Fields, "body")
		assert.Empty(t, storage.All(), "rejected request must not be persisted")
	})

	t.Run("accepts formatted sender address", func(t *testing.T) {
		t.Parallel()

		enq := newTestEnqueuer(t, outbox.NewMemoryStorage())

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:     "Acme Support <support@example.com>",
			To:       []string{"user@test.com"},
			Subject:  "Hello",
			TextBody: "hi",
		})
		require.NoError(t, err)
	})

	t.Run("renders template", func(t *testing.T) {
		t.Parallel()

		storage := outbox.NewMemoryStorage()
		enq := newTestEnqueuer(t, storage)

		msg, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:       "noreply@example.com",
			To:         []string{"user@test.com"},
			TemplateID: "welcome",
			TemplateVariables: map[string]string{
				"user_name":    "Ada",
				"company_name": "Mailroom",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Welcome to Mailroom!", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "Welcome, Ada!")
		assert.Equal(t, "welcome", msg.TemplateID)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		enq := newTestEnqueuer(t, outbox.NewMemoryStorage())

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:       "noreply@example.com",
			To:         []string{"user@test.com"},
			TemplateID: "nope",
		})
		require.ErrorIs(t, err, template.ErrTemplateNotFound)
	})

	t.Run("rejects out-of-range priority", func(t *testing.T) {
		t.Parallel()

		enq := newTestEnqueuer(t, outbox.NewMemoryStorage())

		_, err := enq.Enqueue(ctx, outbox.EnqueueParams{
			From:     "noreply@example.com",
			To:       []string{"user@test.com"},
			Subject:  "Hello",
			TextBody: "hi",
			Priority: 101,
		})

		var verr *outbox.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "priority")
	})

	t.Run("nil storage", func(t *testing.T) {
		t.Parallel()

		_, err := outbox.NewEnqueuer(nil, nil, nil)
		require.ErrorIs(t, err, outbox.ErrStorageNil)
	})
}

package mailer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	t.Run("dispatch lifecycle", func(t *testing.T) {
		t.Parallel()

		assert.True(t, mailer.StatusPending.CanTransitionTo(mailer.StatusSending))
		assert.True(t, mailer.StatusPending.CanTransitionTo(mailer.StatusCanceled))
		assert.True(t, mailer.StatusSending.CanTransitionTo(mailer.StatusSent))
		assert.True(t, mailer.StatusSending.CanTransitionTo(mailer.StatusPending), "retry edge")
		assert.True(t, mailer.StatusSending.CanTransitionTo(mailer.StatusFailed))
	})

	t.Run("forbidden edges", func(t *testing.T) {
		t.Parallel()

		assert.False(t, mailer.StatusPending.CanTransitionTo(mailer.StatusSent), "must pass through sending")
		assert.False(t, mailer.StatusSending.CanTransitionTo(mailer.StatusCanceled), "cancel only pre-dispatch")
		assert.False(t, mailer.StatusSent.CanTransitionTo(mailer.StatusPending))
		assert.False(t, mailer.StatusFailed.CanTransitionTo(mailer.StatusPending))
		assert.False(t, mailer.StatusCanceled.CanTransitionTo(mailer.StatusSending))
	})

	t.Run("terminal states", func(t *testing.T) {
		t.Parallel()

		assert.False(t, mailer.StatusPending.Terminal())
		assert.False(t, mailer.StatusSending.Terminal())
		assert.True(t, mailer.StatusSent.Terminal())
		assert.True(t, mailer.StatusFailed.Terminal())
		assert.True(t, mailer.StatusCanceled.Terminal())
		assert.True(t, mailer.StatusBounced.Terminal())
	})
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []mailer.Status{
		mailer.StatusPending, mailer.StatusSending, mailer.StatusSent,
		mailer.StatusFailed, mailer.StatusCanceled, mailer.StatusDelivered,
		mailer.StatusOpened, mailer.StatusClicked, mailer.StatusBounced,
		mailer.StatusComplained,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, mailer.Status("queued").Valid())
}

func TestEventTypeStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mailer.StatusDelivered, mailer.EventDelivered.Status())
	assert.Equal(t, mailer.StatusOpened, mailer.EventOpened.Status())
	assert.Equal(t, mailer.StatusClicked, mailer.EventClicked.Status())
	assert.Equal(t, mailer.StatusBounced, mailer.EventBounced.Status())
	assert.Equal(t, mailer.StatusComplained, mailer.EventComplained.Status())
	assert.Equal(t, mailer.StatusSent, mailer.EventSent.Status())
	assert.Equal(t, mailer.StatusSent, mailer.EventDeliveryDelayed.Status())
}

func TestSupersedes(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	t.Run("higher severity wins regardless of time", func(t *testing.T) {
		t.Parallel()

		// Bounce that occurred before an already-recorded open still wins.
		assert.True(t, mailer.Supersedes(mailer.StatusOpened, mailer.StatusBounced, t2, t1))
	})

	t.Run("lower severity never overwrites higher", func(t *testing.T) {
		t.Parallel()

		assert.False(t, mailer.Supersedes(mailer.StatusBounced, mailer.StatusOpened, t1, t2))
		assert.False(t, mailer.Supersedes(mailer.StatusComplained, mailer.StatusClicked, t1, t2))
		assert.False(t, mailer.Supersedes(mailer.StatusDelivered, mailer.StatusSent, t1, t2))
	})

	t.Run("equal severity resolved by occurrence time", func(t *testing.T) {
		t.Parallel()

		assert.True(t, mailer.Supersedes(mailer.StatusBounced, mailer.StatusComplained, t1, t2))
		assert.False(t, mailer.Supersedes(mailer.StatusComplained, mailer.StatusBounced, t2, t1))
	})

	t.Run("queue state accepts any delivery event", func(t *testing.T) {
		t.Parallel()

		assert.True(t, mailer.Supersedes(mailer.StatusSent, mailer.StatusDelivered, t1, t2))
		assert.True(t, mailer.Supersedes(mailer.StatusPending, mailer.StatusDelivered, t1, t1))
	})

	t.Run("unknown candidate rejected", func(t *testing.T) {
		t.Parallel()

		assert.False(t, mailer.Supersedes(mailer.StatusSent, mailer.StatusFailed, t1, t2))
	})
}

func TestPriorityValid(t *testing.T) {
	t.Parallel()

	assert.True(t, mailer.PriorityDefault.Valid())
	assert.True(t, mailer.PriorityMax.Valid())
	assert.False(t, mailer.Priority(-1).Valid())
}

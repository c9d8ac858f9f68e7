package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/gateway"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Worker drains the outbox. Each tick it claims a batch of eligible pending
// messages (the claim is a conditional pending to sending transition, so
// concurrent workers never dispatch the same message twice) and hands them to
// the gateway one by one.
type Worker struct {
	storage  Storage
	gateway  gateway.Gateway
	workerID uuid.UUID
	log      *slog.Logger

	pollInterval time.Duration
	batchSize    int
	maxBackoff   time.Duration

	mu       sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewWorker creates an outbox worker with the given retry policy.
func NewWorker(storage Storage, gw gateway.Gateway, cfg Config, log *slog.Logger) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if gw == nil {
		return nil, ErrGatewayNil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Hour
	}
	return &Worker{
		storage:      storage,
		gateway:      gw,
		workerID:     uuid.New(),
		log:          log,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		maxBackoff:   cfg.MaxBackoff,
	}, nil
}

// Start begins draining in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrWorkerAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.stopping.Store(false)

	w.wg.Add(1)
	go w.run()

	w.log.Info("outbox worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("batch_size", w.batchSize))

	return nil
}

// Stop cancels the drain loop and waits for the in-flight batch to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	w.stopping.Store(true)
	cancel()
	w.wg.Wait()

	w.log.Info("outbox worker stopped", slog.String("worker_id", w.workerID.String()))
	return nil
}

// Run returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Error("drain cycle failed",
					slog.String("worker_id", w.workerID.String()),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Drain claims and dispatches one batch. Exposed so tests and one-shot
// invocations can drive the worker without the ticker.
func (w *Worker) Drain(ctx context.Context) error {
	batch, err := w.storage.ClaimBatch(ctx, w.batchSize, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNoMessagesToClaim) {
			return nil
		}
		return fmt.Errorf("claim batch: %w", err)
	}

	for _, msg := range batch {
		if w.stopping.Load() {
			// Return unclaimed work to the queue instead of leaving it stuck
			// in sending.
			if err := w.storage.ScheduleRetry(ctx, msg.ID, "worker shutdown", msg.RetryCount, time.Now().UTC()); err != nil {
				w.log.Error("failed to release claimed message on shutdown",
					slog.String("message_id", msg.ID.String()),
					slog.String("error", err.Error()))
			}
			continue
		}
		w.dispatch(ctx, msg)
	}
	return nil
}

// dispatch sends one claimed message and records the outcome. Bookkeeping
// failures after a successful provider send are logged but never undo the
// send; the reconciler will catch up from webhook events.
func (w *Worker) dispatch(ctx context.Context, msg mailer.Message) {
	start := time.Now()

	result, err := w.gateway.Send(ctx, gateway.SendRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
		Tags: []gateway.Tag{
			{Name: "category", Value: string(msg.Category)},
			{Name: "message_id", Value: msg.ID.String()},
		},
	})
	if err != nil {
		w.handleSendFailure(ctx, msg, err, time.Since(start))
		return
	}

	sentAt := time.Now().UTC()
	if err := w.storage.MarkSent(ctx, msg.ID, result.ProviderMessageID, sentAt); err != nil {
		w.log.Error("message sent but status update failed",
			slog.String("worker_id", w.workerID.String()),
			slog.String("message_id", msg.ID.String()),
			slog.String("provider_message_id", result.ProviderMessageID),
			slog.String("error", err.Error()))
		return
	}

	w.log.Info("message sent",
		slog.String("worker_id", w.workerID.String()),
		slog.String("message_id", msg.ID.String()),
		slog.String("provider_message_id", result.ProviderMessageID),
		slog.Duration("duration", time.Since(start)))
}

func (w *Worker) handleSendFailure(ctx context.Context, msg mailer.Message, sendErr error, duration time.Duration) {
	retryCount := msg.RetryCount + 1

	if retryCount >= msg.MaxRetries {
		if err := w.storage.MarkFailed(ctx, msg.ID, sendErr.Error(), retryCount); err != nil {
			w.log.Error("failed to mark message as failed",
				slog.String("message_id", msg.ID.String()),
				slog.String("error", err.Error()))
			return
		}
		w.log.Error("message failed permanently",
			slog.String("worker_id", w.workerID.String()),
			slog.String("message_id", msg.ID.String()),
			slog.Int("retry_count", int(retryCount)),
			slog.Duration("duration", duration),
			slog.String("error", sendErr.Error()))
		return
	}

	nextRetryAt := time.Now().UTC().Add(backoff(retryCount, w.maxBackoff))
	if err := w.storage.ScheduleRetry(ctx, msg.ID, sendErr.Error(), retryCount, nextRetryAt); err != nil {
		w.log.Error("failed to schedule retry",
			slog.String("message_id", msg.ID.String()),
			slog.String("error", err.Error()))
		return
	}

	w.log.Warn("message send failed, retry scheduled",
		slog.String("worker_id", w.workerID.String()),
		slog.String("message_id", msg.ID.String()),
		slog.Int("retry_count", int(retryCount)),
		slog.Time("next_retry_at", nextRetryAt),
		slog.String("error", sendErr.Error()))
}

// backoff returns the retry delay after the given attempt: 2^retryCount
// minutes, capped at max.
func backoff(retryCount int8, max time.Duration) time.Duration {
	d := time.Duration(1<<uint(retryCount)) * time.Minute
	if d > max || d <= 0 {
		return max
	}
	return d
}

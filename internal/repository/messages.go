package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
)

const messageColumns = `id, provider_message_id, from_address, to_addresses, cc_addresses,
	bcc_addresses, reply_to, subject, html_body, text_body, template_id,
	template_variables, category, priority, status, retry_count, max_retries,
	next_retry_at, error_message, created_at, sent_at, delivered_at, opened_at,
	clicked_at, bounced_at`

func (r *Repository) Insert(ctx context.Context, msg mailer.Message) error {
	vars, err := marshalVariables(msg.TemplateVariables)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		msg.ID, msg.ProviderMessageID, msg.From, msg.To, emptyIfNil(msg.Cc),
		emptyIfNil(msg.Bcc), msg.ReplyTo, msg.Subject, msg.HTMLBody, msg.TextBody,
		msg.TemplateID, vars, msg.Category, msg.Priority, msg.Status,
		msg.RetryCount, msg.MaxRetries, msg.NextRetryAt, msg.ErrorMessage,
		msg.CreatedAt, msg.SentAt, msg.DeliveredAt, msg.OpenedAt, msg.ClickedAt,
		msg.BouncedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (mailer.Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mailer.Message{}, outbox.ErrMessageNotFound
	}
	return msg, err
}

// ClaimBatch atomically moves up to limit eligible pending rows to sending.
// SKIP LOCKED keeps concurrent workers from blocking each other on the same
// rows; the conditional UPDATE guarantees each row is claimed exactly once.
func (r *Repository) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]mailer.Message, error) {
	rows, err := r.pool.Query(ctx, `
		WITH eligible AS (
			SELECT id FROM messages
			WHERE status = 'pending'
			  AND (next_retry_at IS NULL OR next_retry_at <= $1)
			ORDER BY priority DESC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE messages m SET status = 'sending'
		FROM eligible e
		WHERE m.id = e.id
		RETURNING `+prefixed("m", messageColumns), now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// UPDATE ... RETURNING does not preserve the CTE order.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Priority != messages[j].Priority {
			return messages[i].Priority > messages[j].Priority
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = 'sent', provider_message_id = $2, sent_at = $3, error_message = NULL
		WHERE id = $1 AND status = 'sending'`,
		id, providerMessageID, sentAt)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound
	}
	return nil
}

func (r *Repository) ScheduleRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8, nextRetryAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = 'pending', retry_count = $2, error_message = $3, next_retry_at = $4
		WHERE id = $1 AND status IN ('sending', 'pending')`,
		id, retryCount, errorMessage, nextRetryAt)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int8) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = 'failed', retry_count = $2, error_message = $3, next_retry_at = NULL
		WHERE id = $1 AND status IN ('sending', 'pending')`,
		id, retryCount, errorMessage)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound
	}
	return nil
}

func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET status = 'canceled'
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("cancel message: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("cancel message: %w", err)
	}
	if !exists {
		return outbox.ErrMessageNotFound
	}
	return outbox.ErrNotCancelable
}

// HistoryFilter narrows ListMessages. Zero values mean no constraint.
type HistoryFilter struct {
	Status   mailer.Status
	Category mailer.Category
	From     string
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
}

// ListMessages returns messages newest first, filtered and paginated.
func (r *Repository) ListMessages(ctx context.Context, filter HistoryFilter) ([]mailer.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE TRUE`
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.From != "" {
		query += ` AND from_address = ` + arg(filter.From)
	}
	if !filter.Start.IsZero() {
		query += ` AND created_at >= ` + arg(filter.Start)
	}
	if !filter.End.IsZero() {
		query += ` AND created_at <= ` + arg(filter.End)
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListMessagesBetween feeds the stats aggregator.
func (r *Repository) ListMessagesBetween(ctx context.Context, start, end time.Time) ([]mailer.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE created_at >= $1 AND created_at <= $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list messages between: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]mailer.Message, error) {
	var messages []mailer.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (mailer.Message, error) {
	var msg mailer.Message
	var vars []byte
	err := row.Scan(&msg.ID, &msg.ProviderMessageID, &msg.From, &msg.To, &msg.Cc,
		&msg.Bcc, &msg.ReplyTo, &msg.Subject, &msg.HTMLBody, &msg.TextBody,
		&msg.TemplateID, &vars, &msg.Category, &msg.Priority, &msg.Status,
		&msg.RetryCount, &msg.MaxRetries, &msg.NextRetryAt, &msg.ErrorMessage,
		&msg.CreatedAt, &msg.SentAt, &msg.DeliveredAt, &msg.OpenedAt,
		&msg.ClickedAt, &msg.BouncedAt)
	if err != nil {
		return mailer.Message{}, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &msg.TemplateVariables); err != nil {
			return mailer.Message{}, fmt.Errorf("decode template variables: %w", err)
		}
	}
	return msg, nil
}

func marshalVariables(vars map[string]string) ([]byte, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("encode template variables: %w", err)
	}
	return data, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// prefixed qualifies a comma-separated column list with a table alias for
// use in RETURNING clauses.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/address"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/template"
)

// Enqueuer validates send requests and persists them as pending messages.
// Validation happens entirely before the first storage call, so a rejected
// request leaves nothing behind.
type Enqueuer struct {
	storage    Storage
	templates  *template.Registry
	senders    address.Allowlist
	maxRetries int8
	log        *slog.Logger
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithMaxRetries sets the per-message retry budget.
func WithMaxRetries(n int8) EnqueuerOption {
	return func(e *Enqueuer) { e.maxRetries = n }
}

// WithEnqueuerLogger sets the logger.
func WithEnqueuerLogger(log *slog.Logger) EnqueuerOption {
	return func(e *Enqueuer) { e.log = log }
}

// NewEnqueuer creates an enqueuer. templates may be nil when template-based
// sends are not needed; senders is the verified sender domain allowlist.
func NewEnqueuer(storage Storage, templates *template.Registry, senders address.Allowlist, opts ...EnqueuerOption) (*Enqueuer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	e := &Enqueuer{
		storage:    storage,
		templates:  templates,
		senders:    senders,
		maxRetries: 3,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnqueueParams describes one send request. When TemplateID is set, subject
// and bodies come from the rendered template and any explicit Subject,
// HTMLBody or TextBody here is ignored.
type EnqueueParams struct {
	From              string
	To                []string
	Cc                []string
	Bcc               []string
	ReplyTo           string
	Subject           string
	HTMLBody          string
	TextBody          string
	TemplateID        string
	TemplateVariables map[string]string
	Category          mailer.Category
	Priority          mailer.Priority
}

// Enqueue validates params, renders the template when requested and persists
// a pending message. Returns a ValidationError for rejected input and
// ErrTemplateNotFound for unknown template ids.
func (e *Enqueuer) Enqueue(ctx context.Context, params EnqueueParams) (mailer.Message, error) {
	fields := make(map[string]string)

	fromEmail, _ := address.Parse(params.From)
	switch {
	case params.From == "":
		fields["from"] = "sender address is required"
	case !address.IsValid(fromEmail):
		fields["from"] = "invalid sender address"
	case !e.senders.IsVerifiedSender(fromEmail):
		fields["from"] = fmt.Sprintf("sender domain %q is not verified", address.DomainOf(fromEmail))
	}

	if len(params.To) == 0 {
		fields["to"] = "at least one recipient is required"
	} else if _, invalid := address.ValidateRecipients(params.To); len(invalid) > 0 {
		fields["to"] = "invalid recipients: " + strings.Join(invalid, ", ")
	}
	if _, invalid := address.ValidateRecipients(params.Cc); len(invalid) > 0 {
		fields["cc"] = "invalid recipients: " + strings.Join(invalid, ", ")
	}
	if _, invalid := address.ValidateRecipients(params.Bcc); len(invalid) > 0 {
		fields["bcc"] = "invalid recipients: " + strings.Join(invalid, ", ")
	}
	if params.ReplyTo != "" && !address.IsValid(params.ReplyTo) {
		fields["reply_to"] = "invalid reply-to address"
	}

	subject := params.Subject
	htmlBody := params.HTMLBody
	textBody := params.TextBody

	if params.TemplateID != "" {
		if e.templates == nil {
			return mailer.Message{}, template.ErrTemplateNotFound
		}
		rendered, err := e.templates.Render(params.TemplateID, params.TemplateVariables)
		if err != nil {
			return mailer.Message{}, err
		}
		subject = rendered.Subject
		htmlBody = rendered.HTML
		textBody = rendered.Text
	}

	if subject == "" {
		fields["subject"] = "subject is required"
	}
	if htmlBody == "" && textBody == "" {
		fields["body"] = "either html or text body is required"
	}

	category := params.Category
	if category == "" {
		category = mailer.CategoryTransactional
	}
	if !category.Valid() {
		fields["category"] = fmt.Sprintf("unknown category %q", params.Category)
	}

	priority := params.Priority
	if priority == 0 {
		priority = mailer.PriorityDefault
	}
	if !priority.Valid() {
		fields["priority"] = "priority must be between 0 and 100"
	}

	if len(fields) > 0 {
		return mailer.Message{}, newValidationError(fields)
	}

	msg := mailer.Message{
		ID:                uuid.New(),
		From:              params.From,
		To:                params.To,
		Cc:                params.Cc,
		Bcc:               params.Bcc,
		ReplyTo:           params.ReplyTo,
		Subject:           subject,
		HTMLBody:          htmlBody,
		TextBody:          textBody,
		TemplateID:        params.TemplateID,
		TemplateVariables: params.TemplateVariables,
		Category:          category,
		Priority:          priority,
		Status:            mailer.StatusPending,
		MaxRetries:        e.maxRetries,
		CreatedAt:         time.Now().UTC(),
	}

	if err := e.storage.Insert(ctx, msg); err != nil {
		return mailer.Message{}, fmt.Errorf("insert outbox message: %w", err)
	}

	e.log.InfoContext(ctx, "message enqueued",
		slog.String("message_id", msg.ID.String()),
		slog.String("from", msg.From),
		slog.String("category", string(msg.Category)),
		slog.Int("priority", int(msg.Priority)))

	return msg, nil
}

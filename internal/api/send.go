package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
)

type sendRequest struct {
	From              string            `json:"from"`
	To                []string          `json:"to"`
	Cc                []string          `json:"cc,omitempty"`
	Bcc               []string          `json:"bcc,omitempty"`
	ReplyTo           string            `json:"reply_to,omitempty"`
	Subject           string            `json:"subject,omitempty"`
	HTMLBody          string            `json:"html_body,omitempty"`
	TextBody          string            `json:"text_body,omitempty"`
	TemplateID        string            `json:"template_id,omitempty"`
	TemplateVariables map[string]string `json:"template_variables,omitempty"`
	Category          string            `json:"category,omitempty"`
	Priority          int               `json:"priority,omitempty"`
}

// handleSend accepts a message into the outbox. Acceptance is asynchronous:
// a 202 means the message is durably queued, not that it was dispatched.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	msg, err := h.Enqueuer.Enqueue(r.Context(), outbox.EnqueueParams{
		From:              req.From,
		To:                req.To,
		Cc:                req.Cc,
		Bcc:               req.Bcc,
		ReplyTo:           req.ReplyTo,
		Subject:           req.Subject,
		HTMLBody:          req.HTMLBody,
		TextBody:          req.TextBody,
		TemplateID:        req.TemplateID,
		TemplateVariables: req.TemplateVariables,
		Category:          mailer.Category(req.Category),
		Priority:          mailer.Priority(req.Priority),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"id":     msg.ID,
		"status": msg.Status,
	})
}

// handleCancel cancels a pending message. Cancellation is local-authoritative;
// the provider-side cancel is attempted best-effort by the canceler.
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := h.Canceler.Cancel(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	h.Log.InfoContext(r.Context(), "message canceled", slog.String("message_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": mailer.StatusCanceled})
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/reconciler"
	"github.com/dmitrymomot/mailroom/pkg/signature"
)

// maxWebhookBody bounds how much of a webhook request is read.
const maxWebhookBody = 1 << 20

// webhookPayload is the provider's event envelope. Event types arrive as
// "email.<type>".
type webhookPayload struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      struct {
		EmailID   string `json:"email_id"`
		CreatedAt string `json:"created_at"`
		Click     struct {
			IPAddress string `json:"ipAddress"`
			UserAgent string `json:"userAgent"`
		} `json:"click"`
	} `json:"data"`
}

// handleWebhook verifies and applies one provider event. Duplicates and
// events for unknown messages are acknowledged with 2xx so the provider stops
// retrying; only malformed requests are rejected.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if h.Verifier != nil {
		if err := h.Verifier.VerifyRequest(r, body); err != nil {
			if errors.Is(err, signature.ErrMissingHeaders) ||
				errors.Is(err, signature.ErrInvalidTimestamp) ||
				errors.Is(err, signature.ErrExpiredTimestamp) ||
				errors.Is(err, signature.ErrInvalidSignature) {
				respondError(w, http.StatusBadRequest, "signature verification failed")
				return
			}
			respondServiceError(w, err)
			return
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	eventType := mailer.EventType(strings.TrimPrefix(payload.Type, "email."))
	if payload.Data.EmailID == "" || !eventType.Valid() {
		respondError(w, http.StatusBadRequest, "unknown event type or missing email id")
		return
	}

	occurredAt := payload.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	result, err := h.Reconciler.Apply(r.Context(), payload.Data.EmailID, eventType,
		occurredAt, body, reconciler.Meta{
			IPAddress: payload.Data.Click.IPAddress,
			UserAgent: payload.Data.Click.UserAgent,
		})
	if err != nil {
		if errors.Is(err, reconciler.ErrUnknownEventType) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, err)
		return
	}

	h.Log.InfoContext(r.Context(), "webhook event processed",
		slog.String("event_type", string(eventType)),
		slog.String("provider_message_id", payload.Data.EmailID),
		slog.String("outcome", string(result.Outcome)))

	respondJSON(w, http.StatusOK, map[string]any{
		"outcome": result.Outcome,
		"reason":  result.Reason,
	})
}

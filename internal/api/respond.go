package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/mailroom/pkg/domains"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
	"github.com/dmitrymomot/mailroom/pkg/stats"
	"github.com/dmitrymomot/mailroom/pkg/template"
	"github.com/dmitrymomot/mailroom/pkg/vault"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps sentinel errors from the service layer onto HTTP
// statuses. Validation errors carry their field map through to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *outbox.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, outbox.ErrMessageNotFound),
		errors.Is(err, domains.ErrDomainNotFound),
		errors.Is(err, vault.ErrCredentialNotFound),
		errors.Is(err, template.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, outbox.ErrNotCancelable):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, vault.ErrRequires2FA):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, vault.ErrDenied):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, vault.ErrNameRequired),
		errors.Is(err, vault.ErrValueRequired),
		errors.Is(err, stats.ErrInvalidGroupBy),
		errors.Is(err, template.ErrInvalidTemplate):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

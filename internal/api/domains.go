package api

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// handleDomains lists sending domains, or one domain with ?domain=.
func (h *Handler) handleDomains(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("domain"); name != "" {
		domain, err := h.Domains.Status(r.Context(), name)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, domain)
		return
	}

	list, err := h.Domains.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []mailer.Domain{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"domains": list})
}

// handleDomainVerify triggers a provider-side DNS recheck for one domain.
func (h *Handler) handleDomainVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Domain == "" {
		respondError(w, http.StatusBadRequest, "domain is required")
		return
	}

	domain, err := h.Domains.Verify(r.Context(), req.Domain)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain)
}

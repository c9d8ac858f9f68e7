package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/vault"
)

// handleVaultStore stores a credential. When 2FA is requested the response
// carries the one-time enrollment URI and QR code.
func (h *Handler) handleVaultStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Type        string `json:"type,omitempty"`
		Value       string `json:"value"`
		Requires2FA bool   `json:"requires_2fa,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	cred, enrollment, err := h.Vault.Store(r.Context(), vault.StoreParams{
		Name:        req.Name,
		Type:        vault.CredentialType(req.Type),
		Value:       req.Value,
		Requires2FA: req.Requires2FA,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := map[string]any{"credential": cred}
	if enrollment != nil {
		resp["enrollment"] = enrollment
	}
	respondJSON(w, http.StatusCreated, resp)
}

// handleVaultList returns stored credentials without values.
func (h *Handler) handleVaultList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Vault.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []vault.Credential{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"credentials": list})
}

// handleVaultRetrieve decrypts one credential value, verifying the 2FA code
// when the credential demands one.
func (h *Handler) handleVaultRetrieve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid credential id")
		return
	}

	var req struct {
		Code string `json:"code,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed json body")
			return
		}
	}

	value, err := h.Vault.Retrieve(r.Context(), id, req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"value": value})
}

func (h *Handler) handleVaultRotate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid credential id")
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	cred, err := h.Vault.Rotate(r.Context(), id, req.Value)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"credential": cred})
}

func (h *Handler) handleVaultDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid credential id")
		return
	}

	if err := h.Vault.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

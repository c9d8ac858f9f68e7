package api

import (
	"encoding/json"
	"net/http"
)

// handleTemplatesList returns all registered templates.
func (h *Handler) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"templates": h.Templates.All()})
}

// handleTemplateRender renders one template with the supplied variables,
// without enqueueing anything. Useful for previewing.
func (h *Handler) handleTemplateRender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string            `json:"template_id"`
		Variables  map[string]string `json:"variables,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TemplateID == "" {
		respondError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	rendered, err := h.Templates.Render(req.TemplateID, req.Variables)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rendered)
}

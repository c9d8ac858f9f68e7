package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/internal/repository"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/stats"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleHistory lists sent and queued messages newest first. With
// ?stats=true&groupBy= the same window is returned aggregated instead.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseDate(q.Get("startDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid startDate, expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(q.Get("endDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid endDate, expected YYYY-MM-DD")
		return
	}
	if !end.IsZero() {
		// Make the end date inclusive of its whole day.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	if q.Get("stats") == "true" {
		h.handleStats(w, r, start, end, q.Get("groupBy"))
		return
	}

	filter := repository.HistoryFilter{
		Status:   mailer.Status(q.Get("status")),
		Category: mailer.Category(q.Get("category")),
		From:     q.Get("from"),
		Start:    start,
		End:      end,
		Limit:    parseInt(q.Get("limit"), defaultHistoryLimit),
		Offset:   parseInt(q.Get("offset"), 0),
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if filter.Category != "" && !filter.Category.Valid() {
		respondError(w, http.StatusBadRequest, "unknown category filter")
		return
	}

	messages, err := h.History.ListMessages(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []mailer.Message{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request, start, end time.Time, groupBy string) {
	if groupBy == "" {
		groupBy = string(stats.GroupByDay)
	}

	rows, err := h.Stats.Stats(r.Context(), stats.Filter{
		Start:   start,
		End:     end,
		GroupBy: stats.GroupBy(groupBy),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []stats.Row{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"group_by": groupBy,
		"rows":     rows,
	})
}

// handleMessage returns one message by id.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.History.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// Package api exposes the mailroom HTTP surface: enqueue and cancel, history
// and stats, domain verification, template rendering, the provider webhook
// sink and the credential vault routes.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/internal/repository"
	"github.com/dmitrymomot/mailroom/pkg/domains"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
	"github.com/dmitrymomot/mailroom/pkg/ratelimiter"
	"github.com/dmitrymomot/mailroom/pkg/reconciler"
	"github.com/dmitrymomot/mailroom/pkg/signature"
	"github.com/dmitrymomot/mailroom/pkg/stats"
	"github.com/dmitrymomot/mailroom/pkg/template"
	"github.com/dmitrymomot/mailroom/pkg/vault"
)

// HistoryStorage lists stored messages for the history endpoint.
type HistoryStorage interface {
	ListMessages(ctx context.Context, filter repository.HistoryFilter) ([]mailer.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (mailer.Message, error)
}

// Handler carries the services behind the HTTP surface. Nil optional fields
// disable their routes.
type Handler struct {
	Enqueuer    *outbox.Enqueuer
	Canceler    *outbox.Canceler
	History     HistoryStorage
	Stats       *stats.Service
	Domains     *domains.Service
	Templates   *template.Registry
	Reconciler  *reconciler.Reconciler
	Verifier    *signature.Verifier
	Vault       *vault.Vault
	Healthcheck func(context.Context) error
	RateLimiter ratelimiter.Limiter
	Log         *slog.Logger
}

// Router builds the chi mux with all enabled routes mounted.
func (h *Handler) Router() *chi.Mux {
	if h.Log == nil {
		h.Log = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.handleHealth)

	r.Route("/email", func(r chi.Router) {
		send := http.HandlerFunc(h.handleSend)
		if h.RateLimiter != nil {
			r.With(ratelimiter.Middleware(h.RateLimiter, ratelimiter.SenderKey)).
				Post("/send", send)
		} else {
			r.Post("/send", send)
		}
		r.Delete("/{id}", h.handleCancel)
		r.Get("/history", h.handleHistory)
		r.Get("/history/{id}", h.handleMessage)
		r.Get("/domains", h.handleDomains)
		r.Post("/domains/verify", h.handleDomainVerify)
		r.Get("/templates", h.handleTemplatesList)
		r.Post("/templates", h.handleTemplateRender)
	})

	r.Post("/webhooks/resend", h.handleWebhook)

	if h.Vault != nil {
		r.Route("/vault/credentials", func(r chi.Router) {
			r.Post("/", h.handleVaultStore)
			r.Get("/", h.handleVaultList)
			r.Post("/{id}/retrieve", h.handleVaultRetrieve)
			r.Post("/{id}/rotate", h.handleVaultRotate)
			r.Delete("/{id}", h.handleVaultDelete)
		})
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Healthcheck != nil {
		if err := h.Healthcheck(r.Context()); err != nil {
			h.Log.ErrorContext(r.Context(), "healthcheck failed",
				slog.String("error", err.Error()))
			respondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

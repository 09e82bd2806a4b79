// Package chi is the demo registration/event-submission HTTP surface
// (spec.md §1 names this out of core scope). It is kept thin: a handful
// of handlers wired onto a chi.Mux with go-chi/httplog request logging,
// mirroring the teacher's internal/http/chi.Handlers wiring.
package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/timothy-choi/HookHub/hook"
)

// Server bundles the collaborators the HTTP surface needs: the
// registration/event use case and the repository backing the read-only
// and operator endpoints.
type Server struct {
	UseCase hook.UseCase
	Repo    hook.Repository
}

// Handlers builds the chi.Mux exposing the registration/event-submission
// demo surface, the way the teacher's Handlers/WebhookHandlers build theirs.
func Handlers(s *Server) *chi.Mux {
	logger := httplog.NewLogger("hookhub-api", httplog.Options{JSON: true})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", healthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhooks", s.registerWebhook)
		r.Get("/webhooks", s.listWebhooks)
		r.Get("/webhooks/{webhook_id}/health", s.webhookHealth)
		r.Post("/webhooks/{webhook_id}/reset", s.resetBreaker)
		r.Post("/webhooks/{webhook_id}/resume", s.resumePausedEvents)
		r.Post("/webhooks/{webhook_id}/events", s.receiveEvent)
		r.Post("/events/{event_id}/resume", s.resumeEvent)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timothy-choi/HookHub/breaker"
	"github.com/timothy-choi/HookHub/diagnostics"
	"github.com/timothy-choi/HookHub/hook"
)

const recentClassificationWindow = 20

// healthResponse is the HTTP-facing projection of diagnostics.HealthSummary.
type healthResponse struct {
	WebhookID       string   `json:"webhook_id"`
	SuccessRate     float64  `json:"success_rate"`
	CircuitState    string   `json:"circuit_state"`
	RecentErrors    []string `json:"recent_errors"`
	Recommendations []string `json:"recommendations"`
}

// webhookHealth handles GET /v1/webhooks/{webhook_id}/health, exposing
// diagnostics.Summarize (which includes diagnostics.Recommend) read-only.
func (s *Server) webhookHealth(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhook_id")
	ctx := r.Context()

	wh, err := s.Repo.Webhooks().FindByID(ctx, webhookID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	classifications, err := s.Repo.Classifications().FindByWebhookIDOrderByCreatedAtDesc(ctx, webhookID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summary := diagnostics.Summarize(wh, classifications, recentClassificationWindow)

	writeJSON(w, http.StatusOK, healthResponse{
		WebhookID:       summary.WebhookID,
		SuccessRate:     summary.SuccessRate,
		CircuitState:    summary.CircuitState.String(),
		RecentErrors:    summary.RecentErrors,
		Recommendations: summary.Recommendations,
	})
}

// resetBreaker handles POST /v1/webhooks/{webhook_id}/reset, the operator
// intervention spec.md §4.4 names as the breaker's reset operation.
func (s *Server) resetBreaker(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhook_id")
	ctx := r.Context()

	wh, err := s.Repo.Webhooks().FindByID(ctx, webhookID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	wh = breaker.Reset(wh)
	if err := s.Repo.Webhooks().Save(ctx, wh); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		ID:           wh.ID,
		URL:          wh.URL,
		CircuitState: wh.CircuitState.String(),
	})
}

// resumeEvent handles POST /v1/events/{event_id}/resume, flipping a
// single PAUSED event back to PENDING via hook.Service.Resume.
func (s *Server) resumeEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")

	if err := s.UseCase.Resume(r.Context(), eventID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// resumePausedEvents handles POST /v1/webhooks/{webhook_id}/resume,
// resuming every PAUSED event currently stored against that webhook.
func (s *Server) resumePausedEvents(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhook_id")
	ctx := r.Context()

	events, err := s.Repo.Events().FindByWebhookID(ctx, webhookID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resumed := 0
	for _, ev := range events {
		if ev.Status != hook.Paused {
			continue
		}
		if err := s.UseCase.Resume(ctx, ev.ID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resumed++
	}

	writeJSON(w, http.StatusOK, map[string]int{"resumed": resumed})
}

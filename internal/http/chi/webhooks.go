package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// webhookRequest is the registration request body.
type webhookRequest struct {
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// webhookResponse is the HTTP-facing projection of hook.Webhook.
type webhookResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	CircuitState string `json:"circuit_state"`
}

// eventResponse is the HTTP-facing projection of hook.Event.
type eventResponse struct {
	ID         string `json:"event_id"`
	WebhookID  string `json:"webhook_id"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
}

func (s *Server) registerWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wh, err := s.UseCase.RegisterWebhook(r.Context(), req.URL, req.Metadata)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, webhookResponse{
		ID:           wh.ID,
		URL:          wh.URL,
		CircuitState: wh.CircuitState.String(),
	})
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := s.Repo.Webhooks().FindAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	responses := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		responses = append(responses, webhookResponse{
			ID:           wh.ID,
			URL:          wh.URL,
			CircuitState: wh.CircuitState.String(),
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) receiveEvent(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhook_id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	maxRetries := 5
	if raw := r.URL.Query().Get("max_retries"); raw != "" {
		if parsed, scanErr := strconv.Atoi(raw); scanErr == nil {
			maxRetries = parsed
		}
	}

	ev, err := s.UseCase.Receive(r.Context(), webhookID, body, maxRetries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, eventResponse{
		ID:         ev.ID,
		WebhookID:  ev.WebhookID,
		Status:     ev.Status.String(),
		RetryCount: ev.RetryCount,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

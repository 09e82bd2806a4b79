package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/timothy-choi/HookHub/hook"
)

// AdvisorConfig tunes the optional remote-advisor tier (spec.md §4.5/§6).
type AdvisorConfig struct {
	URL                 string
	Enabled             bool
	Timeout             time.Duration
	ConfidenceThreshold float64
}

// DefaultAdvisorConfig mirrors spec.md §6's defaults, with the advisor
// disabled until a URL is configured.
func DefaultAdvisorConfig() AdvisorConfig {
	return AdvisorConfig{Enabled: true, Timeout: 5 * time.Second, ConfidenceThreshold: 0.6}
}

type errorSignature struct {
	HTTPStatusCode      int    `json:"http_status_code"`
	ErrorType           string `json:"error_type"`
	ErrorMessagePattern string `json:"error_message_pattern"`
}

type webhookHealth struct {
	WebhookID           string `json:"webhook_id"`
	TotalFailures       int64  `json:"total_failures"`
	TotalSuccesses      int64  `json:"total_successes"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	CircuitBreakerState string `json:"circuit_breaker_state"`
}

type advisorRequest struct {
	ErrorSignature    errorSignature `json:"error_signature"`
	RetryCount        int            `json:"retry_count"`
	RecentFailureRate float64        `json:"recent_failure_rate"`
	WebhookHealth     webhookHealth  `json:"webhook_health"`
}

type advisorEvidence struct {
	SampleSize       int      `json:"sample_size"`
	SuccessRate      float64  `json:"success_rate"`
	DecisionType     string   `json:"decision_type"`
	SimilarityScore  *float64 `json:"similarity_score,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score"`
}

type advisorResponse struct {
	Decision        string          `json:"decision"`
	ConfidenceScore float64         `json:"confidence_score"`
	Explanation     string          `json:"explanation"`
	FallbackUsed    bool            `json:"fallback_used"`
	Evidence        advisorEvidence `json:"evidence"`
}

// Context carries the webhook-health signal the advisor and rule engine
// both consult (spec.md §4.5's context record).
type Context struct {
	RetryCount          int
	RecentFailureRate   float64
	WebhookID           string
	TotalFailures       int64
	TotalSuccesses      int64
	ConsecutiveFailures int
	CircuitBreakerState hook.CircuitState
}

// Advisor calls the remote classification advisor over HTTP+JSON.
type Advisor struct {
	cfg        AdvisorConfig
	httpClient *http.Client
}

// NewAdvisor builds an Advisor honouring cfg.Timeout.
func NewAdvisor(cfg AdvisorConfig) *Advisor {
	return &Advisor{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

// Consult asks the remote advisor for a decision. It returns ok=false
// whenever the call should fall back to the rule engine: the advisor is
// disabled, the URL is unset, the call failed, the response didn't parse,
// or confidence fell below the configured threshold (spec.md §4.5/§6).
func (a *Advisor) Consult(ctx context.Context, statusCode int, errorType ErrorType, errorMessage string, hc Context) (decision hook.Decision, explanation string, ok bool) {
	if !a.cfg.Enabled || a.cfg.URL == "" {
		return 0, "", false
	}

	reqBody := advisorRequest{
		ErrorSignature: errorSignature{
			HTTPStatusCode:      statusCode,
			ErrorType:           string(errorType),
			ErrorMessagePattern: errorMessage,
		},
		RetryCount:        hc.RetryCount,
		RecentFailureRate: hc.RecentFailureRate,
		WebhookHealth: webhookHealth{
			WebhookID:           hc.WebhookID,
			TotalFailures:       hc.TotalFailures,
			TotalSuccesses:      hc.TotalSuccesses,
			ConsecutiveFailures: hc.ConsecutiveFailures,
			CircuitBreakerState: hc.CircuitBreakerState.String(),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, "", false
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", false
	}

	var out advisorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, "", false
	}

	if out.ConfidenceScore < a.cfg.ConfidenceThreshold {
		return 0, "", false
	}

	decision, parsed := hook.ParseDecision(out.Decision)
	if !parsed {
		return 0, "", false
	}

	explanation = out.Explanation
	if explanation == "" {
		explanation = fmt.Sprintf("advisor decision %s (confidence %.2f)", decision, out.ConfidenceScore)
	}
	return decision, explanation, true
}

// Package diagnostics turns classifier output and endpoint counters into
// human-facing explanations, health summaries and recommendations
// (spec.md §4.6). Every function here is pure: no I/O, no repository
// access — callers supply the counts and classification history.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/hook"
)

// FailureExplanation renders a one-line human explanation for a single
// failed delivery attempt, keyed primarily on HTTP status and decision.
func FailureExplanation(statusCode int, decision hook.Decision, explanation string) string {
	if explanation != "" {
		return fmt.Sprintf("[%s] status=%d: %s", decision, statusCode, explanation)
	}
	return fmt.Sprintf("[%s] status=%d", decision, statusCode)
}

// HealthSummary is the per-webhook diagnostic snapshot.
type HealthSummary struct {
	WebhookID       string
	SuccessRate     float64
	CircuitState    hook.CircuitState
	RecentErrors    []string
	Recommendations []string
}

// Summarize builds a HealthSummary from the webhook's counters and its
// most recent classification rows (newest first). recentN bounds how many
// error lines are surfaced (spec.md §4.6 calls for "up to the last N").
func Summarize(wh hook.Webhook, recentClassifications []hook.ErrorClassification, recentN int) HealthSummary {
	total := wh.TotalSuccesses + wh.TotalFailures
	successRate := 0.0
	if total > 0 {
		successRate = float64(wh.TotalSuccesses) / float64(total)
	}

	errorLines := make([]string, 0, recentN)
	for i, c := range recentClassifications {
		if i >= recentN {
			break
		}
		errorLines = append(errorLines, FailureExplanation(c.HTTPStatusCode, c.Decision, c.Explanation))
	}

	return HealthSummary{
		WebhookID:       wh.ID,
		SuccessRate:     successRate,
		CircuitState:    wh.CircuitState,
		RecentErrors:    errorLines,
		Recommendations: Recommend(wh.CircuitState, last(recentClassifications, 10)),
	}
}

// Recommend derives operator recommendations from the breaker state and
// simple counts over the last 10 classifications, per spec.md §4.6:
//   - ≥3 AUTH_* errors -> suggest credential review
//   - ≥2 RATE_LIMIT errors -> suggest backoff on the subscriber side
//   - ≥5 SERVER_ERROR errors -> suggest a subscriber health check
//   - breaker OPEN -> note the endpoint is temporarily disabled
func Recommend(circuitState hook.CircuitState, recent []hook.ErrorClassification) []string {
	var authCount, rateLimitCount, serverErrorCount int
	for _, c := range recent {
		switch {
		case strings.HasPrefix(c.ErrorType, "AUTH_"):
			authCount++
		case c.ErrorType == string(classify.ErrorTypeRateLimit):
			rateLimitCount++
		case c.ErrorType == string(classify.ErrorTypeServerError):
			serverErrorCount++
		}
	}

	var recs []string
	if authCount >= 3 {
		recs = append(recs, "repeated authentication failures: review the subscriber's credentials")
	}
	if rateLimitCount >= 2 {
		recs = append(recs, "repeated rate limiting: ask the subscriber to back off or raise their limit")
	}
	if serverErrorCount >= 5 {
		recs = append(recs, "repeated server errors: check the subscriber endpoint's health")
	}
	if circuitState == hook.Open {
		recs = append(recs, "circuit breaker is open: this endpoint is temporarily disabled")
	}
	return recs
}

func last(items []hook.ErrorClassification, n int) []hook.ErrorClassification {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

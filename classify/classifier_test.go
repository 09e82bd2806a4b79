package classify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/hook"
)

func TestClassifierFallsBackToRuleEngineWithoutAdvisor(t *testing.T) {
	c := classify.New(nil, classify.DefaultRules())

	decision, explanation, errorType := c.Classify(context.Background(), 429, "rate limited", classify.Context{})

	assert.Equal(t, hook.Retry, decision)
	assert.NotEmpty(t, explanation)
	assert.Equal(t, classify.ErrorTypeRateLimit, errorType)
}

func TestClassifierPrefersAdvisorWhenConfident(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"decision":         "ESCALATE",
			"confidence_score": 0.8,
			"explanation":      "novel failure pattern",
		})
	}))
	defer srv.Close()

	advisor := classify.NewAdvisor(classify.AdvisorConfig{URL: srv.URL, Enabled: true, Timeout: time.Second, ConfidenceThreshold: 0.6})
	c := classify.New(advisor, classify.DefaultRules())

	decision, explanation, _ := c.Classify(context.Background(), 500, "weird error", classify.Context{})

	assert.Equal(t, hook.Escalate, decision)
	assert.Equal(t, "novel failure pattern", explanation)
}

func TestClassifierFallsBackWhenAdvisorUnavailable(t *testing.T) {
	advisor := classify.NewAdvisor(classify.AdvisorConfig{URL: "http://127.0.0.1:1", Enabled: true, Timeout: 200 * time.Millisecond, ConfidenceThreshold: 0.6})
	c := classify.New(advisor, classify.DefaultRules())

	decision, _, _ := c.Classify(context.Background(), 404, "not found", classify.Context{})

	assert.Equal(t, hook.FailPermanent, decision)
}

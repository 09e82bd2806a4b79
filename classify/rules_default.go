package classify

import "github.com/timothy-choi/HookHub/hook"

func intPtr(v int) *int { return &v }

// DefaultRules is the rule table spec.md §4.5 prescribes as the fallback
// rule engine's default configuration. Operators may override this list
// entirely via error.classification.rules (see config.LoadClassificationRules).
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:                "rate-limit",
			ExactStatusCode:     intPtr(429),
			Decision:            hook.Retry,
			ExplanationTemplate: "rate limited by endpoint (status {statusCode}); retrying with backoff",
			Priority:            100,
			Enabled:             true,
		},
		{
			Name:                "unauthorized",
			ExactStatusCode:     intPtr(401),
			Decision:            hook.FailPermanent,
			ExplanationTemplate: "endpoint rejected credentials (status {statusCode}); not retrying",
			Priority:            90,
			Enabled:             true,
		},
		{
			Name:                "forbidden",
			ExactStatusCode:     intPtr(403),
			Decision:            hook.FailPermanent,
			ExplanationTemplate: "endpoint forbade the request (status {statusCode}); not retrying",
			Priority:            90,
			Enabled:             true,
		},
		{
			Name:                "not-found",
			ExactStatusCode:     intPtr(404),
			Decision:            hook.FailPermanent,
			ExplanationTemplate: "endpoint not found (status {statusCode}); not retrying",
			Priority:            90,
			Enabled:             true,
		},
		{
			Name:                "bad-request",
			ExactStatusCode:     intPtr(400),
			Decision:            hook.FailPermanent,
			ExplanationTemplate: "endpoint rejected the payload (status {statusCode}); not retrying",
			Priority:            90,
			Enabled:             true,
		},
		{
			Name:                "pause-webhook",
			ExactStatusCode:     intPtr(451),
			Decision:            hook.PauseWebhook,
			ExplanationTemplate: "endpoint unavailable for legal reasons (status {statusCode}); pausing webhook",
			Priority:            90,
			Enabled:             true,
		},
		{
			Name:                "request-timeout",
			ExactStatusCode:     intPtr(408),
			Decision:            hook.Retry,
			ExplanationTemplate: "request timed out at the endpoint (status {statusCode}); retrying",
			Priority:            80,
			Enabled:             true,
		},
		{
			Name:                "network-error",
			StatusCodeMax:       intPtr(0),
			Decision:            hook.Retry,
			ExplanationTemplate: "transport failure before a response was received ({errorMessage}); retrying",
			Priority:            70,
			Enabled:             true,
		},
		{
			Name:                "server-error",
			StatusCodeMin:       intPtr(500),
			StatusCodeMax:       intPtr(599),
			Decision:            hook.Retry,
			ExplanationTemplate: "endpoint returned a server error (status {statusCode}); retrying",
			Priority:            50,
			Enabled:             true,
		},
		{
			Name:                "client-error",
			StatusCodeMin:       intPtr(400),
			StatusCodeMax:       intPtr(499),
			Decision:            hook.FailPermanent,
			ExplanationTemplate: "endpoint returned a client error (status {statusCode}); not retrying",
			Priority:            10,
			Enabled:             true,
		},
	}
}

package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/timothy-choi/HookHub/classify"
)

func TestDeriveErrorType(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		message    string
		want       classify.ErrorType
	}{
		{"rate limit", 429, "", classify.ErrorTypeRateLimit},
		{"server error", 503, "", classify.ErrorTypeServerError},
		{"unauthorized", 401, "", classify.ErrorTypeAuthError},
		{"forbidden", 403, "", classify.ErrorTypeAuthError},
		{"client error", 404, "", classify.ErrorTypeClientError},
		{"timeout", 0, "dial tcp: i/o timeout", classify.ErrorTypeTimeout},
		{"dns", 0, "no such host: DNS lookup failed", classify.ErrorTypeDNS},
		{"network", 0, "connection refused", classify.ErrorTypeNetwork},
		{"unknown", 100, "", classify.ErrorTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify.DeriveErrorType(tc.statusCode, tc.message)
			assert.Equal(t, tc.want, got)
		})
	}
}

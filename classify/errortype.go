package classify

import "strings"

// ErrorType buckets a failed delivery for classification and diagnostics
// (spec.md §4.5).
type ErrorType string

const (
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeServerError ErrorType = "SERVER_ERROR"
	ErrorTypeAuthError   ErrorType = "AUTH_ERROR"
	ErrorTypeClientError ErrorType = "CLIENT_ERROR"
	ErrorTypeTimeout     ErrorType = "TIMEOUT_ERROR"
	ErrorTypeDNS         ErrorType = "DNS_ERROR"
	ErrorTypeNetwork     ErrorType = "NETWORK_ERROR"
	ErrorTypeUnknown     ErrorType = "UNKNOWN_ERROR"
)

// DeriveErrorType maps a DeliveryResult's status code and message onto an
// ErrorType per spec.md §4.5's derivation table.
func DeriveErrorType(statusCode int, errorMessage string) ErrorType {
	switch {
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuthError
	case statusCode > 0 && statusCode >= 400:
		return ErrorTypeClientError
	case statusCode <= 0 && strings.Contains(strings.ToLower(errorMessage), "timeout"):
		return ErrorTypeTimeout
	case statusCode <= 0 && strings.Contains(strings.ToLower(errorMessage), "dns"):
		return ErrorTypeDNS
	case statusCode <= 0:
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

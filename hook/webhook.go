package hook

import "time"

/* Webhook represents a registered subscriber endpoint
 * Uses value semantics as it represents data, not behavior.
 * The health fields (CircuitState..IsDisabled) are owned exclusively by
 * the delivery worker; the registration surface only sets URL/Metadata
 * and reads the rest.
 */
type Webhook struct {
	ID       string
	URL      string
	Metadata map[string]string

	CircuitState        CircuitState
	ConsecutiveFailures int
	CircuitOpenedAt     *time.Time
	LastFailureTime     *time.Time
	TotalSuccesses      int64
	TotalFailures       int64
	HalfOpenTestCount   int
	PausedUntil         *time.Time
	IsDisabled          bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPaused reports whether the webhook is currently inside its pause window.
func (w Webhook) IsPaused(now time.Time) bool {
	return w.PausedUntil != nil && w.PausedUntil.After(now)
}

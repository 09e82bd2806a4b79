package hook

import "time"

/* Event represents a single deliverable payload bound to a webhook
 * Uses value semantics as it represents data, not behavior
 */
type Event struct {
	ID         string
	WebhookID  string
	Payload    []byte
	Status     Status
	RetryCount int
	MaxRetries int

	LastError   string
	NextAttempt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

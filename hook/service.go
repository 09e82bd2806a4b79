package hook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Service represents the business logic layer for registering webhooks and
 * accepting events. This is the "external collaborator" spec.md §1 treats
 * as out of scope for the delivery core: it only has to persist the
 * webhook/event and hand the event to the queue before returning.
 * Uses pointer semantics as it's an API, not data.
 */

// UseCase defines the operations the registration surface needs from the core.
type UseCase interface {
	RegisterWebhook(ctx context.Context, url string, metadata map[string]string) (Webhook, error)
	Receive(ctx context.Context, webhookID string, payload []byte, maxRetries int) (Event, error)
	Resume(ctx context.Context, eventID string) error
}

// Enqueuer is the subset of the queue contract the service needs to hand off
// newly accepted events; kept minimal so hook does not depend on package
// queue's concrete types.
type Enqueuer interface {
	Enqueue(event Event) bool
}

type Service struct {
	Repo  Repository
	Queue Enqueuer
}

// NewService creates a new registration service with dependency injection.
func NewService(repo Repository, queue Enqueuer) *Service {
	return &Service{Repo: repo, Queue: queue}
}

// RegisterWebhook stores a new webhook with health fields at their initial
// values (CLOSED, zero counters, no pause).
func (s *Service) RegisterWebhook(ctx context.Context, url string, metadata map[string]string) (Webhook, error) {
	if url == "" {
		return Webhook{}, fmt.Errorf("registering webhook: target url is required")
	}

	now := time.Now()
	wh := Webhook{
		ID:           uuid.New().String(),
		URL:          url,
		Metadata:     metadata,
		CircuitState: Closed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Repo.Webhooks().Save(ctx, wh); err != nil {
		return Webhook{}, fmt.Errorf("storing webhook: %w", err)
	}

	return wh, nil
}

// Receive accepts a new event bound to a webhook, persists it PENDING, and
// hands it to the queue. Per spec.md P1, the event must be durably
// persisted before this function hands it to the queue.
func (s *Service) Receive(ctx context.Context, webhookID string, payload []byte, maxRetries int) (Event, error) {
	if _, err := s.Repo.Webhooks().FindByID(ctx, webhookID); err != nil {
		return Event{}, fmt.Errorf("looking up webhook: %w", err)
	}

	now := time.Now()
	ev := Event{
		ID:         uuid.New().String(),
		WebhookID:  webhookID,
		Payload:    payload,
		Status:     Pending,
		RetryCount: 0,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Repo.Events().Save(ctx, ev); err != nil {
		return Event{}, fmt.Errorf("storing event: %w", err)
	}

	if !s.Queue.Enqueue(ev) {
		return Event{}, fmt.Errorf("enqueuing event: rejected")
	}

	return ev, nil
}

// Resume re-enters a PAUSED event into the PENDING state and re-enqueues it.
// This is the "external resume operation" spec.md §3/§4.7 names but leaves
// to an unspecified owner.
func (s *Service) Resume(ctx context.Context, eventID string) error {
	ev, err := s.Repo.Events().FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("looking up event: %w", err)
	}
	if ev.Status != Paused {
		return fmt.Errorf("resuming event %s: not paused (status=%s)", eventID, ev.Status)
	}

	ev.Status = Pending
	ev.UpdatedAt = time.Now()
	if err := s.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting resumed event: %w", err)
	}

	if !s.Queue.Enqueue(ev) {
		return fmt.Errorf("re-enqueuing resumed event: rejected")
	}

	return nil
}

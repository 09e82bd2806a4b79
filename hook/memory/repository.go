// Package memory implements hook.Repository with in-process maps, for
// demos, tests and the single-node quickstart. It has no durability and
// is never the right choice for a production delivery core.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/timothy-choi/HookHub/hook"
)

// Repository is an in-memory hook.Repository.
type Repository struct {
	mu              sync.RWMutex
	webhooks        map[string]hook.Webhook
	events          map[string]hook.Event
	classifications map[string][]hook.ErrorClassification
}

// New builds an empty Repository.
func New() *Repository {
	return &Repository{
		webhooks:        make(map[string]hook.Webhook),
		events:          make(map[string]hook.Event),
		classifications: make(map[string][]hook.ErrorClassification),
	}
}

func (r *Repository) Webhooks() hook.WebhookRepository           { return webhookRepo{r} }
func (r *Repository) Events() hook.EventRepository               { return eventRepo{r} }
func (r *Repository) Classifications() hook.ErrorClassificationRepository { return classificationRepo{r} }

type webhookRepo struct{ r *Repository }

func (w webhookRepo) FindByID(ctx context.Context, id string) (hook.Webhook, error) {
	w.r.mu.RLock()
	defer w.r.mu.RUnlock()
	wh, ok := w.r.webhooks[id]
	if !ok {
		return hook.Webhook{}, fmt.Errorf("webhook not found: %s", id)
	}
	return wh, nil
}

func (w webhookRepo) FindAll(ctx context.Context) ([]hook.Webhook, error) {
	w.r.mu.RLock()
	defer w.r.mu.RUnlock()
	webhooks := make([]hook.Webhook, 0, len(w.r.webhooks))
	for _, wh := range w.r.webhooks {
		webhooks = append(webhooks, wh)
	}
	return webhooks, nil
}

func (w webhookRepo) FindByURL(ctx context.Context, url string) (hook.Webhook, error) {
	w.r.mu.RLock()
	defer w.r.mu.RUnlock()
	for _, wh := range w.r.webhooks {
		if wh.URL == url {
			return wh, nil
		}
	}
	return hook.Webhook{}, fmt.Errorf("webhook not found for url: %s", url)
}

func (w webhookRepo) Save(ctx context.Context, wh hook.Webhook) error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	w.r.webhooks[wh.ID] = wh
	return nil
}

type eventRepo struct{ r *Repository }

func (e eventRepo) FindByID(ctx context.Context, id string) (hook.Event, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	ev, ok := e.r.events[id]
	if !ok {
		return hook.Event{}, fmt.Errorf("event not found: %s", id)
	}
	return ev, nil
}

func (e eventRepo) FindByWebhookID(ctx context.Context, webhookID string) ([]hook.Event, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	var events []hook.Event
	for _, ev := range e.r.events {
		if ev.WebhookID == webhookID {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (e eventRepo) FindByStatus(ctx context.Context, status hook.Status) ([]hook.Event, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	var events []hook.Event
	for _, ev := range e.r.events {
		if ev.Status == status {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (e eventRepo) Save(ctx context.Context, ev hook.Event) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	e.r.events[ev.ID] = ev
	return nil
}

type classificationRepo struct{ r *Repository }

func (c classificationRepo) Save(ctx context.Context, classification hook.ErrorClassification) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.classifications[classification.WebhookID] = append([]hook.ErrorClassification{classification}, c.r.classifications[classification.WebhookID]...)
	return nil
}

func (c classificationRepo) FindByWebhookIDOrderByCreatedAtDesc(ctx context.Context, webhookID string) ([]hook.ErrorClassification, error) {
	c.r.mu.RLock()
	defer c.r.mu.RUnlock()
	out := make([]hook.ErrorClassification, len(c.r.classifications[webhookID]))
	copy(out, c.r.classifications[webhookID])
	return out, nil
}

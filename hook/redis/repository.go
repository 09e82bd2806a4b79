// Package redis implements hook.Repository over Redis hashes, sets and
// lists, grounded on the teacher's webhook/redis.Repository (which used
// Redis hashes for webhook metadata and streams for queueing). Here
// Redis Streams are the queue's job (see queue/redis); this package only
// owns durable storage of webhooks, events and classification rows.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/timothy-choi/HookHub/hook"
)

const (
	webhookHashPrefix       = "hookhub:webhook"
	eventHashPrefix         = "hookhub:event"
	webhookIndexKey         = "hookhub:webhooks"
	webhookEventIndexPrefix = "hookhub:webhook-events"
	classificationListKey   = "hookhub:classifications"
)

// Repository is a Redis-backed hook.Repository.
type Repository struct {
	client *goredis.Client
}

// New wraps an existing Redis client. The caller owns the client's
// lifecycle (connection pooling, Close).
func New(client *goredis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Webhooks() hook.WebhookRepository           { return webhookRepo{r} }
func (r *Repository) Events() hook.EventRepository               { return eventRepo{r} }
func (r *Repository) Classifications() hook.ErrorClassificationRepository { return classificationRepo{r} }

type webhookRepo struct{ r *Repository }

func webhookKey(id string) string { return fmt.Sprintf("%s:%s", webhookHashPrefix, id) }

func (w webhookRepo) Save(ctx context.Context, wh hook.Webhook) error {
	metadataJSON, err := json.Marshal(wh.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling webhook metadata: %w", err)
	}

	fields := map[string]any{
		"id":                   wh.ID,
		"url":                  wh.URL,
		"metadata":             string(metadataJSON),
		"circuit_state":        wh.CircuitState.String(),
		"consecutive_failures": wh.ConsecutiveFailures,
		"total_successes":      wh.TotalSuccesses,
		"total_failures":       wh.TotalFailures,
		"half_open_test_count": wh.HalfOpenTestCount,
		"is_disabled":          wh.IsDisabled,
		"created_at":           wh.CreatedAt.Unix(),
		"updated_at":           wh.UpdatedAt.Unix(),
	}
	fields["circuit_opened_at"] = optionalUnix(wh.CircuitOpenedAt)
	fields["last_failure_time"] = optionalUnix(wh.LastFailureTime)
	fields["paused_until"] = optionalUnix(wh.PausedUntil)

	if err := w.r.client.HSet(ctx, webhookKey(wh.ID), fields).Err(); err != nil {
		return fmt.Errorf("storing webhook: %w", err)
	}
	if err := w.r.client.SAdd(ctx, webhookIndexKey, wh.ID).Err(); err != nil {
		return fmt.Errorf("indexing webhook: %w", err)
	}
	return nil
}

func (w webhookRepo) FindByID(ctx context.Context, id string) (hook.Webhook, error) {
	data, err := w.r.client.HGetAll(ctx, webhookKey(id)).Result()
	if err != nil {
		return hook.Webhook{}, fmt.Errorf("getting webhook: %w", err)
	}
	if len(data) == 0 {
		return hook.Webhook{}, fmt.Errorf("webhook not found: %s", id)
	}
	return decodeWebhook(data)
}

func (w webhookRepo) FindAll(ctx context.Context) ([]hook.Webhook, error) {
	ids, err := w.r.client.SMembers(ctx, webhookIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing webhook ids: %w", err)
	}
	webhooks := make([]hook.Webhook, 0, len(ids))
	for _, id := range ids {
		wh, err := w.FindByID(ctx, id)
		if err != nil {
			continue
		}
		webhooks = append(webhooks, wh)
	}
	return webhooks, nil
}

func (w webhookRepo) FindByURL(ctx context.Context, url string) (hook.Webhook, error) {
	all, err := w.FindAll(ctx)
	if err != nil {
		return hook.Webhook{}, err
	}
	for _, wh := range all {
		if wh.URL == url {
			return wh, nil
		}
	}
	return hook.Webhook{}, fmt.Errorf("webhook not found for url: %s", url)
}

func decodeWebhook(data map[string]string) (hook.Webhook, error) {
	metadata := map[string]string{}
	if raw := data["metadata"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return hook.Webhook{}, fmt.Errorf("unmarshaling webhook metadata: %w", err)
		}
	}

	return hook.Webhook{
		ID:                  data["id"],
		URL:                 data["url"],
		Metadata:            metadata,
		CircuitState:        hook.NewCircuitState(data["circuit_state"]),
		ConsecutiveFailures: parseInt(data["consecutive_failures"]),
		CircuitOpenedAt:     optionalTime(data["circuit_opened_at"]),
		LastFailureTime:     optionalTime(data["last_failure_time"]),
		TotalSuccesses:      parseInt64(data["total_successes"]),
		TotalFailures:       parseInt64(data["total_failures"]),
		HalfOpenTestCount:   parseInt(data["half_open_test_count"]),
		PausedUntil:         optionalTime(data["paused_until"]),
		IsDisabled:          data["is_disabled"] == "1" || data["is_disabled"] == "true",
		CreatedAt:           time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:           time.Unix(parseInt64(data["updated_at"]), 0),
	}, nil
}

type eventRepo struct{ r *Repository }

func eventKey(id string) string { return fmt.Sprintf("%s:%s", eventHashPrefix, id) }

func (e eventRepo) Save(ctx context.Context, ev hook.Event) error {
	fields := map[string]any{
		"id":          ev.ID,
		"webhook_id":  ev.WebhookID,
		"payload":     ev.Payload,
		"status":      ev.Status.String(),
		"retry_count": ev.RetryCount,
		"max_retries": ev.MaxRetries,
		"last_error":  ev.LastError,
		"created_at":  ev.CreatedAt.Unix(),
		"updated_at":  ev.UpdatedAt.Unix(),
	}
	fields["next_attempt"] = optionalUnix(ev.NextAttempt)

	if err := e.r.client.HSet(ctx, eventKey(ev.ID), fields).Err(); err != nil {
		return fmt.Errorf("storing event: %w", err)
	}
	indexKey := fmt.Sprintf("%s:%s", webhookEventIndexPrefix, ev.WebhookID)
	if err := e.r.client.SAdd(ctx, indexKey, ev.ID).Err(); err != nil {
		return fmt.Errorf("indexing event: %w", err)
	}
	return nil
}

func (e eventRepo) FindByID(ctx context.Context, id string) (hook.Event, error) {
	data, err := e.r.client.HGetAll(ctx, eventKey(id)).Result()
	if err != nil {
		return hook.Event{}, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return hook.Event{}, fmt.Errorf("event not found: %s", id)
	}
	return decodeEvent(data), nil
}

func (e eventRepo) FindByWebhookID(ctx context.Context, webhookID string) ([]hook.Event, error) {
	indexKey := fmt.Sprintf("%s:%s", webhookEventIndexPrefix, webhookID)
	ids, err := e.r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing event ids: %w", err)
	}
	events := make([]hook.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := e.FindByID(ctx, id)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (e eventRepo) FindByStatus(ctx context.Context, status hook.Status) ([]hook.Event, error) {
	ids, err := e.r.client.Keys(ctx, eventHashPrefix+":*").Result()
	if err != nil {
		return nil, fmt.Errorf("scanning events: %w", err)
	}
	var events []hook.Event
	for _, key := range ids {
		data, err := e.r.client.HGetAll(ctx, key).Result()
		if err != nil || len(data) == 0 {
			continue
		}
		ev := decodeEvent(data)
		if ev.Status == status {
			events = append(events, ev)
		}
	}
	return events, nil
}

func decodeEvent(data map[string]string) hook.Event {
	return hook.Event{
		ID:          data["id"],
		WebhookID:   data["webhook_id"],
		Payload:     []byte(data["payload"]),
		Status:      hook.NewStatus(data["status"]),
		RetryCount:  parseInt(data["retry_count"]),
		MaxRetries:  parseInt(data["max_retries"]),
		LastError:   data["last_error"],
		NextAttempt: optionalTime(data["next_attempt"]),
		CreatedAt:   time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:   time.Unix(parseInt64(data["updated_at"]), 0),
	}
}

type classificationRepo struct{ r *Repository }

func (c classificationRepo) Save(ctx context.Context, classification hook.ErrorClassification) error {
	payload, err := json.Marshal(classification)
	if err != nil {
		return fmt.Errorf("marshaling classification: %w", err)
	}
	key := fmt.Sprintf("%s:%s", classificationListKey, classification.WebhookID)
	if err := c.r.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("appending classification: %w", err)
	}
	return nil
}

func (c classificationRepo) FindByWebhookIDOrderByCreatedAtDesc(ctx context.Context, webhookID string) ([]hook.ErrorClassification, error) {
	key := fmt.Sprintf("%s:%s", classificationListKey, webhookID)
	raw, err := c.r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing classifications: %w", err)
	}
	classifications := make([]hook.ErrorClassification, 0, len(raw))
	for _, item := range raw {
		var classification hook.ErrorClassification
		if err := json.Unmarshal([]byte(item), &classification); err != nil {
			continue
		}
		classifications = append(classifications, classification)
	}
	return classifications, nil
}

func optionalUnix(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func optionalTime(raw string) *time.Time {
	v := parseInt64(raw)
	if v <= 0 {
		return nil
	}
	t := time.Unix(v, 0)
	return &t
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timothy-choi/HookHub/hook"
)

func TestRepositorySavesAndFindsWebhook(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	wh := hook.Webhook{
		ID:           "wh-1",
		URL:          "https://example.com/hook",
		Metadata:     map[string]string{"team": "payments"},
		CircuitState: hook.Closed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	require.NoError(t, repo.Webhooks().Save(ctx, wh))

	got, err := repo.Webhooks().FindByID(ctx, "wh-1")
	require.NoError(t, err)
	assert.Equal(t, wh.URL, got.URL)
	assert.Equal(t, wh.CircuitState, got.CircuitState)
	assert.Equal(t, "payments", got.Metadata["team"])
}

func TestRepositoryFindByURL(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	wh := hook.Webhook{ID: "wh-2", URL: "https://example.com/other", CircuitState: hook.Closed, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Webhooks().Save(ctx, wh))

	got, err := repo.Webhooks().FindByURL(ctx, "https://example.com/other")
	require.NoError(t, err)
	assert.Equal(t, "wh-2", got.ID)
}

func TestRepositoryUpdatesWebhookOnConflict(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	wh := hook.Webhook{ID: "wh-3", URL: "https://example.com/third", CircuitState: hook.Closed, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Webhooks().Save(ctx, wh))

	wh.CircuitState = hook.Open
	wh.ConsecutiveFailures = 5
	wh.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Webhooks().Save(ctx, wh))

	got, err := repo.Webhooks().FindByID(ctx, "wh-3")
	require.NoError(t, err)
	assert.Equal(t, hook.Open, got.CircuitState)
	assert.Equal(t, 5, got.ConsecutiveFailures)
}

func TestRepositorySavesAndFindsEvent(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Webhooks().Save(ctx, hook.Webhook{ID: "wh-4", URL: "https://example.com/four", CreatedAt: now, UpdatedAt: now}))

	ev := hook.Event{
		ID: "evt-1", WebhookID: "wh-4", Payload: []byte(`{"a":1}`), Status: hook.Pending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Events().Save(ctx, ev))

	got, err := repo.Events().FindByID(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, hook.Pending, got.Status)
	assert.Equal(t, []byte(`{"a":1}`), got.Payload)
}

func TestRepositoryFindEventsByWebhookIDAndStatus(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Webhooks().Save(ctx, hook.Webhook{ID: "wh-5", URL: "https://example.com/five", CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, repo.Events().Save(ctx, hook.Event{ID: "evt-a", WebhookID: "wh-5", Status: hook.Pending, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Events().Save(ctx, hook.Event{ID: "evt-b", WebhookID: "wh-5", Status: hook.Success, CreatedAt: now, UpdatedAt: now}))

	byWebhook, err := repo.Events().FindByWebhookID(ctx, "wh-5")
	require.NoError(t, err)
	assert.Len(t, byWebhook, 2)

	byStatus, err := repo.Events().FindByStatus(ctx, hook.Pending)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)
}

func TestRepositoryAppendsAndListsClassifications(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupPostgresRepository(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Webhooks().Save(ctx, hook.Webhook{ID: "wh-6", URL: "https://example.com/six", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Events().Save(ctx, hook.Event{ID: "evt-c", WebhookID: "wh-6", CreatedAt: now, UpdatedAt: now}))

	c1 := hook.ErrorClassification{ID: "c1", EventID: "evt-c", WebhookID: "wh-6", Decision: hook.Retry, HTTPStatusCode: 500, CreatedAt: now}
	c2 := hook.ErrorClassification{ID: "c2", EventID: "evt-c", WebhookID: "wh-6", Decision: hook.FailPermanent, HTTPStatusCode: 404, CreatedAt: now.Add(time.Second)}

	require.NoError(t, repo.Classifications().Save(ctx, c1))
	require.NoError(t, repo.Classifications().Save(ctx, c2))

	got, err := repo.Classifications().FindByWebhookIDOrderByCreatedAtDesc(ctx, "wh-6")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].ID)
}

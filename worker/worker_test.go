package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timothy-choi/HookHub/breaker"
	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/delivery"
	"github.com/timothy-choi/HookHub/hook"
	"github.com/timothy-choi/HookHub/queue/memory"
	"github.com/timothy-choi/HookHub/retry"
	"github.com/timothy-choi/HookHub/worker"
)

// fakeRepository is a hand-rolled in-memory hook.Repository used to drive
// the worker through full per-event procedures without a real database.
type fakeRepository struct {
	mu              sync.Mutex
	webhooks        map[string]hook.Webhook
	events          map[string]hook.Event
	classifications []hook.ErrorClassification
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{webhooks: map[string]hook.Webhook{}, events: map[string]hook.Event{}}
}

func (r *fakeRepository) Webhooks() hook.WebhookRepository           { return fakeWebhooks{r} }
func (r *fakeRepository) Events() hook.EventRepository               { return fakeEvents{r} }
func (r *fakeRepository) Classifications() hook.ErrorClassificationRepository { return fakeClassifications{r} }

func (r *fakeRepository) putWebhook(wh hook.Webhook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[wh.ID] = wh
}

func (r *fakeRepository) getWebhook(id string) (hook.Webhook, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wh, ok := r.webhooks[id]
	return wh, ok
}

func (r *fakeRepository) getEvent(id string) (hook.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	return ev, ok
}

type fakeWebhooks struct{ r *fakeRepository }

func (f fakeWebhooks) FindByID(ctx context.Context, id string) (hook.Webhook, error) {
	wh, ok := f.r.getWebhook(id)
	if !ok {
		return hook.Webhook{}, assert.AnError
	}
	return wh, nil
}

func (f fakeWebhooks) FindAll(ctx context.Context) ([]hook.Webhook, error) { return nil, nil }
func (f fakeWebhooks) FindByURL(ctx context.Context, url string) (hook.Webhook, error) {
	return hook.Webhook{}, assert.AnError
}
func (f fakeWebhooks) Save(ctx context.Context, wh hook.Webhook) error {
	f.r.putWebhook(wh)
	return nil
}

type fakeEvents struct{ r *fakeRepository }

func (f fakeEvents) FindByID(ctx context.Context, id string) (hook.Event, error) {
	ev, ok := f.r.getEvent(id)
	if !ok {
		return hook.Event{}, assert.AnError
	}
	return ev, nil
}
func (f fakeEvents) FindByWebhookID(ctx context.Context, webhookID string) ([]hook.Event, error) {
	return nil, nil
}
func (f fakeEvents) FindByStatus(ctx context.Context, status hook.Status) ([]hook.Event, error) {
	return nil, nil
}
func (f fakeEvents) Save(ctx context.Context, ev hook.Event) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.events[ev.ID] = ev
	return nil
}

type fakeClassifications struct{ r *fakeRepository }

func (f fakeClassifications) Save(ctx context.Context, c hook.ErrorClassification) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.classifications = append(f.r.classifications, c)
	return nil
}
func (f fakeClassifications) FindByWebhookIDOrderByCreatedAtDesc(ctx context.Context, webhookID string) ([]hook.ErrorClassification, error) {
	return nil, nil
}

func waitForStatus(t *testing.T, repo *fakeRepository, eventID string, want hook.Status, timeout time.Duration) hook.Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ev, ok := repo.getEvent(eventID); ok && ev.Status == want {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s never reached status %s", eventID, want)
	return hook.Event{}
}

func newTestWorker(repo *fakeRepository, q *memory.Queue, cfg worker.Config) *worker.Worker {
	return worker.New(
		repo,
		q,
		delivery.New(delivery.DefaultConfig()),
		retry.Policy{BaseDelay: 5 * time.Millisecond, MaxDelay: 20 * time.Millisecond, MaxRetries: 2},
		breaker.Params{FailureThreshold: 2, CooldownSeconds: 0, HalfOpenTestLimit: 1},
		classify.New(nil, classify.DefaultRules()),
		cfg,
		zerolog.Nop(),
	)
}

func TestWorkerDeliversSuccessfully(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := newFakeRepository()
	wh := hook.Webhook{ID: "wh-1", URL: srv.URL, CircuitState: hook.Closed}
	repo.putWebhook(wh)

	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "wh-1", Status: hook.Pending, MaxRetries: 2}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	got := waitForStatus(t, repo, "evt-1", hook.Success, time.Second)
	assert.Equal(t, hook.Success, got.Status)

	updatedWh, ok := repo.getWebhook("wh-1")
	require.True(t, ok)
	assert.EqualValues(t, 1, updatedWh.TotalSuccesses)
}

func TestWorkerRetriesOnServerErrorThenSucceeds(t *testing.T) {
	var attempts int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := newFakeRepository()
	repo.putWebhook(hook.Webhook{ID: "wh-1", URL: srv.URL, CircuitState: hook.Closed})

	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "wh-1", Status: hook.Pending, MaxRetries: 2}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	got := waitForStatus(t, repo, "evt-1", hook.Success, time.Second)
	assert.Equal(t, hook.Success, got.Status)
	assert.GreaterOrEqual(t, got.RetryCount, 1)
}

func TestWorkerFailsPermanentlyOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := newFakeRepository()
	repo.putWebhook(hook.Webhook{ID: "wh-1", URL: srv.URL, CircuitState: hook.Closed})

	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "wh-1", Status: hook.Pending, MaxRetries: 2}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	got := waitForStatus(t, repo, "evt-1", hook.Failure, time.Second)
	assert.Equal(t, hook.Failure, got.Status)

	classifications := repo.classifications
	require.Len(t, classifications, 1)
	assert.Equal(t, hook.FailPermanent, classifications[0].Decision)
}

func TestWorkerTerminalFailureWhenWebhookMissing(t *testing.T) {
	repo := newFakeRepository()
	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "missing", Status: hook.Pending, MaxRetries: 2}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	got := waitForStatus(t, repo, "evt-1", hook.Failure, time.Second)
	assert.Equal(t, "webhook not found", got.LastError)
}

func TestWorkerPausesEventWhenWebhookDisabled(t *testing.T) {
	repo := newFakeRepository()
	repo.putWebhook(hook.Webhook{ID: "wh-1", URL: "http://example.invalid", IsDisabled: true})

	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "wh-1", Status: hook.Pending, MaxRetries: 2}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	got := waitForStatus(t, repo, "evt-1", hook.Paused, time.Second)
	assert.Equal(t, hook.Paused, got.Status)
}

func TestWorkerOpensBreakerAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := newFakeRepository()
	repo.putWebhook(hook.Webhook{ID: "wh-1", URL: srv.URL, CircuitState: hook.Closed})

	q := memory.New()
	ev := hook.Event{ID: "evt-1", WebhookID: "wh-1", Status: hook.Pending, MaxRetries: 0}
	repo.Events().Save(context.Background(), ev)
	q.Enqueue(ev)

	cfg := worker.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	w := newTestWorker(repo, q, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	waitForStatus(t, repo, "evt-1", hook.Failure, time.Second)

	wh, ok := repo.getWebhook("wh-1")
	require.True(t, ok)
	// MaxRetries 0 on the event falls back to the policy's 2 retries, so
	// three attempts fail: the second opens the breaker and the third, a
	// half-open probe, re-opens it.
	assert.EqualValues(t, 3, wh.TotalFailures)
	assert.Equal(t, hook.Open, wh.CircuitState)
}

// Package worker drives events through the delivery state machine
// (spec.md §4.7). A single dispatcher goroutine polls the queue; a fixed
// pool of lanes, bounded by github.com/sourcegraph/conc/pool, runs
// per-event procedures (and their retry-delay sleeps) concurrently.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/timothy-choi/HookHub/breaker"
	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/delivery"
	"github.com/timothy-choi/HookHub/diagnostics"
	"github.com/timothy-choi/HookHub/hook"
	"github.com/timothy-choi/HookHub/internal/keyedmutex"
	"github.com/timothy-choi/HookHub/queue"
	"github.com/timothy-choi/HookHub/retry"
)

// Worker is the long-running supervisor described in spec.md §4.7.
type Worker struct {
	Repo          hook.Repository
	Queue         queue.Queue
	Delivery      *delivery.Client
	RetryPolicy   retry.Policy
	BreakerParams breaker.Params
	Classifier    *classify.Classifier
	Config        Config
	Logger        zerolog.Logger

	mutex   keyedmutex.Map
	running bool
}

// New builds a Worker from its collaborators.
func New(repo hook.Repository, q queue.Queue, client *delivery.Client, retryPolicy retry.Policy, breakerParams breaker.Params, classifier *classify.Classifier, cfg Config, logger zerolog.Logger) *Worker {
	return &Worker{
		Repo:          repo,
		Queue:         q,
		Delivery:      client,
		RetryPolicy:   retryPolicy,
		BreakerParams: breakerParams,
		Classifier:    classifier,
		Config:        cfg,
		Logger:        logger,
	}
}

// Run starts the dispatch loop and blocks until ctx is cancelled, then
// waits for in-flight lanes to finish (up to ShutdownGrace, then forces
// return after an additional ShutdownForce).
func (w *Worker) Run(ctx context.Context) {
	w.running = true
	lanes := w.Config.Lanes
	if lanes <= 0 {
		lanes = DefaultConfig().Lanes
	}
	p := pool.New().WithMaxGoroutines(lanes)

	for w.running {
		select {
		case <-ctx.Done():
			w.running = false
			continue
		default:
		}

		if w.Queue.IsEmpty() {
			time.Sleep(w.pollInterval())
			continue
		}

		ev, ok := w.Queue.Dequeue()
		if !ok {
			continue
		}

		p.Go(func() {
			if err := w.processEvent(context.Background(), ev); err != nil {
				w.Logger.Error().Err(err).Str("event_id", ev.ID).Msg("delivery worker: per-event procedure failed")
			}
		})
	}

	w.awaitShutdown(p)
}

// Stop signals the dispatch loop to exit after its current iteration.
func (w *Worker) Stop() {
	w.running = false
}

func (w *Worker) pollInterval() time.Duration {
	if w.Config.PollInterval <= 0 {
		return DefaultConfig().PollInterval
	}
	return w.Config.PollInterval
}

func (w *Worker) awaitShutdown(p *pool.Pool) {
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	grace := w.Config.ShutdownGrace
	if grace <= 0 {
		grace = DefaultConfig().ShutdownGrace
	}
	force := w.Config.ShutdownForce
	if force <= 0 {
		force = DefaultConfig().ShutdownForce
	}

	select {
	case <-done:
		return
	case <-time.After(grace):
		w.Logger.Warn().Msg("delivery worker: shutdown grace period elapsed, forcing")
	}

	select {
	case <-done:
	case <-time.After(force):
		w.Logger.Error().Msg("delivery worker: forced shutdown timeout elapsed with lanes still in flight")
	}
}

// processEvent runs the eight-step per-event procedure from spec.md §4.7.
func (w *Worker) processEvent(ctx context.Context, ev hook.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ev.Status = hook.Failure
			ev.LastError = fmt.Sprintf("internal exception: %v", r)
			ev.UpdatedAt = time.Now()
			_ = w.Repo.Events().Save(ctx, ev)
			err = fmt.Errorf("panic in per-event procedure: %v", r)
		}
	}()

	if ev.Status.IsTerminal() {
		return nil
	}

	// 1. Load Event's Webhook by id.
	wh, lookupErr := w.Repo.Webhooks().FindByID(ctx, ev.WebhookID)
	if lookupErr != nil {
		return w.failTerminal(ctx, ev, "webhook not found")
	}

	now := time.Now()

	// 2. Disabled or paused -> PAUSED, stop.
	if wh.IsDisabled || wh.IsPaused(now) {
		return w.pauseEvent(ctx, ev)
	}

	// 3. Breaker allowRequest; persist any OPEN->HALF_OPEN transition.
	var allowed bool
	w.mutex.WithLock(wh.ID, func() {
		wh, allowed = breaker.AllowRequest(w.BreakerParams, wh, now)
		wh.UpdatedAt = now
		err = w.Repo.Webhooks().Save(ctx, wh)
	})
	if err != nil {
		return fmt.Errorf("persisting breaker transition: %w", err)
	}
	if !allowed {
		return w.deferForCooldown(ctx, ev, wh)
	}

	// 4. Set PROCESSING, persist.
	ev.Status = hook.Processing
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting processing status: %w", err)
	}

	// 5. Deliver.
	result := w.Delivery.Deliver(ctx, wh, ev.Payload)

	if result.Success {
		return w.recordSuccess(ctx, ev, wh)
	}
	return w.recordFailure(ctx, ev, wh, result)
}

func (w *Worker) failTerminal(ctx context.Context, ev hook.Event, reason string) error {
	ev.Status = hook.Failure
	ev.LastError = reason
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting terminal failure (%s): %w", reason, err)
	}
	return nil
}

func (w *Worker) pauseEvent(ctx context.Context, ev hook.Event) error {
	ev.Status = hook.Paused
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting paused event: %w", err)
	}
	return nil
}

// deferForCooldown marks ev RETRY_PENDING and sleeps until the breaker's
// cooldown elapses, then re-enqueues. This sleep runs on the calling
// lane, per spec.md §5's "each retry consumes one lane for its entire
// sleep".
func (w *Worker) deferForCooldown(ctx context.Context, ev hook.Event, wh hook.Webhook) error {
	ev.Status = hook.RetryPending
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting retry-pending (breaker open): %w", err)
	}

	wakeAt := time.Now().Add(time.Duration(w.BreakerParams.CooldownSeconds) * time.Second)
	if wh.CircuitOpenedAt != nil {
		wakeAt = wh.CircuitOpenedAt.Add(time.Duration(w.BreakerParams.CooldownSeconds) * time.Second)
	}
	sleepUntil(ctx, wakeAt)

	ev.Status = hook.Pending
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting re-enqueued event: %w", err)
	}
	w.Queue.Enqueue(ev)
	return nil
}

func (w *Worker) recordSuccess(ctx context.Context, ev hook.Event, wh hook.Webhook) error {
	var err error
	w.mutex.WithLock(wh.ID, func() {
		wh = breaker.RecordSuccess(wh)
		wh.UpdatedAt = time.Now()
		err = w.Repo.Webhooks().Save(ctx, wh)
	})
	if err != nil {
		return fmt.Errorf("persisting webhook on success: %w", err)
	}

	ev.Status = hook.Success
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting successful event: %w", err)
	}
	return nil
}

func (w *Worker) recordFailure(ctx context.Context, ev hook.Event, wh hook.Webhook, result delivery.Result) error {
	hc := classify.Context{
		RetryCount:          ev.RetryCount,
		WebhookID:           wh.ID,
		TotalFailures:       wh.TotalFailures,
		TotalSuccesses:      wh.TotalSuccesses,
		ConsecutiveFailures: wh.ConsecutiveFailures,
		CircuitBreakerState: wh.CircuitState,
	}
	decision, explanation, errorType := w.Classifier.Classify(ctx, result.StatusCode, result.ErrorMessage, hc)

	classification := hook.ErrorClassification{
		ID:                ev.ID + "-" + time.Now().Format("20060102150405.000000000"),
		EventID:           ev.ID,
		WebhookID:         wh.ID,
		HTTPStatusCode:    result.StatusCode,
		ErrorMessage:      result.ErrorMessage,
		Decision:          decision,
		Explanation:       diagnostics.FailureExplanation(result.StatusCode, decision, explanation),
		ErrorType:         string(errorType),
		RetryAfterSeconds: result.RetryAfterSeconds,
		CreatedAt:         time.Now(),
	}
	if err := w.Repo.Classifications().Save(ctx, classification); err != nil {
		return fmt.Errorf("persisting error classification: %w", err)
	}

	var err error
	w.mutex.WithLock(wh.ID, func() {
		wh = breaker.RecordFailure(w.BreakerParams, wh, time.Now())
		wh.UpdatedAt = time.Now()
		err = w.Repo.Webhooks().Save(ctx, wh)
	})
	if err != nil {
		return fmt.Errorf("persisting webhook on failure: %w", err)
	}

	switch decision {
	case hook.Retry:
		return w.applyRetryDecision(ctx, ev, result)
	case hook.FailPermanent:
		return w.failTerminal(ctx, ev, classification.Explanation)
	case hook.PauseWebhook:
		return w.applyPauseDecision(ctx, ev, wh)
	case hook.Escalate:
		return w.failTerminal(ctx, ev, "escalated: "+classification.Explanation)
	default:
		return w.applyRetryDecision(ctx, ev, result)
	}
}

func (w *Worker) applyRetryDecision(ctx context.Context, ev hook.Event, result delivery.Result) error {
	policy := w.RetryPolicy
	if ev.MaxRetries > 0 {
		policy.MaxRetries = ev.MaxRetries
	}
	if !policy.ShouldRetry(ev.RetryCount) {
		return w.failTerminal(ctx, ev, "retry budget exhausted")
	}

	ev.RetryCount++
	ev.Status = hook.RetryPending
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting retry-pending event: %w", err)
	}

	delay := w.RetryPolicy.CalculateDelayAfter(ev.RetryCount-1, result.RetryAfterSeconds)
	sleepUntil(ctx, time.Now().Add(delay))

	ev.Status = hook.Pending
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting re-enqueued retry event: %w", err)
	}
	w.Queue.Enqueue(ev)
	return nil
}

func (w *Worker) applyPauseDecision(ctx context.Context, ev hook.Event, wh hook.Webhook) error {
	pauseWindow := w.Config.PauseWindow
	if pauseWindow <= 0 {
		pauseWindow = DefaultConfig().PauseWindow
	}
	pausedUntil := time.Now().Add(pauseWindow)
	wh.PausedUntil = &pausedUntil
	wh.UpdatedAt = time.Now()
	if err := w.Repo.Webhooks().Save(ctx, wh); err != nil {
		return fmt.Errorf("persisting paused webhook: %w", err)
	}

	ev.Status = hook.Paused
	ev.UpdatedAt = time.Now()
	if err := w.Repo.Events().Save(ctx, ev); err != nil {
		return fmt.Errorf("persisting paused event: %w", err)
	}
	return nil
}

func sleepUntil(ctx context.Context, until time.Time) {
	d := time.Until(until)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

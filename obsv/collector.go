// Package obsv collects and exports delivery-core metrics, the way the
// teacher's metrics package collects queue/status/worker state from Redis
// and exports it through an OpenTelemetry-Prometheus bridge.
package obsv

import (
	"context"
	"fmt"
	"time"

	"github.com/timothy-choi/HookHub/hook"
	"github.com/timothy-choi/HookHub/queue"
)

// Snapshot is the current state of the delivery core, mirroring the
// teacher's Metrics struct but over HookHub's domain: queue depth,
// per-status event counts, and per-webhook breaker state.
type Snapshot struct {
	QueueSize     int64                    `json:"queue_size"`
	StatusCounts  map[string]int64         `json:"status_counts"`
	BreakerStates map[string]hook.CircuitState `json:"breaker_states"`
	Timestamp     time.Time                `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the
// delivery core, mirroring the teacher's metrics.Collector shape.
type Collector interface {
	Collect(ctx context.Context) (Snapshot, error)
	QueueSize(ctx context.Context) (int64, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
	BreakerStates(ctx context.Context) (map[string]hook.CircuitState, error)
}

var allStatuses = []hook.Status{
	hook.Pending, hook.Processing, hook.RetryPending, hook.Success, hook.Failure, hook.Paused,
}

// RepositoryCollector implements Collector directly against a
// hook.Repository and a queue.Queue, the way the teacher's RedisCollector
// reads directly from its Redis client.
type RepositoryCollector struct {
	Repo  hook.Repository
	Queue queue.Queue
}

// NewRepositoryCollector builds a RepositoryCollector.
func NewRepositoryCollector(repo hook.Repository, q queue.Queue) *RepositoryCollector {
	return &RepositoryCollector{Repo: repo, Queue: q}
}

// Collect gathers all metrics in one pass.
func (c *RepositoryCollector) Collect(ctx context.Context) (Snapshot, error) {
	queueSize, err := c.QueueSize(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collecting queue size: %w", err)
	}

	statusCounts, err := c.StatusCounts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collecting status counts: %w", err)
	}

	breakerStates, err := c.BreakerStates(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collecting breaker states: %w", err)
	}

	return Snapshot{
		QueueSize:     queueSize,
		StatusCounts:  statusCounts,
		BreakerStates: breakerStates,
		Timestamp:     time.Now(),
	}, nil
}

// QueueSize returns the queue's current depth.
func (c *RepositoryCollector) QueueSize(ctx context.Context) (int64, error) {
	return int64(c.Queue.Size()), nil
}

// StatusCounts returns the count of events in each lifecycle status.
func (c *RepositoryCollector) StatusCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(allStatuses))
	for _, status := range allStatuses {
		events, err := c.Repo.Events().FindByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("counting events in status %s: %w", status, err)
		}
		counts[status.String()] = int64(len(events))
	}
	return counts, nil
}

// BreakerStates returns the current circuit-breaker state of every
// registered webhook.
func (c *RepositoryCollector) BreakerStates(ctx context.Context) (map[string]hook.CircuitState, error) {
	webhooks, err := c.Repo.Webhooks().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}

	states := make(map[string]hook.CircuitState, len(webhooks))
	for _, wh := range webhooks {
		states[wh.ID] = wh.CircuitState
	}
	return states, nil
}

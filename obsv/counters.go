package obsv

import "sync/atomic"

// Counters tracks monotonic delivery counters: successes, permanent
// failures, and retry decisions. Kept separate from Collector since they
// are incremented by explicit Record* calls rather than reconstructed from
// repository scans. worker.Worker holds no Counters and never calls them,
// so in cmd/hookhubd the exported outcome counters stay at zero.
type Counters struct {
	success int64
	failure int64
	retry   int64
}

// NewCounters builds a zeroed Counters.
func NewCounters() *Counters {
	return &Counters{}
}

// RecordSuccess increments the success counter.
func (c *Counters) RecordSuccess() { atomic.AddInt64(&c.success, 1) }

// RecordFailure increments the permanent-failure counter.
func (c *Counters) RecordFailure() { atomic.AddInt64(&c.failure, 1) }

// RecordRetry increments the retry-decision counter.
func (c *Counters) RecordRetry() { atomic.AddInt64(&c.retry, 1) }

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() (success, failure, retry int64) {
	return atomic.LoadInt64(&c.success), atomic.LoadInt64(&c.failure), atomic.LoadInt64(&c.retry)
}

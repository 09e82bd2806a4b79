// Package retry computes next-attempt delays and retry budgets for the
// delivery worker (spec.md §4.3). The capped-exponential backbone is
// delegated to github.com/cenkalti/backoff/v4's ExponentialBackOff; the
// additive uniform jitter and Retry-After override on top of it are
// spec.md's own formula and are not something the library provides, so
// they are layered on explicitly (see DESIGN.md).
package retry

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy computes retry delays and retry budgets.
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// DefaultPolicy returns spec.md §4.3's defaults: 1s base, 60s cap, 5 retries.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   60000 * time.Millisecond,
		MaxRetries: 5,
	}
}

// ShouldRetry reports whether another attempt remains within the budget.
func (p Policy) ShouldRetry(retryCount int) bool {
	return retryCount < p.MaxRetries
}

// cappedExponential returns cap = min(base*2^retryCount, max) using
// backoff.ExponentialBackOff as the underlying generator, with its own
// randomization disabled so the result is the deterministic cap spec.md
// §4.3/§8(P5) requires before jitter is added.
func (p Policy) cappedExponential(retryCount int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for i := 0; i <= retryCount; i++ {
		delay = b.NextBackOff()
		if delay == backoff.Stop {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// CalculateDelay computes delay = cap + U[0, cap] where
// cap = min(baseDelay * 2^retryCount, maxDelay), per spec.md §4.3/§8(P5).
// The jitter is additive, so the worst case is 2*maxDelay.
func (p Policy) CalculateDelay(retryCount int) time.Duration {
	capped := p.cappedExponential(retryCount)
	jitter := time.Duration(rand.Int63n(int64(capped) + 1))
	return capped + jitter
}

// CalculateDelayAfter computes the next-attempt delay honouring a
// Retry-After hint (spec.md §4.3/§8(P6)): if retryAfterSeconds is a
// positive integer, returns max(retryAfterSeconds*1000ms, baseDelay);
// otherwise falls back to the jittered exponential delay.
func (p Policy) CalculateDelayAfter(retryCount int, retryAfterSeconds *int) time.Duration {
	if retryAfterSeconds != nil && *retryAfterSeconds > 0 {
		fromHeader := time.Duration(*retryAfterSeconds) * time.Second
		if fromHeader > p.BaseDelay {
			return fromHeader
		}
		return p.BaseDelay
	}
	return p.CalculateDelay(retryCount)
}

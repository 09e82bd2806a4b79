// Package breaker implements the per-webhook circuit breaker state machine
// (spec.md §4.4). Unlike a conventional breaker that owns its own mutable
// state (see the object-oriented version this is grounded on), the
// transitions here are pure functions over a hook.Webhook value: the caller
// (the worker) is responsible for persisting the returned value. This keeps
// the breaker testable without a repository and lets the worker serialize
// updates per webhook with its own keyed mutex.
package breaker

import (
	"time"

	"github.com/timothy-choi/HookHub/hook"
)

// Params tunes the breaker's thresholds.
type Params struct {
	FailureThreshold  int
	CooldownSeconds   int
	HalfOpenTestLimit int
}

// DefaultParams mirrors spec.md §4.4's defaults.
func DefaultParams() Params {
	return Params{FailureThreshold: 5, CooldownSeconds: 60, HalfOpenTestLimit: 3}
}

// AllowRequest reports whether a delivery attempt may proceed, advancing
// wh from OPEN to HALF_OPEN once the cooldown has elapsed.
func AllowRequest(p Params, wh hook.Webhook, now time.Time) (hook.Webhook, bool) {
	switch wh.CircuitState {
	case hook.Closed:
		return wh, true

	case hook.Open:
		if wh.CircuitOpenedAt == nil {
			return wh, false
		}
		cooldownEnds := wh.CircuitOpenedAt.Add(time.Duration(p.CooldownSeconds) * time.Second)
		if now.Before(cooldownEnds) {
			return wh, false
		}
		wh.CircuitState = hook.HalfOpen
		// The request admitted here is the first half-open probe.
		wh.HalfOpenTestCount = 1
		return wh, true

	case hook.HalfOpen:
		if wh.HalfOpenTestCount >= p.HalfOpenTestLimit {
			return wh, false
		}
		wh.HalfOpenTestCount++
		return wh, true

	default:
		return wh, true
	}
}

// RecordSuccess applies a successful delivery to wh's breaker fields.
func RecordSuccess(wh hook.Webhook) hook.Webhook {
	wh.TotalSuccesses++

	if wh.CircuitState == hook.Open {
		// A success cannot be observed while OPEN; AllowRequest never
		// admits a request in that state. Left untouched defensively.
		return wh
	}

	wh.CircuitState = hook.Closed
	wh.ConsecutiveFailures = 0
	wh.CircuitOpenedAt = nil
	wh.HalfOpenTestCount = 0
	return wh
}

// RecordFailure applies a failed delivery to wh's breaker fields, opening
// the circuit once the failure threshold is reached.
func RecordFailure(p Params, wh hook.Webhook, now time.Time) hook.Webhook {
	wh.TotalFailures++
	wh.ConsecutiveFailures++
	wh.LastFailureTime = &now

	switch wh.CircuitState {
	case hook.HalfOpen:
		wh.CircuitState = hook.Open
		wh.CircuitOpenedAt = &now
		return wh

	case hook.Open:
		return wh

	default:
		if wh.ConsecutiveFailures >= p.FailureThreshold {
			wh.CircuitState = hook.Open
			wh.CircuitOpenedAt = &now
		}
		return wh
	}
}

// Reset returns wh's breaker fields to CLOSED, clearing all counters. Used
// for operator-initiated manual recovery.
func Reset(wh hook.Webhook) hook.Webhook {
	wh.CircuitState = hook.Closed
	wh.ConsecutiveFailures = 0
	wh.CircuitOpenedAt = nil
	wh.HalfOpenTestCount = 0
	return wh
}

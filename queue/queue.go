// Package queue defines the handoff contract between event producers and
// the delivery worker pool (spec.md §4.1). Implementations are swappable:
// queue/memory is an in-process lock-free FIFO, queue/redis is a durable
// Redis Streams-backed replacement. Neither the producer service nor the
// worker depends on which one is wired in.
package queue

import "github.com/timothy-choi/HookHub/hook"

// Queue is a multi-producer/multi-consumer unbounded FIFO of events.
// Ordering guarantee: events enqueued by a single producer observe FIFO
// order with respect to that producer; no global ordering across
// producers is guaranteed.
type Queue interface {
	// Enqueue adds an event to the queue. It only rejects a zero-value
	// (unset ID) event.
	Enqueue(event hook.Event) bool
	// Dequeue removes and returns the next event, or ok=false if the
	// queue was empty at the time of the call.
	Dequeue() (hook.Event, bool)
	IsEmpty() bool
	Size() int
}

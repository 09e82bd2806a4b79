// Package memory implements queue.Queue as a lock-free in-process FIFO,
// suitable for single-instance deployments (spec.md §4.1, §9). It mirrors
// java.util.concurrent.ConcurrentLinkedQueue's Michael-Scott algorithm:
// a singly linked list with atomic compare-and-swap on head/tail pointers,
// so Enqueue/Dequeue never block a goroutine on a mutex.
package memory

import (
	"sync/atomic"

	"github.com/timothy-choi/HookHub/hook"
)

type node struct {
	value hook.Event
	next  atomic.Pointer[node]
}

// Queue is a lock-free multi-producer/multi-consumer FIFO of events.
type Queue struct {
	head atomic.Pointer[node]
	tail atomic.Pointer[node]
	size atomic.Int64
}

// New creates an empty queue, seeded with a dummy sentinel node the way
// the classic Michael-Scott algorithm requires.
func New() *Queue {
	q := &Queue{}
	sentinel := &node{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Enqueue adds an event to the tail of the queue. It rejects only a
// zero-value event (empty ID), matching spec.md §4.1's "rejects only on
// null" contract.
func (q *Queue) Enqueue(event hook.Event) bool {
	if event.ID == "" {
		return false
	}

	n := &node{value: event}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tail, n)
				q.size.Add(1)
				return true
			}
		} else {
			// Tail lagged behind; help advance it before retrying.
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

// Dequeue removes and returns the event at the head of the queue.
func (q *Queue) Dequeue() (hook.Event, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				return hook.Event{}, false
			}
			// Tail lagged behind a completed enqueue; help advance it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		value := next.value
		if q.head.CompareAndSwap(head, next) {
			q.size.Add(-1)
			return value, true
		}
	}
}

// IsEmpty reports whether the queue currently has no events.
func (q *Queue) IsEmpty() bool {
	return q.head.Load() == q.tail.Load()
}

// Size returns the approximate number of events currently queued. Like the
// Java ConcurrentLinkedQueue equivalent, this may be stale immediately
// after the call due to concurrent operations.
func (q *Queue) Size() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

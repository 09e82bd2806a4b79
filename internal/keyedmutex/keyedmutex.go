// Package keyedmutex provides a per-key mutex so that updates to a single
// webhook's breaker and counter fields serialize across worker lanes
// while independent webhooks are never blocked by one another (spec.md
// §5's "Implementations may key a per-webhook lock on the id").
package keyedmutex

import "sync"

// Map lazily creates one mutex per key and never removes it: the set of
// webhook ids is expected to be bounded and long-lived relative to the
// process, so per-key mutexes are cheap to keep forever.
type Map struct {
	mutexes sync.Map // map[string]*sync.Mutex
}

// Lock acquires the mutex for key, creating it if necessary, and returns
// an unlock function for the caller to defer.
func (m *Map) Lock(key string) (unlock func()) {
	value, _ := m.mutexes.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// WithLock runs fn while holding key's mutex.
func (m *Map) WithLock(key string, fn func()) {
	unlock := m.Lock(key)
	defer unlock()
	fn()
}

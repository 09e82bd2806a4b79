package worker

import "time"

// Config tunes the dispatcher and worker pool (spec.md §4.7/§6).
type Config struct {
	Lanes         int
	PollInterval  time.Duration
	PauseWindow   time.Duration
	ShutdownGrace time.Duration
	ShutdownForce time.Duration
}

// DefaultConfig mirrors spec.md §6's defaults: 5 lanes, 100ms polling,
// a 1 hour pause window, and the 10s/5s shutdown timeouts from §5.
func DefaultConfig() Config {
	return Config{
		Lanes:         5,
		PollInterval:  100 * time.Millisecond,
		PauseWindow:   time.Hour,
		ShutdownGrace: 10 * time.Second,
		ShutdownForce: 5 * time.Second,
	}
}

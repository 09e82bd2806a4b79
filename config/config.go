// Package config loads the tunables spec.md §6 names into a single
// Config struct, the way the teacher's config.GetConfig loads its own
// settings: viper for environment/file overlay, with struct tags mapping
// each key.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable spec.md §6 names, grouped by the component
// that consumes it.
type Config struct {
	Delivery DeliveryConfig `mapstructure:",squash"`
	HTTP     HTTPConfig     `mapstructure:",squash"`
	Retry    RetryConfig    `mapstructure:",squash"`
	Circuit  CircuitConfig  `mapstructure:",squash"`
	Pause    PauseConfig    `mapstructure:",squash"`
	Advisor  AdvisorConfig  `mapstructure:",squash"`
}

// DeliveryConfig tunes the worker's dispatch loop.
type DeliveryConfig struct {
	WorkerThreads  int `mapstructure:"DELIVERY_WORKER_THREADS"`
	PollIntervalMs int `mapstructure:"DELIVERY_POLL_INTERVAL_MS"`
}

// HTTPConfig tunes the delivery client's HTTP transport.
type HTTPConfig struct {
	ConnectTimeoutMs int `mapstructure:"HTTP_CONNECT_TIMEOUT_MS"`
	ReadTimeoutMs    int `mapstructure:"HTTP_READ_TIMEOUT_MS"`
}

// RetryConfig tunes the backoff policy.
type RetryConfig struct {
	BaseDelayMs int `mapstructure:"RETRY_BASE_DELAY_MS"`
	MaxDelayMs  int `mapstructure:"RETRY_MAX_DELAY_MS"`
	MaxRetries  int `mapstructure:"RETRY_MAX_RETRIES"`
}

// CircuitConfig tunes the per-webhook breaker.
type CircuitConfig struct {
	FailureThreshold  int `mapstructure:"CIRCUIT_FAILURE_THRESHOLD"`
	CooldownSeconds   int `mapstructure:"CIRCUIT_COOLDOWN_SECONDS"`
	HalfOpenTestLimit int `mapstructure:"CIRCUIT_HALF_OPEN_TEST_LIMIT"`
}

// PauseConfig tunes the 451/PauseWebhook window.
type PauseConfig struct {
	WindowSeconds int `mapstructure:"PAUSE_WINDOW_SECONDS"`
}

// AdvisorConfig tunes the optional remote classification advisor.
type AdvisorConfig struct {
	URL                 string  `mapstructure:"ADVISOR_URL"`
	Enabled             bool    `mapstructure:"ADVISOR_ENABLED"`
	TimeoutMs           int     `mapstructure:"ADVISOR_TIMEOUT_MS"`
	FallbackEnabled     bool    `mapstructure:"ADVISOR_FALLBACK_ENABLED"`
	ConfidenceThreshold float64 `mapstructure:"ADVISOR_CONFIDENCE_THRESHOLD"`
}

// Default returns spec.md §6's defaults.
func Default() Config {
	return Config{
		Delivery: DeliveryConfig{WorkerThreads: 5, PollIntervalMs: 100},
		HTTP:     HTTPConfig{ConnectTimeoutMs: 5000, ReadTimeoutMs: 10000},
		Retry:    RetryConfig{BaseDelayMs: 1000, MaxDelayMs: 60000, MaxRetries: 5},
		Circuit:  CircuitConfig{FailureThreshold: 5, CooldownSeconds: 60, HalfOpenTestLimit: 3},
		Pause:    PauseConfig{WindowSeconds: 3600},
		Advisor:  AdvisorConfig{Enabled: true, TimeoutMs: 5000, FallbackEnabled: true, ConfidenceThreshold: 0.6},
	}
}

// Load reads a TOML/ENV config file with viper, overlaying it on the
// defaults, the way the teacher's config.GetConfig reads ".env". path may
// be empty, in which case only environment variables and defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("toml")
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config data: %w", err)
	}

	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("DELIVERY_WORKER_THREADS", cfg.Delivery.WorkerThreads)
	v.SetDefault("DELIVERY_POLL_INTERVAL_MS", cfg.Delivery.PollIntervalMs)
	v.SetDefault("HTTP_CONNECT_TIMEOUT_MS", cfg.HTTP.ConnectTimeoutMs)
	v.SetDefault("HTTP_READ_TIMEOUT_MS", cfg.HTTP.ReadTimeoutMs)
	v.SetDefault("RETRY_BASE_DELAY_MS", cfg.Retry.BaseDelayMs)
	v.SetDefault("RETRY_MAX_DELAY_MS", cfg.Retry.MaxDelayMs)
	v.SetDefault("RETRY_MAX_RETRIES", cfg.Retry.MaxRetries)
	v.SetDefault("CIRCUIT_FAILURE_THRESHOLD", cfg.Circuit.FailureThreshold)
	v.SetDefault("CIRCUIT_COOLDOWN_SECONDS", cfg.Circuit.CooldownSeconds)
	v.SetDefault("CIRCUIT_HALF_OPEN_TEST_LIMIT", cfg.Circuit.HalfOpenTestLimit)
	v.SetDefault("PAUSE_WINDOW_SECONDS", cfg.Pause.WindowSeconds)
	v.SetDefault("ADVISOR_URL", cfg.Advisor.URL)
	v.SetDefault("ADVISOR_ENABLED", cfg.Advisor.Enabled)
	v.SetDefault("ADVISOR_TIMEOUT_MS", cfg.Advisor.TimeoutMs)
	v.SetDefault("ADVISOR_FALLBACK_ENABLED", cfg.Advisor.FallbackEnabled)
	v.SetDefault("ADVISOR_CONFIDENCE_THRESHOLD", cfg.Advisor.ConfidenceThreshold)
}

// PollInterval returns Delivery.PollIntervalMs as a time.Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Delivery.PollIntervalMs) * time.Millisecond
}

// ConnectTimeout returns HTTP.ConnectTimeoutMs as a time.Duration.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMs) * time.Millisecond
}

// ReadTimeout returns HTTP.ReadTimeoutMs as a time.Duration.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeoutMs) * time.Millisecond
}

// BaseDelay returns Retry.BaseDelayMs as a time.Duration.
func (c Config) BaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns Retry.MaxDelayMs as a time.Duration.
func (c Config) MaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}

// AdvisorTimeout returns Advisor.TimeoutMs as a time.Duration.
func (c Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.Advisor.TimeoutMs) * time.Millisecond
}

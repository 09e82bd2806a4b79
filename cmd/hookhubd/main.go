// Command hookhubd is the delivery system's composition root: it wires
// config, storage, queue, classifier, worker and the demo HTTP surface
// together and runs them until signalled to stop. Grounded on the
// teacher's cmd/api/main.go shutdown pattern (signal.NotifyContext, a
// shutdown goroutine racing a grace timeout against http.Server.Shutdown),
// generalized from a single book.Service+chi.Handlers pair into the full
// delivery stack: repository backend, queue backend, classifier, worker
// pool and Prometheus exporter, each selected by environment variable so
// the same binary serves the in-memory quickstart and a durable
// deployment without a rebuild.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/timothy-choi/HookHub/breaker"
	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/config"
	"github.com/timothy-choi/HookHub/delivery"
	"github.com/timothy-choi/HookHub/hook"
	hookmemory "github.com/timothy-choi/HookHub/hook/memory"
	hookpostgres "github.com/timothy-choi/HookHub/hook/postgres"
	hookredis "github.com/timothy-choi/HookHub/hook/redis"
	chihandlers "github.com/timothy-choi/HookHub/internal/http/chi"
	"github.com/timothy-choi/HookHub/obsv"
	"github.com/timothy-choi/HookHub/queue"
	queuememory "github.com/timothy-choi/HookHub/queue/memory"
	queueredis "github.com/timothy-choi/HookHub/queue/redis"
	"github.com/timothy-choi/HookHub/retry"
	"github.com/timothy-choi/HookHub/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "hookhubd").Logger()

	cfg, err := config.Load(os.Getenv("HOOKHUB_CONFIG_FILE"))
	if err != nil {
		logger.Error().Err(err).Msg("loading config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, closeRepo, err := buildRepository(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("building repository")
		os.Exit(1)
	}
	defer closeRepo()

	q, err := buildQueue(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("building queue")
		os.Exit(1)
	}

	rules, err := config.LoadClassificationRules(os.Getenv("HOOKHUB_RULES_FILE"))
	if err != nil {
		logger.Error().Err(err).Msg("loading classification rules")
		os.Exit(1)
	}

	var advisor *classify.Advisor
	if cfg.Advisor.Enabled && cfg.Advisor.URL != "" {
		advisor = classify.NewAdvisor(classify.AdvisorConfig{
			URL:                 cfg.Advisor.URL,
			Enabled:             cfg.Advisor.Enabled,
			Timeout:             cfg.AdvisorTimeout(),
			ConfidenceThreshold: cfg.Advisor.ConfidenceThreshold,
		})
	}
	classifier := classify.New(advisor, rules)

	deliveryClient := delivery.New(delivery.Config{
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
	})

	retryPolicy := retry.Policy{
		BaseDelay:  cfg.BaseDelay(),
		MaxDelay:   cfg.MaxDelay(),
		MaxRetries: cfg.Retry.MaxRetries,
	}

	breakerParams := breaker.Params{
		FailureThreshold:  cfg.Circuit.FailureThreshold,
		CooldownSeconds:   cfg.Circuit.CooldownSeconds,
		HalfOpenTestLimit: cfg.Circuit.HalfOpenTestLimit,
	}

	workerCfg := worker.Config{
		Lanes:        cfg.Delivery.WorkerThreads,
		PollInterval: cfg.PollInterval(),
		PauseWindow:  time.Duration(cfg.Pause.WindowSeconds) * time.Second,
	}

	w := worker.New(repo, q, deliveryClient, retryPolicy, breakerParams, classifier, workerCfg, logger)

	go w.Run(ctx)
	defer w.Stop()

	counters := obsv.NewCounters()
	collector := obsv.NewRepositoryCollector(repo, q)
	exporter, err := obsv.NewOTelExporter(collector, counters)
	if err != nil {
		logger.Error().Err(err).Msg("building metrics exporter")
		os.Exit(1)
	}
	defer exporter.Shutdown(context.Background())

	service := hook.NewService(repo, q)
	apiServer := &chihandlers.Server{UseCase: service, Repo: repo}
	mux := http.NewServeMux()
	mux.Handle("/", chihandlers.Handlers(apiServer))
	mux.Handle("/metrics", exporter.ServeHTTP())

	addr := ":" + envOrDefault("HOOKHUB_PORT", "8080")
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)

	logger.Info().Str("addr", addr).Msg("hookhubd listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}

	if err := <-errShutdown; err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	switch err := server.Shutdown(ctxTimeout); err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing server shutdown after timeout")
	default:
		errShutdown <- fmt.Errorf("forcing server shutdown: %w", err)
	}
}

// buildRepository selects a hook.Repository backend from HOOKHUB_STORAGE_BACKEND:
// "memory" (default), "redis" or "postgres".
func buildRepository(ctx context.Context) (hook.Repository, func(), error) {
	switch backend := envOrDefault("HOOKHUB_STORAGE_BACKEND", "memory"); backend {
	case "memory":
		return hookmemory.New(), func() {}, nil

	case "redis":
		addr := envOrDefault("HOOKHUB_REDIS_ADDR", "localhost:6379")
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, func() {}, fmt.Errorf("connecting to redis at %s: %w", addr, err)
		}
		repo := hookredis.New(client)
		return repo, func() { _ = client.Close() }, nil

	case "postgres":
		connStr := os.Getenv("HOOKHUB_POSTGRES_DSN")
		if connStr == "" {
			return nil, func() {}, fmt.Errorf("HOOKHUB_POSTGRES_DSN is required for the postgres storage backend")
		}
		repo, err := hookpostgres.NewRepository(connStr)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to postgres: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown HOOKHUB_STORAGE_BACKEND %q", backend)
	}
}

// buildQueue selects a queue.Queue backend from HOOKHUB_QUEUE_BACKEND:
// "memory" (default) or "redis".
func buildQueue(ctx context.Context) (queue.Queue, error) {
	switch backend := envOrDefault("HOOKHUB_QUEUE_BACKEND", "memory"); backend {
	case "memory":
		return queuememory.New(), nil

	case "redis":
		addr := envOrDefault("HOOKHUB_REDIS_ADDR", "localhost:6379")
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
		}
		return queueredis.New(ctx, client)

	default:
		return nil, fmt.Errorf("unknown HOOKHUB_QUEUE_BACKEND %q", backend)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package postgres implements hook.Repository on top of database/sql and
// lib/pq, for operators who want a durable store without standing up
// Redis. Schema is created on connect so a fresh database comes up ready.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/timothy-choi/HookHub/hook"
)

// Repository is a Postgres-backed hook.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a connection pool with sane defaults and ensures the
// schema exists.
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 30)
}

// NewRepositoryWithPoolConfig opens a connection pool with explicit sizing
// and lifetime, for operators tuning against their Postgres instance.
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.createSchema(); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, nil
}

func (r *Repository) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS webhooks (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			circuit_state INTEGER NOT NULL,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			circuit_opened_at TIMESTAMPTZ,
			last_failure_time TIMESTAMPTZ,
			total_successes BIGINT NOT NULL DEFAULT 0,
			total_failures BIGINT NOT NULL DEFAULT 0,
			half_open_test_count INTEGER NOT NULL DEFAULT 0,
			paused_until TIMESTAMPTZ,
			is_disabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			webhook_id TEXT NOT NULL REFERENCES webhooks(id),
			payload BYTEA NOT NULL,
			status INTEGER NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			next_attempt TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS events_webhook_id_idx ON events(webhook_id);
		CREATE INDEX IF NOT EXISTS events_status_idx ON events(status);

		CREATE TABLE IF NOT EXISTS error_classifications (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			webhook_id TEXT NOT NULL,
			http_status_code INTEGER NOT NULL,
			error_message TEXT NOT NULL,
			decision INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			error_type TEXT NOT NULL,
			retry_after_seconds INTEGER,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS error_classifications_webhook_id_idx ON error_classifications(webhook_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// DropSchema tears down every table this repository owns. Exported for
// integration test teardown.
func (r *Repository) DropSchema() error {
	_, err := r.db.Exec(`
		DROP TABLE IF EXISTS error_classifications CASCADE;
		DROP TABLE IF EXISTS events CASCADE;
		DROP TABLE IF EXISTS webhooks CASCADE;
	`)
	return err
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Webhooks() hook.WebhookRepository {
	return webhookRepo{db: r.db}
}

func (r *Repository) Events() hook.EventRepository {
	return eventRepo{db: r.db}
}

func (r *Repository) Classifications() hook.ErrorClassificationRepository {
	return classificationRepo{db: r.db}
}

type webhookRepo struct{ db *sql.DB }

const webhookColumns = `id, url, metadata, circuit_state, consecutive_failures, circuit_opened_at,
	last_failure_time, total_successes, total_failures, half_open_test_count, paused_until,
	is_disabled, created_at, updated_at`

func (w webhookRepo) FindByID(ctx context.Context, id string) (hook.Webhook, error) {
	row := w.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id)
	return scanWebhook(row)
}

func (w webhookRepo) FindAll(ctx context.Context) ([]hook.Webhook, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying webhooks: %w", err)
	}
	defer rows.Close()

	var out []hook.Webhook
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (w webhookRepo) FindByURL(ctx context.Context, url string) (hook.Webhook, error) {
	row := w.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE url = $1 LIMIT 1`, url)
	return scanWebhook(row)
}

func (w webhookRepo) Save(ctx context.Context, wh hook.Webhook) error {
	metadata, err := json.Marshal(wh.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling webhook metadata: %w", err)
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT INTO webhooks (`+webhookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			metadata = EXCLUDED.metadata,
			circuit_state = EXCLUDED.circuit_state,
			consecutive_failures = EXCLUDED.consecutive_failures,
			circuit_opened_at = EXCLUDED.circuit_opened_at,
			last_failure_time = EXCLUDED.last_failure_time,
			total_successes = EXCLUDED.total_successes,
			total_failures = EXCLUDED.total_failures,
			half_open_test_count = EXCLUDED.half_open_test_count,
			paused_until = EXCLUDED.paused_until,
			is_disabled = EXCLUDED.is_disabled,
			updated_at = EXCLUDED.updated_at`,
		wh.ID, wh.URL, metadata, int(wh.CircuitState), wh.ConsecutiveFailures, wh.CircuitOpenedAt,
		wh.LastFailureTime, wh.TotalSuccesses, wh.TotalFailures, wh.HalfOpenTestCount, wh.PausedUntil,
		wh.IsDisabled, wh.CreatedAt, wh.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving webhook %s: %w", wh.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (hook.Webhook, error) {
	var wh hook.Webhook
	var circuitState int
	var metadata []byte

	err := row.Scan(
		&wh.ID, &wh.URL, &metadata, &circuitState, &wh.ConsecutiveFailures, &wh.CircuitOpenedAt,
		&wh.LastFailureTime, &wh.TotalSuccesses, &wh.TotalFailures, &wh.HalfOpenTestCount, &wh.PausedUntil,
		&wh.IsDisabled, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return hook.Webhook{}, fmt.Errorf("webhook not found")
	}
	if err != nil {
		return hook.Webhook{}, fmt.Errorf("scanning webhook row: %w", err)
	}

	wh.CircuitState = hook.CircuitState(circuitState)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &wh.Metadata); err != nil {
			return hook.Webhook{}, fmt.Errorf("unmarshaling webhook metadata: %w", err)
		}
	}

	return wh, nil
}

type eventRepo struct{ db *sql.DB }

const eventColumns = `id, webhook_id, payload, status, retry_count, max_retries, last_error,
	next_attempt, created_at, updated_at`

func (e eventRepo) FindByID(ctx context.Context, id string) (hook.Event, error) {
	row := e.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (e eventRepo) FindByWebhookID(ctx context.Context, webhookID string) ([]hook.Event, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE webhook_id = $1 ORDER BY created_at ASC`, webhookID)
	if err != nil {
		return nil, fmt.Errorf("querying events by webhook: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (e eventRepo) FindByStatus(ctx context.Context, status hook.Status) ([]hook.Event, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE status = $1 ORDER BY created_at ASC`, int(status))
	if err != nil {
		return nil, fmt.Errorf("querying events by status: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (e eventRepo) Save(ctx context.Context, ev hook.Event) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			max_retries = EXCLUDED.max_retries,
			last_error = EXCLUDED.last_error,
			next_attempt = EXCLUDED.next_attempt,
			updated_at = EXCLUDED.updated_at`,
		ev.ID, ev.WebhookID, ev.Payload, int(ev.Status), ev.RetryCount, ev.MaxRetries, nullString(ev.LastError),
		ev.NextAttempt, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving event %s: %w", ev.ID, err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]hook.Event, error) {
	var out []hook.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (hook.Event, error) {
	var ev hook.Event
	var status int
	var lastError sql.NullString

	err := row.Scan(
		&ev.ID, &ev.WebhookID, &ev.Payload, &status, &ev.RetryCount, &ev.MaxRetries, &lastError,
		&ev.NextAttempt, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return hook.Event{}, fmt.Errorf("event not found")
	}
	if err != nil {
		return hook.Event{}, fmt.Errorf("scanning event row: %w", err)
	}

	ev.Status = hook.Status(status)
	ev.LastError = lastError.String
	return ev, nil
}

type classificationRepo struct{ db *sql.DB }

func (c classificationRepo) Save(ctx context.Context, classification hook.ErrorClassification) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO error_classifications
			(id, event_id, webhook_id, http_status_code, error_message, decision, explanation, error_type, retry_after_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		classification.ID, classification.EventID, classification.WebhookID, classification.HTTPStatusCode,
		classification.ErrorMessage, int(classification.Decision), classification.Explanation,
		classification.ErrorType, classification.RetryAfterSeconds, classification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving error classification %s: %w", classification.ID, err)
	}
	return nil
}

func (c classificationRepo) FindByWebhookIDOrderByCreatedAtDesc(ctx context.Context, webhookID string) ([]hook.ErrorClassification, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, event_id, webhook_id, http_status_code, error_message, decision, explanation, error_type, retry_after_seconds, created_at
		FROM error_classifications
		WHERE webhook_id = $1
		ORDER BY created_at DESC`, webhookID)
	if err != nil {
		return nil, fmt.Errorf("querying error classifications: %w", err)
	}
	defer rows.Close()

	var out []hook.ErrorClassification
	for rows.Next() {
		var cl hook.ErrorClassification
		var decision int
		if err := rows.Scan(
			&cl.ID, &cl.EventID, &cl.WebhookID, &cl.HTTPStatusCode, &cl.ErrorMessage, &decision,
			&cl.Explanation, &cl.ErrorType, &cl.RetryAfterSeconds, &cl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning error classification row: %w", err)
		}
		cl.Decision = hook.Decision(decision)
		out = append(out, cl)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

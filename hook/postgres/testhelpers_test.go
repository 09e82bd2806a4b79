//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testcontainerspostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/timothy-choi/HookHub/hook/postgres"
)

func setupPostgresRepository(t *testing.T, ctx context.Context) (*postgres.Repository, func()) {
	t.Helper()

	container, err := testcontainerspostgres.Run(ctx,
		"postgres:16-alpine",
		testcontainerspostgres.WithDatabase("hookhub_test"),
		testcontainerspostgres.WithUsername("hookhub"),
		testcontainerspostgres.WithPassword("hookhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := postgres.NewRepository(connStr)
	require.NoError(t, err)

	cleanup := func() {
		_ = repo.DropSchema()
		_ = repo.Close()
		_ = container.Terminate(ctx)
	}

	return repo, cleanup
}

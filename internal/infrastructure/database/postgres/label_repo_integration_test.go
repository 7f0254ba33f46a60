//go:build integration

// Integration tests for the Postgres label store. They require Docker and
// are gated behind the "integration" build tag.
package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/database/postgres"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/testutil"
)

// startPostgres launches a PostgreSQL 16 container and returns a migrated
// connection.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "dutchkbqa_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &postgres.PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		Database: "dutchkbqa_test",
		Username: "test",
		Password: "test",
		SSLMode:  "disable",
	}
	conn, err := postgres.NewConnection(ctx, cfg, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, conn.Migrate("../../../../migrations"))
	return conn
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := startPostgres(t)

	// A second run must be a no-op.
	require.NoError(t, conn.Migrate("../../../../migrations"))

	version, dirty, err := conn.MigrationStatus("../../../../migrations")
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestLabelRepo_StoreAndLabelsFor(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	repo, err := postgres.NewLabelRepo(conn, dataset.SplitTrain, dataset.LanguageDutch, testutil.NewMockLogger())
	require.NoError(t, err)

	err = repo.Store(ctx, labels.SymbolLabels{
		"Q42": {"Douglas Adams", "Adams"},
		"P31": {},
	})
	require.NoError(t, err)

	got, err := repo.LabelsFor(ctx, []string{"Q42", "P31", "Q1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Douglas Adams", "Adams"}, got["Q42"])
	assert.Equal(t, []string{}, got["P31"], "stored empty list stays distinguishable")
	assert.Nil(t, got["Q1"], "never-stored symbol maps to nil")
	assert.Len(t, got, 3)
}

func TestLabelRepo_StoreOverwrites(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	repo, err := postgres.NewLabelRepo(conn, dataset.SplitTrain, dataset.LanguageDutch, testutil.NewMockLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Store(ctx, labels.SymbolLabels{"Q42": {"old"}}))
	require.NoError(t, repo.Store(ctx, labels.SymbolLabels{"Q42": {"new"}, "Q1": {"heelal"}}))

	got, err := repo.LabelsFor(ctx, []string{"Q42", "Q1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got["Q42"])
	assert.Equal(t, []string{"heelal"}, got["Q1"])
}

func TestLabelRepo_Missing(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	repo, err := postgres.NewLabelRepo(conn, dataset.SplitTrain, dataset.LanguageDutch, testutil.NewMockLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Store(ctx, labels.SymbolLabels{"Q42": {"Douglas Adams"}}))

	missing, err := repo.Missing(ctx, []string{"Q42", "P31", "Q1", "P31"})
	require.NoError(t, err)
	assert.Equal(t, []string{"P31", "Q1"}, missing, "deduplicated and sorted")

	missing, err = repo.Missing(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLabelRepo_ScopedPerSplitAndLanguage(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	nl, err := postgres.NewLabelRepo(conn, dataset.SplitTrain, dataset.LanguageDutch, testutil.NewMockLogger())
	require.NoError(t, err)
	en, err := postgres.NewLabelRepo(conn, dataset.SplitTrain, dataset.LanguageEnglish, testutil.NewMockLogger())
	require.NoError(t, err)
	test, err := postgres.NewLabelRepo(conn, dataset.SplitTest, dataset.LanguageDutch, testutil.NewMockLogger())
	require.NoError(t, err)

	require.NoError(t, nl.Store(ctx, labels.SymbolLabels{"Q42": {"Douglas Adams"}}))

	got, err := en.LabelsFor(ctx, []string{"Q42"})
	require.NoError(t, err)
	assert.Nil(t, got["Q42"], "other language must not see the entry")

	got, err = test.LabelsFor(ctx, []string{"Q42"})
	require.NoError(t, err)
	assert.Nil(t, got["Q42"], "other split must not see the entry")
}

func TestHealthCheck(t *testing.T) {
	conn := startPostgres(t)
	require.NoError(t, conn.HealthCheck(context.Background()))
}

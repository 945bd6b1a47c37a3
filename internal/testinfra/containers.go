// Package testinfra starts disposable PostgreSQL servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "alexeye/postgres-azure-flex:17"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"

	// ConnEnv points integration tests at an existing server instead of a container.
	ConnEnv = "PGBUNDLE_TEST_CONN"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// Artifacts are generated files the container consumes at first boot the
// way a built image would.
type Artifacts struct {
	// ConfigFile replaces postgresql.conf when set.
	ConfigFile string
	// InitScripts run once through docker-entrypoint-initdb.d.
	InitScripts []string
}

func StartSimplePostgres(ctx context.Context) (*PostgresContainer, error) {
	return StartPostgres(ctx, Artifacts{})
}

// StartPostgres starts a server that boots with the given artifacts.
func StartPostgres(ctx context.Context, artifacts Artifacts) (*PostgresContainer, error) {
	opts := []testcontainers.ContainerCustomizer{
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	}
	if artifacts.ConfigFile != "" {
		opts = append(opts, postgres.WithConfigFile(artifacts.ConfigFile))
	}
	if len(artifacts.InitScripts) > 0 {
		opts = append(opts, postgres.WithInitScripts(artifacts.InitScripts...))
	}

	ctr, err := postgres.Run(ctx, PostgresImage, opts...)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

var (
	sharedOnce sync.Once
	sharedConn string
	sharedErr  error
)

// RequireDatabase returns a connection string for a shared test server.
// Priority: PGBUNDLE_TEST_CONN, then a container started once per test
// binary. The test is skipped in -short mode or when Docker is unavailable.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if connString := os.Getenv(ConnEnv); connString != "" {
		return connString
	}

	sharedOnce.Do(func() {
		ctr, err := StartSimplePostgres(context.Background())
		if err != nil {
			sharedErr = err
			return
		}
		sharedConn = ctr.ConnString
	})
	if sharedErr != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnv, sharedErr)
	}
	return sharedConn
}

// RequireDocker starts a dedicated container for t and terminates it when t ends.
func RequireDocker(t *testing.T, artifacts Artifacts) *PostgresContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	ctr, err := StartPostgres(ctx, artifacts)
	if err != nil {
		t.Skipf("Docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		ctr.Terminate(ctx) //nolint:errcheck
	})
	return ctr
}

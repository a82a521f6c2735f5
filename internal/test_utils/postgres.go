package test_utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keepsake/keepsake/internal/config"
	"github.com/keepsake/keepsake/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "keepsake"
	dbUser     = "test_keepsake"
	dbPassword = "test_keepsake"
)

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	return postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
}

// TestWithDB starts a Postgres container, applies all migrations and returns
// a pool connected to it. When no container runtime is available it returns
// a nil pool and a no-op cleanup so repository tests can skip themselves.
func TestWithDB() (*pgxpool.Pool, func()) {
	ctx := context.Background()
	noop := func() {}

	container, err := startContainer(ctx)
	if err != nil {
		log.Warnf("Postgres container not available, database tests will be skipped: %v", err)
		return nil, noop
	}
	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Errorf("failed to terminate postgres container: %v", err)
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		log.Warnf("failed to read postgres container host: %v", err)
		return nil, noop
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		cleanup()
		log.Warnf("failed to read postgres container port: %v", err)
		return nil, noop
	}
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: dbName,
	}
	if err := database.Migrate(cfg); err != nil {
		cleanup()
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	pool, err := database.Open(ctx, cfg)
	if err != nil {
		cleanup()
		log.Fatalf("Failed to open database connection: %v", err)
	}

	return pool, func() {
		pool.Close()
		cleanup()
	}
}

// startContainer turns the panic testcontainers raises without a Docker host
// into an error.
func startContainer(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	return preparePostgresContainer(ctx)
}

// RequireDB skips the test when TestWithDB could not provide a database and
// otherwise empties all tables.
func RequireDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if pool == nil {
		t.Skip("postgres container not available")
	}
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE event, telegram_pending_link, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// findProjectRoot walks up from the working directory to the directory
// holding go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}

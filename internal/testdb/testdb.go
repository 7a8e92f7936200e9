// Package testdb starts PostgreSQL for store-backed tests.
package testdb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func migrationPath() string {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(projectRoot, "migrations", "001_create_tasks.up.sql")
}

// Setup returns a pool to an empty, migrated database. TEST_DATABASE_URL is
// used when set; otherwise a postgres container is started, and the test is
// skipped if docker is not available.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	if dbURL := os.Getenv("TEST_DATABASE_URL"); dbURL != "" {
		pool := connect(t, dbURL)
		migration, err := os.ReadFile(migrationPath())
		if err != nil {
			t.Fatalf("Failed to read migration: %v", err)
		}
		if _, err := pool.Exec(ctx, string(migration)); err != nil {
			t.Fatalf("Failed to apply migration: %v", err)
		}
		Truncate(t, pool)
		t.Cleanup(pool.Close)
		return pool
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(migrationPath()),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool := connect(t, connStr)
	t.Cleanup(pool.Close)
	return pool
}

func connect(t *testing.T, connStr string) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	return pool
}

// Truncate очищает все таблицы
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE tasks, idempotency_keys, sessions, team_members, profiles RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedUser creates a profile and a session for it and returns both ids.
func SeedUser(t *testing.T, pool *pgxpool.Pool, fullName string) (userID, token string) {
	t.Helper()
	ctx := context.Background()

	userID = uuid.NewString()
	token = uuid.NewString()

	if _, err := pool.Exec(ctx, `INSERT INTO profiles (id, full_name) VALUES ($1, $2)`, userID, fullName); err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
	return userID, token
}

func SeedMember(t *testing.T, pool *pgxpool.Pool, teamID int64, userID, role string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)`, teamID, userID, role)
	if err != nil {
		t.Fatalf("Failed to seed team member: %v", err)
	}
}

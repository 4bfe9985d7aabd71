package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/database"
)

// TestDatabaseURLEnv names the variable that enables Postgres integration tests.
const TestDatabaseURLEnv = "FACTURADOR_TEST_DATABASE_URL"

// PostgresPool connects to the integration database and applies migrations.
// The test is skipped when TestDatabaseURLEnv is unset or -short is given.
func PostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" || testing.Short() {
		t.Skipf("set %s to run Postgres integration tests", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, database.Config{URL: url})
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.RunMigrations(ctx, pool, NewNullLogger()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return pool
}

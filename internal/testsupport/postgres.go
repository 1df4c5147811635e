package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"finadvisor/internal/adapters/config"
	"finadvisor/internal/adapters/postgres"
)

// PostgresTestHelper manages a transactional connection for integration tests.
type PostgresTestHelper struct {
	client     *postgres.Client
	tx         *sqlx.Tx
	rolledBack bool
}

// NewPostgresTestHelper opens a connection and begins a transaction that is always rolled back.
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	tx, err := client.DB().BeginTxx(context.Background(), nil)
	if err != nil {
		_ = client.Close()
		t.Fatalf("failed to start transaction: %v", err)
	}

	helper := &PostgresTestHelper{client: client, tx: tx}
	t.Cleanup(helper.Rollback)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return helper
}

// Tx returns the active transaction for the test.
func (h *PostgresTestHelper) Tx() *sqlx.Tx {
	return h.tx
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// Rollback rolls back the transaction once.
func (h *PostgresTestHelper) Rollback() {
	if h.rolledBack {
		return
	}
	_ = h.tx.Rollback()
	h.rolledBack = true
}

// NewTestPostgres creates a helper from the POSTGRES_* environment and
// applies the advice schema inside the test transaction
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	helper := NewPostgresTestHelper(t, PostgresConfigFromEnv(t))
	for _, stmt := range AdviceSchema {
		if _, err := helper.tx.Exec(stmt); err != nil {
			t.Fatalf("failed to apply schema: %v", err)
		}
	}
	return helper
}

// AdviceSchema creates the profile store and index history tables
var AdviceSchema = []string{
	`CREATE TABLE IF NOT EXISTS client_profiles (
		user_id UUID PRIMARY KEY,
		profile JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS market_index_returns (
		asset_class TEXT NOT NULL,
		year INT NOT NULL,
		annual_return DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (asset_class, year)
	)`,
}

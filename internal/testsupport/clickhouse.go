package testsupport

import (
	"context"
	"testing"
	"time"

	"finadvisor/internal/adapters/clickhouse"
)

// NewTestClickHouse connects to the CLICKHOUSE_* instance and makes sure the
// advice_audit table exists. The test is skipped when none is configured.
func NewTestClickHouse(t *testing.T) *clickhouse.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := clickhouse.NewClient(ctx, ClickHouseConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.EnsureAuditTable(ctx); err != nil {
		t.Fatalf("failed to apply clickhouse schema: %v", err)
	}
	return client
}

// RemoveAuditRowsAfter deletes the rows recorded under requestID once the
// test finishes, so the shared table does not grow between runs.
func RemoveAuditRowsAfter(t *testing.T, client *clickhouse.Client, requestID string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.DeleteAuditRows(ctx, requestID)
	})
}

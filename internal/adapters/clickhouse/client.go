package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"finadvisor/internal/adapters/config"
	"finadvisor/pkg/errors"
)

// AuditTable is the DDL for the advice audit log. Rows are only appended;
// the request id ties a row back to the HTTP request or Kafka job.
const AuditTable = `
	CREATE TABLE IF NOT EXISTS advice_audit (
		id UUID,
		request_id String,
		user_id String,
		source LowCardinality(String),
		domain LowCardinality(String),
		intent LowCardinality(String),
		confidence Float64,
		calculators Array(String),
		recommendation_count UInt16,
		status LowCardinality(String),
		latency_ms UInt32,
		created_at DateTime64(3)
	) ENGINE = MergeTree()
	ORDER BY (domain, created_at)
`

const dialTimeout = 5 * time.Second

// Client holds the connection the audit repository batches into.
type Client struct {
	conn driver.Conn
}

// NewClient opens a connection and pings it within ctx.
func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: dialTimeout,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "ping clickhouse")
	}

	return &Client{conn: conn}, nil
}

// EnsureAuditTable creates advice_audit if it does not exist yet.
func (c *Client) EnsureAuditTable(ctx context.Context) error {
	return errors.Wrap(c.conn.Exec(ctx, AuditTable), "create advice_audit")
}

// DeleteAuditRows drops the rows recorded for one request.
func (c *Client) DeleteAuditRows(ctx context.Context, requestID string) error {
	return c.conn.Exec(ctx, "ALTER TABLE advice_audit DELETE WHERE request_id = ?", requestID)
}

func (c *Client) Conn() driver.Conn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Health backs the clickhouse readiness check.
func (c *Client) Health(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

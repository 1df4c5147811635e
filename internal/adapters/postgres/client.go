package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"finadvisor/internal/adapters/config"
	"finadvisor/pkg/errors"
)

// Client holds the pooled connection behind the profile store and the
// market index history.
type Client struct {
	db *sqlx.DB
}

// NewClient opens the pool and pings it within ctx.
func NewClient(ctx context.Context, cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(max(cfg.MaxConns/2, 1))
	db.SetConnMaxIdleTime(30 * time.Minute)

	return &Client{db: db}, nil
}

func (c *Client) DB() *sqlx.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Health backs the postgres readiness check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

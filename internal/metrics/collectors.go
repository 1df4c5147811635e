package metrics

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"finadvisor/pkg/logger"
)

// StoreCollector reports store-level gauges at scrape time. Any store may be
// nil when it is disabled; its gauges are then omitted.
type StoreCollector struct {
	log        *logger.Logger
	postgres   *sqlx.DB
	clickhouse driver.Conn
	redis      *redis.Client

	storedProfiles *prometheus.Desc
	auditRows      *prometheus.Desc
	redisKeys      *prometheus.Desc
}

// NewStoreCollector creates a new store metrics collector
func NewStoreCollector(postgres *sqlx.DB, clickhouse driver.Conn, redis *redis.Client) *StoreCollector {
	return &StoreCollector{
		log:        logger.Get().With("component", "metrics_collector"),
		postgres:   postgres,
		clickhouse: clickhouse,
		redis:      redis,

		storedProfiles: prometheus.NewDesc(
			"finadvisor_stored_profiles",
			"Number of stored client profiles",
			nil, nil,
		),
		auditRows: prometheus.NewDesc(
			"finadvisor_audit_rows_24h",
			"Advice audit rows in the last 24h by status",
			[]string{"status"}, nil,
		),
		redisKeys: prometheus.NewDesc(
			"finadvisor_redis_keys",
			"Keys in the cache database",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.storedProfiles
	ch <- c.auditRows
	ch <- c.redisKeys
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.postgres != nil {
		c.collectProfileCount(ctx, ch)
	}
	if c.clickhouse != nil {
		c.collectAuditStats(ctx, ch)
	}
	if c.redis != nil {
		c.collectRedisKeys(ctx, ch)
	}
}

func (c *StoreCollector) collectProfileCount(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	if err := c.postgres.GetContext(ctx, &count, "SELECT COUNT(*) FROM client_profiles"); err != nil {
		c.log.Warnw("Failed to collect profile count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.storedProfiles, prometheus.GaugeValue, float64(count))
}

func (c *StoreCollector) collectAuditStats(ctx context.Context, ch chan<- prometheus.Metric) {
	rows, err := c.clickhouse.Query(ctx, `
		SELECT status, count() AS rows
		FROM advice_audit
		WHERE created_at > now() - INTERVAL 24 HOUR
		GROUP BY status
	`)
	if err != nil {
		c.log.Warnw("Failed to collect audit stats", "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  uint64
		)
		if err := rows.Scan(&status, &count); err != nil {
			c.log.Warnw("Failed to scan audit stats", "error", err)
			return
		}
		ch <- prometheus.MustNewConstMetric(c.auditRows, prometheus.GaugeValue, float64(count), status)
	}
}

func (c *StoreCollector) collectRedisKeys(ctx context.Context, ch chan<- prometheus.Metric) {
	n, err := c.redis.DBSize(ctx).Result()
	if err != nil {
		c.log.Warnw("Failed to collect redis key count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.redisKeys, prometheus.GaugeValue, float64(n))
}

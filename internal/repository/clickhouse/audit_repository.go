package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"finadvisor/internal/domain/advice"
	"finadvisor/internal/metrics"
	"finadvisor/pkg/clickhouse"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

const auditTable = "advice_audit"

var _ advice.AuditRepository = (*AuditRepository)(nil)

// AuditRepository buffers advice audit rows and inserts them in batches
type AuditRepository struct {
	conn        driver.Conn
	batchWriter *clickhouse.BatchWriter[*advice.AuditRecord]
	log         *logger.Logger
}

// AuditConfig tunes batching; zero values use the batch writer defaults
type AuditConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// NewAuditRepository creates an audit repository with its batch writer
func NewAuditRepository(conn driver.Conn, cfg AuditConfig) *AuditRepository {
	repo := &AuditRepository{
		conn: conn,
		log:  logger.Get().With("component", "audit_repository"),
	}

	repo.batchWriter = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig[*advice.AuditRecord]{
		FlushFunc:    repo.flushBatch,
		TableName:    auditTable,
		MaxBatchSize: cfg.BatchSize,
		MaxAge:       cfg.FlushInterval,
	})

	return repo
}

// Start begins the background flush loop
func (r *AuditRepository) Start(ctx context.Context) {
	r.batchWriter.Start(ctx)
}

// Stop flushes buffered rows and stops the flush loop
func (r *AuditRepository) Stop(ctx context.Context) error {
	return r.batchWriter.Stop(ctx)
}

// Record buffers a row; it is written on the next flush
func (r *AuditRepository) Record(ctx context.Context, rec *advice.AuditRecord) error {
	if rec == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil audit record")
	}
	return r.batchWriter.Add(ctx, rec)
}

// Stats exposes the batch writer state for health reporting
func (r *AuditRepository) Stats() clickhouse.BatchWriterStats {
	return r.batchWriter.GetStats()
}

func (r *AuditRepository) flushBatch(ctx context.Context, batch []*advice.AuditRecord) (err error) {
	defer func() { metrics.RecordAuditFlush(len(batch), err) }()

	query := `
		INSERT INTO advice_audit (
			id, request_id, user_id, source,
			domain, intent, confidence,
			calculators, recommendation_count,
			status, latency_ms, created_at
		)
	`

	start := time.Now()

	stmt, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to prepare audit batch")
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range batch {
		if err := stmt.Append(
			rec.ID, rec.RequestID, rec.UserID, rec.Source,
			rec.Domain, rec.Intent, rec.Confidence,
			rec.Calculators, rec.RecommendationCount,
			rec.Status, rec.LatencyMs, rec.CreatedAt,
		); err != nil {
			return errors.Wrap(err, "failed to append audit row")
		}
	}

	if err := stmt.Send(); err != nil {
		return errors.Wrap(err, "failed to send audit batch")
	}

	r.log.Debugw("Inserted audit batch", "rows", len(batch), "duration", time.Since(start))
	return nil
}

// CountByRequest returns how many audit rows exist for a request id
func (r *AuditRepository) CountByRequest(ctx context.Context, requestID string) (uint64, error) {
	var count uint64
	row := r.conn.QueryRow(ctx, "SELECT count() FROM advice_audit WHERE request_id = ?", requestID)
	if err := row.Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count audit rows")
	}
	return count, nil
}

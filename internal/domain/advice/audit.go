package advice

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one answered question as written to the analytics store.
// It never carries profile contents.
type AuditRecord struct {
	ID                  uuid.UUID `ch:"id"`
	RequestID           string    `ch:"request_id"`
	UserID              string    `ch:"user_id"`
	Source              string    `ch:"source"` // http|kafka
	Domain              string    `ch:"domain"`
	Intent              string    `ch:"intent"`
	Confidence          float64   `ch:"confidence"`
	Calculators         []string  `ch:"calculators"`
	RecommendationCount uint16    `ch:"recommendation_count"`
	Status              string    `ch:"status"`
	LatencyMs           uint32    `ch:"latency_ms"`
	CreatedAt           time.Time `ch:"created_at"`
}

// AuditRepository stores audit records; implementations may buffer
type AuditRepository interface {
	Record(ctx context.Context, rec *AuditRecord) error
}

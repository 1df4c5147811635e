package workers

import (
	"context"
	"time"

	"finadvisor/internal/adapters/ratelimit"
)

// LimiterSweepWorker evicts idle per-client rate limit buckets
type LimiterSweepWorker struct {
	*BaseWorker
	limiter *ratelimit.KeyedLimiter
}

// NewLimiterSweepWorker is enabled only when the limiter is
func NewLimiterSweepWorker(limiter *ratelimit.KeyedLimiter, interval time.Duration) *LimiterSweepWorker {
	return &LimiterSweepWorker{
		BaseWorker: NewBaseWorker("limiter_sweep", interval, limiter.Enabled()),
		limiter:    limiter,
	}
}

// Run sweeps once
func (w *LimiterSweepWorker) Run(ctx context.Context) error {
	if evicted := w.limiter.Sweep(); evicted > 0 {
		w.Log().Debugw("Evicted idle rate limit buckets", "evicted", evicted, "remaining", w.limiter.Len())
	}
	return nil
}

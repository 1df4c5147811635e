package reconnect

import (
	"context"
	"sync"
	"time"

	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// Manager retries a connect function with exponential backoff and stops
// after MaxRetries consecutive failures
type Manager struct {
	name              string
	minBackoff        time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	maxRetries        int

	mu                  sync.Mutex
	currentBackoff      time.Duration
	consecutiveFailures int

	sleep  func(ctx context.Context, d time.Duration) error
	logger *logger.Logger
}

// Config configures the reconnect manager
type Config struct {
	MinBackoff        time.Duration // Initial backoff (e.g. 500ms)
	MaxBackoff        time.Duration // Max backoff (e.g. 30s)
	BackoffMultiplier float64       // Multiplier for exponential backoff (e.g. 2.0)
	MaxRetries        int           // Attempts before giving up
}

// NewManager creates a new reconnect manager with sensible defaults
func NewManager(name string, config Config, log *logger.Logger) *Manager {
	if config.MinBackoff == 0 {
		config.MinBackoff = 500 * time.Millisecond
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}

	return &Manager{
		name:              name,
		minBackoff:        config.MinBackoff,
		maxBackoff:        config.MaxBackoff,
		backoffMultiplier: config.BackoffMultiplier,
		maxRetries:        config.MaxRetries,
		currentBackoff:    config.MinBackoff,
		sleep:             sleepCtx,
		logger:            log.With("component", "reconnect", "target", name),
	}
}

// Backoff returns the wait before the next attempt
func (m *Manager) Backoff() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentBackoff
}

// RecordFailure grows the backoff up to the maximum
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++
	next := time.Duration(float64(m.currentBackoff) * m.backoffMultiplier)
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	m.currentBackoff = next
}

// RecordSuccess resets the backoff
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consecutiveFailures > 0 {
		m.logger.Infow("✓ Connected after retries", "failures", m.consecutiveFailures)
	}
	m.currentBackoff = m.minBackoff
	m.consecutiveFailures = 0
}

// Connect calls fn until it succeeds, MaxRetries attempts fail, or ctx ends.
// The first attempt runs immediately.
func (m *Manager) Connect(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := m.Backoff()
			m.logger.Infow("⏳ Waiting before reconnect attempt", "attempt", attempt, "backoff", backoff)
			if err := m.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		if lastErr = fn(ctx); lastErr == nil {
			m.RecordSuccess()
			return nil
		}

		m.RecordFailure()
		m.logger.Warnw("Connection attempt failed", "attempt", attempt, "error", lastErr)
	}

	return errors.Wrapf(lastErr, "%s: giving up after %d attempts", m.name, m.maxRetries)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

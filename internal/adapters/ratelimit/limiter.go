package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"finadvisor/pkg/errors"
)

// Limiter wraps a single token bucket
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a bucket refilling rps tokens per second up to burst
func NewLimiter(name string, rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the bucket allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

type entry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one bucket per client key and forgets idle keys
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rps     float64
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewKeyedLimiter creates a per-key limiter. rps <= 0 disables limiting.
func NewKeyedLimiter(rps float64, burst int, idle time.Duration) *KeyedLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &KeyedLimiter{
		entries: make(map[string]*entry),
		rps:     rps,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Enabled reports whether requests are limited at all
func (k *KeyedLimiter) Enabled() bool {
	return k != nil && k.rps > 0
}

// Allow takes a token from key's bucket
func (k *KeyedLimiter) Allow(key string) bool {
	if !k.Enabled() {
		return true
	}
	return k.get(key).Allow()
}

// Check is Allow returning errors.ErrRateLimited on refusal
func (k *KeyedLimiter) Check(key string) error {
	if k.Allow(key) {
		return nil
	}
	return errors.Wrapf(errors.ErrRateLimited, "client %s", key)
}

func (k *KeyedLimiter) get(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: NewLimiter(key, k.rps, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Sweep drops buckets idle longer than the configured window and returns
// how many were removed
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.idle)
	removed := 0
	for key, e := range k.entries {
		if e.lastSeen.Before(cutoff) {
			delete(k.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

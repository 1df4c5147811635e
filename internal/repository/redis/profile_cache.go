package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisadapter "finadvisor/internal/adapters/redis"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// DefaultProfileTTL applies when the configured TTL is not positive
const DefaultProfileTTL = 10 * time.Minute

var _ profile.Repository = (*CachedProfileRepository)(nil)

// CachedProfileRepository is a read-through cache in front of the profile
// store. Cache failures degrade to the store; they never fail a read.
type CachedProfileRepository struct {
	next  profile.Repository
	cache redisadapter.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedProfileRepository wraps next with a Redis cache
func NewCachedProfileRepository(next profile.Repository, cache redisadapter.Cache, ttl time.Duration) *CachedProfileRepository {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &CachedProfileRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().With("component", "profile_cache"),
	}
}

// ProfileKey is the cache key for a user's profile
func ProfileKey(userID uuid.UUID) string {
	return fmt.Sprintf("advice:profile:%s", userID)
}

// GetByUserID serves from cache, loading and caching on a miss
func (r *CachedProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.ClientProfile, error) {
	key := ProfileKey(userID)

	var cached profile.ClientProfile
	err := r.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("hit")
		return &cached, nil
	case errors.Is(err, errors.ErrNotFound):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		r.log.Warnw("Profile cache read failed", "user_id", userID, "error", err)
	}

	p, err := r.next.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, p, r.ttl); err != nil {
		r.log.Warnw("Profile cache write failed", "user_id", userID, "error", err)
	}
	return p, nil
}

// Save writes through to the store and invalidates the cached copy
func (r *CachedProfileRepository) Save(ctx context.Context, userID uuid.UUID, p *profile.ClientProfile) error {
	if err := r.next.Save(ctx, userID, p); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, ProfileKey(userID)); err != nil {
		r.log.Warnw("Profile cache invalidation failed", "user_id", userID, "error", err)
	}
	return nil
}

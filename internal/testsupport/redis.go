package testsupport

import (
	"context"
	"testing"
	"time"

	"finadvisor/internal/adapters/redis"
)

// NewTestRedis connects to the REDIS_* instance through the cache adapter
// and empties the selected database before and after the test.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, RedisConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	if err := client.Client().FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Client().FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

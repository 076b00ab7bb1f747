package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return client
}

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewLeaderboardCache(testRedis(t), time.Minute)
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	_, gen, ok, err := c.Get(ctx, 10)
	if err != nil || ok {
		t.Fatalf("empty cache get = %v, %v", ok, err)
	}

	entries := []*domain.LeaderboardEntry{{ID: uuid.New(), Username: "ana", TotalPoints: 85, CurrentStreak: 2, LongestStreak: 4}}
	if err := c.Set(ctx, gen, 10, entries); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, _, ok, err := c.Get(ctx, 10)
	if err != nil || !ok {
		t.Fatalf("get = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0].Username != "ana" || got[0].TotalPoints != 85 {
		t.Fatalf("cached entries = %+v", got)
	}
	if _, _, ok, _ := c.Get(ctx, 5); ok {
		t.Fatalf("other limit should miss")
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, _, ok, _ := c.Get(ctx, 10); ok {
		t.Fatalf("invalidated cache still hits")
	}
}

func TestLeaderboardCacheDropsWritesFromOldGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewLeaderboardCache(testRedis(t), time.Minute)

	// a read misses, then a finalize invalidates before the read stores its page
	_, staleGen, _, err := c.Get(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	stale := []*domain.LeaderboardEntry{{ID: uuid.New(), Username: "stale", TotalPoints: 1}}
	if err := c.Set(ctx, staleGen, 10, stale); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got, gen, ok, _ := c.Get(ctx, 10); ok || gen == staleGen {
		t.Fatalf("stale page served: %+v (gen %d)", got, gen)
	}
}

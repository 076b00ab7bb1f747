package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardPrefix     = "focus:leaderboard:"
	leaderboardGeneration = leaderboardPrefix + "gen"
)

// LeaderboardCache keeps rendered leaderboards under a generation counter.
// Each page lives in its own key with its own TTL. Invalidate bumps the
// generation, so a page computed before a finalize committed lands in a
// generation nobody reads any more and simply expires.
type LeaderboardCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewLeaderboardCache(redisClient *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{redis: redisClient, ttl: ttl}
}

func pageKey(generation int64, limit int) string {
	return fmt.Sprintf("%s%d:%d", leaderboardPrefix, generation, limit)
}

// Get returns the cached page for limit and the generation it was looked up
// under; ok is false on a miss. Pass the generation back to Set.
func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, int64, bool, error) {
	generation, err := c.redis.Get(ctx, leaderboardGeneration).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}

	raw, err := c.redis.Get(ctx, pageKey(generation, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, false, nil
	}
	if err != nil {
		return nil, generation, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []*domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, generation, false, fmt.Errorf("failed to decode leaderboard cache: %w", err)
	}
	return entries, generation, true, nil
}

// Set stores a page under the generation returned by the Get that missed
func (c *LeaderboardCache) Set(ctx context.Context, generation int64, limit int, entries []*domain.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	if err := c.redis.Set(ctx, pageKey(generation, limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Incr(ctx, leaderboardGeneration).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

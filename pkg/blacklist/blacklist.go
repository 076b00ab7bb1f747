package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/andressep95/focus-service/pkg/clock"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "focus:revoked:"

// TokenBlacklist records revoked token ids (jti) in Redis. Entries expire
// with the token they revoke.
type TokenBlacklist struct {
	redis *redis.Client
	clock clock.Clock
}

func NewTokenBlacklist(redisClient *redis.Client, clk clock.Clock) *TokenBlacklist {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &TokenBlacklist{redis: redisClient, clock: clk}
}

// Revoke blacklists jti until expiresAt. Already expired tokens are skipped.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.clock.Now())
	if ttl <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.redis.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

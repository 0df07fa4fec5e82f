package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/logger"
)

// RedisCache shares the snapshot cache across engine replicas. Values are
// JSON; TTL is enforced by redis itself.
type RedisCache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{client: client, logger: log}
}

func redisKey(accountID int64, providerID string) string {
	return fmt.Sprintf("costpulse:snapshot:%d:%s", accountID, providerID)
}

func (c *RedisCache) Get(ctx context.Context, accountID int64, providerID string) (*snapshot.NormalizedCostSnapshot, bool) {
	raw, err := c.client.Get(ctx, redisKey(accountID, providerID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis snapshot cache read failed")
		return nil, false
	}

	var s snapshot.NormalizedCostSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.WithError(err).Warn("Redis snapshot cache entry corrupt")
		return nil, false
	}
	return &s, true
}

func (c *RedisCache) Set(ctx context.Context, s *snapshot.NormalizedCostSnapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(s.AccountID, s.ProviderID), raw, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis snapshot cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, accountID int64, providerID string) {
	if err := c.client.Del(ctx, redisKey(accountID, providerID)).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis snapshot cache delete failed")
	}
}

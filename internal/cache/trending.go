package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TrendingKey is the sorted set holding item IDs scored by recent views.
	TrendingKey = "trending:items"

	// TrendingCap bounds the set; low scorers are trimmed on each write.
	TrendingCap = 200

	// TrendingTTL lets the set decay entirely if nothing is browsed.
	TrendingTTL = 48 * time.Hour
)

// TrendingCache tracks which items are drawing views. Best effort only:
// callers log failures and move on, the catalog never depends on it.
type TrendingCache interface {
	// RecordView bumps an item's trending score by one.
	RecordView(ctx context.Context, itemID string) error

	// Remove evicts an item that is no longer browsable.
	Remove(ctx context.Context, itemID string) error

	// Top returns up to limit item IDs ordered by score, highest first.
	Top(ctx context.Context, limit int) ([]string, error)
}

// RedisTrendingCache implements TrendingCache using a Redis sorted set.
type RedisTrendingCache struct {
	client *redis.Client
}

// NewTrendingCache creates a TrendingCache backed by Redis.
func NewTrendingCache(client *redis.Client) TrendingCache {
	return &RedisTrendingCache{client: client}
}

// RecordView pipelines ZINCRBY + trim-to-cap + TTL refresh.
func (c *RedisTrendingCache) RecordView(ctx context.Context, itemID string) error {
	pipe := c.client.Pipeline()

	pipe.ZIncrBy(ctx, TrendingKey, 1, itemID)
	// Keep the TrendingCap highest scores, drop the rest.
	pipe.ZRemRangeByRank(ctx, TrendingKey, 0, int64(-TrendingCap-1))
	pipe.Expire(ctx, TrendingKey, TrendingTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	return nil
}

// Remove evicts an item from the trending set.
func (c *RedisTrendingCache) Remove(ctx context.Context, itemID string) error {
	if err := c.client.ZRem(ctx, TrendingKey, itemID).Err(); err != nil {
		return fmt.Errorf("remove from trending: %w", err)
	}

	return nil
}

// Top returns the highest-scored item IDs.
func (c *RedisTrendingCache) Top(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	ids, err := c.client.ZRevRange(ctx, TrendingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read trending: %w", err)
	}

	return ids, nil
}

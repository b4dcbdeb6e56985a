// Package cache keeps the latest health score of each asset in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

const keyPrefix = "hsse:health:score"

// Connect parses a redis:// URL and verifies the server with a ping.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// ScoreCache stores health scores as JSON. A nil client turns every call into a no-op miss.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache wraps client; ttl bounds how long a score is served without a recalculation.
func NewScoreCache(client *redis.Client, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl}
}

// Key returns the cache key of an asset's score.
func Key(tenantID, assetID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tenantID, assetID)
}

// Get returns the cached score and whether it was found.
func (c *ScoreCache) Get(ctx context.Context, tenantID, assetID string) (*models.HealthScore, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, Key(tenantID, assetID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var score models.HealthScore
	if err := json.Unmarshal(val, &score); err != nil {
		return nil, false, fmt.Errorf("decode cached score: %w", err)
	}
	return &score, true, nil
}

// Set stores score under its asset key.
func (c *ScoreCache) Set(ctx context.Context, score models.HealthScore) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(score)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(score.TenantID, score.AssetID), data, c.ttl).Err()
}

// Close closes the underlying client.
func (c *ScoreCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

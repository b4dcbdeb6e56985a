package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "hsse:health:score:tenant-1:asset-1", Key("tenant-1", "asset-1"))
}

func TestScoreCache_NilClientIsNoop(t *testing.T) {
	c := NewScoreCache(nil, time.Minute)
	ctx := context.Background()

	score, found, err := c.Get(ctx, "tenant-1", "asset-1")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, score)

	assert.NoError(t, c.Set(ctx, models.HealthScore{TenantID: "tenant-1", AssetID: "asset-1"}))
	assert.NoError(t, c.Close())

	var nilCache *ScoreCache
	_, found, err = nilCache.Get(ctx, "tenant-1", "asset-1")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

// Integration test (requires running Redis)
func TestScoreCache_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	client, err := Connect(context.Background(), url)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	c := NewScoreCache(client, time.Minute)
	defer c.Close()

	ctx := context.Background()
	days := 120
	score := models.HealthScore{
		TenantID:                  "tenant-it",
		AssetID:                   "asset-it",
		OverallScore:              72,
		RiskLevel:                 models.RiskLow,
		DaysUntilPredictedFailure: &days,
		Trend:                     models.TrendStable,
	}
	require.NoError(t, c.Set(ctx, score))

	got, found, err := c.Get(ctx, "tenant-it", "asset-it")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 72, got.OverallScore)
	assert.Equal(t, 120, *got.DaysUntilPredictedFailure)

	_, found, err = c.Get(ctx, "tenant-it", "asset-never-cached")
	require.NoError(t, err)
	assert.False(t, found)
}

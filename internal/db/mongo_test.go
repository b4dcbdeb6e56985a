package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestConnectMongo_EmptyURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestIDValues(t *testing.T) {
	assert.Equal(t, bson.A{"asset-1"}, idValues("asset-1"))

	hex := "507f1f77bcf86cd799439011"
	oid, _ := primitive.ObjectIDFromHex(hex)
	assert.Equal(t, bson.A{hex, oid}, idValues(hex))
}

func TestFindAll_NilCollection(t *testing.T) {
	s := &MongoStore{}
	var out []models.MaintenanceRecord
	err := s.findAll(context.Background(), nil, bson.M{}, &out)
	assert.Error(t, err)
}

// Integration test (requires running MongoDB)
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	dbName := "hsse_asset_health_test"
	store := NewMongoStore(client, dbName)
	defer func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = store.Close(context.Background())
	}()
	require.NoError(t, store.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	oid := primitive.NewObjectID()
	deleted := now.Add(-time.Hour)

	_, err = store.assets.InsertMany(ctx, []interface{}{
		bson.M{"_id": oid, "tenant_id": "tenant-1", "name": "Gas detector", "condition_rating": "fair"},
		bson.M{"_id": "asset-str", "tenant_id": "tenant-1", "name": "Hoist"},
		bson.M{"_id": "asset-gone", "tenant_id": "tenant-1", "deleted_at": deleted},
		bson.M{"_id": "asset-other", "tenant_id": "tenant-2"},
	})
	require.NoError(t, err)

	var records []interface{}
	for i := 0; i < 25; i++ {
		records = append(records, bson.M{
			"tenant_id":      "tenant-1",
			"asset_id":       oid.Hex(),
			"performed_date": now.Add(-time.Duration(i) * 24 * time.Hour),
			"is_unplanned":   i%2 == 0,
		})
	}
	records = append(records, bson.M{
		"tenant_id": "tenant-1", "asset_id": oid.Hex(), "performed_date": now.Add(time.Hour), "deleted_at": deleted,
	})
	_, err = store.maintenance.InsertMany(ctx, records)
	require.NoError(t, err)

	_, err = store.schedules.InsertMany(ctx, []interface{}{
		bson.M{"tenant_id": "tenant-1", "asset_id": oid.Hex(), "task_name": "Calibrate", "is_active": true, "next_due_date": now.Add(-24 * time.Hour)},
		bson.M{"tenant_id": "tenant-1", "asset_id": oid.Hex(), "task_name": "Retired", "is_active": false},
	})
	require.NoError(t, err)

	t.Run("find asset by object id and string id", func(t *testing.T) {
		a, err := store.FindAsset(ctx, "tenant-1", oid.Hex())
		require.NoError(t, err)
		assert.Equal(t, oid.Hex(), a.ID)
		assert.Equal(t, models.ConditionFair, a.ConditionRating)

		_, err = store.FindAsset(ctx, "tenant-1", "asset-str")
		require.NoError(t, err)
	})

	t.Run("deleted and foreign assets are not found", func(t *testing.T) {
		_, err := store.FindAsset(ctx, "tenant-1", "asset-gone")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindAsset(ctx, "tenant-1", "asset-other")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list asset ids", func(t *testing.T) {
		ids, err := store.ListAssetIDs(ctx, "tenant-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{oid.Hex(), "asset-str"}, ids)
	})

	t.Run("recent maintenance is bounded and newest first", func(t *testing.T) {
		history, err := store.RecentMaintenance(ctx, "tenant-1", oid.Hex(), 20)
		require.NoError(t, err)
		require.Len(t, history, 20)
		assert.True(t, history[0].PerformedDate.Equal(now))
		assert.True(t, history[0].PerformedDate.After(history[19].PerformedDate))
	})

	t.Run("active schedules", func(t *testing.T) {
		schedules, err := store.ActiveSchedules(ctx, "tenant-1", oid.Hex())
		require.NoError(t, err)
		require.Len(t, schedules, 1)
		assert.True(t, schedules[0].IsOverdue(now))
	})

	t.Run("score upsert keeps one row per asset", func(t *testing.T) {
		score := models.HealthScore{TenantID: "tenant-1", AssetID: "asset-str", OverallScore: 80, RiskLevel: models.RiskLow, CalculatedAt: now}
		require.NoError(t, store.UpsertHealthScore(ctx, score))
		score.OverallScore = 50
		score.RiskLevel = models.RiskHigh
		require.NoError(t, store.UpsertHealthScore(ctx, score))

		n, err := store.scores.CountDocuments(ctx, bson.M{"asset_id": "asset-str"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err := store.FindHealthScore(ctx, "tenant-1", "asset-str")
		require.NoError(t, err)
		assert.Equal(t, 50, got.OverallScore)

		_, err = store.FindHealthScore(ctx, "tenant-1", "never-scored")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("supersede then insert leaves one active prediction", func(t *testing.T) {
		pred := models.FailurePrediction{
			TenantID: "tenant-1", AssetID: "asset-str", Status: models.PredictionActive,
			PredictedDate: now, CreatedAt: now, InputFactors: map[string]float64{"age": 20},
		}
		require.NoError(t, store.InsertPrediction(ctx, pred))

		n, err := store.SupersedeActivePredictions(ctx, "tenant-1", "asset-str", now)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		pred.CreatedAt = now.Add(time.Second)
		require.NoError(t, store.InsertPrediction(ctx, pred))

		preds, err := store.FindPredictions(ctx, "tenant-1", "asset-str", 10)
		require.NoError(t, err)
		require.Len(t, preds, 2)
		assert.Equal(t, models.PredictionActive, preds[0].Status)
		assert.Equal(t, models.PredictionSuperseded, preds[1].Status)
		require.NotNil(t, preds[1].SupersededAt)
	})
}

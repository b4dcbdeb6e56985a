package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	client      *mongo.Client
	assets      *mongo.Collection
	maintenance *mongo.Collection
	schedules   *mongo.Collection
	scores      *mongo.Collection
	predictions *mongo.Collection
}

// NewMongoStore binds the store to the named database.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	database := client.Database(dbName)
	return &MongoStore{
		client:      client,
		assets:      database.Collection(AssetsCollection),
		maintenance: database.Collection(MaintenanceCollection),
		schedules:   database.Collection(SchedulesCollection),
		scores:      database.Collection(ScoresCollection),
		predictions: database.Collection(PredictionsCollection),
	}
}

// EnsureIndexes creates the indexes the store relies on, including the unique
// asset index that backs health score upserts.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.scores, mongo.IndexModel{
			Keys:    bson.D{{Key: "asset_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.maintenance, mongo.IndexModel{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "asset_id", Value: 1}, {Key: "performed_date", Value: -1}},
		}},
		{s.schedules, mongo.IndexModel{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "asset_id", Value: 1}},
		}},
		{s.predictions, mongo.IndexModel{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "asset_id", Value: 1}, {Key: "status", Value: 1}},
		}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("create index on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}

// FindAsset finds a live asset by id within a tenant.
func (s *MongoStore) FindAsset(ctx context.Context, tenantID, assetID string) (*models.Asset, error) {
	filter := bson.M{
		"_id":        bson.M{"$in": idValues(assetID)},
		"tenant_id":  tenantID,
		"deleted_at": nil,
	}
	var asset models.Asset
	err := s.assets.FindOne(ctx, filter).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// ListAssetIDs returns the ids of all live assets of a tenant.
func (s *MongoStore) ListAssetIDs(ctx context.Context, tenantID string) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.assets.Find(ctx, bson.M{"tenant_id": tenantID, "deleted_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// RecentMaintenance returns up to limit live maintenance records, newest first.
func (s *MongoStore) RecentMaintenance(ctx context.Context, tenantID, assetID string, limit int) ([]models.MaintenanceRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "performed_date", Value: -1}}).
		SetLimit(int64(limit))
	filter := bson.M{"tenant_id": tenantID, "asset_id": assetID, "deleted_at": nil}
	records := []models.MaintenanceRecord{}
	if err := s.findAll(ctx, s.maintenance, filter, &records, opts); err != nil {
		return nil, err
	}
	return records, nil
}

// ActiveSchedules returns every live, active maintenance schedule of an asset.
func (s *MongoStore) ActiveSchedules(ctx context.Context, tenantID, assetID string) ([]models.MaintenanceSchedule, error) {
	filter := bson.M{"tenant_id": tenantID, "asset_id": assetID, "is_active": true, "deleted_at": nil}
	schedules := []models.MaintenanceSchedule{}
	if err := s.findAll(ctx, s.schedules, filter, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// UpsertHealthScore replaces the asset's score document, creating it if needed.
func (s *MongoStore) UpsertHealthScore(ctx context.Context, score models.HealthScore) error {
	score.ID = ""
	filter := bson.M{"asset_id": score.AssetID, "tenant_id": score.TenantID}
	_, err := s.scores.ReplaceOne(ctx, filter, score, options.Replace().SetUpsert(true))
	return err
}

// FindHealthScore returns the stored score of an asset.
func (s *MongoStore) FindHealthScore(ctx context.Context, tenantID, assetID string) (*models.HealthScore, error) {
	var score models.HealthScore
	err := s.scores.FindOne(ctx, bson.M{"asset_id": assetID, "tenant_id": tenantID}).Decode(&score)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &score, nil
}

// InsertPrediction appends a failure prediction.
func (s *MongoStore) InsertPrediction(ctx context.Context, p models.FailurePrediction) error {
	p.ID = ""
	_, err := s.predictions.InsertOne(ctx, p)
	return err
}

// SupersedeActivePredictions marks the asset's active predictions as superseded.
func (s *MongoStore) SupersedeActivePredictions(ctx context.Context, tenantID, assetID string, at time.Time) (int64, error) {
	filter := bson.M{"tenant_id": tenantID, "asset_id": assetID, "status": models.PredictionActive}
	update := bson.M{"$set": bson.M{"status": models.PredictionSuperseded, "superseded_at": at}}
	result, err := s.predictions.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// FindPredictions returns up to limit predictions of an asset, newest first.
func (s *MongoStore) FindPredictions(ctx context.Context, tenantID, assetID string, limit int) ([]models.FailurePrediction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	predictions := []models.FailurePrediction{}
	if err := s.findAll(ctx, s.predictions, bson.M{"tenant_id": tenantID, "asset_id": assetID}, &predictions, opts); err != nil {
		return nil, err
	}
	return predictions, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// idValues matches documents whose _id is stored either as the raw string or as an ObjectID.
func idValues(id string) bson.A {
	values := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		values = append(values, oid)
	}
	return values
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

// ErrNotFound is returned when no live (non-deleted) row matches a lookup.
var ErrNotFound = errors.New("not found")

// Collection names shared by the store implementations.
const (
	AssetsCollection      = "assets"
	MaintenanceCollection = "maintenance_logs"
	SchedulesCollection   = "maintenance_schedules"
	ScoresCollection      = "asset_health_scores"
	PredictionsCollection = "failure_predictions"
)

// AssetReader defines tenant-scoped reads of the asset register.
type AssetReader interface {
	FindAsset(ctx context.Context, tenantID, assetID string) (*models.Asset, error)
	ListAssetIDs(ctx context.Context, tenantID string) ([]string, error)
}

// MaintenanceReader defines tenant-scoped reads of maintenance history and schedules.
type MaintenanceReader interface {
	RecentMaintenance(ctx context.Context, tenantID, assetID string, limit int) ([]models.MaintenanceRecord, error)
	ActiveSchedules(ctx context.Context, tenantID, assetID string) ([]models.MaintenanceSchedule, error)
}

// HealthScoreCollection defines health score persistence. One score is kept per asset.
type HealthScoreCollection interface {
	UpsertHealthScore(ctx context.Context, score models.HealthScore) error
	FindHealthScore(ctx context.Context, tenantID, assetID string) (*models.HealthScore, error)
}

// PredictionCollection defines failure prediction persistence.
type PredictionCollection interface {
	InsertPrediction(ctx context.Context, p models.FailurePrediction) error
	SupersedeActivePredictions(ctx context.Context, tenantID, assetID string, at time.Time) (int64, error)
	FindPredictions(ctx context.Context, tenantID, assetID string, limit int) ([]models.FailurePrediction, error)
}

// Store is the full set of operations the health service needs.
type Store interface {
	AssetReader
	MaintenanceReader
	HealthScoreCollection
	PredictionCollection
	Close(ctx context.Context) error
}

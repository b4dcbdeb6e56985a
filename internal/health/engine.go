package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/hsse-asset-health/internal/db"
	"github.com/ukydev/hsse-asset-health/internal/metrics"
	"github.com/ukydev/hsse-asset-health/internal/models"
)

// DefaultModelVersion tags scores computed by this package.
const DefaultModelVersion = "weighted-factors-v1"

// AlertPublisher delivers health alerts to an external transport.
type AlertPublisher interface {
	Publish(ctx context.Context, alert models.HealthAlert) error
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	ModelVersion string
	Alerts       AlertPublisher
	Logger       log.FieldLogger
	Now          func() time.Time
}

// Engine gathers asset data, scores it and stores the result.
type Engine struct {
	store        db.Store
	alerts       AlertPublisher
	log          log.FieldLogger
	now          func() time.Time
	modelVersion string
}

// Result is the outcome of one calculation. Prediction is nil when none was stored.
type Result struct {
	Score      models.HealthScore
	Prediction *models.FailurePrediction
}

// NewEngine creates an engine backed by store.
func NewEngine(store db.Store, opts Options) *Engine {
	e := &Engine{
		store:        store,
		alerts:       opts.Alerts,
		log:          opts.Logger,
		now:          opts.Now,
		modelVersion: opts.ModelVersion,
	}
	if e.log == nil {
		e.log = log.StandardLogger()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.modelVersion == "" {
		e.modelVersion = DefaultModelVersion
	}
	return e
}

// Calculate scores one asset and persists the score. When the asset is at high
// or critical risk a failure prediction is also stored. Prediction storage and
// alerting are best-effort: their failures are logged and the score result is
// still returned.
func (e *Engine) Calculate(ctx context.Context, tenantID, assetID string) (*Result, error) {
	tenantID = strings.TrimSpace(tenantID)
	assetID = strings.TrimSpace(assetID)
	if tenantID == "" || assetID == "" {
		return nil, ErrInvalidRequest
	}

	start := time.Now()
	defer func() {
		metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	}()
	logger := e.log.WithFields(log.Fields{"tenant_id": tenantID, "asset_id": assetID})

	in, err := e.Gather(ctx, tenantID, assetID)
	if err != nil {
		metrics.CalculationErrors.WithLabelValues(ErrorReason(err)).Inc()
		return nil, err
	}

	now := e.now()
	score := Evaluate(in, now, e.modelVersion)
	if err := e.store.UpsertHealthScore(ctx, score); err != nil {
		metrics.CalculationErrors.WithLabelValues(ErrorReason(ErrPersistence)).Inc()
		logger.WithError(err).Error("Failed to save health score")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	metrics.ScoresCalculated.WithLabelValues(string(score.RiskLevel)).Inc()

	result := &Result{Score: score}
	if pred := BuildPrediction(in.Asset, score, now); pred != nil {
		result.Prediction = e.recordPrediction(ctx, logger, in.Asset, score.OverallScore, *pred)
	}

	logger.WithFields(log.Fields{
		"score":      score.OverallScore,
		"risk_level": score.RiskLevel,
		"trend":      score.Trend,
		"prediction": result.Prediction != nil,
	}).Info("Health score calculated")
	return result, nil
}

// Gather reads the asset, its recent maintenance history and its active
// schedules concurrently. A missing asset yields ErrAssetNotFound regardless
// of how the other reads ended.
func (e *Engine) Gather(ctx context.Context, tenantID, assetID string) (Inputs, error) {
	var (
		in                                Inputs
		assetErr, historyErr, scheduleErr error
		g                                 errgroup.Group
	)

	g.Go(func() error {
		asset, err := e.store.FindAsset(ctx, tenantID, assetID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				assetErr = ErrAssetNotFound
			} else {
				assetErr = fmt.Errorf("fetch asset: %w", err)
			}
			return assetErr
		}
		in.Asset = *asset
		return nil
	})
	g.Go(func() error {
		history, err := e.store.RecentMaintenance(ctx, tenantID, assetID, MaxHistory)
		if err != nil {
			historyErr = fmt.Errorf("fetch maintenance history: %w", err)
			return historyErr
		}
		in.History = history
		return nil
	})
	g.Go(func() error {
		schedules, err := e.store.ActiveSchedules(ctx, tenantID, assetID)
		if err != nil {
			scheduleErr = fmt.Errorf("fetch maintenance schedules: %w", err)
			return scheduleErr
		}
		in.Schedules = schedules
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{assetErr, historyErr, scheduleErr} {
		if err != nil {
			return Inputs{}, err
		}
	}
	return in, nil
}

func (e *Engine) recordPrediction(ctx context.Context, logger log.FieldLogger, asset models.Asset, score int, pred models.FailurePrediction) *models.FailurePrediction {
	superseded, err := e.store.SupersedeActivePredictions(ctx, pred.TenantID, pred.AssetID, pred.CreatedAt)
	if err != nil {
		logger.WithError(err).Warn("Failed to supersede active predictions")
	} else if superseded > 0 {
		metrics.PredictionsSuperseded.Add(float64(superseded))
	}

	if err := e.store.InsertPrediction(ctx, pred); err != nil {
		metrics.PredictionsFailed.Inc()
		logger.WithError(err).Error("Failed to save failure prediction")
		return nil
	}
	metrics.PredictionsCreated.WithLabelValues(string(pred.PredictedFailureType)).Inc()

	if e.alerts != nil {
		alert := models.HealthAlert{
			TenantID:          pred.TenantID,
			AssetID:           pred.AssetID,
			AssetName:         asset.Name,
			Score:             score,
			RiskLevel:         pred.Severity,
			FailureType:       pred.PredictedFailureType,
			PredictedDate:     pred.PredictedDate,
			Priority:          pred.Priority,
			RecommendedAction: pred.RecommendedAction,
			CreatedAt:         pred.CreatedAt,
		}
		if err := e.alerts.Publish(ctx, alert); err != nil {
			metrics.AlertsPublished.WithLabelValues("error").Inc()
			logger.WithError(err).Warn("Failed to publish health alert")
		} else {
			metrics.AlertsPublished.WithLabelValues("ok").Inc()
		}
	}
	return &pred
}

package health

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

// Factor weights. They sum to 1.0.
const (
	WeightAge         = 0.25
	WeightCondition   = 0.30
	WeightMaintenance = 0.20
	WeightUsage       = 0.15
	WeightEnvironment = 0.10
)

// Risk thresholds; a score strictly below a threshold falls into that band.
const (
	thresholdCritical = 40
	thresholdHigh     = 55
	thresholdMedium   = 70
)

const (
	trendWindow    = 5
	trendSample    = 2
	trendThreshold = 5.0
)

// OverallScore combines the factors with their weights into an integer in [0,100].
func OverallScore(f Factors) int {
	sum := f.Age*WeightAge +
		f.Condition*WeightCondition +
		f.Maintenance*WeightMaintenance +
		f.Usage*WeightUsage +
		f.Environment*WeightEnvironment
	return int(clamp(math.Round(sum), 0, 100))
}

// RiskLevelFor classifies a score, checking the worst band first.
func RiskLevelFor(score int) models.RiskLevel {
	switch {
	case score < thresholdCritical:
		return models.RiskCritical
	case score < thresholdHigh:
		return models.RiskHigh
	case score < thresholdMedium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// FailureProbability converts a score into a 0-1 probability.
func FailureProbability(score int) float64 {
	return clamp(float64(100-score), 0, 100) / 100
}

// DaysUntilFailure scales the days left in the asset's expected life by its score.
// It returns nil when the install date or lifespan is unknown.
func DaysUntilFailure(installed *time.Time, lifespanYears *int, score int, now time.Time) *int {
	if installed == nil || lifespanYears == nil || *lifespanYears <= 0 {
		return nil
	}
	end := installed.AddDate(*lifespanYears, 0, 0)
	remaining := math.Max(0, math.Ceil(end.Sub(now).Hours()/24))
	days := int(math.Round(remaining * float64(score) / 100))
	return &days
}

// TrendFrom compares the two most recent post-maintenance condition ratings with
// the two oldest of the last five. history must be ordered newest first.
func TrendFrom(history []models.MaintenanceRecord) models.Trend {
	rated := make([]float64, 0, trendWindow)
	for _, r := range history {
		if r.ConditionAfter == "" {
			continue
		}
		rated = append(rated, ConditionScore(r.ConditionAfter))
		if len(rated) == trendWindow {
			break
		}
	}
	if len(rated) < trendSample {
		return models.TrendStable
	}

	recent := stat.Mean(rated[:trendSample], nil)
	older := stat.Mean(rated[len(rated)-trendSample:], nil)
	switch diff := recent - older; {
	case diff > trendThreshold:
		return models.TrendImproving
	case diff < -trendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// Evaluate computes the full health score record for in at now.
func Evaluate(in Inputs, now time.Time, modelVersion string) models.HealthScore {
	f := ComputeFactors(in, now)
	score := OverallScore(f)

	return models.HealthScore{
		TenantID:                  in.Asset.TenantID,
		AssetID:                   in.Asset.ID,
		OverallScore:              score,
		RiskLevel:                 RiskLevelFor(score),
		AgeFactor:                 f.Age,
		ConditionFactor:           f.Condition,
		MaintenanceFactor:         f.Maintenance,
		UsageFactor:               f.Usage,
		EnvironmentFactor:         f.Environment,
		MaintenanceCompliancePct:  CompliancePct(in.Schedules, now),
		FailureProbability:        FailureProbability(score),
		DaysUntilPredictedFailure: DaysUntilFailure(in.Asset.InstallationDate, in.Asset.ExpectedLifespanYears, score, now),
		Trend:                     TrendFrom(in.History),
		FactorBreakdown:           Breakdown(f),
		CalculatedAt:              now,
		ModelVersion:              modelVersion,
	}
}

// Breakdown lists each factor with its weight and weighted contribution.
func Breakdown(f Factors) map[string]models.FactorDetail {
	detail := func(v, w float64) models.FactorDetail {
		return models.FactorDetail{Value: v, Weight: w, Contribution: v * w}
	}
	return map[string]models.FactorDetail{
		models.FactorAge:         detail(f.Age, WeightAge),
		models.FactorCondition:   detail(f.Condition, WeightCondition),
		models.FactorMaintenance: detail(f.Maintenance, WeightMaintenance),
		models.FactorUsage:       detail(f.Usage, WeightUsage),
		models.FactorEnvironment: detail(f.Environment, WeightEnvironment),
	}
}

package health

import (
	"math"
	"time"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

const defaultPredictionHorizonDays = 90

var repairCostMultipliers = map[models.RiskLevel]float64{
	models.RiskCritical: 0.4,
	models.RiskHigh:     0.25,
	models.RiskMedium:   0.15,
	models.RiskLow:      0.05,
}

var ignoredCostMultipliers = map[models.RiskLevel]float64{
	models.RiskCritical: 1.2,
	models.RiskHigh:     0.8,
	models.RiskMedium:   0.4,
	models.RiskLow:      0.1,
}

// NeedsPrediction reports whether a risk level warrants a failure prediction.
func NeedsPrediction(r models.RiskLevel) bool {
	return r == models.RiskHigh || r == models.RiskCritical
}

// BuildPrediction creates the failure prediction for an at-risk score.
// It returns nil when the score's risk level does not warrant one.
func BuildPrediction(asset models.Asset, hs models.HealthScore, now time.Time) *models.FailurePrediction {
	if !NeedsPrediction(hs.RiskLevel) {
		return nil
	}

	days := defaultPredictionHorizonDays
	if hs.DaysUntilPredictedFailure != nil {
		days = *hs.DaysUntilPredictedFailure
	}

	priority := 2
	if hs.RiskLevel == models.RiskCritical {
		priority = 1
	}

	f := factorsOf(hs)
	return &models.FailurePrediction{
		TenantID:             hs.TenantID,
		AssetID:              hs.AssetID,
		PredictedFailureType: ClassifyFailure(f),
		PredictedDate:        now.AddDate(0, 0, days),
		ConfidencePct:        Confidence(hs.OverallScore),
		Severity:             hs.RiskLevel,
		Status:               models.PredictionActive,
		RecommendedAction:    RecommendAction(hs.RiskLevel, f),
		InputFactors: map[string]float64{
			models.FactorAge:         f.Age,
			models.FactorCondition:   f.Condition,
			models.FactorMaintenance: f.Maintenance,
			models.FactorUsage:       f.Usage,
			models.FactorEnvironment: f.Environment,
		},
		Priority:            priority,
		EstimatedRepairCost: RepairCost(asset.PurchaseCost, hs.RiskLevel),
		CostIfIgnored:       IgnoredCost(asset.PurchaseCost, hs.RiskLevel),
		CreatedAt:           now,
	}
}

// Confidence is higher the lower the score, starting at 20%.
func Confidence(score int) int {
	return int(math.Round(float64(100-score)*0.8 + 20))
}

// ClassifyFailure picks the first matching failure mode, condition first.
func ClassifyFailure(f Factors) models.FailureType {
	switch {
	case f.Condition < 40:
		return models.FailureComponentDegradation
	case f.Age < 40:
		return models.FailureEndOfLife
	case f.Maintenance < 50:
		return models.FailureMaintenanceNeglect
	default:
		return models.FailureWearAndTear
	}
}

// RecommendAction picks the remediation text for an at-risk asset.
func RecommendAction(risk models.RiskLevel, f Factors) string {
	switch {
	case risk == models.RiskCritical && f.Condition < 40:
		return "Take the asset out of service and replace degraded components immediately"
	case risk == models.RiskCritical:
		return "Schedule urgent corrective maintenance within 7 days"
	case f.Maintenance < 50:
		return "Complete all overdue maintenance tasks and review the maintenance plan"
	case f.Condition < 60:
		return "Schedule a condition assessment and plan repairs within 30 days"
	default:
		return "Increase inspection frequency and plan preventive maintenance"
	}
}

// RepairCost estimates the repair cost at a risk level; nil when purchase cost is unknown.
func RepairCost(purchaseCost *float64, risk models.RiskLevel) *float64 {
	return costEstimate(purchaseCost, repairCostMultipliers[risk])
}

// IgnoredCost estimates the cost of leaving the asset unrepaired; nil when purchase cost is unknown.
func IgnoredCost(purchaseCost *float64, risk models.RiskLevel) *float64 {
	return costEstimate(purchaseCost, ignoredCostMultipliers[risk])
}

func costEstimate(purchaseCost *float64, multiplier float64) *float64 {
	if purchaseCost == nil {
		return nil
	}
	v := *purchaseCost * multiplier
	return &v
}

func factorsOf(hs models.HealthScore) Factors {
	return Factors{
		Age:         hs.AgeFactor,
		Condition:   hs.ConditionFactor,
		Maintenance: hs.MaintenanceFactor,
		Usage:       hs.UsageFactor,
		Environment: hs.EnvironmentFactor,
	}
}

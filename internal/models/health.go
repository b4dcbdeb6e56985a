package models

import (
	"time"
)

// RiskLevel classifies an overall health score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Trend is the direction of an asset's post-maintenance condition.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// FailureType is the most likely failure mode of an at-risk asset.
type FailureType string

const (
	FailureComponentDegradation FailureType = "component_degradation"
	FailureEndOfLife            FailureType = "end_of_life"
	FailureMaintenanceNeglect   FailureType = "maintenance_neglect"
	FailureWearAndTear          FailureType = "wear_and_tear"
)

// PredictionStatus is the lifecycle state of a failure prediction.
type PredictionStatus string

const (
	PredictionActive     PredictionStatus = "active"
	PredictionSuperseded PredictionStatus = "superseded"
)

// Factor names used as keys in the health score breakdown.
const (
	FactorAge         = "age"
	FactorCondition   = "condition"
	FactorMaintenance = "maintenance"
	FactorUsage       = "usage"
	FactorEnvironment = "environment"
)

// FactorDetail is one weighted factor of a health score.
type FactorDetail struct {
	Value        float64 `json:"value" bson:"value"`
	Weight       float64 `json:"weight" bson:"weight"`
	Contribution float64 `json:"contribution" bson:"contribution"`
}

// HealthScore is the latest health evaluation of an asset. There is at most one per asset.
type HealthScore struct {
	ID                        string                  `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID                  string                  `json:"tenant_id" bson:"tenant_id"`
	AssetID                   string                  `json:"asset_id" bson:"asset_id"`
	OverallScore              int                     `json:"overall_score" bson:"overall_score"`
	RiskLevel                 RiskLevel               `json:"risk_level" bson:"risk_level"`
	AgeFactor                 float64                 `json:"age_factor" bson:"age_factor"`
	ConditionFactor           float64                 `json:"condition_factor" bson:"condition_factor"`
	MaintenanceFactor         float64                 `json:"maintenance_factor" bson:"maintenance_factor"`
	UsageFactor               float64                 `json:"usage_factor" bson:"usage_factor"`
	EnvironmentFactor         float64                 `json:"environment_factor" bson:"environment_factor"`
	MaintenanceCompliancePct  float64                 `json:"maintenance_compliance_pct" bson:"maintenance_compliance_pct"`
	FailureProbability        float64                 `json:"failure_probability" bson:"failure_probability"`
	DaysUntilPredictedFailure *int                    `json:"days_until_predicted_failure" bson:"days_until_predicted_failure"`
	Trend                     Trend                   `json:"trend" bson:"trend"`
	FactorBreakdown           map[string]FactorDetail `json:"factor_breakdown" bson:"factor_breakdown"`
	CalculatedAt              time.Time               `json:"calculated_at" bson:"calculated_at"`
	ModelVersion              string                  `json:"model_version" bson:"model_version"`
}

// FailurePrediction is recorded whenever an asset scores high or critical risk.
type FailurePrediction struct {
	ID                   string             `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID             string             `json:"tenant_id" bson:"tenant_id"`
	AssetID              string             `json:"asset_id" bson:"asset_id"`
	PredictedFailureType FailureType        `json:"predicted_failure_type" bson:"predicted_failure_type"`
	PredictedDate        time.Time          `json:"predicted_date" bson:"predicted_date"`
	ConfidencePct        int                `json:"confidence_pct" bson:"confidence_pct"`
	Severity             RiskLevel          `json:"severity" bson:"severity"`
	Status               PredictionStatus   `json:"status" bson:"status"`
	RecommendedAction    string             `json:"recommended_action" bson:"recommended_action"`
	InputFactors         map[string]float64 `json:"input_factors" bson:"input_factors"`
	Priority             int                `json:"priority" bson:"priority"`
	EstimatedRepairCost  *float64           `json:"estimated_repair_cost,omitempty" bson:"estimated_repair_cost,omitempty"`
	CostIfIgnored        *float64           `json:"cost_if_ignored,omitempty" bson:"cost_if_ignored,omitempty"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	SupersededAt         *time.Time         `json:"superseded_at,omitempty" bson:"superseded_at,omitempty"`
}

// HealthAlert is the notification published when a failure prediction is created.
type HealthAlert struct {
	TenantID          string      `json:"tenant_id"`
	AssetID           string      `json:"asset_id"`
	AssetName         string      `json:"asset_name,omitempty"`
	Score             int         `json:"score"`
	RiskLevel         RiskLevel   `json:"risk_level"`
	FailureType       FailureType `json:"failure_type"`
	PredictedDate     time.Time   `json:"predicted_date"`
	Priority          int         `json:"priority"`
	RecommendedAction string      `json:"recommended_action"`
	CreatedAt         time.Time   `json:"created_at"`
}

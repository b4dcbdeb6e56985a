package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightAge + WeightCondition + WeightMaintenance + WeightUsage + WeightEnvironment
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name    string
		factors Factors
		want    int
	}{
		{"all perfect", Factors{100, 100, 100, 100, 100}, 100},
		{"all zero", Factors{0, 0, 0, 0, 0}, 0},
		{"good condition otherwise nominal", Factors{Age: 100, Condition: 80, Maintenance: 100, Usage: 100, Environment: 100}, 94},
		{"critical condition and old", Factors{Age: 20, Condition: 10, Maintenance: 40, Usage: 100, Environment: 100}, 41},
		{"rounds half up", Factors{Age: 50, Condition: 50, Maintenance: 50, Usage: 50, Environment: 55}, 51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallScore(tt.factors))
		})
	}
}

func TestOverallScore_SingleFactorChangeScalesByWeight(t *testing.T) {
	base := Factors{Age: 60, Condition: 60, Maintenance: 60, Usage: 60, Environment: 60}
	baseScore := OverallScore(base)

	tests := []struct {
		name   string
		mutate func(*Factors)
		weight float64
	}{
		{"age", func(f *Factors) { f.Age += 40 }, WeightAge},
		{"condition", func(f *Factors) { f.Condition += 40 }, WeightCondition},
		{"maintenance", func(f *Factors) { f.Maintenance += 40 }, WeightMaintenance},
		{"usage", func(f *Factors) { f.Usage += 40 }, WeightUsage},
		{"environment", func(f *Factors) { f.Environment += 40 }, WeightEnvironment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			assert.InDelta(t, 40*tt.weight, float64(OverallScore(f)-baseScore), 1)
		})
	}
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskCritical},
		{39, models.RiskCritical},
		{40, models.RiskHigh},
		{54, models.RiskHigh},
		{55, models.RiskMedium},
		{69, models.RiskMedium},
		{70, models.RiskLow},
		{100, models.RiskLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), "score %d", tt.score)
	}
}

func TestFailureProbability(t *testing.T) {
	assert.InDelta(t, 0.06, FailureProbability(94), 1e-9)
	assert.InDelta(t, 1.0, FailureProbability(0), 1e-9)
	assert.InDelta(t, 0.0, FailureProbability(100), 1e-9)
}

func TestDaysUntilFailure(t *testing.T) {
	t.Run("unknown age", func(t *testing.T) {
		assert.Nil(t, DaysUntilFailure(nil, intPtr(10), 80, testNow))
		assert.Nil(t, DaysUntilFailure(timePtr(testNow), nil, 80, testNow))
	})

	t.Run("scaled by score", func(t *testing.T) {
		installed := testNow.AddDate(-5, 0, 0)
		days := DaysUntilFailure(&installed, intPtr(10), 50, testNow)
		require.NotNil(t, days)
		// 2025-06-01 to 2030-06-01 is 1826 days.
		assert.Equal(t, 913, *days)
	})

	t.Run("past end of life", func(t *testing.T) {
		installed := testNow.AddDate(-30, 0, 0)
		days := DaysUntilFailure(&installed, intPtr(10), 90, testNow)
		require.NotNil(t, days)
		assert.Equal(t, 0, *days)
	})
}

func TestTrendFrom(t *testing.T) {
	rated := func(conditions ...models.Condition) []models.MaintenanceRecord {
		out := make([]models.MaintenanceRecord, 0, len(conditions))
		for _, c := range conditions {
			out = append(out, models.MaintenanceRecord{ConditionAfter: c})
		}
		return out
	}

	tests := []struct {
		name    string
		history []models.MaintenanceRecord
		want    models.Trend
	}{
		{"no history", nil, models.TrendStable},
		{"single rated record", rated(models.ConditionGood), models.TrendStable},
		{"two rated records compare with themselves", rated(models.ConditionGood, models.ConditionPoor), models.TrendStable},
		{"improving", rated(models.ConditionGood, models.ConditionGood, models.ConditionFair, models.ConditionPoor, models.ConditionPoor), models.TrendImproving},
		{"declining", rated(models.ConditionPoor, models.ConditionPoor, models.ConditionFair, models.ConditionGood, models.ConditionGood), models.TrendDeclining},
		{"difference of exactly five is stable", rated(models.ConditionGood, models.ConditionGood, models.ConditionFair, "unrecorded", models.ConditionGood), models.TrendStable},
		{"only the last five rated count", rated(models.ConditionGood, models.ConditionGood, models.ConditionGood, models.ConditionGood, models.ConditionGood, models.ConditionCritical), models.TrendStable},
		{"unrated records are skipped", rated(models.ConditionExcellent, "", models.ConditionExcellent, "", models.ConditionFair, models.ConditionFair), models.TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrendFrom(tt.history))
		})
	}
}

func TestEvaluate_HealthyAsset(t *testing.T) {
	in := Inputs{
		Asset: models.Asset{
			ID:               "asset-1",
			TenantID:         "tenant-1",
			ConditionRating:  models.ConditionGood,
			CriticalityLevel: models.CriticalityLow,
		},
	}

	hs := Evaluate(in, testNow, "test-v1")

	assert.Equal(t, "asset-1", hs.AssetID)
	assert.Equal(t, "tenant-1", hs.TenantID)
	assert.Equal(t, 94, hs.OverallScore)
	assert.Equal(t, models.RiskLow, hs.RiskLevel)
	assert.Equal(t, models.TrendStable, hs.Trend)
	assert.Nil(t, hs.DaysUntilPredictedFailure)
	assert.InDelta(t, 0.06, hs.FailureProbability, 1e-9)
	assert.Equal(t, 100.0, hs.MaintenanceCompliancePct)
	assert.Equal(t, "test-v1", hs.ModelVersion)
	assert.Equal(t, testNow, hs.CalculatedAt)

	require.Len(t, hs.FactorBreakdown, 5)
	cond := hs.FactorBreakdown[models.FactorCondition]
	assert.Equal(t, 80.0, cond.Value)
	assert.Equal(t, WeightCondition, cond.Weight)
	assert.InDelta(t, 24.0, cond.Contribution, 1e-9)
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	in := Inputs{
		Asset: models.Asset{
			ConditionRating:       models.ConditionFair,
			InstallationDate:      timePtr(testNow.AddDate(-7, 0, 0)),
			ExpectedLifespanYears: intPtr(12),
		},
		History: []models.MaintenanceRecord{
			{IsUnplanned: true, ConditionAfter: models.ConditionFair},
			{ConditionAfter: models.ConditionGood},
		},
		Schedules: []models.MaintenanceSchedule{{NextDueDate: timePtr(testNow.AddDate(0, -1, 0))}},
	}

	first := Evaluate(in, testNow, DefaultModelVersion)
	second := Evaluate(in, testNow, DefaultModelVersion)
	assert.Equal(t, first, second)
}

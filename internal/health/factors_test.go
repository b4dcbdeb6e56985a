package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func TestAgeFactor(t *testing.T) {
	tests := []struct {
		name      string
		installed *time.Time
		lifespan  *int
		want      float64
	}{
		{"unknown install date", nil, intPtr(10), 100},
		{"unknown lifespan", timePtr(testNow.AddDate(-3, 0, 0)), nil, 100},
		{"zero lifespan", timePtr(testNow.AddDate(-3, 0, 0)), intPtr(0), 100},
		{"brand new", timePtr(testNow), intPtr(10), 100},
		{"half way through life", timePtr(testNow.AddDate(-5, 0, 0)), intPtr(10), 60},
		{"exactly at end of life", timePtr(testNow.AddDate(-20, 0, 0)), intPtr(20), 20},
		{"far past end of life", timePtr(testNow.AddDate(-100, 0, 0)), intPtr(10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AgeFactor(tt.installed, tt.lifespan, testNow), 0.1)
		})
	}
}

func TestConditionScore(t *testing.T) {
	tests := []struct {
		condition models.Condition
		want      float64
	}{
		{models.ConditionExcellent, 100},
		{models.ConditionGood, 80},
		{models.ConditionFair, 60},
		{models.ConditionPoor, 30},
		{models.ConditionCritical, 10},
		{"", 70},
		{"unknown", 70},
	}

	for _, tt := range tests {
		t.Run(string(tt.condition), func(t *testing.T) {
			assert.Equal(t, tt.want, ConditionScore(tt.condition))
		})
	}
}

func TestEnvironmentScore(t *testing.T) {
	tests := []struct {
		criticality models.Criticality
		want        float64
	}{
		{models.CriticalityLow, 100},
		{models.CriticalityMedium, 85},
		{models.CriticalityHigh, 70},
		{models.CriticalityCritical, 55},
		{"", 85},
		{"extreme", 85},
	}

	for _, tt := range tests {
		t.Run(string(tt.criticality), func(t *testing.T) {
			assert.Equal(t, tt.want, EnvironmentScore(tt.criticality))
		})
	}
}

func TestMaintenanceFactor(t *testing.T) {
	past := timePtr(testNow.AddDate(0, 0, -1))
	future := timePtr(testNow.AddDate(0, 0, 7))

	t.Run("no schedules", func(t *testing.T) {
		assert.Equal(t, 100.0, MaintenanceFactor(nil, testNow))
		assert.Equal(t, 100.0, CompliancePct(nil, testNow))
	})

	t.Run("one of four overdue", func(t *testing.T) {
		schedules := []models.MaintenanceSchedule{
			{NextDueDate: past},
			{NextDueDate: future},
			{NextDueDate: future},
			{NextDueDate: nil},
		}
		assert.Equal(t, 87.5, MaintenanceFactor(schedules, testNow))
		assert.Equal(t, 75.0, CompliancePct(schedules, testNow))
	})

	t.Run("all overdue never drops below 50", func(t *testing.T) {
		schedules := []models.MaintenanceSchedule{{NextDueDate: past}, {NextDueDate: past}}
		assert.Equal(t, 50.0, MaintenanceFactor(schedules, testNow))
		assert.Equal(t, 0.0, CompliancePct(schedules, testNow))
	})

	t.Run("due exactly now is not overdue", func(t *testing.T) {
		schedules := []models.MaintenanceSchedule{{NextDueDate: timePtr(testNow)}}
		assert.Equal(t, 100.0, MaintenanceFactor(schedules, testNow))
	})
}

func TestUsageFactor(t *testing.T) {
	records := func(planned, unplanned int) []models.MaintenanceRecord {
		out := make([]models.MaintenanceRecord, 0, planned+unplanned)
		for i := 0; i < planned; i++ {
			out = append(out, models.MaintenanceRecord{})
		}
		for i := 0; i < unplanned; i++ {
			out = append(out, models.MaintenanceRecord{IsUnplanned: true})
		}
		return out
	}

	tests := []struct {
		name    string
		history []models.MaintenanceRecord
		want    float64
	}{
		{"no history", nil, 100},
		{"all planned", records(5, 0), 100},
		{"half unplanned", records(10, 10), 70},
		{"all unplanned", records(0, 4), 40},
		{"only the newest twenty count", records(20, 5), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, UsageFactor(tt.history), 1e-9)
		})
	}
}

func TestComputeFactors(t *testing.T) {
	in := Inputs{
		Asset: models.Asset{
			ConditionRating:  models.ConditionGood,
			CriticalityLevel: models.CriticalityHigh,
		},
	}
	f := ComputeFactors(in, testNow)
	assert.Equal(t, Factors{Age: 100, Condition: 80, Maintenance: 100, Usage: 100, Environment: 70}, f)
}

// Package health computes asset health scores and failure predictions from
// an asset's register entry and its maintenance data.
package health

import (
	"math"
	"time"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

const (
	// MaxHistory is the number of recent maintenance records considered.
	MaxHistory = 20

	daysPerYear = 365.25

	defaultConditionScore   = 70.0
	defaultEnvironmentScore = 85.0
)

var conditionScores = map[models.Condition]float64{
	models.ConditionExcellent: 100,
	models.ConditionGood:      80,
	models.ConditionFair:      60,
	models.ConditionPoor:      30,
	models.ConditionCritical:  10,
}

var environmentScores = map[models.Criticality]float64{
	models.CriticalityLow:      100,
	models.CriticalityMedium:   85,
	models.CriticalityHigh:     70,
	models.CriticalityCritical: 55,
}

// Inputs is everything gathered for one asset.
type Inputs struct {
	Asset     models.Asset
	History   []models.MaintenanceRecord // newest first
	Schedules []models.MaintenanceSchedule
}

// Factors holds the five 0-100 sub-scores of an asset.
type Factors struct {
	Age         float64
	Condition   float64
	Maintenance float64
	Usage       float64
	Environment float64
}

// ComputeFactors derives all five factors from in at the given time.
func ComputeFactors(in Inputs, now time.Time) Factors {
	return Factors{
		Age:         AgeFactor(in.Asset.InstallationDate, in.Asset.ExpectedLifespanYears, now),
		Condition:   ConditionScore(in.Asset.ConditionRating),
		Maintenance: MaintenanceFactor(in.Schedules, now),
		Usage:       UsageFactor(in.History),
		Environment: EnvironmentScore(in.Asset.CriticalityLevel),
	}
}

// AgeFactor penalises age relative to expected lifespan by at most 80 points.
// Unknown age counts as healthy.
func AgeFactor(installed *time.Time, lifespanYears *int, now time.Time) float64 {
	if installed == nil || lifespanYears == nil || *lifespanYears <= 0 {
		return 100
	}
	ageYears := now.Sub(*installed).Hours() / 24 / daysPerYear
	ratio := ageYears / float64(*lifespanYears)
	return clamp(100-ratio*80, 0, 100)
}

// ConditionScore maps a condition rating to its score; unknown ratings score 70.
func ConditionScore(c models.Condition) float64 {
	if s, ok := conditionScores[c]; ok {
		return s
	}
	return defaultConditionScore
}

// EnvironmentScore maps a criticality level to its score; unknown levels count as medium.
func EnvironmentScore(c models.Criticality) float64 {
	if s, ok := environmentScores[c]; ok {
		return s
	}
	return defaultEnvironmentScore
}

// MaintenanceFactor loses up to 50 points in proportion to overdue schedules.
func MaintenanceFactor(schedules []models.MaintenanceSchedule, now time.Time) float64 {
	if len(schedules) == 0 {
		return 100
	}
	overdue := countOverdue(schedules, now)
	return clamp(100-float64(overdue)/float64(len(schedules))*50, 0, 100)
}

// CompliancePct is the share of schedules that are not overdue, in percent.
func CompliancePct(schedules []models.MaintenanceSchedule, now time.Time) float64 {
	if len(schedules) == 0 {
		return 100
	}
	onTime := len(schedules) - countOverdue(schedules, now)
	return math.Round(float64(onTime) / float64(len(schedules)) * 100)
}

// UsageFactor loses up to 60 points in proportion to unplanned work, never going below 20.
func UsageFactor(history []models.MaintenanceRecord) float64 {
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	if len(history) == 0 {
		return 100
	}
	unplanned := 0
	for _, r := range history {
		if r.IsUnplanned {
			unplanned++
		}
	}
	ratio := float64(unplanned) / float64(len(history))
	return clamp(math.Max(20, 100-ratio*60), 0, 100)
}

func countOverdue(schedules []models.MaintenanceSchedule, now time.Time) int {
	n := 0
	for _, s := range schedules {
		if s.IsOverdue(now) {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package models

import (
	"time"
)

// MaintenanceRecord is one entry of an asset's maintenance history.
type MaintenanceRecord struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	TenantID        string     `json:"tenant_id" bson:"tenant_id"`
	AssetID         string     `json:"asset_id" bson:"asset_id"`
	MaintenanceType string     `json:"maintenance_type" bson:"maintenance_type"` // "preventive", "corrective", "inspection", "emergency"
	Description     string     `json:"description" bson:"description"`
	PerformedDate   time.Time  `json:"performed_date" bson:"performed_date"`
	IsUnplanned     bool       `json:"is_unplanned" bson:"is_unplanned"`
	ConditionAfter  Condition  `json:"condition_after,omitempty" bson:"condition_after,omitempty"`
	Cost            float64    `json:"cost" bson:"cost"`
	Technician      string     `json:"technician" bson:"technician"`
	Notes           string     `json:"notes" bson:"notes"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// MaintenanceSchedule is a recurring maintenance task planned for an asset.
type MaintenanceSchedule struct {
	ID                string     `json:"id" bson:"_id,omitempty"`
	TenantID          string     `json:"tenant_id" bson:"tenant_id"`
	AssetID           string     `json:"asset_id" bson:"asset_id"`
	TaskName          string     `json:"task_name" bson:"task_name"`
	FrequencyDays     int        `json:"frequency_days" bson:"frequency_days"`
	NextDueDate       *time.Time `json:"next_due_date,omitempty" bson:"next_due_date,omitempty"`
	LastPerformedDate *time.Time `json:"last_performed_date,omitempty" bson:"last_performed_date,omitempty"`
	IsActive          bool       `json:"is_active" bson:"is_active"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// IsOverdue reports whether the schedule's next due date has passed at now.
// A schedule without a due date is never overdue.
func (s MaintenanceSchedule) IsOverdue(now time.Time) bool {
	return s.NextDueDate != nil && s.NextDueDate.Before(now)
}

package models

import (
	"time"
)

// Condition is the inspected condition rating of an asset.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionCritical  Condition = "critical"
)

// Criticality describes how much the operation depends on an asset.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// Asset is a registered piece of equipment owned by a tenant.
// IDs are stored as strings; documents created with an ObjectID _id decode to its hex form.
type Asset struct {
	ID                    string      `bson:"_id,omitempty" json:"id"`
	TenantID              string      `bson:"tenant_id" json:"tenant_id"`
	Name                  string      `bson:"name" json:"name"`
	AssetTag              string      `bson:"asset_tag" json:"asset_tag"`
	Category              string      `bson:"category" json:"category"`
	InstallationDate      *time.Time  `bson:"installation_date,omitempty" json:"installation_date,omitempty"`
	WarrantyExpiry        *time.Time  `bson:"warranty_expiry,omitempty" json:"warranty_expiry,omitempty"`
	ConditionRating       Condition   `bson:"condition_rating" json:"condition_rating"`
	CriticalityLevel      Criticality `bson:"criticality_level" json:"criticality_level"`
	ExpectedLifespanYears *int        `bson:"expected_lifespan_years,omitempty" json:"expected_lifespan_years,omitempty"`
	CurrentValue          *float64    `bson:"current_value,omitempty" json:"current_value,omitempty"`
	PurchaseCost          *float64    `bson:"purchase_cost,omitempty" json:"purchase_cost,omitempty"`
	Status                string      `bson:"status" json:"status"` // "active", "inactive", "under_maintenance", "retired"
	CreatedAt             time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time   `bson:"updated_at" json:"updated_at"`
	DeletedAt             *time.Time  `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

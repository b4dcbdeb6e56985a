package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS assets (
	id                      TEXT PRIMARY KEY,
	tenant_id               TEXT NOT NULL,
	name                    TEXT NOT NULL DEFAULT '',
	asset_tag               TEXT NOT NULL DEFAULT '',
	category                TEXT NOT NULL DEFAULT '',
	installation_date       TIMESTAMPTZ,
	warranty_expiry         TIMESTAMPTZ,
	condition_rating        TEXT NOT NULL DEFAULT '',
	criticality_level       TEXT NOT NULL DEFAULT '',
	expected_lifespan_years INTEGER,
	current_value           DOUBLE PRECISION,
	purchase_cost           DOUBLE PRECISION,
	status                  TEXT NOT NULL DEFAULT 'active',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at              TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS maintenance_logs (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id        TEXT NOT NULL,
	asset_id         TEXT NOT NULL,
	maintenance_type TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	performed_date   TIMESTAMPTZ NOT NULL,
	is_unplanned     BOOLEAN NOT NULL DEFAULT false,
	condition_after  TEXT,
	cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	technician       TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS maintenance_logs_asset_idx
	ON maintenance_logs (tenant_id, asset_id, performed_date DESC);

CREATE TABLE IF NOT EXISTS maintenance_schedules (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id           TEXT NOT NULL,
	asset_id            TEXT NOT NULL,
	task_name           TEXT NOT NULL DEFAULT '',
	frequency_days      INTEGER NOT NULL DEFAULT 0,
	next_due_date       TIMESTAMPTZ,
	last_performed_date TIMESTAMPTZ,
	is_active           BOOLEAN NOT NULL DEFAULT true,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at          TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS asset_health_scores (
	id                           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id                    TEXT NOT NULL,
	asset_id                     TEXT NOT NULL UNIQUE,
	overall_score                INTEGER NOT NULL,
	risk_level                   TEXT NOT NULL,
	age_factor                   DOUBLE PRECISION NOT NULL,
	condition_factor             DOUBLE PRECISION NOT NULL,
	maintenance_factor           DOUBLE PRECISION NOT NULL,
	usage_factor                 DOUBLE PRECISION NOT NULL,
	environment_factor           DOUBLE PRECISION NOT NULL,
	maintenance_compliance_pct   DOUBLE PRECISION NOT NULL,
	failure_probability          DOUBLE PRECISION NOT NULL,
	days_until_predicted_failure INTEGER,
	trend                        TEXT NOT NULL,
	factor_breakdown             JSONB NOT NULL,
	calculated_at                TIMESTAMPTZ NOT NULL,
	model_version                TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS failure_predictions (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id              TEXT NOT NULL,
	asset_id               TEXT NOT NULL,
	predicted_failure_type TEXT NOT NULL,
	predicted_date         TIMESTAMPTZ NOT NULL,
	confidence_pct         INTEGER NOT NULL,
	severity               TEXT NOT NULL,
	status                 TEXT NOT NULL,
	recommended_action     TEXT NOT NULL,
	input_factors          JSONB NOT NULL,
	priority               INTEGER NOT NULL,
	estimated_repair_cost  DOUBLE PRECISION,
	cost_if_ignored        DOUBLE PRECISION,
	created_at             TIMESTAMPTZ NOT NULL,
	superseded_at          TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS failure_predictions_asset_idx
	ON failure_predictions (tenant_id, asset_id, status);
`

// ConnectPostgres opens a connection pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return pool, nil
}

// PostgresStore implements Store on a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables and indexes used by the store.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) FindAsset(ctx context.Context, tenantID, assetID string) (*models.Asset, error) {
	var a models.Asset
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, asset_tag, category, installation_date, warranty_expiry,
		       condition_rating, criticality_level, expected_lifespan_years, current_value,
		       purchase_cost, status, created_at, updated_at
		FROM assets
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, assetID, tenantID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.AssetTag, &a.Category, &a.InstallationDate, &a.WarrantyExpiry,
		&a.ConditionRating, &a.CriticalityLevel, &a.ExpectedLifespanYears, &a.CurrentValue,
		&a.PurchaseCost, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListAssetIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM assets WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) RecentMaintenance(ctx context.Context, tenantID, assetID string, limit int) ([]models.MaintenanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, asset_id, maintenance_type, description, performed_date, is_unplanned,
		       COALESCE(condition_after, ''), cost, technician, notes, created_at
		FROM maintenance_logs
		WHERE tenant_id = $1 AND asset_id = $2 AND deleted_at IS NULL
		ORDER BY performed_date DESC
		LIMIT $3
	`, tenantID, assetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.MaintenanceRecord{}
	for rows.Next() {
		var r models.MaintenanceRecord
		if err := rows.Scan(&r.ID, &r.TenantID, &r.AssetID, &r.MaintenanceType, &r.Description,
			&r.PerformedDate, &r.IsUnplanned, &r.ConditionAfter, &r.Cost, &r.Technician, &r.Notes,
			&r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan maintenance row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) ActiveSchedules(ctx context.Context, tenantID, assetID string) ([]models.MaintenanceSchedule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, asset_id, task_name, frequency_days, next_due_date,
		       last_performed_date, is_active, created_at
		FROM maintenance_schedules
		WHERE tenant_id = $1 AND asset_id = $2 AND is_active AND deleted_at IS NULL
	`, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []models.MaintenanceSchedule{}
	for rows.Next() {
		var sc models.MaintenanceSchedule
		if err := rows.Scan(&sc.ID, &sc.TenantID, &sc.AssetID, &sc.TaskName, &sc.FrequencyDays,
			&sc.NextDueDate, &sc.LastPerformedDate, &sc.IsActive, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

func (s *PostgresStore) UpsertHealthScore(ctx context.Context, hs models.HealthScore) error {
	breakdown, err := json.Marshal(hs.FactorBreakdown)
	if err != nil {
		return fmt.Errorf("marshal factor breakdown: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO asset_health_scores (
			tenant_id, asset_id, overall_score, risk_level, age_factor, condition_factor,
			maintenance_factor, usage_factor, environment_factor, maintenance_compliance_pct,
			failure_probability, days_until_predicted_failure, trend, factor_breakdown,
			calculated_at, model_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (asset_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			overall_score = EXCLUDED.overall_score,
			risk_level = EXCLUDED.risk_level,
			age_factor = EXCLUDED.age_factor,
			condition_factor = EXCLUDED.condition_factor,
			maintenance_factor = EXCLUDED.maintenance_factor,
			usage_factor = EXCLUDED.usage_factor,
			environment_factor = EXCLUDED.environment_factor,
			maintenance_compliance_pct = EXCLUDED.maintenance_compliance_pct,
			failure_probability = EXCLUDED.failure_probability,
			days_until_predicted_failure = EXCLUDED.days_until_predicted_failure,
			trend = EXCLUDED.trend,
			factor_breakdown = EXCLUDED.factor_breakdown,
			calculated_at = EXCLUDED.calculated_at,
			model_version = EXCLUDED.model_version
	`, hs.TenantID, hs.AssetID, hs.OverallScore, string(hs.RiskLevel), hs.AgeFactor, hs.ConditionFactor,
		hs.MaintenanceFactor, hs.UsageFactor, hs.EnvironmentFactor, hs.MaintenanceCompliancePct,
		hs.FailureProbability, hs.DaysUntilPredictedFailure, string(hs.Trend), breakdown,
		hs.CalculatedAt, hs.ModelVersion)
	return err
}

func (s *PostgresStore) FindHealthScore(ctx context.Context, tenantID, assetID string) (*models.HealthScore, error) {
	var (
		hs        models.HealthScore
		breakdown []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, asset_id, overall_score, risk_level, age_factor, condition_factor,
		       maintenance_factor, usage_factor, environment_factor, maintenance_compliance_pct,
		       failure_probability, days_until_predicted_failure, trend, factor_breakdown,
		       calculated_at, model_version
		FROM asset_health_scores
		WHERE asset_id = $1 AND tenant_id = $2
	`, assetID, tenantID).Scan(
		&hs.ID, &hs.TenantID, &hs.AssetID, &hs.OverallScore, &hs.RiskLevel, &hs.AgeFactor, &hs.ConditionFactor,
		&hs.MaintenanceFactor, &hs.UsageFactor, &hs.EnvironmentFactor, &hs.MaintenanceCompliancePct,
		&hs.FailureProbability, &hs.DaysUntilPredictedFailure, &hs.Trend, &breakdown,
		&hs.CalculatedAt, &hs.ModelVersion,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &hs.FactorBreakdown); err != nil {
		return nil, fmt.Errorf("decode factor breakdown: %w", err)
	}
	return &hs, nil
}

func (s *PostgresStore) InsertPrediction(ctx context.Context, p models.FailurePrediction) error {
	factors, err := json.Marshal(p.InputFactors)
	if err != nil {
		return fmt.Errorf("marshal input factors: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO failure_predictions (
			tenant_id, asset_id, predicted_failure_type, predicted_date, confidence_pct, severity,
			status, recommended_action, input_factors, priority, estimated_repair_cost,
			cost_if_ignored, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.TenantID, p.AssetID, string(p.PredictedFailureType), p.PredictedDate, p.ConfidencePct,
		string(p.Severity), string(p.Status), p.RecommendedAction, factors, p.Priority,
		p.EstimatedRepairCost, p.CostIfIgnored, p.CreatedAt)
	return err
}

func (s *PostgresStore) SupersedeActivePredictions(ctx context.Context, tenantID, assetID string, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE failure_predictions
		SET status = $4, superseded_at = $5
		WHERE tenant_id = $1 AND asset_id = $2 AND status = $3
	`, tenantID, assetID, string(models.PredictionActive), string(models.PredictionSuperseded), at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) FindPredictions(ctx context.Context, tenantID, assetID string, limit int) ([]models.FailurePrediction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, asset_id, predicted_failure_type, predicted_date, confidence_pct,
		       severity, status, recommended_action, input_factors, priority,
		       estimated_repair_cost, cost_if_ignored, created_at, superseded_at
		FROM failure_predictions
		WHERE tenant_id = $1 AND asset_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, assetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := []models.FailurePrediction{}
	for rows.Next() {
		var (
			p       models.FailurePrediction
			factors []byte
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.AssetID, &p.PredictedFailureType, &p.PredictedDate,
			&p.ConfidencePct, &p.Severity, &p.Status, &p.RecommendedAction, &factors, &p.Priority,
			&p.EstimatedRepairCost, &p.CostIfIgnored, &p.CreatedAt, &p.SupersededAt); err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		if err := json.Unmarshal(factors, &p.InputFactors); err != nil {
			return nil, fmt.Errorf("decode input factors: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/hsse-asset-health/internal/db"
	"github.com/ukydev/hsse-asset-health/internal/health"
	"github.com/ukydev/hsse-asset-health/internal/metrics"
	"github.com/ukydev/hsse-asset-health/internal/models"
)

const (
	defaultPredictionLimit = 20
	maxPredictionLimit     = 100
	maxBodyBytes           = 1 << 20
)

// Calculator runs a health calculation for one asset.
type Calculator interface {
	Calculate(ctx context.Context, tenantID, assetID string) (*health.Result, error)
}

// Reader is the read side of the store used by the query endpoints.
type Reader interface {
	ListAssetIDs(ctx context.Context, tenantID string) ([]string, error)
	FindHealthScore(ctx context.Context, tenantID, assetID string) (*models.HealthScore, error)
	FindPredictions(ctx context.Context, tenantID, assetID string, limit int) ([]models.FailurePrediction, error)
}

// ScoreCache holds the latest score per asset.
type ScoreCache interface {
	Get(ctx context.Context, tenantID, assetID string) (*models.HealthScore, bool, error)
	Set(ctx context.Context, score models.HealthScore) error
}

// HealthHandler serves the asset health endpoints.
type HealthHandler struct {
	engine  Calculator
	reader  Reader
	cache   ScoreCache
	log     log.FieldLogger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(engine Calculator, reader Reader, cache ScoreCache, logger log.FieldLogger, timeout time.Duration) *HealthHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &HealthHandler{
		engine:  engine,
		reader:  reader,
		cache:   cache,
		log:     logger,
		timeout: timeout,
	}
}

type calculateRequest struct {
	AssetID  string `json:"asset_id"`
	TenantID string `json:"tenant_id"`
}

type calculateResponse struct {
	Success                   bool             `json:"success"`
	Score                     int              `json:"score"`
	RiskLevel                 models.RiskLevel `json:"risk_level"`
	Trend                     models.Trend     `json:"trend"`
	FailureProbability        float64          `json:"failure_probability"`
	DaysUntilPredictedFailure *int             `json:"days_until_predicted_failure"`
}

type assetListResponse struct {
	TenantID string   `json:"tenant_id"`
	AssetIDs []string `json:"asset_ids"`
	Count    int      `json:"count"`
}

// Calculate handles POST /api/assets/health/calculate.
func (h *HealthHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req calculateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.AssetID) == "" || strings.TrimSpace(req.TenantID) == "" {
		writeError(w, http.StatusBadRequest, health.ErrInvalidRequest.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.engine.Calculate(ctx, req.TenantID, req.AssetID)
	if err != nil {
		h.writeCalculateError(w, req, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, res.Score); err != nil {
			h.log.WithError(err).WithField("asset_id", req.AssetID).Warn("Failed to cache health score")
		}
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Success:                   true,
		Score:                     res.Score.OverallScore,
		RiskLevel:                 res.Score.RiskLevel,
		Trend:                     res.Score.Trend,
		FailureProbability:        res.Score.FailureProbability,
		DaysUntilPredictedFailure: res.Score.DaysUntilPredictedFailure,
	})
}

func (h *HealthHandler) writeCalculateError(w http.ResponseWriter, req calculateRequest, err error) {
	switch {
	case errors.Is(err, health.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, health.ErrInvalidRequest.Error())
	case errors.Is(err, health.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, "Asset not found")
	case errors.Is(err, health.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "Failed to save health score")
	default:
		h.log.WithError(err).WithFields(log.Fields{
			"tenant_id": req.TenantID,
			"asset_id":  req.AssetID,
		}).Error("Health score calculation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// GetScore handles GET /api/assets/{asset_id}/health?tenant_id=.
func (h *HealthHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	tenantID, assetID, ok := scopedIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	if h.cache != nil {
		score, found, err := h.cache.Get(ctx, tenantID, assetID)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			h.log.WithError(err).WithField("asset_id", assetID).Warn("Health score cache lookup failed")
		case found:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			writeJSON(w, http.StatusOK, score)
			return
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	score, err := h.reader.FindHealthScore(ctx, tenantID, assetID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Health score not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("asset_id", assetID).Error("Failed to load health score")
		writeError(w, http.StatusInternalServerError, "Failed to load health score")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, *score); err != nil {
			h.log.WithError(err).WithField("asset_id", assetID).Warn("Failed to cache health score")
		}
	}
	writeJSON(w, http.StatusOK, score)
}

// ListPredictions handles GET /api/assets/{asset_id}/predictions?tenant_id=&limit=.
func (h *HealthHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	tenantID, assetID, ok := scopedIDs(w, r)
	if !ok {
		return
	}

	limit := defaultPredictionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPredictionLimit)
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	preds, err := h.reader.FindPredictions(ctx, tenantID, assetID, limit)
	if err != nil {
		h.log.WithError(err).WithField("asset_id", assetID).Error("Failed to load failure predictions")
		writeError(w, http.StatusInternalServerError, "Failed to load failure predictions")
		return
	}
	if preds == nil {
		preds = []models.FailurePrediction{}
	}
	writeJSON(w, http.StatusOK, preds)
}

// ListAssets handles GET /api/assets?tenant_id=.
func (h *HealthHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	ids, err := h.reader.ListAssetIDs(ctx, tenantID)
	if err != nil {
		h.log.WithError(err).WithField("tenant_id", tenantID).Error("Failed to list assets")
		writeError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, assetListResponse{TenantID: tenantID, AssetIDs: ids, Count: len(ids)})
}

// Liveness handles GET /health.
func Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func scopedIDs(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	assetID := strings.TrimSpace(mux.Vars(r)["asset_id"])
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if assetID == "" || tenantID == "" {
		writeError(w, http.StatusBadRequest, health.ErrInvalidRequest.Error())
		return "", "", false
	}
	return tenantID, assetID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

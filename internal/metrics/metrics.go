// Package metrics holds the Prometheus collectors of the health service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresCalculated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_scores_calculated_total",
		Help: "Total number of health scores calculated, by risk level.",
	}, []string{"risk_level"})
	CalculationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_calculation_errors_total",
		Help: "Total number of failed health calculations, by error class.",
	}, []string{"reason"})
	PredictionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_predictions_created_total",
		Help: "Total number of failure predictions stored, by failure type.",
	}, []string{"failure_type"})
	PredictionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hsse_asset_health_predictions_failed_total",
		Help: "Total number of failure predictions that could not be stored.",
	})
	PredictionsSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hsse_asset_health_predictions_superseded_total",
		Help: "Total number of active predictions superseded by a newer one.",
	})
	AlertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_alerts_published_total",
		Help: "Total number of health alerts published, by outcome.",
	}, []string{"outcome"})
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_cache_lookups_total",
		Help: "Total number of score cache lookups, by result.",
	}, []string{"result"})
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hsse_asset_health_calculation_duration_seconds",
		Help:    "Duration of a full gather, compute and persist cycle.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	})
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hsse_asset_health_http_requests_total",
		Help: "Total number of HTTP requests, by route and status code.",
	}, []string{"route", "code"})
)

// Package handlers exposes the asset health service over HTTP.
package handlers

import (
	"net/http"
	"strings"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/hsse-asset-health/internal/middleware"
)

// RateLimit bounds calculate requests per client IP. Requests <= 0 disables it.
type RateLimit struct {
	Requests      int
	WindowSeconds int
}

// NewRouter wires the service routes behind request logging and permissive CORS.
func NewRouter(h *HealthHandler, limit RateLimit, logger log.FieldLogger) http.Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	limiter := middleware.NewRateLimitMiddleware()

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.HandleFunc("/health", Liveness).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/assets", h.ListAssets).Methods(http.MethodGet)

	api := r.PathPrefix("/api/assets").Subrouter()
	api.Handle("/health/calculate",
		limiter.RateLimit(limit.Requests, limit.WindowSeconds)(http.HandlerFunc(h.Calculate)),
	).Methods(http.MethodPost)
	api.HandleFunc("/{asset_id}/health", h.GetScore).Methods(http.MethodGet)
	api.HandleFunc("/{asset_id}/predictions", h.ListPredictions).Methods(http.MethodGet)

	return withCORS(r)
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"}
)

// withCORS allows any origin. Every OPTIONS request is answered here with an
// empty 200; other requests get their CORS headers from gorilla/handlers.
func withCORS(next http.Handler) http.Handler {
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods(corsMethods),
		gorillahandlers.AllowedHeaders(corsHeaders),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			cors.ServeHTTP(w, r)
			return
		}
		allowHeaders := strings.Join(corsHeaders, ", ")
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			allowHeaders = requested
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.WriteHeader(http.StatusOK)
	})
}

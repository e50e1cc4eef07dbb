package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/momentum/internal/api/handlers"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/pkg/logger"
)

// Handlers groups the API endpoint handlers
type Handlers struct {
	Rank   *handlers.RankHandler
	Config *handlers.ConfigHandler
	Market *handlers.MarketHandler
}

// NewRouter creates and configures the HTTP router.
// metrics may be nil, in which case /metrics is not mounted.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, m *metrics.Registry, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Ranking
	api.HandleFunc("/rank", h.Rank.Rank).Methods("POST")

	// Scoring config
	api.HandleFunc("/config", h.Config.GetConfig).Methods("GET")

	// Market overview
	api.HandleFunc("/market", h.Market.GetOverview).Methods("GET")
	api.HandleFunc("/market/refresh", h.Market.Refresh).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "momentum-ranker",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

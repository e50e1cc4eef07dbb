package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/api/handlers"
	"github.com/wonny/momentum/internal/brain"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

func newTestRouter(t *testing.T, m *metrics.Registry) http.Handler {
	t.Helper()
	log := logger.NewNop()

	engine, err := brain.NewEngine(strategyconfig.Default(), brain.Options{
		Clock:   func() time.Time { return time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) },
		Metrics: m,
		Logger:  log,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		MaxUploadMB: 1,
		RateLimit:   config.RateLimitConfig{Limit: 5, Window: time.Minute},
	}

	return NewRouter(Handlers{
		Rank:   handlers.NewRankHandler(engine, cfg, nil, nil, m, log),
		Config: handlers.NewConfigHandler(engine, log),
		Market: handlers.NewMarketHandler(nil, log),
	}, m, log)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, metrics.NewRegistry())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"rank", http.MethodPost, "/api/rank", "Symbol,Price\nAAPL,100\n", http.StatusOK},
		{"rank wrong method", http.MethodGet, "/api/rank", "", http.StatusMethodNotAllowed},
		{"config", http.MethodGet, "/api/config", "", http.StatusOK},
		{"market disabled", http.MethodGet, "/api/market", "", http.StatusNotFound},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_MetricsAfterRank(t *testing.T) {
	router := newTestRouter(t, metrics.NewRegistry())

	req := httptest.NewRequest(http.MethodPost, "/api/rank", strings.NewReader("Symbol,Price\nAAPL,100\nMSFT,300\n"))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "momentum_records_scored_total 2")
}

func TestRouter_NoMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rec.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, rec.status)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/momentum/internal/contracts"
)

const namespace = "momentum"

// Result labels for stage and batch metrics
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Registry holds all Prometheus metrics of the ranking service.
// Each Registry owns its own prometheus.Registry so tests and multiple
// engines never collide on global registration.
type Registry struct {
	reg *prometheus.Registry

	// Pipeline
	StageDuration  *prometheus.HistogramVec
	Batches        *prometheus.CounterVec
	RecordsScored  prometheus.Counter
	RecordsSkipped prometheus.Counter
	MissingFields  *prometheus.CounterVec
	QualityScore   prometheus.Gauge

	// HTTP surface
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	RateLimited prometheus.Counter

	// Market overview
	MarketFetches *prometheus.CounterVec
}

// NewRegistry creates and registers every metric
func NewRegistry() *Registry {
	m := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"stage", "result"},
		),

		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of scoring batches by result",
			},
			[]string{"result"},
		),

		RecordsScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_scored_total",
				Help:      "Total number of records ranked",
			},
		),

		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Total number of input rows excluded before scoring",
			},
		),

		MissingFields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missing_fields_total",
				Help:      "Total number of missing scoring inputs by field",
			},
			[]string{"field"},
		),

		QualityScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "input_quality_score",
				Help:      "Weighted field coverage of the last batch (0.0 to 1.0)",
			},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "result_cache_hits_total",
				Help:      "Total number of ranking requests served from cache",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "result_cache_misses_total",
				Help:      "Total number of ranking requests computed",
			},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),

		MarketFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "market_fetches_total",
				Help:      "Total number of market overview fetches by symbol and result",
			},
			[]string{"symbol", "result"},
		),
	}

	m.reg.MustRegister(
		m.StageDuration,
		m.Batches,
		m.RecordsScored,
		m.RecordsSkipped,
		m.MissingFields,
		m.QualityScore,
		m.CacheHits,
		m.CacheMisses,
		m.RateLimited,
		m.MarketFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Gatherer exposes the underlying registry
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.reg
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObserveStage records one stage execution
func (m *Registry) ObserveStage(stage contracts.Stage, d time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.StageDuration.WithLabelValues(stage.ShortName(), result).Observe(d.Seconds())
}

// ObserveBatch records the outcome of a complete ranking run
func (m *Registry) ObserveBatch(result *contracts.RankedResult, err error) {
	if err != nil {
		m.Batches.WithLabelValues(ResultError).Inc()
		return
	}
	m.Batches.WithLabelValues(ResultSuccess).Inc()
	m.RecordsScored.Add(float64(result.Count()))
	m.RecordsSkipped.Add(float64(result.Skipped))
	m.QualityScore.Set(result.Quality.QualityScore)

	for i := range result.Records {
		for f := range result.Records[i].Missing {
			m.MissingFields.WithLabelValues(string(f)).Inc()
		}
	}
}

// RecordCacheHit records a cache hit (true) or miss (false)
func (m *Registry) RecordCacheHit(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// RecordMarketFetch records one market overview fetch
func (m *Registry) RecordMarketFetch(symbol string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.MarketFetches.WithLabelValues(symbol, result).Inc()
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Analysis metrics
	AnalysisRequestsTotal *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	AnalysisErrorsTotal   *prometheus.CounterVec

	// Valuation metrics
	ValuationModelUsage *prometheus.CounterVec
	ValuationUpside     *prometheus.HistogramVec

	// Recommendation metrics
	RecommendationCategories *prometheus.CounterVec
	RecommendationScores     *prometheus.HistogramVec
	RecommendationConfidence *prometheus.HistogramVec

	// Commentary metrics
	CommentaryDuration    *prometheus.HistogramVec
	CommentaryErrorsTotal *prometheus.CounterVec
	CommentaryFallbacks   *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// scoreBuckets are histogram buckets for score metrics (-100 to 100)
var scoreBuckets = []float64{-100, -75, -50, -25, 0, 25, 50, 75, 100}

// confidenceBuckets are histogram buckets for confidence metrics (0 to 100)
var confidenceBuckets = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// upsideBuckets are histogram buckets for upside percentages (-1.0 to 1.0)
var upsideBuckets = []float64{-1, -.5, -.25, -.1, 0, .1, .25, .5, 1}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// Analysis metrics
		AnalysisRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "analysis",
				Name:      "requests_total",
				Help:      "Total number of stock analysis requests",
			},
			[]string{"symbol"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Duration of stock analysis in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		AnalysisErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "analysis",
				Name:      "errors_total",
				Help:      "Total number of analysis errors",
			},
			[]string{"symbol", "error_type"},
		),

		// Valuation metrics
		ValuationModelUsage: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "valuation",
				Name:      "model_usage_total",
				Help:      "Total valuation model evaluations by applicability",
			},
			[]string{"model", "applicable"},
		),
		ValuationUpside: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "valuation",
				Name:      "upside",
				Help:      "Distribution of blended valuation upside versus market price",
				Buckets:   upsideBuckets,
			},
			[]string{"symbol"},
		),

		// Recommendation metrics
		RecommendationCategories: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "recommendation",
				Name:      "categories_total",
				Help:      "Total number of recommendations by category",
			},
			[]string{"category"},
		),
		RecommendationScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "recommendation",
				Name:      "score",
				Help:      "Distribution of recommendation scores",
				Buckets:   scoreBuckets,
			},
			[]string{"category"},
		),
		RecommendationConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "recommendation",
				Name:      "confidence",
				Help:      "Distribution of recommendation confidence levels",
				Buckets:   confidenceBuckets,
			},
			[]string{"category"},
		),

		// Commentary metrics
		CommentaryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "commentary",
				Name:      "duration_seconds",
				Help:      "Duration of commentary generation in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"provider"},
		),
		CommentaryErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "commentary",
				Name:      "errors_total",
				Help:      "Total number of commentary generation errors",
			},
			[]string{"provider", "error_type"},
		),
		CommentaryFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "commentary",
				Name:      "fallbacks_total",
				Help:      "Total number of commentary provider fallbacks",
			},
			[]string{"from_provider", "to_provider"},
		),

		// External API metrics
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_insight",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stock_insight",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_insight",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordAnalysisRequest records a stock analysis request
func (m *Metrics) RecordAnalysisRequest(symbol string) {
	m.AnalysisRequestsTotal.WithLabelValues(symbol).Inc()
}

// RecordAnalysisDuration records the duration of a stock analysis
func (m *Metrics) RecordAnalysisDuration(symbol, status string, duration time.Duration) {
	m.AnalysisDuration.WithLabelValues(symbol, status).Observe(duration.Seconds())
}

// RecordAnalysisError records an analysis error
func (m *Metrics) RecordAnalysisError(symbol, errorType string) {
	m.AnalysisErrorsTotal.WithLabelValues(symbol, errorType).Inc()
}

// RecordValuationModel records a valuation model evaluation
func (m *Metrics) RecordValuationModel(model string, applicable bool) {
	value := "false"
	if applicable {
		value = "true"
	}
	m.ValuationModelUsage.WithLabelValues(model, value).Inc()
}

// RecordValuationUpside records the blended upside for a symbol
func (m *Metrics) RecordValuationUpside(symbol string, upside float64) {
	m.ValuationUpside.WithLabelValues(symbol).Observe(upside)
}

// RecordRecommendation records a recommendation
func (m *Metrics) RecordRecommendation(category string, score, confidence float64) {
	m.RecommendationCategories.WithLabelValues(category).Inc()
	m.RecommendationScores.WithLabelValues(category).Observe(score)
	m.RecommendationConfidence.WithLabelValues(category).Observe(confidence)
}

// RecordCommentaryDuration records the duration of commentary generation
func (m *Metrics) RecordCommentaryDuration(provider string, duration time.Duration) {
	m.CommentaryDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCommentaryError records a commentary generation error
func (m *Metrics) RecordCommentaryError(provider, errorType string) {
	m.CommentaryErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordCommentaryFallback records a provider fallback
func (m *Metrics) RecordCommentaryFallback(from, to string) {
	m.CommentaryFallbacks.WithLabelValues(from, to).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveAnalysis records the analysis duration and status
func (t *Timer) ObserveAnalysis(symbol, status string) {
	t.metrics.RecordAnalysisDuration(symbol, status, time.Since(t.start))
}

// ObserveCommentary records the commentary generation duration
func (t *Timer) ObserveCommentary(provider string) {
	t.metrics.RecordCommentaryDuration(provider, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

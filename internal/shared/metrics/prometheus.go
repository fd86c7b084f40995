package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Pipeline metrics
	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of clinical pipeline runs",
		},
		[]string{"verdict", "severity"},
	)

	pipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	severityAssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "severity_assessments_total",
			Help: "Total number of severity assessments by resulting level",
		},
		[]string{"level"},
	)

	cascadeBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_blocks_total",
			Help: "Total number of cascade hard blocks by source",
		},
		[]string{"source"},
	)

	validationSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_source_duration_seconds",
			Help:    "Validation source call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	validationSourceUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_source_unavailable_total",
			Help: "Total number of validation source calls degraded to unavailable",
		},
		[]string{"source"},
	)

	safetyBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_blocks_total",
			Help: "Total number of medications blocked by the safety rule engine",
		},
		[]string{"rule"},
	)

	phiTokensCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phi_tokens_created_total",
			Help: "Total number of PHI tokens created by category",
		},
		[]string{"category"},
	)

	phiTokensRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "phi_tokens_restored_total",
			Help: "Total number of PHI tokens restored during re-identification",
		},
	)

	manualReviewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "manual_reviews_required_total",
			Help: "Total number of pipeline runs flagged for manual review",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordPipelineRun records a completed pipeline run
func RecordPipelineRun(verdict, severity string, duration time.Duration) {
	pipelineRunsTotal.WithLabelValues(verdict, severity).Inc()
	pipelineRunDuration.Observe(duration.Seconds())
}

// RecordSeverityAssessment records a severity classification
func RecordSeverityAssessment(level string) {
	severityAssessmentsTotal.WithLabelValues(level).Inc()
}

// RecordCascadeBlock records a hard block from a validation source
func RecordCascadeBlock(source string) {
	cascadeBlocksTotal.WithLabelValues(source).Inc()
}

// RecordValidationSourceCall records a validation source call duration
func RecordValidationSourceCall(source string, duration time.Duration) {
	validationSourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordValidationSourceUnavailable records a degraded validation source call
func RecordValidationSourceUnavailable(source string) {
	validationSourceUnavailable.WithLabelValues(source).Inc()
}

// RecordSafetyBlock records a medication blocked by a deterministic rule
func RecordSafetyBlock(rule string) {
	safetyBlocksTotal.WithLabelValues(rule).Inc()
}

// RecordPHITokenCreated records a created PHI token
func RecordPHITokenCreated(category string) {
	phiTokensCreated.WithLabelValues(category).Inc()
}

// RecordPHITokensRestored records restored PHI tokens
func RecordPHITokensRestored(count int) {
	phiTokensRestored.Add(float64(count))
}

// RecordManualReview records a run flagged for manual review
func RecordManualReview() {
	manualReviewsTotal.Inc()
}

// Package metrics provides Prometheus metrics for the auditdash server.
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
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditdash_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Path validation
	pathValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdash_path_validations_total",
			Help: "Path validations by mode and result",
		},
		[]string{"mode", "result"},
	)

	// Listings
	entriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdash_entries_skipped_total",
			Help: "Directory entries omitted from a listing because stat failed",
		},
		[]string{"component"},
	)

	reportsListed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdash_reports_listed_total",
			Help: "Total report descriptors returned",
		},
	)

	// Artifact store
	artifactsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdash_artifacts_saved_total",
			Help: "Total artifact save attempts",
		},
		[]string{"status"},
	)

	artifactBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdash_artifact_bytes_written_total",
			Help: "Total bytes written to the artifact store",
		},
	)

	artifactsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdash_artifacts_deleted_total",
			Help: "Artifacts deleted explicitly by callers",
		},
	)

	artifactsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdash_artifacts_expired_total",
			Help: "Artifacts removed by TTL cleanup",
		},
	)

	// Volume probing
	volumeProbeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdash_volume_probe_fallbacks_total",
			Help: "Times the volume listing command failed and drive letters were probed instead",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordValidation records a path validation. result is "valid" or a failure reason.
func RecordValidation(mode, result string) {
	pathValidationsTotal.WithLabelValues(mode, result).Inc()
}

// RecordSkippedEntry records a listing entry dropped after a stat failure.
func RecordSkippedEntry(component string) {
	entriesSkippedTotal.WithLabelValues(component).Inc()
}

// RecordReportsListed adds n to the listed reports counter.
func RecordReportsListed(n int) {
	reportsListed.Add(float64(n))
}

// RecordArtifactSave records an artifact save.
func RecordArtifactSave(bytes int64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	artifactsSavedTotal.WithLabelValues(status).Inc()
	if success {
		artifactBytesWritten.Add(float64(bytes))
	}
}

// RecordArtifactDelete records an explicit artifact deletion.
func RecordArtifactDelete() {
	artifactsDeletedTotal.Inc()
}

// RecordArtifactsExpired adds n to the expired artifacts counter.
func RecordArtifactsExpired(n int) {
	artifactsExpiredTotal.Add(float64(n))
}

// RecordVolumeProbeFallback records a fallback to drive letter probing.
func RecordVolumeProbeFallback() {
	volumeProbeFallbacks.Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics.
// Requests are labelled by the matched ServeMux pattern, so it must sit
// directly in front of the mux.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drukstay_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drukstay_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drukstay_auth_attempts_total",
		Help: "Registration and login attempts by result",
	}, []string{"operation", "result"})

	propertyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drukstay_property_operations_total",
		Help: "Property CRUD operations by result",
	}, []string{"operation", "result"})

	imageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drukstay_image_uploads_total",
		Help: "Image upload batches by result",
	}, []string{"result"})

	janitorSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drukstay_image_janitor_sweeps_total",
		Help: "Orphaned image sweep outcomes",
	}, []string{"result"})

	activeMapSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drukstay_active_map_sessions",
		Help: "Number of live websocket map sessions",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth counts a register/login attempt with a result label
func ObserveAuth(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObservePropertyOperation counts a property CRUD operation
func ObservePropertyOperation(operation, result string) {
	propertyOperations.WithLabelValues(operation, result).Inc()
}

// ObserveImageUpload counts an image upload batch
func ObserveImageUpload(result string) {
	imageUploads.WithLabelValues(result).Inc()
}

// ObserveJanitorSweep counts an orphaned-image sweep outcome
func ObserveJanitorSweep(result string) {
	janitorSweeps.WithLabelValues(result).Inc()
}

// IncrementMapSessions increments the live map session gauge
func IncrementMapSessions() {
	activeMapSessions.Inc()
}

// DecrementMapSessions decrements the live map session gauge
func DecrementMapSessions() {
	activeMapSessions.Dec()
}

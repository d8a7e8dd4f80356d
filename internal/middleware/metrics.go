package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rentpro/portal/internal/backend"
)

var (
	// HTTP request metrics
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
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Session metrics
	sessionLoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"}, // success/failure/locked/invalid_token/error
	)

	sessionLoginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portal_login_duration_seconds",
			Help:    "Login duration in seconds, backend round trip included",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	sessionValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_session_validations_total",
			Help: "Total number of session validations",
		},
		[]string{"result"}, // valid/expired/malformed/missing
	)

	// Backend response cache
	backendCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_backend_cache_requests_total",
			Help: "Backend requests by response cache result",
		},
		[]string{"result"}, // hit/miss/bypass/invalidate
	)
)

// Metrics creates a Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// RecordLoginAttempt records a login attempt metric
func RecordLoginAttempt(outcome string, duration time.Duration) {
	sessionLoginAttemptsTotal.WithLabelValues(outcome).Inc()
	sessionLoginDuration.Observe(duration.Seconds())
}

// RecordSessionValidation records a session validation metric
func RecordSessionValidation(result string) {
	sessionValidationsTotal.WithLabelValues(result).Inc()
}

// RecordCacheResult records what the backend response cache did
func RecordCacheResult(result backend.CacheResult) {
	backendCacheTotal.WithLabelValues(string(result)).Inc()
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	stageMoves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_stage_moves_total",
			Help: "Total number of deal stage moves",
		},
	)

	statusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_status_changes_total",
			Help: "Total number of deal status changes by target status",
		},
		[]string{"status"},
	)

	bootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_bootstraps_total",
			Help: "Default stage bootstrap attempts by outcome",
		},
		[]string{"outcome"},
	)

	storageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_storage_errors_total",
			Help: "Total number of operations that failed on the store",
		},
		[]string{"op"},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		activeRequests.Inc()
		defer activeRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordStageMove() {
	stageMoves.Inc()
}

func RecordStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// RecordBootstrap counts a bootstrap call; created tells whether defaults
// were inserted.
func RecordBootstrap(created bool) {
	outcome := "skipped"
	if created {
		outcome = "created"
	}
	bootstraps.WithLabelValues(outcome).Inc()
}

func RecordStorageError(op string) {
	storageErrors.WithLabelValues(op).Inc()
}

package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/duynhne/card-service/internal/core/domain"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "code"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	responseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path", "code"},
	)

	cardOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_operations_total",
			Help: "Card API operations by outcome",
		},
		[]string{"operation", "result"},
	)

	uploadSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upload_size_bytes",
			Help:    "Size of files stored by the upload gateway",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

// shouldCollectMetrics skips infrastructure endpoints (probes, metrics)
func shouldCollectMetrics(path string) bool {
	for _, skipPath := range []string{"/health", "/ready", "/metrics"} {
		if strings.HasPrefix(path, skipPath) {
			return false
		}
	}
	return true
}

// PrometheusMiddleware records RED metrics labelled by route template,
// so /cards/:id does not create one series per card.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCollectMetrics(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		requestsInFlight.WithLabelValues(method, path).Inc()
		defer requestsInFlight.WithLabelValues(method, path).Dec()

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(method, path, statusCode).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(method, path, statusCode).Inc()
		responseSize.WithLabelValues(method, path, statusCode).Observe(float64(c.Writer.Size()))
	}
}

// RecordCardOperation counts a Card API or upload outcome by error class
func RecordCardOperation(operation string, err error) {
	cardOperations.WithLabelValues(operation, resultLabel(err)).Inc()
}

// ObserveUpload records the size of a stored file
func ObserveUpload(size int64) {
	uploadSize.Observe(float64(size))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNoFile), errors.Is(err, domain.ErrFileTooLarge):
		return "invalid"
	case errors.Is(err, domain.ErrCardNotFound), errors.Is(err, domain.ErrBlobNotFound):
		return "not_found"
	default:
		return "error"
	}
}

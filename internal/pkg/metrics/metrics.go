package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "annotile",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "annotile",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Capture pipeline metrics
	CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "capture",
		Name:      "requests_total",
		Help:      "Total capture requests by outcome",
	}, []string{"status"})

	CaptureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "capture",
		Name:      "failures_total",
		Help:      "Capture failures by pipeline phase",
	}, []string{"phase"})

	CaptureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "annotile",
		Subsystem: "capture",
		Name:      "duration_seconds",
		Help:      "End-to-end capture duration",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// Tile fetch metrics
	TilesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "tiles",
		Name:      "fetched_total",
		Help:      "Total tiles fetched from tile servers",
	})

	TileFetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "tiles",
		Name:      "fetch_retries_total",
		Help:      "Total tile fetch attempts retried after a transient failure",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotile",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// RegistryRecords tracks the number of annotation records currently in
	// the registry document.
	RegistryRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "annotile",
		Subsystem: "registry",
		Name:      "records",
		Help:      "Annotation records currently persisted in the registry",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

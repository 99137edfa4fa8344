package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	ListingsSearched     prometheus.Counter
	ListingsPublished    prometheus.Counter
	InteractionsRecorded *prometheus.CounterVec
	SubscriptionsCreated *prometheus.CounterVec
	DigestsEnqueued      *prometheus.CounterVec
	DigestFailures       *prometheus.CounterVec
	AlertClicksRecorded  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets, // 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Business metrics
		ListingsSearched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "job_listings_searched_total",
			Help: "Total number of public listing searches performed",
		}),
		ListingsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "job_listings_published_total",
			Help: "Total number of job listings published",
		}),
		InteractionsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_interactions_recorded_total",
				Help: "Total number of job interactions recorded",
			},
			[]string{"type"}, // saved, applied
		),
		SubscriptionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_alert_subscriptions_created_total",
				Help: "Total number of job alert subscriptions created",
			},
			[]string{"frequency"}, // daily, weekly
		),
		DigestsEnqueued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_alert_digests_enqueued_total",
				Help: "Total number of digest emails enqueued",
			},
			[]string{"frequency"},
		),
		DigestFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_alert_digest_failures_total",
				Help: "Total number of per-subscription digest failures",
			},
			[]string{"frequency"},
		),
		AlertClicksRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "job_alert_clicks_recorded_total",
			Help: "Total number of digest link clicks recorded",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation"}, // select, insert, update, delete
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"}, // redis, memory
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/jobs/:slug)

			// Measure request size
			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			// Call next handler
			err := next(c)

			// Record metrics
			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordListingSearch increments the public search counter
func (m *Metrics) RecordListingSearch() {
	m.ListingsSearched.Inc()
}

// RecordListingPublished increments the published listings counter
func (m *Metrics) RecordListingPublished() {
	m.ListingsPublished.Inc()
}

// RecordInteraction increments the interaction counter for a type
func (m *Metrics) RecordInteraction(interactionType string) {
	m.InteractionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordSubscriptionCreated increments the subscription counter
func (m *Metrics) RecordSubscriptionCreated(frequency string) {
	m.SubscriptionsCreated.WithLabelValues(frequency).Inc()
}

// RecordDigestEnqueued increments the enqueued digest counter
func (m *Metrics) RecordDigestEnqueued(frequency string) {
	m.DigestsEnqueued.WithLabelValues(frequency).Inc()
}

// RecordDigestFailure increments the digest failure counter
func (m *Metrics) RecordDigestFailure(frequency string) {
	m.DigestFailures.WithLabelValues(frequency).Inc()
}

// RecordAlertClick increments the digest click counter
func (m *Metrics) RecordAlertClick() {
	m.AlertClicksRecorded.Inc()
}

// RecordDBQuery records database query duration
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	m.DBConnections.Set(count)
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}

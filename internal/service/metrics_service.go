package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. Besides the
// usual HTTP and store timings it counts suppressed sub-query failures
// so degraded aggregates stay visible to operators instead of silently
// returning neutral values.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	degradedSubqueries *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_query_duration_seconds",
		Help:    "Duration of document store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	degradedSubqueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregate_degraded_subqueries_total",
		Help: "Sub-query failures absorbed by aggregation components",
	}, []string{"component"})

	registry.MustRegister(requestDuration, requestTotal, storeQueryDuration, cacheHits, cacheMisses, degradedSubqueries)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		storeQueryDuration: storeQueryDuration,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		degradedSubqueries: degradedSubqueries,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveStoreQuery records the latency of a named store query.
func (s *MetricsService) ObserveStoreQuery(query string, duration time.Duration) {
	s.storeQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordCacheOperation counts a cache hit or miss.
func (s *MetricsService) RecordCacheOperation(hit bool) {
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// RecordDegradedSubquery counts one swallowed sub-query failure.
func (s *MetricsService) RecordDegradedSubquery(component string) {
	s.degradedSubqueries.WithLabelValues(component).Inc()
}

package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "treasury_dashboard"

// Metrics groups the collectors exported by the API client and the query cache.
type Metrics struct {
	APIRequests    *prometheus.CounterVec
	APILatency     *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
	CacheRefetches *prometheus.CounterVec
	CacheEvictions prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves them
// unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend requests by method, resource and status code (0 for transport failures).",
		}, []string{"method", "resource", "status"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "lookups_total",
			Help:      "Query cache lookups by resource and result (hit, stale, miss).",
		}, []string{"resource", "result"}),
		CacheRefetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "invalidation_refetches_total",
			Help:      "Background refetches triggered by invalidation.",
		}, []string{"resource"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "evictions_total",
			Help:      "Cache entries removed or garbage collected after gcTime.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.APIRequests, m.APILatency, m.CacheLookups, m.CacheRefetches, m.CacheEvictions)
	}
	return m
}

// Resource reduces a request path to its first segment ("grants/1/milestones" -> "grants")
// to keep label cardinality bounded.
func Resource(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}

// ObserveRequest records one backend call. A nil receiver is a no-op.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	resource := Resource(path)
	m.APIRequests.WithLabelValues(method, resource, strconv.Itoa(status)).Inc()
	m.APILatency.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// ObserveLookup records a cache lookup result. A nil receiver is a no-op.
func (m *Metrics) ObserveLookup(resource, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(resource, result).Inc()
}

// ObserveRefetch records an invalidation refetch. A nil receiver is a no-op.
func (m *Metrics) ObserveRefetch(resource string) {
	if m == nil {
		return
	}
	m.CacheRefetches.WithLabelValues(resource).Inc()
}

// ObserveEviction records a garbage-collected entry. A nil receiver is a no-op.
func (m *Metrics) ObserveEviction() {
	if m == nil {
		return
	}
	m.CacheEvictions.Inc()
}

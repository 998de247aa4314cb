// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "claimstack",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimstack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claimstack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	treeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimstack",
			Subsystem: "taxonomy",
			Name:      "operations_total",
			Help:      "Total number of taxonomy operations performed.",
		},
		[]string{"op"},
	)

	policyTypeNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "claimstack",
			Subsystem: "taxonomy",
			Name:      "policy_type_nodes",
			Help:      "Node count of each policy type's taxonomy.",
		},
		[]string{"policy_type"},
	)

	policyTypeClaimShare = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "claimstack",
			Subsystem: "reports",
			Name:      "policy_type_claim_share_percent",
			Help:      "Share of all claims attributed to each policy type.",
		},
		[]string{"policy_type"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		treeOps,
		policyTypeNodes,
		policyTypeClaimShare,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordTreeOp counts one taxonomy operation.
func RecordTreeOp(op string) {
	treeOps.WithLabelValues(op).Inc()
}

// SetPolicyTypeReport updates the per-policy-type report gauges.
func SetPolicyTypeReport(name string, totalNodes int, claimShare float64) {
	policyTypeNodes.WithLabelValues(name).Set(float64(totalNodes))
	policyTypeClaimShare.WithLabelValues(name).Set(claimShare)
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// canonicalPath collapses resource ids so metric labels stay low-cardinality.
func canonicalPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		// Ids are generated as UUIDs or numeric strings; both get folded.
		if looksLikeID(part) {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func looksLikeID(s string) bool {
	if len(s) == 36 && strings.Count(s, "-") == 4 {
		return true
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

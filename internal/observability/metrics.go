package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	trackerEventsTotal    *prometheus.CounterVec
	trackerUserLogsTotal  *prometheus.CounterVec
	trackerPersistErrors  *prometheus.CounterVec
	auditEntriesTotal     *prometheus.CounterVec
	domainMutationsFailed *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the tracker.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		trackerEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_events_total",
			Help: "Events recorded by the activity tracker.",
		}, []string{"category"})

		trackerUserLogsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_user_logs_total",
			Help: "User actions logged by the activity tracker.",
		}, []string{"action"})

		trackerPersistErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_persist_errors_total",
			Help: "Tracker records that could not be written to the persistence surface.",
		}, []string{"stream"})

		auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Audit entries written to the durable store.",
		}, []string{"action"})

		domainMutationsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_mutations_failed_total",
			Help: "Domain mutations rejected or failed, by operation.",
		}, []string{"operation"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			trackerEventsTotal,
			trackerUserLogsTotal,
			trackerPersistErrors,
			auditEntriesTotal,
			domainMutationsFailed,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// TrackerEvents exposes the counter of tracked events.
func TrackerEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return trackerEventsTotal
}

// TrackerUserLogs exposes the counter of tracked user actions.
func TrackerUserLogs() *prometheus.CounterVec {
	RegisterMetrics()
	return trackerUserLogsTotal
}

// TrackerPersistErrors exposes the counter of failed tracker writes.
func TrackerPersistErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return trackerPersistErrors
}

// AuditEntries exposes the counter of durable audit entries.
func AuditEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEntriesTotal
}

// DomainMutationsFailed exposes the counter of failed domain mutations.
func DomainMutationsFailed() *prometheus.CounterVec {
	RegisterMetrics()
	return domainMutationsFailed
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

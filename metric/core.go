package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gqlwire"

// Entity fetch outcomes recorded by the federation transformer.
const (
	OutcomeResolved      = "resolved"
	OutcomeExcluded      = "excluded"
	OutcomeUnknownType   = "unknown_type"
	OutcomeMalformed     = "malformed"
	OutcomeMissingLoader = "missing_loader"
)

// UnregisteredTypename is the typename label for representations whose
// __typename names no registered entity.
const UnregisteredTypename = "unregistered"

// Operation labels for execution metrics.
const (
	OperationAnonymous = "anonymous"
	OperationNamed     = "named"
)

// Metrics contains the core gqlwire metrics
type Metrics struct {
	// Execution metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec

	// Loader metrics
	LoaderBatches     *prometheus.CounterVec
	LoaderBatchSize   *prometheus.HistogramVec
	LoaderBatchErrors *prometheus.CounterVec
	LoaderCache       *prometheus.CounterVec

	// Federation metrics
	EntityFetches *prometheus.CounterVec

	// Build metrics
	Registrations *prometheus.CounterVec
	ScanFailures  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "execution",
				Name:      "total",
				Help:      "Total number of GraphQL executions",
			},
			[]string{"operation", "status"},
		),

		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "execution",
				Name:      "duration_seconds",
				Help:      "GraphQL execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		LoaderBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "batches_total",
				Help:      "Total number of batch calls issued by loaders",
			},
			[]string{"loader"},
		),

		LoaderBatchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "batch_size",
				Help:      "Number of keys per loader batch",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"loader"},
		),

		LoaderBatchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "batch_errors_total",
				Help:      "Total number of loader batches that failed",
			},
			[]string{"loader"},
		),

		LoaderCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "cache_requests_total",
				Help:      "Loader cache lookups by result (hit, miss)",
			},
			[]string{"loader", "result"},
		),

		EntityFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "federation",
				Name:      "entity_fetches_total",
				Help:      "Entity representations processed by outcome",
			},
			[]string{"typename", "outcome"},
		),

		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "registrations_total",
				Help:      "Registrations performed during the scan phase by kind",
			},
			[]string{"kind"},
		),

		ScanFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "failures_total",
				Help:      "Members that failed to register during the scan phase",
			},
			[]string{"strategy"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.LoaderBatches,
		m.LoaderBatchSize,
		m.LoaderBatchErrors,
		m.LoaderCache,
		m.EntityFetches,
		m.Registrations,
		m.ScanFailures,
	}
}

// RecordExecution counts an execution and observes its duration.
func (m *Metrics) RecordExecution(operation string, failed bool, duration time.Duration) {
	status := "success"
	if failed {
		status = "error"
	}
	m.ExecutionsTotal.WithLabelValues(operation, status).Inc()
	m.ExecutionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBatch records one loader batch call
func (m *Metrics) RecordBatch(loader string, size int, failed bool) {
	m.LoaderBatches.WithLabelValues(loader).Inc()
	m.LoaderBatchSize.WithLabelValues(loader).Observe(float64(size))
	if failed {
		m.LoaderBatchErrors.WithLabelValues(loader).Inc()
	}
}

// RecordCacheLookup records a loader cache hit or miss
func (m *Metrics) RecordCacheLookup(loader string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LoaderCache.WithLabelValues(loader, result).Inc()
}

// RecordEntityFetch records the outcome for one entity representation
func (m *Metrics) RecordEntityFetch(typename, outcome string) {
	m.EntityFetches.WithLabelValues(typename, outcome).Inc()
}

// RecordRegistration increments the registration counter for a kind
// (loader, entity, resolver, replaced).
func (m *Metrics) RecordRegistration(kind string) {
	m.Registrations.WithLabelValues(kind).Inc()
}

// RecordScanFailure increments the scan failure counter
func (m *Metrics) RecordScanFailure(strategy string) {
	m.ScanFailures.WithLabelValues(strategy).Inc()
}

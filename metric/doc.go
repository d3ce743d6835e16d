// Package metric provides Prometheus metrics for gqlwire.
//
// A MetricsRegistry owns a private prometheus.Registry, so several builders
// in one process do not collide. It carries the core metrics (executions,
// loader batches, cache lookups, entity fetch outcomes, scan registrations
// and failures) and lets extensions register their own collectors through the
// MetricsRegistrar interface.
//
//	registry := metric.NewMetricsRegistry()
//	registry.CoreMetrics().RecordBatch("userLoader", 3, false)
//	_ = registry.WriteText(os.Stdout)
package metric

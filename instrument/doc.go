// Package instrument observes query executions.
//
// An Instrumentation is told when an execution begins and receives the
// result when it ends. Chain combines several of them. BatchStatistics
// doubles as a loader.BatchObserver: the runtime passes it to every
// request scope so batch sizes and cache hits reach Prometheus, and it
// attaches the per-request loader totals to the result:
//
//	{"extensions": {"batching": [{"loader": "userLoader", "batches": 1, "keys": 3}]}}
//
// Logging emits one slog record per execution, at Warn when the result
// carries errors.
package instrument

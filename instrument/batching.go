package instrument

import (
	"context"
	"sort"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
)

// BatchingExtension is the result extension key written by BatchStatistics.
const BatchingExtension = "batching"

// LoaderStatistics is the per-loader entry of the batching extension.
type LoaderStatistics struct {
	Loader    string `json:"loader"`
	Batches   int    `json:"batches"`
	Keys      int    `json:"keys"`
	Errors    int    `json:"errors"`
	CacheHits int    `json:"cache_hits"`
}

// BatchStatistics reports how loads were batched. Batch and cache events go
// to Prometheus when metrics are set, and the per-request totals of the
// loader scope are attached to the result under the batching extension.
type BatchStatistics struct {
	metrics *metric.Metrics
}

// NewBatchStatistics creates the batching observer. m may be nil.
func NewBatchStatistics(m *metric.Metrics) *BatchStatistics {
	return &BatchStatistics{metrics: m}
}

// ObserveBatch implements loader.BatchObserver
func (b *BatchStatistics) ObserveBatch(name string, size int, err error, _ time.Duration) {
	if b.metrics != nil {
		b.metrics.RecordBatch(name, size, err != nil)
	}
}

// ObserveCache implements loader.BatchObserver
func (b *BatchStatistics) ObserveCache(name string, hit bool) {
	if b.metrics != nil {
		b.metrics.RecordCacheLookup(name, hit)
	}
}

// BeginExecution implements Instrumentation
func (b *BatchStatistics) BeginExecution(ctx context.Context, _ Operation) (context.Context, EndFunc) {
	scope, ok := loader.ScopeFromContext(ctx)
	if !ok {
		return ctx, nil
	}
	return ctx, func(result *graphql.Result) {
		stats := Snapshot(scope)
		if len(stats) > 0 {
			setExtension(result, BatchingExtension, stats)
		}
	}
}

// Snapshot returns the statistics of a scope sorted by loader name.
func Snapshot(scope *loader.Scope) []LoaderStatistics {
	raw := scope.Stats()
	out := make([]LoaderStatistics, 0, len(raw))
	for name, st := range raw {
		if st.Batches == 0 && st.CacheHits == 0 {
			continue
		}
		out = append(out, LoaderStatistics{
			Loader:    name,
			Batches:   st.Batches,
			Keys:      st.Keys,
			Errors:    st.Errors,
			CacheHits: st.CacheHits,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Loader < out[j].Loader })
	return out
}

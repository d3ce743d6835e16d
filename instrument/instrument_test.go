package instrument

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
)

type recorder struct {
	name  string
	trace *[]string
}

func (r recorder) BeginExecution(ctx context.Context, _ Operation) (context.Context, EndFunc) {
	*r.trace = append(*r.trace, "begin:"+r.name)
	return context.WithValue(ctx, r, r.name), func(*graphql.Result) {
		*r.trace = append(*r.trace, "end:"+r.name)
	}
}

type silent struct{}

func (silent) BeginExecution(ctx context.Context, _ Operation) (context.Context, EndFunc) {
	return ctx, nil
}

func TestChain_Order(t *testing.T) {
	var trace []string
	a := recorder{name: "a", trace: &trace}
	b := recorder{name: "b", trace: &trace}
	c := recorder{name: "c", trace: &trace}

	chain := NewChain(a, nil, NewChain(b, silent{}), c)
	require.Len(t, chain, 4)

	ctx, end := chain.BeginExecution(context.Background(), Operation{})
	assert.Equal(t, "b", ctx.Value(b), "contexts flow through the chain")
	end(&graphql.Result{})

	assert.Equal(t, []string{"begin:a", "begin:b", "begin:c", "end:c", "end:b", "end:a"}, trace)
}

func TestChain_BatchObservers(t *testing.T) {
	stats := NewBatchStatistics(nil)
	chain := NewChain(NewLogging(nil), stats)

	observers := chain.BatchObservers()
	require.Len(t, observers, 1)
	assert.Same(t, stats, observers[0])
}

func newScope(t *testing.T, observers ...loader.BatchObserver) *loader.Scope {
	t.Helper()
	repo := loader.NewRepository(loader.Defaults{}, nil)
	_, err := repo.Register("userLoader", loader.New(func(_ context.Context, keys []string) ([]any, error) {
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = "user " + k
		}
		return values, nil
	}))
	require.NoError(t, err)
	return repo.NewScope(observers...)
}

func TestBatchStatistics(t *testing.T) {
	m := metric.NewMetricsRegistry().CoreMetrics()
	stats := NewBatchStatistics(m)
	scope := newScope(t, stats)
	ctx := loader.WithScope(context.Background(), scope)

	ctx, end := stats.BeginExecution(ctx, Operation{RequestID: "r1"})

	var thunks []loader.Thunk
	for _, key := range []string{"1", "2", "1"} {
		th, err := scope.Load(ctx, "userLoader", key)
		require.NoError(t, err)
		thunks = append(thunks, th)
	}
	for _, th := range thunks {
		v, err := th()
		require.NoError(t, err)
		assert.NotNil(t, v)
	}

	result := &graphql.Result{}
	end(result)

	require.Contains(t, result.Extensions, BatchingExtension)
	got := result.Extensions[BatchingExtension].([]LoaderStatistics)
	require.Len(t, got, 1)
	assert.Equal(t, "userLoader", got[0].Loader)
	assert.Equal(t, 1, got[0].Batches)
	assert.Equal(t, 2, got[0].Keys)
	assert.Equal(t, 1, got[0].CacheHits)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderBatches.WithLabelValues("userLoader")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderCache.WithLabelValues("userLoader", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoaderCache.WithLabelValues("userLoader", "miss")))
}

func TestBatchStatistics_NoLoads(t *testing.T) {
	stats := NewBatchStatistics(nil)
	ctx := loader.WithScope(context.Background(), newScope(t, stats))

	_, end := stats.BeginExecution(ctx, Operation{})
	result := &graphql.Result{}
	end(result)
	assert.Nil(t, result.Extensions)

	_, end = stats.BeginExecution(context.Background(), Operation{})
	assert.Nil(t, end, "no scope, nothing to report")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewLogging(logger)

	_, end := l.BeginExecution(context.Background(), Operation{RequestID: "req-1", OperationName: "Me"})
	end(&graphql.Result{})
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"operation":"Me"`)
	assert.Contains(t, buf.String(), "Execution finished")

	buf.Reset()
	_, end = l.BeginExecution(context.Background(), Operation{RequestID: "req-2"})
	end(&graphql.Result{Errors: []gqlerrors.FormattedError{{Message: "boom"}}})
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"first_error":"boom"`)
}

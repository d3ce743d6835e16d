package instrument

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/loader"
)

// Operation describes one execution as seen by instrumentation.
type Operation struct {
	RequestID     string
	OperationName string
	Query         string
	Variables     map[string]any
	Started       time.Time
}

// EndFunc is called once with the final result of an execution. It may add
// entries to result.Extensions.
type EndFunc func(result *graphql.Result)

// Instrumentation observes executions.
type Instrumentation interface {
	BeginExecution(ctx context.Context, op Operation) (context.Context, EndFunc)
}

// Chain runs several instrumentations. Begin runs in order and the end
// callbacks run in reverse order.
type Chain []Instrumentation

// NewChain flattens nested chains and drops nil entries
func NewChain(items ...Instrumentation) Chain {
	var c Chain
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case Chain:
			c = append(c, NewChain(v...)...)
		default:
			c = append(c, v)
		}
	}
	return c
}

// BeginExecution implements Instrumentation
func (c Chain) BeginExecution(ctx context.Context, op Operation) (context.Context, EndFunc) {
	ends := make([]EndFunc, 0, len(c))
	for _, item := range c {
		var end EndFunc
		ctx, end = item.BeginExecution(ctx, op)
		if end != nil {
			ends = append(ends, end)
		}
	}
	return ctx, func(result *graphql.Result) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](result)
		}
	}
}

// BatchObservers returns the members that also observe loader batches.
func (c Chain) BatchObservers() []loader.BatchObserver {
	var observers []loader.BatchObserver
	for _, item := range c {
		if o, ok := item.(loader.BatchObserver); ok {
			observers = append(observers, o)
		}
	}
	return observers
}

func setExtension(result *graphql.Result, key string, value any) {
	if result == nil {
		return
	}
	if result.Extensions == nil {
		result.Extensions = make(map[string]any)
	}
	result.Extensions[key] = value
}

package gqlwire

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/federation"
	"github.com/c360/gqlwire/instrument"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
	"github.com/c360/gqlwire/scan"
	"github.com/c360/gqlwire/schema"
)

// Request is one GraphQL request
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Result is the response to a Request
type Result struct {
	Data       any            `json:"data,omitempty"`
	Errors     gqlerror.List  `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// HasErrors reports whether the result carries errors
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Runtime executes requests against the built schema. Its registries are
// sealed, so it is safe for concurrent use.
type Runtime struct {
	exec            *schema.Executable
	entities        *entity.Registry
	loaders         *loader.Repository
	transformer     *federation.Transformer
	instrumentation instrument.Chain
	registry        *metric.MetricsRegistry
	metrics         *metric.Metrics
	report          *scan.Report
	maxQueryCost    int
	logger          *slog.Logger
}

type requestIDKey struct{}

// RequestIDFromContext returns the id Execute assigned to the request
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// Execute runs one request. Each call gets its own loader scope, so loads
// batch and cache within the request only.
func (r *Runtime) Execute(ctx context.Context, req Request) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	requestID := uuid.NewString()

	ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	ctx = loader.WithScope(ctx, r.loaders.NewScope(r.instrumentation.BatchObservers()...))
	ctx, end := r.instrumentation.BeginExecution(ctx, instrument.Operation{
		RequestID:     requestID,
		OperationName: req.OperationName,
		Query:         req.Query,
		Variables:     req.Variables,
		Started:       started,
	})

	res := graphql.Do(graphql.Params{
		Schema:         r.exec.Schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	end(res)

	operation, label := req.OperationName, metric.OperationNamed
	if operation == "" {
		operation, label = metric.OperationAnonymous, metric.OperationAnonymous
	}
	r.metrics.RecordExecution(label, len(res.Errors) > 0, time.Since(started))

	return &Result{
		Data:       res.Data,
		Errors:     convertErrors(res.Errors, operation, requestID),
		Extensions: res.Extensions,
	}
}

// Schema returns the executable schema
func (r *Runtime) Schema() graphql.Schema {
	return r.exec.Schema
}

// Executable returns the schema with the inputs it was built from
func (r *Runtime) Executable() *schema.Executable {
	return r.exec
}

// SDL returns the formatted schema definition language of the sources
func (r *Runtime) SDL() (string, error) {
	return r.exec.SDL()
}

// Entities returns the sealed entity registry
func (r *Runtime) Entities() *entity.Registry {
	return r.entities
}

// Loaders returns the sealed loader repository
func (r *Runtime) Loaders() *loader.Repository {
	return r.loaders
}

// Federation returns the transformer, or nil when federation is disabled
func (r *Runtime) Federation() *federation.Transformer {
	return r.transformer
}

// Report returns the scan report
func (r *Runtime) Report() *scan.Report {
	return r.report
}

// Metrics returns the metrics registry
func (r *Runtime) Metrics() *metric.MetricsRegistry {
	return r.registry
}

// MaxQueryCost returns the configured cost limit. It is not enforced.
func (r *Runtime) MaxQueryCost() int {
	return r.maxQueryCost
}

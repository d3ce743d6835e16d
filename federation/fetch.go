package federation

import (
	"context"
	"fmt"

	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
)

func nullThunk() (any, error) { return nil, nil }

// FetchEntities returns one thunk per representation, in input order. A
// representation resolves to nil when its __typename is missing, an
// exclusion rule matches, no registry entry or loader exists, or its id is
// not a string. Loads use the scope carried by ctx, or a scope private to
// this call when there is none.
func (t *Transformer) FetchEntities(ctx context.Context, representations []map[string]any) []loader.Thunk {
	if ctx == nil {
		ctx = context.Background()
	}
	scope, ok := loader.ScopeFromContext(ctx)
	if !ok {
		scope = t.loaders.NewScope()
	}

	thunks := make([]loader.Thunk, len(representations))
	for i, rep := range representations {
		thunks[i] = t.fetchOne(ctx, scope, i, rep)
	}
	return thunks
}

func (t *Transformer) fetchOne(ctx context.Context, scope *loader.Scope, pos int, rep map[string]any) (thunk loader.Thunk) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.WrapInvalid(fmt.Errorf("%w: panic: %v", errors.ErrMalformedRepresentation, r),
				"Transformer", "FetchEntities", fmt.Sprintf("resolve representation %d", pos))
			t.logger.Warn("Entity representation failed", "position", pos, "error", err)
			thunk = func() (any, error) { return nil, err }
		}
	}()

	typename, ok := rep["__typename"].(string)
	if !ok {
		t.record(metric.UnregisteredTypename, metric.OutcomeMalformed)
		t.logger.Debug("Representation without string __typename", "position", pos)
		return nullThunk
	}

	for _, rule := range t.exclusions {
		if rule.Match != nil && rule.Match(rep) {
			t.record(t.typenameLabel(typename), metric.OutcomeExcluded)
			t.logger.Debug("Representation excluded", "position", pos, "typename", typename, "rule", rule.Name)
			return nullThunk
		}
	}

	md, ok := t.entities.Lookup(typename)
	if !ok {
		t.record(metric.UnregisteredTypename, metric.OutcomeUnknownType)
		t.logger.Debug("No entity registered for typename", "position", pos, "typename", typename)
		return nullThunk
	}

	id, ok := rep[md.IDField].(string)
	if !ok {
		t.record(md.ExternalName, metric.OutcomeMalformed)
		t.logger.Debug("Representation id missing or not a string",
			"position", pos, "typename", typename, "id_field", md.IDField)
		return nullThunk
	}

	th, err := scope.Load(ctx, md.LoaderField, id)
	if err != nil {
		t.record(md.ExternalName, metric.OutcomeMissingLoader)
		t.logger.Debug("Entity loader unavailable",
			"position", pos, "typename", typename, "loader", md.LoaderField, "error", err)
		return nullThunk
	}

	t.record(md.ExternalName, metric.OutcomeResolved)
	return func() (any, error) {
		v, err := th()
		if err != nil {
			return v, err
		}
		return withTypename(v, md.ExternalName), nil
	}
}

// withTypename names the entity type of a decoded map result so the _Entity
// union can resolve it. Other values are returned as is.
func withTypename(v any, typename string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if _, ok := m["__typename"]; ok {
		return m
	}
	named := make(map[string]any, len(m)+1)
	for k, val := range m {
		named[k] = val
	}
	named["__typename"] = typename
	return named
}

// typenameLabel bounds the metric label to registered entity names.
func (t *Transformer) typenameLabel(typename string) string {
	if md, ok := t.entities.Lookup(typename); ok {
		return md.ExternalName
	}
	return metric.UnregisteredTypename
}

func (t *Transformer) record(typename, outcome string) {
	if t.metrics != nil {
		t.metrics.RecordEntityFetch(typename, outcome)
	}
}

// Await resolves thunks in order. Position i of the errors slice is non-nil
// only when thunk i failed.
func Await(thunks []loader.Thunk) ([]any, []error) {
	values := make([]any, len(thunks))
	errs := make([]error, len(thunks))
	for i, th := range thunks {
		if th == nil {
			continue
		}
		values[i], errs[i] = th()
	}
	return values, errs
}

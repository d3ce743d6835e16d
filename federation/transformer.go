// Package federation adds cross-service entity resolution to an assembled
// schema.
package federation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
	"github.com/c360/gqlwire/schema"
	"github.com/c360/gqlwire/wiring"
)

// Transformer resolves entity types and fetches entities by representation
// using the entity registry and loader repository of one builder run.
type Transformer struct {
	entities   *entity.Registry
	loaders    *loader.Repository
	exclusions []ExclusionRule
	logger     *slog.Logger
	metrics    *metric.Metrics
	schema     *graphql.Schema
	mu         sync.RWMutex
}

// Option configures a Transformer
type Option func(*Transformer)

// WithExclusions replaces the exclusion rules. No arguments disables
// exclusion entirely.
func WithExclusions(rules ...ExclusionRule) Option {
	return func(t *Transformer) {
		t.exclusions = rules
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics records entity fetch outcomes
func WithMetrics(m *metric.Metrics) Option {
	return func(t *Transformer) {
		t.metrics = m
	}
}

// NewTransformer creates a transformer over the given registries
func NewTransformer(entities *entity.Registry, loaders *loader.Repository, opts ...Option) *Transformer {
	t := &Transformer{
		entities:   entities,
		loaders:    loaders,
		exclusions: DefaultExclusions(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "federation")
	return t
}

// Transform returns a new federated executable with _Any, _Entity,
// _Service, Query._service and Query._entities added. The union and
// _entities are omitted when no registered entity is an object type of the
// schema.
func (t *Transformer) Transform(exec *schema.Executable) (*schema.Executable, error) {
	if exec == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Transformer", "Transform", "executable validation")
	}

	opts := exec.Options
	opts.Federated = true
	opts.Extensions = append(append([]schema.Extension(nil), exec.Options.Extensions...), t)

	next, err := schema.Assemble(exec.Sources, exec.Wiring, opts)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.schema = &next.Schema
	t.mu.Unlock()
	return next, nil
}

// Name implements schema.Extension
func (t *Transformer) Name() string { return "federation" }

// Extend implements schema.Extension
func (t *Transformer) Extend(d *schema.Draft) (*schema.Contribution, error) {
	sdl, err := schema.FormatSources(d.Sources)
	if err != nil {
		return nil, err
	}

	query := d.AST.Query
	if query == nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: no Query type", errors.ErrSchemaInvalid),
			"Transformer", "Extend", "locate query root")
	}
	members := t.entityMembers(d.AST)
	hasUnion := d.AST.Types["_Entity"] != nil
	wireEntities := hasUnion || len(members) > 0

	var idl strings.Builder
	if d.AST.Types["_Any"] == nil {
		idl.WriteString("scalar _Any\n\n")
	}
	if d.AST.Types["_Service"] == nil {
		idl.WriteString("type _Service {\n  sdl: String\n}\n\n")
	}
	if !hasUnion && len(members) > 0 {
		fmt.Fprintf(&idl, "union _Entity = %s\n\n", strings.Join(members, " | "))
	}

	var fields []string
	if query.Fields.ForName("_service") == nil {
		fields = append(fields, "  _service: _Service!")
	}
	if wireEntities && query.Fields.ForName("_entities") == nil {
		fields = append(fields, "  _entities(representations: [_Any!]!): [_Entity]!")
	}
	if len(fields) > 0 {
		fmt.Fprintf(&idl, "extend type %s {\n%s\n}\n", query.Name, strings.Join(fields, "\n"))
	}

	contribution := &schema.Contribution{
		Resolvers: map[wiring.Coordinate]graphql.FieldResolveFn{
			{Type: query.Name, Field: "_service"}: func(graphql.ResolveParams) (any, error) {
				return map[string]any{"sdl": sdl}, nil
			},
		},
	}
	if idl.Len() > 0 {
		contribution.Sources = []*ast.Source{{Name: "federation_entities.graphqls", Input: idl.String()}}
	}
	if wireEntities {
		contribution.Resolvers[wiring.Coordinate{Type: query.Name, Field: "_entities"}] = t.resolveEntities
		contribution.TypeResolvers = map[string]wiring.TypeResolver{"_Entity": t.resolveUnionMember}
	}

	t.logger.Debug("Federation transform prepared", "entities", members)
	return contribution, nil
}

// entityMembers returns the registry names that are object types of the
// schema, in registration order.
func (t *Transformer) entityMembers(doc *ast.Schema) []string {
	var members []string
	seen := make(map[string]bool)
	for _, md := range t.entities.Entries() {
		def := doc.Types[md.ExternalName]
		if def == nil || def.Kind != ast.Object || seen[md.ExternalName] {
			continue
		}
		seen[md.ExternalName] = true
		members = append(members, md.ExternalName)
	}
	return members
}

// ResolveEntityType returns the schema object of the first registry entry
// whose matcher accepts the dynamic type of value, using the schema of the
// last Transform. It returns nil when nothing matches.
func (t *Transformer) ResolveEntityType(value any) *graphql.Object {
	t.mu.RLock()
	s := t.schema
	t.mu.RUnlock()
	if s == nil {
		return nil
	}
	return t.resolveIn(*s, value)
}

func (t *Transformer) resolveIn(s graphql.Schema, value any) *graphql.Object {
	md, ok := t.entities.Resolve(value)
	if !ok {
		return nil
	}
	obj, _ := s.Type(md.ExternalName).(*graphql.Object)
	return obj
}

// resolveUnionMember backs the _Entity union. Values unknown to the registry
// may still name their type through __typename.
func (t *Transformer) resolveUnionMember(p graphql.ResolveTypeParams) *graphql.Object {
	if obj := t.resolveIn(p.Info.Schema, p.Value); obj != nil {
		return obj
	}
	if m, ok := p.Value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			obj, _ := p.Info.Schema.Type(name).(*graphql.Object)
			return obj
		}
	}
	return nil
}

func (t *Transformer) resolveEntities(p graphql.ResolveParams) (any, error) {
	raw, _ := p.Args["representations"].([]any)
	representations := make([]map[string]any, len(raw))
	for i, r := range raw {
		representations[i], _ = r.(map[string]any)
	}

	thunks := t.FetchEntities(p.Context, representations)
	results := make([]any, len(thunks))
	for i, th := range thunks {
		results[i] = th
	}
	return results, nil
}

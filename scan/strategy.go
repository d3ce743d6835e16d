package scan

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/handler"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
	"github.com/c360/gqlwire/wiring"
)

// Strategy names
const (
	StrategyLoaders   = "loaders"
	StrategyEntities  = "entities"
	StrategyResolvers = "resolvers"
)

// Target is where strategies register what they find.
type Target struct {
	Entities *entity.Registry
	Loaders  *loader.Repository
	Wiring   *wiring.Accumulator
	Logger   *slog.Logger
	Metrics  *metric.Metrics
}

func (t *Target) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Strategy inspects one class for one marker kind. A class without the
// marker yields no items. Failures are reported per member and never stop
// the remaining members.
type Strategy interface {
	Name() string
	Parse(class handler.Class, provider handler.InstanceProvider, target *Target) []Item
}

// TypeResolverSource lets a resolvers class resolve the concrete type of its
// interface or union.
type TypeResolverSource interface {
	ResolveType(p graphql.ResolveTypeParams) *graphql.Object
}

// ScalarSource lets a resolvers class contribute custom scalars.
type ScalarSource interface {
	Scalars() []*graphql.Scalar
}

// DefaultStrategies returns loaders, entities and resolvers in that order
func DefaultStrategies() []Strategy {
	return []Strategy{LoaderStrategy{}, EntityStrategy{}, ResolverStrategy{}}
}

var (
	loaderPtrType     = reflect.TypeOf((*loader.Loader)(nil))
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
	resolveParamsType = reflect.TypeOf(graphql.ResolveParams{})
)

// LoaderStrategy registers every method shaped func() *loader.Loader or
// func() (*loader.Loader, error) of a loaders class.
type LoaderStrategy struct{}

// Name returns the strategy name
func (LoaderStrategy) Name() string { return StrategyLoaders }

// Parse implements Strategy
func (s LoaderStrategy) Parse(class handler.Class, provider handler.InstanceProvider, target *Target) []Item {
	if !class.Has(handler.KindLoaders) {
		return nil
	}

	instance, err := obtainInstance(provider, class)
	if err != nil {
		return []Item{fail(target, s.Name(), class, "", errors.WrapInvalid(err, "LoaderStrategy", "Parse", "obtain instance"))}
	}

	var items []Item
	v := reflect.ValueOf(instance)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		fn := v.Method(i)
		if !isLoaderMethod(fn.Type()) {
			continue
		}

		field := class.FieldName(method.Name)
		l, err := callLoader(fn)
		if err != nil {
			items = append(items, fail(target, s.Name(), class, method.Name,
				errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrMemberInvocation, err),
					"LoaderStrategy", "Parse", "invoke "+method.Name)))
			continue
		}

		replaced, err := target.Loaders.Register(field, l)
		if err != nil {
			items = append(items, fail(target, s.Name(), class, method.Name, err))
			continue
		}
		items = append(items, succeed(target, s.Name(), "loader", class, method.Name, field, replaced))
	}
	return items
}

func obtainInstance(provider handler.InstanceProvider, class handler.Class) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("%w: provider panic: %v", errors.ErrInstanceNotFound, r)
		}
	}()

	instance, err = provider.Instance(class)
	if err == nil && instance == nil {
		err = fmt.Errorf("%w: provider returned nil for %s", errors.ErrInstanceNotFound, class)
	}
	return instance, err
}

func isLoaderMethod(t reflect.Type) bool {
	if t.NumIn() != 0 {
		return false
	}
	switch t.NumOut() {
	case 1:
		return t.Out(0) == loaderPtrType
	case 2:
		return t.Out(0) == loaderPtrType && t.Out(1) == errorType
	}
	return false
}

func callLoader(fn reflect.Value) (l *loader.Loader, err error) {
	defer func() {
		if r := recover(); r != nil {
			l = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	out := fn.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	l, _ = out[0].Interface().(*loader.Loader)
	if l == nil {
		return nil, fmt.Errorf("returned nil loader")
	}
	return l, nil
}

// EntityStrategy registers the entity markers of a class. It uses marker
// data only and never instantiates the class.
type EntityStrategy struct{}

// Name returns the strategy name
func (EntityStrategy) Name() string { return StrategyEntities }

// Parse implements Strategy
func (s EntityStrategy) Parse(class handler.Class, _ handler.InstanceProvider, target *Target) []Item {
	var items []Item
	for _, marker := range class.MarkersOf(handler.KindEntity) {
		es := marker.Entity
		if es == nil || es.SourceType == nil {
			items = append(items, fail(target, s.Name(), class, "",
				errors.WrapInvalid(errors.ErrMarkerInvalid, "EntityStrategy", "Parse", "entity marker without type")))
			continue
		}

		replaced, err := target.Entities.Register(entity.Metadata{
			SourceType:   es.SourceType,
			ExternalName: es.ExternalName,
			IDField:      es.IDField,
			LoaderField:  es.LoaderField,
		})
		if err != nil {
			items = append(items, fail(target, s.Name(), class, es.ExternalName, err))
			continue
		}
		items = append(items, succeed(target, s.Name(), "entity", class, es.ExternalName, es.ExternalName, replaced))
	}
	return items
}

// ResolverStrategy wires every method shaped
// func(graphql.ResolveParams) (any, error) of a resolvers class to the
// marker's schema type.
type ResolverStrategy struct{}

// Name returns the strategy name
func (ResolverStrategy) Name() string { return StrategyResolvers }

// Parse implements Strategy
func (s ResolverStrategy) Parse(class handler.Class, provider handler.InstanceProvider, target *Target) []Item {
	markers := class.MarkersOf(handler.KindResolvers)
	if len(markers) == 0 {
		return nil
	}

	var items []Item
	for _, extra := range markers[1:] {
		items = append(items, fail(target, s.Name(), class, "",
			errors.WrapInvalid(fmt.Errorf("%w: %s ignored", errors.ErrDuplicateResolver, extra.TypeName),
				"ResolverStrategy", "Parse", "check markers")))
	}

	typeName := markers[0].TypeName
	if typeName == "" {
		return append(items, fail(target, s.Name(), class, "",
			errors.WrapInvalid(errors.ErrMarkerInvalid, "ResolverStrategy", "Parse", "resolvers marker without type name")))
	}

	instance, err := obtainInstance(provider, class)
	if err != nil {
		return append(items, fail(target, s.Name(), class, "",
			errors.WrapInvalid(err, "ResolverStrategy", "Parse", "obtain instance")))
	}

	v := reflect.ValueOf(instance)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		fn, ok := resolverFunc(v.Method(i))
		if !ok {
			continue
		}

		coord := wiring.Coordinate{Type: typeName, Field: class.FieldName(method.Name)}
		replaced := target.Wiring.AddField(coord, fn)
		items = append(items, succeed(target, s.Name(), "resolver", class, method.Name, coord.String(), replaced))
	}

	if src, ok := instance.(TypeResolverSource); ok {
		target.Wiring.AddTypeResolver(typeName, src.ResolveType)
	}
	if src, ok := instance.(ScalarSource); ok {
		for _, scalar := range src.Scalars() {
			target.Wiring.AddScalar(scalar)
		}
	}
	return items
}

func resolverFunc(fn reflect.Value) (graphql.FieldResolveFn, bool) {
	t := fn.Type()
	if t.NumIn() != 1 || t.In(0) != resolveParamsType || t.NumOut() != 2 || t.Out(1) != errorType {
		return nil, false
	}
	f, ok := fn.Interface().(func(graphql.ResolveParams) (any, error))
	if !ok {
		return nil, false
	}
	return f, true
}

func fail(target *Target, strategy string, class handler.Class, member string, err error) Item {
	target.logger().Warn("Handler member failed to register",
		"strategy", strategy,
		"class", class.String(),
		"member", member,
		"error", err)
	if target.Metrics != nil {
		target.Metrics.RecordScanFailure(strategy)
	}
	return Item{Strategy: strategy, Class: class.String(), Member: member, Err: err}
}

func succeed(target *Target, strategy, kind string, class handler.Class, member, registered string, replaced bool) Item {
	target.logger().Debug("Registered handler member",
		"strategy", strategy,
		"class", class.String(),
		"member", member,
		"target", registered,
		"replaced", replaced)
	if target.Metrics != nil {
		target.Metrics.RecordRegistration(kind)
		if replaced {
			target.Metrics.RecordRegistration("replaced")
		}
	}
	return Item{Strategy: strategy, Class: class.String(), Member: member, Target: registered, Replaced: replaced}
}

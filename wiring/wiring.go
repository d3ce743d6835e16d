// Package wiring holds the mapping from schema coordinates to resolver
// implementations.
//
// An Accumulator collects contributions during the scan phase. Build
// freezes it into a Config, which is never mutated afterwards.
package wiring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/graphql-go/graphql"
)

// Coordinate names one field of one schema type
type Coordinate struct {
	Type  string
	Field string
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s.%s", c.Type, c.Field)
}

// TypeResolver picks the concrete object type of an interface or union value
// given the schema being built.
type TypeResolver func(p graphql.ResolveTypeParams) *graphql.Object

// Config is an immutable wiring
type Config struct {
	fields          map[Coordinate]graphql.FieldResolveFn
	typeResolvers   map[string]TypeResolver
	scalars         map[string]*graphql.Scalar
	defaultResolver graphql.FieldResolveFn
}

// Resolver returns the resolver wired at c
func (c *Config) Resolver(coord Coordinate) (graphql.FieldResolveFn, bool) {
	fn, ok := c.fields[coord]
	return fn, ok
}

// TypeResolver returns the abstract type resolver for typeName
func (c *Config) TypeResolver(typeName string) (TypeResolver, bool) {
	fn, ok := c.typeResolvers[typeName]
	return fn, ok
}

// Scalar returns the custom scalar registered under name
func (c *Config) Scalar(name string) (*graphql.Scalar, bool) {
	s, ok := c.scalars[name]
	return s, ok
}

// DefaultResolver returns the resolver used for unwired fields
func (c *Config) DefaultResolver() graphql.FieldResolveFn {
	return c.defaultResolver
}

// Coordinates returns every wired coordinate sorted by type then field
func (c *Config) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, len(c.fields))
	for coord := range c.fields {
		coords = append(coords, coord)
	}
	sortCoordinates(coords)
	return coords
}

// FieldsOf returns the wired field names of typeName, sorted
func (c *Config) FieldsOf(typeName string) []string {
	var fields []string
	for coord := range c.fields {
		if coord.Type == typeName {
			fields = append(fields, coord.Field)
		}
	}
	sort.Strings(fields)
	return fields
}

// Len returns the number of wired coordinates
func (c *Config) Len() int {
	return len(c.fields)
}

// Extend returns a new Config holding c plus the given contributions.
// Contributed entries replace existing ones.
func (c *Config) Extend(fields map[Coordinate]graphql.FieldResolveFn, typeResolvers map[string]TypeResolver) *Config {
	next := &Config{
		fields:          make(map[Coordinate]graphql.FieldResolveFn, len(c.fields)+len(fields)),
		typeResolvers:   make(map[string]TypeResolver, len(c.typeResolvers)+len(typeResolvers)),
		scalars:         c.scalars,
		defaultResolver: c.defaultResolver,
	}
	for coord, fn := range c.fields {
		next.fields[coord] = fn
	}
	for coord, fn := range fields {
		next.fields[coord] = fn
	}
	for name, fn := range c.typeResolvers {
		next.typeResolvers[name] = fn
	}
	for name, fn := range typeResolvers {
		next.typeResolvers[name] = fn
	}
	return next
}

// Accumulator gathers wiring contributions. It is safe for concurrent use.
type Accumulator struct {
	fields        map[Coordinate]graphql.FieldResolveFn
	typeResolvers map[string]TypeResolver
	scalars       map[string]*graphql.Scalar
	mu            sync.Mutex
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		fields:        make(map[Coordinate]graphql.FieldResolveFn),
		typeResolvers: make(map[string]TypeResolver),
		scalars:       make(map[string]*graphql.Scalar),
	}
}

// AddField wires fn at coord and reports whether an earlier resolver was
// replaced.
func (a *Accumulator) AddField(coord Coordinate, fn graphql.FieldResolveFn) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, replaced := a.fields[coord]
	a.fields[coord] = fn
	return replaced
}

// AddTypeResolver registers the abstract type resolver of typeName
func (a *Accumulator) AddTypeResolver(typeName string, fn TypeResolver) {
	a.mu.Lock()
	a.typeResolvers[typeName] = fn
	a.mu.Unlock()
}

// AddScalar registers a custom scalar by its name
func (a *Accumulator) AddScalar(s *graphql.Scalar) {
	a.mu.Lock()
	a.scalars[s.Name()] = s
	a.mu.Unlock()
}

// Len returns the number of wired coordinates so far
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fields)
}

// Build freezes the accumulated wiring. A nil defaultResolver falls back to
// graphql.DefaultResolveFn.
func (a *Accumulator) Build(defaultResolver graphql.FieldResolveFn) *Config {
	a.mu.Lock()
	defer a.mu.Unlock()

	if defaultResolver == nil {
		defaultResolver = graphql.DefaultResolveFn
	}

	cfg := &Config{
		fields:          make(map[Coordinate]graphql.FieldResolveFn, len(a.fields)),
		typeResolvers:   make(map[string]TypeResolver, len(a.typeResolvers)),
		scalars:         make(map[string]*graphql.Scalar, len(a.scalars)),
		defaultResolver: defaultResolver,
	}
	for k, v := range a.fields {
		cfg.fields[k] = v
	}
	for k, v := range a.typeResolvers {
		cfg.typeResolvers[k] = v
	}
	for k, v := range a.scalars {
		cfg.scalars[k] = v
	}
	return cfg
}

func sortCoordinates(coords []Coordinate) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Type != coords[j].Type {
			return coords[i].Type < coords[j].Type
		}
		return coords[i].Field < coords[j].Field
	})
}

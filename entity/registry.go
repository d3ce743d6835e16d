// Package entity holds the Type Registry: the ordered list of federated
// entity types known to one builder run.
package entity

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/c360/gqlwire/errors"
)

// Metadata describes how a Go type is exposed as a federated entity.
type Metadata struct {
	// SourceType is the Go type described. An interface type matches every
	// type implementing it; a concrete type T matches T and *T.
	SourceType reflect.Type `json:"-"`
	// ExternalName is the schema type name used in entity representations.
	ExternalName string `json:"external_name"`
	// IDField is the representation key holding the identifier.
	IDField string `json:"id_field"`
	// LoaderField names the loader in the loader repository.
	LoaderField string `json:"loader_field"`
}

// Validate checks that every field is set
func (m Metadata) Validate() error {
	switch {
	case m.SourceType == nil:
		return errors.WrapInvalid(errors.ErrInvalidData, "Metadata", "Validate", "source type validation")
	case m.ExternalName == "":
		return errors.WrapInvalid(errors.ErrInvalidData, "Metadata", "Validate", "external name validation")
	case m.IDField == "":
		return errors.WrapInvalid(errors.ErrInvalidData, "Metadata", "Validate", "id field validation")
	case m.LoaderField == "":
		return errors.WrapInvalid(errors.ErrInvalidData, "Metadata", "Validate", "loader field validation")
	}
	return nil
}

// Matcher reports whether a runtime type belongs to an entry.
type Matcher func(t reflect.Type) bool

// SubtypeOf returns the default matcher for a source type.
func SubtypeOf(source reflect.Type) Matcher {
	if source.Kind() == reflect.Interface {
		return func(t reflect.Type) bool {
			return t != nil && t.Implements(source)
		}
	}
	return func(t reflect.Type) bool {
		if t == nil {
			return false
		}
		if t == source {
			return true
		}
		return t.Kind() == reflect.Pointer && t.Elem() == source
	}
}

type entry struct {
	matcher  Matcher
	metadata Metadata
}

// Registry is an ordered (matcher, metadata) list. Resolution walks entries
// in registration order and the first match wins. Re-registering a source
// type replaces its metadata in place.
type Registry struct {
	entries []entry
	index   map[reflect.Type]int
	sealed  bool
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		index:  make(map[reflect.Type]int),
		logger: logger.With("component", "entity-registry"),
	}
}

// Register adds metadata using the SubtypeOf matcher for its source type.
// It reports whether an earlier entry for the same source type was replaced.
func (r *Registry) Register(md Metadata) (bool, error) {
	if md.SourceType == nil {
		return false, errors.WrapInvalid(errors.ErrInvalidData, "Registry", "Register", "source type validation")
	}
	return r.RegisterMatcher(SubtypeOf(md.SourceType), md)
}

// RegisterMatcher adds metadata with a custom matcher. Entries are still
// keyed by SourceType for replacement.
func (r *Registry) RegisterMatcher(matcher Matcher, md Metadata) (bool, error) {
	if err := md.Validate(); err != nil {
		return false, err
	}
	if matcher == nil {
		return false, errors.WrapInvalid(errors.ErrInvalidData, "Registry", "RegisterMatcher", "matcher validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return false, errors.WrapInvalid(errors.ErrRegistrySealed, "Registry", "RegisterMatcher",
			fmt.Sprintf("register %s", md.ExternalName))
	}

	if pos, exists := r.index[md.SourceType]; exists {
		r.logger.Debug("Replacing entity metadata",
			"source_type", md.SourceType.String(),
			"previous", r.entries[pos].metadata.ExternalName,
			"external_name", md.ExternalName)
		r.entries[pos] = entry{matcher: matcher, metadata: md}
		return true, nil
	}

	r.index[md.SourceType] = len(r.entries)
	r.entries = append(r.entries, entry{matcher: matcher, metadata: md})
	r.logger.Debug("Registered entity type",
		"source_type", md.SourceType.String(),
		"external_name", md.ExternalName,
		"id_field", md.IDField,
		"loader_field", md.LoaderField)
	return false, nil
}

// Seal makes the registry read-only
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Resolve returns the metadata of the first entry matching the dynamic type
// of value.
func (r *Registry) Resolve(value any) (Metadata, bool) {
	if value == nil {
		return Metadata{}, false
	}
	return r.ResolveType(reflect.TypeOf(value))
}

// ResolveType is Resolve for an already known type.
func (r *Registry) ResolveType(t reflect.Type) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.matcher(t) {
			return e.metadata, true
		}
	}
	return Metadata{}, false
}

// Lookup finds the first entry with the given external name.
func (r *Registry) Lookup(externalName string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.metadata.ExternalName == externalName {
			return e.metadata, true
		}
	}
	return Metadata{}, false
}

// Entries returns a copy of all metadata in registration order.
func (r *Registry) Entries() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, len(r.entries))
	for i, e := range r.entries {
		result[i] = e.metadata
	}
	return result
}

// Len returns the number of entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

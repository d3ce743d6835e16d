package handler

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/errors"
)

// InstanceProvider supplies the singleton instance of a handler class.
type InstanceProvider interface {
	Instance(c Class) (any, error)
}

// ProviderFunc adapts a function to InstanceProvider
type ProviderFunc func(c Class) (any, error)

// Instance calls f
func (f ProviderFunc) Instance(c Class) (any, error) { return f(c) }

// DefaultResolverSource is implemented by providers that supply the default
// field resolver used for fields without explicit wiring.
type DefaultResolverSource interface {
	DefaultResolver() graphql.FieldResolveFn
}

// SingletonProvider creates one instance per class type on demand and
// caches it. Instances registered through Provide take precedence.
type SingletonProvider struct {
	instances       map[reflect.Type]any
	defaultResolver graphql.FieldResolveFn
	mu              sync.Mutex
}

// NewSingletonProvider creates an empty provider
func NewSingletonProvider() *SingletonProvider {
	return &SingletonProvider{instances: make(map[reflect.Type]any)}
}

// Provide registers a pre-built instance. A pointer instance is keyed by its
// element type so it serves classes built from either form.
func (p *SingletonProvider) Provide(instance any) error {
	t := reflect.TypeOf(instance)
	if t == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "SingletonProvider", "Provide", "instance validation")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	p.mu.Lock()
	p.instances[t] = instance
	p.mu.Unlock()
	return nil
}

// SetDefaultResolver overrides the default field resolver
func (p *SingletonProvider) SetDefaultResolver(fn graphql.FieldResolveFn) {
	p.mu.Lock()
	p.defaultResolver = fn
	p.mu.Unlock()
}

// DefaultResolver returns the configured default resolver, or
// graphql.DefaultResolveFn.
func (p *SingletonProvider) DefaultResolver() graphql.FieldResolveFn {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.defaultResolver != nil {
		return p.defaultResolver
	}
	return graphql.DefaultResolveFn
}

// Instance returns the cached instance for the class type, constructing a
// zero value pointer on first use.
func (p *SingletonProvider) Instance(c Class) (any, error) {
	if c.Type == nil {
		return nil, errors.WrapInvalid(errors.ErrInstanceNotFound, "SingletonProvider", "Instance",
			fmt.Sprintf("class %s has no type", c.Name))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if instance, ok := p.instances[c.Type]; ok {
		return instance, nil
	}
	if c.Type.Kind() == reflect.Interface {
		return nil, errors.WrapInvalid(errors.ErrInstanceNotFound, "SingletonProvider", "Instance",
			fmt.Sprintf("cannot construct interface %s", c.Type))
	}

	instance := reflect.New(c.Type).Interface()
	p.instances[c.Type] = instance
	return instance, nil
}

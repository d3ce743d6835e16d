package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/gqlwire/errors"
)

// Thunk is a deferred value. It must stay an unnamed function type: the
// execution engine only dethunks values of exactly this type.
type Thunk = func() (any, error)

// DefaultWait is the dispatch tick used when neither the loader nor the
// repository sets one.
const DefaultWait = 2 * time.Millisecond

// BatchFunc resolves a batch of keys. The result must have one element per
// key in key order. An element that is an error fails only its own key.
type BatchFunc func(ctx context.Context, keys []string) ([]any, error)

// MappedBatchFunc resolves a batch of keys into a map. Keys missing from the
// map resolve to nil.
type MappedBatchFunc func(ctx context.Context, keys []string) (map[string]any, error)

// Loader is a batched loader definition. Live batching state is created per
// request by a Scope.
type Loader struct {
	batch         BatchFunc
	wait          time.Duration
	batchCapacity int
	cacheSize     int
	waitSet       bool
	capacitySet   bool
	cacheSet      bool
}

// Option configures a Loader
type Option func(*Loader)

// WithWait sets the dispatch tick
func WithWait(d time.Duration) Option {
	return func(l *Loader) {
		l.wait = d
		l.waitSet = true
	}
}

// WithBatchCapacity caps the number of keys per batch call. Zero means no cap.
func WithBatchCapacity(n int) Option {
	return func(l *Loader) {
		l.batchCapacity = n
		l.capacitySet = true
	}
}

// WithCacheSize bounds the per-request result cache. Zero keeps every result
// for the request; a negative size disables caching.
func WithCacheSize(n int) Option {
	return func(l *Loader) {
		l.cacheSize = n
		l.cacheSet = true
	}
}

// New creates a list-form loader
func New(fn BatchFunc, opts ...Option) *Loader {
	l := &Loader{batch: fn}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewMapped creates a keyed loader
func NewMapped(fn MappedBatchFunc, opts ...Option) *Loader {
	return New(func(ctx context.Context, keys []string) ([]any, error) {
		found, err := fn(ctx, keys)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(keys))
		for i, key := range keys {
			values[i] = found[key]
		}
		return values, nil
	}, opts...)
}

// Wait returns the configured dispatch tick
func (l *Loader) Wait() time.Duration { return l.wait }

// BatchCapacity returns the configured batch cap
func (l *Loader) BatchCapacity() int { return l.batchCapacity }

// CacheSize returns the configured cache bound
func (l *Loader) CacheSize() int { return l.cacheSize }

// withDefaults returns a copy with unset settings taken from d.
func (l *Loader) withDefaults(d Defaults) *Loader {
	c := *l
	if !c.waitSet {
		c.wait = d.Wait
	}
	if c.wait <= 0 {
		c.wait = DefaultWait
	}
	if !c.capacitySet {
		c.batchCapacity = d.BatchCapacity
	}
	if !c.cacheSet {
		c.cacheSize = d.CacheSize
	}
	return &c
}

// invoke calls the batch function, converting a panic into an error and
// checking result alignment.
func (l *Loader) invoke(ctx context.Context, name string, keys []string) (values []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = errors.WrapInvalid(fmt.Errorf("panic: %v", r), "Loader", "invoke", "batch "+name)
		}
	}()

	values, err = l.batch(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(values) != len(keys) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %d results for %d keys", errors.ErrBatchMismatch, len(values), len(keys)),
			"Loader", "invoke", "batch "+name)
	}
	return values, nil
}

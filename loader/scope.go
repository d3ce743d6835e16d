package loader

import (
	"context"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/c360/gqlwire/errors"
)

// BatchObserver is notified about batch calls and cache lookups made inside
// a scope.
type BatchObserver interface {
	ObserveBatch(loader string, size int, err error, duration time.Duration)
	ObserveCache(loader string, hit bool)
}

// BatchStats summarises the activity of one loader within a scope.
type BatchStats struct {
	Batches   int `json:"batches"`
	Keys      int `json:"keys"`
	Errors    int `json:"errors"`
	CacheHits int `json:"cache_hits"`
}

// Scope holds the live dataloaders of one request. Loads issued for the same
// loader within one dispatch tick are coalesced into one batch call, and
// repeated keys are served from the request cache.
type Scope struct {
	repo      *Repository
	observers []BatchObserver
	loaders   map[string]*dataloader.Loader[string, any]
	stats     map[string]*BatchStats
	mu        sync.Mutex
}

func newScope(repo *Repository, observers []BatchObserver) *Scope {
	return &Scope{
		repo:      repo,
		observers: observers,
		loaders:   make(map[string]*dataloader.Loader[string, any]),
		stats:     make(map[string]*BatchStats),
	}
}

// Load queues key on the named loader and returns a thunk for its value.
func (s *Scope) Load(ctx context.Context, name, key string) (Thunk, error) {
	dl, err := s.dataloader(name)
	if err != nil {
		return nil, err
	}
	thunk := dl.Load(ctx, key)
	return func() (any, error) {
		return thunk()
	}, nil
}

// LoadMany queues keys on the named loader. The returned thunk fails with the
// first per-key error.
func (s *Scope) LoadMany(ctx context.Context, name string, keys []string) (func() ([]any, error), error) {
	dl, err := s.dataloader(name)
	if err != nil {
		return nil, err
	}
	thunk := dl.LoadMany(ctx, keys)
	return func() ([]any, error) {
		values, errs := thunk()
		for _, e := range errs {
			if e != nil {
				return values, e
			}
		}
		return values, nil
	}, nil
}

// Stats returns a copy of the per-loader statistics gathered so far.
func (s *Scope) Stats() map[string]BatchStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]BatchStats, len(s.stats))
	for name, st := range s.stats {
		result[name] = *st
	}
	return result
}

func (s *Scope) dataloader(name string) (*dataloader.Loader[string, any], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dl, ok := s.loaders[name]; ok {
		return dl, nil
	}

	def, ok := s.repo.Get(name)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrLoaderNotFound, "Scope", "Load", "lookup "+name)
	}

	opts := []dataloader.Option[string, any]{
		dataloader.WithWait[string, any](def.wait),
		dataloader.WithCache[string, any](s.cacheFor(name, def.cacheSize)),
	}
	if def.batchCapacity > 0 {
		opts = append(opts, dataloader.WithBatchCapacity[string, any](def.batchCapacity))
	}

	dl := dataloader.NewBatchedLoader(s.batchFunc(name, def), opts...)
	s.loaders[name] = dl
	s.stats[name] = &BatchStats{}
	return dl, nil
}

func (s *Scope) cacheFor(name string, size int) dataloader.Cache[string, any] {
	onLookup := func(hit bool) { s.recordCache(name, hit) }
	if size < 0 {
		return &dataloader.NoCache[string, any]{}
	}
	return newLRUCache(size, onLookup)
}

func (s *Scope) batchFunc(name string, def *Loader) dataloader.BatchFunc[string, any] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[any] {
		start := time.Now()
		values, err := def.invoke(ctx, name, keys)

		results := make([]*dataloader.Result[any], len(keys))
		for i := range keys {
			if err != nil {
				results[i] = &dataloader.Result[any]{Error: err}
				continue
			}
			if itemErr, ok := values[i].(error); ok {
				results[i] = &dataloader.Result[any]{Error: itemErr}
				continue
			}
			results[i] = &dataloader.Result[any]{Data: values[i]}
		}

		s.recordBatch(name, len(keys), err, time.Since(start))
		return results
	}
}

func (s *Scope) recordBatch(name string, size int, err error, duration time.Duration) {
	s.mu.Lock()
	st := s.stats[name]
	st.Batches++
	st.Keys += size
	if err != nil {
		st.Errors++
	}
	s.mu.Unlock()

	for _, o := range s.observers {
		o.ObserveBatch(name, size, err, duration)
	}
}

func (s *Scope) recordCache(name string, hit bool) {
	if hit {
		s.mu.Lock()
		if st, ok := s.stats[name]; ok {
			st.CacheHits++
		}
		s.mu.Unlock()
	}

	for _, o := range s.observers {
		o.ObserveCache(name, hit)
	}
}

type scopeKey struct{}

// WithScope stores a scope in the context
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope stored by WithScope
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// Load is a convenience for resolvers: it loads key from the named loader
// of the scope carried by ctx.
func Load(ctx context.Context, name, key string) (Thunk, error) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrScopeMissing, "loader", "Load", "lookup scope")
	}
	return s.Load(ctx, name, key)
}

package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/c360/gqlwire/errors"
)

// Defaults are applied to loaders that leave a setting unset.
type Defaults struct {
	Wait          time.Duration
	BatchCapacity int
	CacheSize     int
}

// Repository maps loader field names to loader definitions for one builder
// run. The last registration for a name wins.
type Repository struct {
	loaders  map[string]*Loader
	defaults Defaults
	sealed   bool
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewRepository creates an empty repository
func NewRepository(defaults Defaults, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		loaders:  make(map[string]*Loader),
		defaults: defaults,
		logger:   logger.With("component", "loader-repository"),
	}
}

// Register stores a loader under name and reports whether an earlier loader
// was replaced.
func (r *Repository) Register(name string, l *Loader) (bool, error) {
	if name == "" {
		return false, errors.WrapInvalid(errors.ErrInvalidData, "Repository", "Register", "name validation")
	}
	if l == nil || l.batch == nil {
		return false, errors.WrapInvalid(
			fmt.Errorf("%w: loader %s has no batch function", errors.ErrInvalidData, name),
			"Repository", "Register", "loader validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return false, errors.WrapInvalid(errors.ErrRegistrySealed, "Repository", "Register", "register "+name)
	}

	_, replaced := r.loaders[name]
	r.loaders[name] = l.withDefaults(r.defaults)
	if replaced {
		r.logger.Debug("Replacing loader", "loader", name)
	} else {
		r.logger.Debug("Registered loader", "loader", name)
	}
	return replaced, nil
}

// Get returns the loader registered under name
func (r *Repository) Get(name string) (*Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Names returns the registered names in sorted order
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered loaders
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loaders)
}

// Seal makes the repository read-only
func (r *Repository) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (r *Repository) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// NewScope creates per-request batching state
func (r *Repository) NewScope(observers ...BatchObserver) *Scope {
	return newScope(r, observers)
}

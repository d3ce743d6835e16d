package gqlwire

import (
	"io/fs"
	"log/slog"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/config"
	"github.com/c360/gqlwire/federation"
	"github.com/c360/gqlwire/handler"
	"github.com/c360/gqlwire/instrument"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
	"github.com/c360/gqlwire/scan"
)

// Option configures a Builder
type Option func(*Builder)

// WithInstanceProvider sets where handler instances come from. The default
// is a fresh handler.SingletonProvider.
func WithInstanceProvider(p handler.InstanceProvider) Option {
	return func(b *Builder) {
		if p != nil {
			b.provider = p
		}
	}
}

// WithAdditionalClasses adds classes scanned ahead of the catalog scan
func WithAdditionalClasses(classes ...handler.Class) Option {
	return func(b *Builder) {
		b.classes = append(b.classes, classes...)
	}
}

// WithAdditionalClassNames adds catalog classes by qualified name. Names are
// resolved when the builder runs.
func WithAdditionalClassNames(names ...string) Option {
	return func(b *Builder) {
		b.classNames = append(b.classNames, names...)
	}
}

// WithBasePackage scopes the catalog scan. Empty disables it.
func WithBasePackage(pkg string) Option {
	return func(b *Builder) {
		b.basePackage = pkg
	}
}

// WithCatalog replaces handler.DefaultCatalog as the scan source
func WithCatalog(c *handler.Catalog) Option {
	return func(b *Builder) {
		if c != nil {
			b.catalog = c
		}
	}
}

// WithSchemaFileExtension selects the IDL files read from the schema
// directory or file system (default "graphqls").
func WithSchemaFileExtension(ext string) Option {
	return func(b *Builder) {
		b.schemaExt = ext
	}
}

// WithSchemaDir reads IDL files from a directory
func WithSchemaDir(dir string) Option {
	return func(b *Builder) {
		b.schemaDir = dir
	}
}

// WithSchemaFS reads IDL files from the root of fsys
func WithSchemaFS(fsys fs.FS) Option {
	return func(b *Builder) {
		b.schemaFS = fsys
	}
}

// WithSchemaSources adds IDL sources directly
func WithSchemaSources(sources ...*ast.Source) Option {
	return func(b *Builder) {
		b.sources = append(b.sources, sources...)
	}
}

// WithInstrumentation replaces the default instrumentation, a single
// batching statistics observer. No arguments disables instrumentation.
func WithInstrumentation(items ...instrument.Instrumentation) Option {
	return func(b *Builder) {
		b.instrumentation = items
		b.instrumentationSet = true
		b.instrumentationConfig = nil
	}
}

// WithMaxQueryCost records the cost limit on the runtime (default 100)
func WithMaxQueryCost(cost int) Option {
	return func(b *Builder) {
		b.maxQueryCost = cost
	}
}

// WithFederation enables the federation transform
func WithFederation(enabled bool) Option {
	return func(b *Builder) {
		b.federated = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics registry. The default is a registry owned by
// the builder.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(b *Builder) {
		if registry != nil {
			b.metrics = registry
		}
	}
}

// WithLoaderDefaults sets the wait, batch capacity and cache size used by
// loaders that do not set their own.
func WithLoaderDefaults(d loader.Defaults) Option {
	return func(b *Builder) {
		b.loaderDefaults = d
	}
}

// WithLoader registers a loader before the scan. A scanned loader with the
// same name replaces it.
func WithLoader(name string, l *loader.Loader) Option {
	return func(b *Builder) {
		b.loaders = append(b.loaders, namedLoader{name: name, loader: l})
	}
}

// WithEntityExclusions replaces the federation exclusion rules. No arguments
// disables exclusion.
func WithEntityExclusions(rules ...federation.ExclusionRule) Option {
	return func(b *Builder) {
		b.exclusions = rules
		b.exclusionsSet = true
	}
}

// WithStrategies replaces scan.DefaultStrategies
func WithStrategies(strategies ...scan.Strategy) Option {
	return func(b *Builder) {
		b.strategies = strategies
	}
}

// WithConfig applies a validated configuration. Options given after it
// override its values.
func WithConfig(cfg *config.Config) Option {
	return func(b *Builder) {
		if cfg == nil {
			return
		}
		b.basePackage = cfg.BasePackage
		b.classNames = append(b.classNames, cfg.AdditionalClasses...)
		b.schemaDir = cfg.SchemaDir
		b.schemaExt = cfg.SchemaFileExtension
		b.maxQueryCost = cfg.MaxQueryCost
		b.federated = cfg.Federated
		if cfg.Exclusions != nil {
			rules, err := exclusionsByName(cfg.Exclusions)
			if err != nil {
				b.optionErrs = append(b.optionErrs, err)
			} else {
				b.exclusions = rules
				b.exclusionsSet = true
			}
		}
		b.loaderDefaults = loader.Defaults{
			Wait:          cfg.Loader.Wait(),
			BatchCapacity: cfg.Loader.BatchCapacity,
			CacheSize:     cfg.Loader.CacheSize,
		}

		instr := cfg.Instrumentation
		b.instrumentation = nil
		b.instrumentationSet = false
		b.instrumentationConfig = &instr
	}
}

type namedLoader struct {
	name   string
	loader *loader.Loader
}

package gqlwire

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/config"
	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/federation"
	"github.com/c360/gqlwire/handler"
	"github.com/c360/gqlwire/instrument"
	"github.com/c360/gqlwire/loader"
	"github.com/c360/gqlwire/metric"
	"github.com/c360/gqlwire/scan"
	"github.com/c360/gqlwire/schema"
	"github.com/c360/gqlwire/wiring"
)

// DefaultMaxQueryCost is the cost limit recorded when none is configured
const DefaultMaxQueryCost = 100

// Builder collects options and produces one Runtime. A builder owns its
// entity registry and loader repository, so several builders may coexist.
type Builder struct {
	provider    handler.InstanceProvider
	classes     []handler.Class
	classNames  []string
	catalog     *handler.Catalog
	basePackage string

	schemaExt string
	schemaDir string
	schemaFS  fs.FS
	sources   []*ast.Source

	instrumentation       []instrument.Instrumentation
	instrumentationSet    bool
	instrumentationConfig *config.InstrumentationConfig

	maxQueryCost   int
	federated      bool
	logger         *slog.Logger
	metrics        *metric.MetricsRegistry
	loaderDefaults loader.Defaults
	loaders        []namedLoader
	exclusions     []federation.ExclusionRule
	exclusionsSet  bool
	strategies     []scan.Strategy
	optionErrs     []error

	built bool
	mu    sync.Mutex
}

// New creates a builder
func New(opts ...Option) *Builder {
	b := &Builder{
		catalog:      handler.DefaultCatalog(),
		schemaExt:    schema.DefaultExtension,
		maxQueryCost: DefaultMaxQueryCost,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the pipeline: scan the handler classes into fresh registries,
// assemble the schema from the IDL and the wiring, apply the federation
// transform when enabled, then seal the registries. A builder builds once:
// after a successful Build later calls fail with errors.ErrAlreadyBuilt. A
// failed Build leaves the builder reusable.
func (b *Builder) Build() (*Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, errors.WrapFatal(errors.ErrAlreadyBuilt, "Builder", "Build", "build runtime")
	}

	if len(b.optionErrs) > 0 {
		return nil, errors.WrapFatal(stderrors.Join(b.optionErrs...), "Builder", "Build", "apply options")
	}

	logger := b.logger.With("component", "gqlwire")
	registry := b.metrics
	if registry == nil {
		registry = metric.NewMetricsRegistry()
	}
	metrics := registry.CoreMetrics()

	sources, err := b.collectSources()
	if err != nil {
		return nil, err
	}
	classes, err := b.collectClasses()
	if err != nil {
		return nil, err
	}

	entities := entity.NewRegistry(b.logger)
	loaders := loader.NewRepository(b.loaderDefaults, b.logger)
	for _, nl := range b.loaders {
		if _, err := loaders.Register(nl.name, nl.loader); err != nil {
			return nil, errors.WrapFatal(err, "Builder", "Build", fmt.Sprintf("register loader %s", nl.name))
		}
	}

	wb := scan.NewWiringBuilder(scan.BuilderConfig{
		Classes:     classes,
		Catalog:     b.catalog,
		BasePackage: b.basePackage,
		Provider:    b.provider,
		Strategies:  b.strategies,
		Target: &scan.Target{
			Entities: entities,
			Loaders:  loaders,
			Wiring:   wiring.NewAccumulator(),
			Logger:   b.logger,
			Metrics:  metrics,
		},
	})
	wiringCfg, err := wb.BuildWiring()
	if err != nil {
		return nil, err
	}

	exec, err := schema.Assemble(sources, wiringCfg, schema.Options{
		Federated: b.federated,
		Entities:  entities,
		Logger:    b.logger,
	})
	if err != nil {
		return nil, err
	}

	var transformer *federation.Transformer
	if b.federated {
		opts := []federation.Option{federation.WithLogger(b.logger), federation.WithMetrics(metrics)}
		if b.exclusionsSet {
			opts = append(opts, federation.WithExclusions(b.exclusions...))
		}
		transformer = federation.NewTransformer(entities, loaders, opts...)
		if exec, err = transformer.Transform(exec); err != nil {
			return nil, err
		}
	}

	entities.Seal()
	loaders.Seal()
	b.built = true

	rt := &Runtime{
		exec:            exec,
		entities:        entities,
		loaders:         loaders,
		transformer:     transformer,
		instrumentation: b.buildInstrumentation(metrics),
		registry:        registry,
		metrics:         metrics,
		report:          wb.Report(),
		maxQueryCost:    b.maxQueryCost,
		logger:          logger,
	}

	logger.Info("Runtime built",
		"federated", b.federated,
		"entities", entities.Len(),
		"loaders", loaders.Len(),
		"resolvers", wiringCfg.Len(),
		"scan_failures", len(rt.report.Failed()))
	return rt, nil
}

func (b *Builder) collectSources() ([]*ast.Source, error) {
	sources := append([]*ast.Source(nil), b.sources...)

	if b.schemaFS != nil {
		loaded, err := schema.LoadFS(b.schemaFS, b.schemaExt)
		if err != nil {
			return nil, err
		}
		sources = append(sources, loaded...)
	}
	if b.schemaDir != "" {
		loaded, err := schema.LoadDir(b.schemaDir, b.schemaExt)
		if err != nil {
			return nil, err
		}
		sources = append(sources, loaded...)
	}

	if len(sources) == 0 {
		return nil, errors.WrapFatal(errors.ErrSchemaNotFound, "Builder", "Build", "collect schema sources")
	}
	return sources, nil
}

func (b *Builder) collectClasses() ([]handler.Class, error) {
	classes := append([]handler.Class(nil), b.classes...)
	for _, name := range b.classNames {
		class, ok := b.catalog.Lookup(name)
		if !ok {
			return nil, errors.WrapFatal(fmt.Errorf("%w: unknown class %q", errors.ErrInvalidConfig, name),
				"Builder", "Build", "resolve additional classes")
		}
		classes = append(classes, class)
	}
	return classes, nil
}

func (b *Builder) buildInstrumentation(metrics *metric.Metrics) instrument.Chain {
	switch {
	case b.instrumentationSet:
		return instrument.NewChain(b.instrumentation...)
	case b.instrumentationConfig != nil:
		var items []instrument.Instrumentation
		if b.instrumentationConfig.BatchStatistics {
			items = append(items, instrument.NewBatchStatistics(metrics))
		}
		if b.instrumentationConfig.Logging {
			items = append(items, instrument.NewLogging(b.logger))
		}
		return instrument.NewChain(items...)
	default:
		return instrument.NewChain(instrument.NewBatchStatistics(metrics))
	}
}

// exclusionsByName selects the built-in exclusion rules by name
func exclusionsByName(names []string) ([]federation.ExclusionRule, error) {
	known := make(map[string]federation.ExclusionRule)
	for _, rule := range federation.DefaultExclusions() {
		known[rule.Name] = rule
	}

	rules := make([]federation.ExclusionRule, 0, len(names))
	for _, name := range names {
		rule, ok := known[name]
		if !ok {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: unknown exclusion rule %q", errors.ErrInvalidConfig, name),
				"Builder", "WithConfig", "resolve exclusions")
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

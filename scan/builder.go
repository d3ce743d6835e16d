package scan

import (
	"sync"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/handler"
	"github.com/c360/gqlwire/wiring"
)

// BuilderConfig configures a WiringBuilder
type BuilderConfig struct {
	// Classes are scanned first, in order.
	Classes []handler.Class
	// Catalog and BasePackage select further classes. An empty BasePackage
	// disables the catalog scan.
	Catalog     *handler.Catalog
	BasePackage string
	Provider    handler.InstanceProvider
	Strategies  []Strategy
	Target      *Target
}

// WiringBuilder runs the strategies over every class and produces the wiring
// configuration exactly once.
type WiringBuilder struct {
	cfg    BuilderConfig
	result *wiring.Config
	report *Report
	err    error
	once   sync.Once
}

// NewWiringBuilder creates a builder. Missing strategies default to
// DefaultStrategies and a missing provider to a fresh SingletonProvider.
func NewWiringBuilder(cfg BuilderConfig) *WiringBuilder {
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if cfg.Provider == nil {
		cfg.Provider = handler.NewSingletonProvider()
	}
	return &WiringBuilder{cfg: cfg, report: &Report{}}
}

// BuildWiring scans the classes and returns the wiring. Later calls return
// the same config without scanning again.
func (b *WiringBuilder) BuildWiring() (*wiring.Config, error) {
	b.once.Do(func() {
		b.result, b.err = b.build()
	})
	return b.result, b.err
}

// Report returns the per-member outcomes of the scan
func (b *WiringBuilder) Report() *Report {
	return b.report
}

// Classes returns the classes that will be scanned: explicit classes first,
// then catalog classes, dropping repeated types.
func (b *WiringBuilder) Classes() []handler.Class {
	candidates := append([]handler.Class(nil), b.cfg.Classes...)
	if b.cfg.Catalog != nil {
		candidates = append(candidates, b.cfg.Catalog.Scan(b.cfg.BasePackage)...)
	}

	seen := make(map[any]bool, len(candidates))
	result := make([]handler.Class, 0, len(candidates))
	for _, class := range candidates {
		var key any = class.String()
		if class.Type != nil {
			key = class.Type
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, class)
	}
	return result
}

func (b *WiringBuilder) build() (*wiring.Config, error) {
	target := b.cfg.Target
	if target == nil || target.Entities == nil || target.Loaders == nil || target.Wiring == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "WiringBuilder", "BuildWiring", "target validation")
	}

	classes := b.Classes()
	for _, class := range classes {
		for _, strategy := range b.cfg.Strategies {
			b.report.Add(strategy.Parse(class, b.cfg.Provider, target)...)
		}
	}

	target.logger().Info("Handler scan complete",
		"classes", len(classes),
		"registered", len(b.report.Succeeded()),
		"failed", len(b.report.Failed()),
		"replaced", b.report.Replaced())

	return target.Wiring.Build(b.defaultResolver()), nil
}

func (b *WiringBuilder) defaultResolver() graphql.FieldResolveFn {
	if src, ok := b.cfg.Provider.(handler.DefaultResolverSource); ok {
		return src.DefaultResolver()
	}
	return nil
}

package schema

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/wiring"
)

// Draft is the validated schema handed to an extension before conversion.
type Draft struct {
	AST     *ast.Schema
	Sources []*ast.Source
	Wiring  *wiring.Config
}

// Contribution is what an extension adds: more IDL and more wiring.
type Contribution struct {
	Sources       []*ast.Source
	Resolvers     map[wiring.Coordinate]graphql.FieldResolveFn
	TypeResolvers map[string]wiring.TypeResolver
}

// Extension adds definitions and resolvers to a schema before it is
// converted into an executable one.
type Extension interface {
	Name() string
	Extend(d *Draft) (*Contribution, error)
}

// Options control assembly
type Options struct {
	Federated  bool
	Extensions []Extension
	// Entities is the last fallback when resolving the concrete type of an
	// interface or union value.
	Entities *entity.Registry
	Logger   *slog.Logger
}

// Executable is an executable schema together with the inputs it was built
// from.
type Executable struct {
	Schema  graphql.Schema
	AST     *ast.Schema
	Sources []*ast.Source
	Wiring  *wiring.Config
	Options Options
}

// Assemble validates the IDL sources and converts them plus the wiring into
// an executable schema.
func Assemble(sources []*ast.Source, cfg *wiring.Config, opts Options) (*Executable, error) {
	if len(sources) == 0 {
		return nil, errors.WrapFatal(errors.ErrSchemaNotFound, "Assembler", "Assemble", "collect sources")
	}
	if cfg == nil {
		cfg = wiring.NewAccumulator().Build(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "schema-assembler")

	all := append(prelude(opts.Federated, sources), sources...)
	doc, err := load(all)
	if err != nil {
		return nil, err
	}

	for _, ext := range opts.Extensions {
		c, err := ext.Extend(&Draft{AST: doc, Sources: sources, Wiring: cfg})
		if err != nil {
			return nil, errors.WrapFatal(err, "Assembler", "Assemble", "apply extension "+ext.Name())
		}
		if c == nil {
			continue
		}
		if len(c.Sources) > 0 {
			all = append(all, c.Sources...)
			if doc, err = load(all); err != nil {
				return nil, err
			}
		}
		cfg = cfg.Extend(c.Resolvers, c.TypeResolvers)
		logger.Debug("Applied schema extension",
			"extension", ext.Name(),
			"sources", len(c.Sources),
			"resolvers", len(c.Resolvers))
	}

	if doc.Query == nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: no Query type", errors.ErrSchemaInvalid),
			"Assembler", "Assemble", "check root types")
	}

	conv := newConverter(doc, cfg, opts.Entities)
	gqlSchema, err := conv.schema()
	if err != nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrSchemaInvalid, err),
			"Assembler", "Assemble", "build executable schema")
	}

	logger.Info("Schema assembled",
		"sources", len(sources),
		"types", len(conv.types),
		"wired_fields", cfg.Len(),
		"federated", opts.Federated)

	return &Executable{
		Schema:  gqlSchema,
		AST:     doc,
		Sources: sources,
		Wiring:  cfg,
		Options: opts,
	}, nil
}

func load(sources []*ast.Source) (*ast.Schema, error) {
	doc, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrSchemaInvalid, err),
			"Assembler", "Assemble", "load schema")
	}
	return doc, nil
}

// Reassemble builds a new executable from the same sources and wiring with
// further extensions applied.
func (e *Executable) Reassemble(exts ...Extension) (*Executable, error) {
	opts := e.Options
	opts.Extensions = append(append([]Extension(nil), e.Options.Extensions...), exts...)
	return Assemble(e.Sources, e.Wiring, opts)
}

// SDL formats the user sources, without prelude or extension definitions.
func (e *Executable) SDL() (string, error) {
	return FormatSources(e.Sources)
}

// PrintSchema formats the complete validated schema
func (e *Executable) PrintSchema() string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchema(e.AST)
	return buf.String()
}

// FormatSources parses sources as one schema document and formats it.
func FormatSources(sources []*ast.Source) (string, error) {
	doc, err := parser.ParseSchemas(sources...)
	if err != nil {
		return "", errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"schema", "FormatSources", "parse sources")
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String(), nil
}

package schema

import (
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/wiring"
)

var builtinScalars = map[string]*graphql.Scalar{
	"Int":     graphql.Int,
	"Float":   graphql.Float,
	"String":  graphql.String,
	"Boolean": graphql.Boolean,
	"ID":      graphql.ID,
}

// typeNamer is implemented by values that know their schema type name.
type typeNamer interface {
	TypeName() string
}

// converter turns a validated gqlparser schema into graphql-go types. Named
// types are created first and field maps are thunks, so references between
// types may be circular.
type converter struct {
	doc      *ast.Schema
	wiring   *wiring.Config
	entities *entity.Registry
	types    map[string]graphql.Type
	objects  map[string]*graphql.Object
}

func newConverter(doc *ast.Schema, cfg *wiring.Config, entities *entity.Registry) *converter {
	return &converter{
		doc:      doc,
		wiring:   cfg,
		entities: entities,
		types:    make(map[string]graphql.Type),
		objects:  make(map[string]*graphql.Object),
	}
}

func (c *converter) schema() (graphql.Schema, error) {
	defs := c.definitions()

	// leaf and input types, then interfaces, objects and finally unions,
	// which need their member objects at construction
	for _, def := range defs {
		switch def.Kind {
		case ast.Scalar:
			c.types[def.Name] = c.scalar(def)
		case ast.Enum:
			c.types[def.Name] = c.enum(def)
		case ast.InputObject:
			c.types[def.Name] = c.inputObject(def)
		}
	}
	for _, def := range defs {
		if def.Kind == ast.Interface {
			c.types[def.Name] = c.iface(def)
		}
	}
	for _, def := range defs {
		if def.Kind == ast.Object {
			obj := c.object(def)
			c.types[def.Name] = obj
			c.objects[def.Name] = obj
		}
	}
	for _, def := range defs {
		if def.Kind == ast.Union {
			c.types[def.Name] = c.union(def)
		}
	}

	all := make([]graphql.Type, 0, len(defs))
	for _, def := range defs {
		all = append(all, c.types[def.Name])
	}

	cfg := graphql.SchemaConfig{
		Query: c.objects[c.doc.Query.Name],
		Types: all,
	}
	if c.doc.Mutation != nil {
		cfg.Mutation = c.objects[c.doc.Mutation.Name]
	}
	if c.doc.Subscription != nil {
		cfg.Subscription = c.objects[c.doc.Subscription.Name]
	}
	return graphql.NewSchema(cfg)
}

// definitions returns the user-visible definitions sorted by name.
func (c *converter) definitions() []*ast.Definition {
	var defs []*ast.Definition
	for name, def := range c.doc.Types {
		if def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		if _, ok := builtinScalars[name]; ok {
			continue
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (c *converter) scalar(def *ast.Definition) *graphql.Scalar {
	if s, ok := c.wiring.Scalar(def.Name); ok {
		return s
	}
	return passthroughScalar(def.Name, def.Description)
}

func (c *converter) enum(def *ast.Definition) *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, v := range def.EnumValues {
		values[v.Name] = &graphql.EnumValueConfig{
			Value:             v.Name,
			Description:       v.Description,
			DeprecationReason: deprecation(v.Directives),
		}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:        def.Name,
		Description: def.Description,
		Values:      values,
	})
}

func (c *converter) inputObject(def *ast.Definition) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{}
			for _, f := range def.Fields {
				fields[f.Name] = &graphql.InputObjectFieldConfig{
					Type:         c.typeRef(f.Type).(graphql.Input),
					DefaultValue: defaultValue(f.DefaultValue),
					Description:  f.Description,
				}
			}
			return fields
		}),
	})
}

func (c *converter) iface(def *ast.Definition) *graphql.Interface {
	return graphql.NewInterface(graphql.InterfaceConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return c.fields(def)
		}),
		ResolveType: c.abstractResolver(def.Name),
	})
}

func (c *converter) object(def *ast.Definition) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Interfaces: graphql.InterfacesThunk(func() []*graphql.Interface {
			var ifaces []*graphql.Interface
			for _, name := range def.Interfaces {
				if i, ok := c.types[name].(*graphql.Interface); ok {
					ifaces = append(ifaces, i)
				}
			}
			return ifaces
		}),
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return c.fields(def)
		}),
	})
}

func (c *converter) union(def *ast.Definition) *graphql.Union {
	members := make([]*graphql.Object, 0, len(def.Types))
	for _, name := range def.Types {
		if obj, ok := c.objects[name]; ok {
			members = append(members, obj)
		}
	}
	return graphql.NewUnion(graphql.UnionConfig{
		Name:        def.Name,
		Description: def.Description,
		Types:       members,
		ResolveType: c.abstractResolver(def.Name),
	})
}

func (c *converter) fields(def *ast.Definition) graphql.Fields {
	fields := graphql.Fields{}
	for _, f := range def.Fields {
		// introspection fields added to the query root by the validator
		if strings.HasPrefix(f.Name, "__") {
			continue
		}

		resolve, ok := c.wiring.Resolver(wiring.Coordinate{Type: def.Name, Field: f.Name})
		if !ok {
			resolve = c.wiring.DefaultResolver()
		}

		field := &graphql.Field{
			Name:              f.Name,
			Type:              c.typeRef(f.Type).(graphql.Output),
			Description:       f.Description,
			DeprecationReason: deprecation(f.Directives),
			Resolve:           resolve,
		}
		if len(f.Arguments) > 0 {
			field.Args = graphql.FieldConfigArgument{}
			for _, arg := range f.Arguments {
				field.Args[arg.Name] = &graphql.ArgumentConfig{
					Type:         c.typeRef(arg.Type).(graphql.Input),
					DefaultValue: defaultValue(arg.DefaultValue),
					Description:  arg.Description,
				}
			}
		}
		fields[f.Name] = field
	}
	return fields
}

func (c *converter) typeRef(t *ast.Type) graphql.Type {
	var result graphql.Type
	if t.Elem != nil {
		result = graphql.NewList(c.typeRef(t.Elem))
	} else if s, ok := builtinScalars[t.NamedType]; ok {
		result = s
	} else {
		result = c.types[t.NamedType]
	}
	if t.NonNull {
		return graphql.NewNonNull(result)
	}
	return result
}

// abstractResolver picks the concrete object of an interface or union value:
// the wired type resolver, then a __typename key, then a TypeName method,
// then the entity registry.
func (c *converter) abstractResolver(typeName string) graphql.ResolveTypeFn {
	wired, hasWired := c.wiring.TypeResolver(typeName)

	return func(p graphql.ResolveTypeParams) *graphql.Object {
		if hasWired {
			if obj := wired(p); obj != nil {
				return obj
			}
		}
		switch v := p.Value.(type) {
		case map[string]any:
			if name, ok := v["__typename"].(string); ok {
				return c.objects[name]
			}
		case typeNamer:
			return c.objects[v.TypeName()]
		}
		if c.entities != nil {
			if md, ok := c.entities.Resolve(p.Value); ok {
				return c.objects[md.ExternalName]
			}
		}
		return nil
	}
}

func deprecation(directives ast.DirectiveList) string {
	d := directives.ForName("deprecated")
	if d == nil {
		return ""
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return "No longer supported"
}

func defaultValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	value, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return value
}

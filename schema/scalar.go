package schema

import (
	"strconv"

	"github.com/graphql-go/graphql"
	gast "github.com/graphql-go/graphql/language/ast"
)

// passthroughScalar accepts any JSON value unchanged. It backs scalars the
// wiring does not supply, such as _Any.
func passthroughScalar(name, description string) *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:         name,
		Description:  description,
		Serialize:    func(value any) any { return value },
		ParseValue:   func(value any) any { return value },
		ParseLiteral: func(value gast.Value) any { return literalValue(value) },
	})
}

func literalValue(value gast.Value) any {
	switch v := value.(type) {
	case *gast.StringValue:
		return v.Value
	case *gast.BooleanValue:
		return v.Value
	case *gast.EnumValue:
		return v.Value
	case *gast.IntValue:
		if i, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return int(i)
		}
		return nil
	case *gast.FloatValue:
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
		return nil
	case *gast.ListValue:
		items := make([]any, len(v.Values))
		for i, item := range v.Values {
			items[i] = literalValue(item)
		}
		return items
	case *gast.ObjectValue:
		obj := make(map[string]any, len(v.Fields))
		for _, field := range v.Fields {
			obj[field.Name.Value] = literalValue(field.Value)
		}
		return obj
	}
	return nil
}

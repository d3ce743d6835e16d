package schema

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const federationDirectives = `directive @key(fields: _FieldSet!) repeatable on OBJECT | INTERFACE
directive @external on FIELD_DEFINITION | OBJECT
directive @requires(fields: _FieldSet!) on FIELD_DEFINITION
directive @provides(fields: _FieldSet!) on FIELD_DEFINITION
directive @extends on OBJECT | INTERFACE

scalar _FieldSet
`

// A subgraph may only extend Query, so a root is supplied for it.
const federationQueryRoot = `
type _Service {
  sdl: String
}

type Query {
  _service: _Service!
}
`

// prelude returns the sources prepended to user IDL.
func prelude(federated bool, sources []*ast.Source) []*ast.Source {
	if !federated {
		return nil
	}

	input := federationDirectives
	if !definesQuery(sources) {
		input += federationQueryRoot
	}
	return []*ast.Source{{Name: "federation.graphqls", Input: input}}
}

// definesQuery reports whether the sources define a query root themselves,
// either as type Query or through a schema definition.
func definesQuery(sources []*ast.Source) bool {
	doc, err := parser.ParseSchemas(sources...)
	if err != nil {
		// parse errors surface from LoadSchema with positions
		return true
	}
	for _, def := range doc.Schema {
		for _, op := range def.OperationTypes {
			if op.Operation == ast.Query {
				return true
			}
		}
	}
	for _, def := range doc.Definitions {
		if def.Name == "Query" {
			return true
		}
	}
	return false
}

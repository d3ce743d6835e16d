// Package schema assembles executable GraphQL schemas.
//
// IDL files are loaded with LoadDir or LoadFS and validated with gqlparser.
// Assemble then converts the validated AST together with a wiring.Config
// into a graphql-go schema: wired coordinates get their resolvers, other
// fields the wiring's default resolver, and interfaces and unions resolve
// their concrete type from the wiring, a __typename key, a TypeName method
// or the entity registry, in that order.
//
// In federated mode the federation directive declarations are prepended so
// that annotated IDL validates, and a query root is supplied for subgraphs
// that only extend Query. Extensions contribute further IDL and resolvers
// before conversion; the federation transformer is one.
package schema

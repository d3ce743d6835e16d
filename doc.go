// Package gqlwire assembles an executable GraphQL schema from handler types
// and static IDL, and optionally turns it into a federation subgraph.
//
// # Pipeline
//
// A Builder runs once:
//
//	handler classes ──scan──▶ entity registry, loader repository, wiring
//	                                      │
//	IDL sources ───────────────────────── assemble ──▶ executable schema
//	                                      │
//	                         federation transform (optional)
//	                                      │
//	                           registries sealed ──▶ Runtime
//
// Classes are Go types carrying handler markers. The loaders marker
// registers every method returning a *loader.Loader, the resolvers marker
// wires every func(graphql.ResolveParams) (any, error) method to a field of
// one schema type, and entity markers declare federated entities:
//
//	handler.Register(
//		handler.NewClass(Loaders{}, handler.Loaders()),
//		handler.NewClass(QueryResolvers{}, handler.Resolvers("Query"), handler.Field("Viewer", "me")),
//		handler.NewClass(Entities{}, handler.Entity(&User{}, "User", "id", "userLoader")),
//	)
//
//	rt, err := gqlwire.New(
//		gqlwire.WithSchemaDir("./schema"),
//		gqlwire.WithBasePackage("example.com/shop/handlers"),
//		gqlwire.WithFederation(true),
//	).Build()
//
// # Execution
//
// Runtime.Execute gives every request its own loader scope, so loads issued
// while resolving one request are batched per loader and cached for that
// request only. Resolver errors come back as gqlerror values whose
// extensions.code reflects the error class.
//
// # Federation
//
// With federation enabled the schema gains _Any, _Entity, _Service,
// Query._service and Query._entities. Each representation resolves to one
// entity or null, in input order, through the loader its registry entry
// names. See package federation.
package gqlwire

// Package loader provides batched loaders for gqlwire.
//
// A Loader is a definition: a batch function plus its dispatch settings. The
// Repository maps loader field names to definitions for one builder run and
// is sealed once the runtime is built. Each request gets a Scope, which
// creates one github.com/graph-gophers/dataloader/v7 loader per field on
// first use:
//
//	scope := repo.NewScope()
//	ctx = loader.WithScope(ctx, scope)
//	thunk, err := loader.Load(ctx, "userLoader", "42")
//
// Loads queued within one dispatch tick (DefaultWait unless configured) or
// until the batch capacity is reached are sent as one batch call. Thunks are
// plain func() (any, error) values, so resolvers can return them directly
// and the execution engine resolves them breadth-first.
package loader

package accounts

import (
	"embed"
	"io/fs"

	"github.com/c360/gqlwire/handler"
)

//go:embed schema/*.graphqls
var schemaFiles embed.FS

// SchemaFS returns the IDL of the service
func SchemaFS() fs.FS {
	sub, err := fs.Sub(schemaFiles, "schema")
	if err != nil {
		panic(err)
	}
	return sub
}

// Package is the import path the catalog knows these classes under
const Package = "github.com/c360/gqlwire/example/accounts"

// Classes returns the handler classes of the service
func Classes() []handler.Class {
	return []handler.Class{
		handler.NewClass(Loaders{}, handler.Loaders()),
		handler.NewClass(Entities{},
			handler.Entity(&User{}, "User", "id", UserLoader),
			handler.Entity(&Product{}, "Product", "upc", ProductLoader)),
		handler.NewClass(QueryResolvers{}, handler.Resolvers("Query"), handler.Field("Viewer", "me")),
		handler.NewClass(NodeResolvers{}, handler.Resolvers("Node")),
		handler.NewClass(UserResolvers{}, handler.Resolvers("User")),
		handler.NewClass(ReviewResolvers{}, handler.Resolvers("Review")),
	}
}

// NewProvider returns a provider whose handlers share store
func NewProvider(store *Store) *handler.SingletonProvider {
	p := handler.NewSingletonProvider()
	for _, instance := range []any{
		&Loaders{store: store},
		&QueryResolvers{store: store},
	} {
		// Provide only fails for nil instances
		_ = p.Provide(instance)
	}
	return p
}

func init() {
	handler.Register(Classes()...)
}

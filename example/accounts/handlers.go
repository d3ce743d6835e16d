package accounts

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/loader"
)

// Loader names
const (
	UserLoader            = "userLoader"
	ProductLoader         = "productLoader"
	ReviewsByAuthorLoader = "reviewsByAuthorLoader"
)

// Loaders exposes the batched loaders of the service
type Loaders struct {
	store *Store
}

// UserLoader loads users by id
func (l *Loaders) UserLoader() *loader.Loader {
	return loader.New(l.store.UsersByID)
}

// ProductLoader loads products by upc
func (l *Loaders) ProductLoader() *loader.Loader {
	return loader.NewMapped(l.store.ProductsByUPC)
}

// ReviewsByAuthorLoader loads the reviews written by each user
func (l *Loaders) ReviewsByAuthorLoader() (*loader.Loader, error) {
	if l.store == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Loaders", "ReviewsByAuthorLoader", "store lookup")
	}
	return loader.New(l.store.ReviewsByAuthor, loader.WithBatchCapacity(50)), nil
}

// Entities declares the federated entities. It carries markers only.
type Entities struct{}

// QueryResolvers resolves the root query fields
type QueryResolvers struct {
	store *Store
}

// Viewer resolves Query.me
func (q *QueryResolvers) Viewer(p graphql.ResolveParams) (any, error) {
	return load(p.Context, UserLoader, q.store.Me())
}

// User resolves Query.user
func (q *QueryResolvers) User(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	return load(p.Context, UserLoader, id)
}

// Users resolves Query.users, one entry per id
func (q *QueryResolvers) Users(p graphql.ResolveParams) (any, error) {
	ids, _ := p.Args["ids"].([]any)
	out := make([]any, len(ids))
	for i, raw := range ids {
		id, _ := raw.(string)
		th, err := load(p.Context, UserLoader, id)
		if err != nil {
			return nil, err
		}
		out[i] = th
	}
	return out, nil
}

// TopProducts resolves Query.topProducts
func (q *QueryResolvers) TopProducts(p graphql.ResolveParams) (any, error) {
	first, ok := p.Args["first"].(int)
	if !ok {
		first = 5
	}
	return q.store.TopProducts(first), nil
}

// Node resolves Query.node for reviews and users
func (q *QueryResolvers) Node(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	if r, ok := q.store.Review(id); ok {
		return r, nil
	}
	return load(p.Context, UserLoader, id)
}

// NodeResolvers resolves the concrete type behind Node values
type NodeResolvers struct{}

// ResolveType implements scan.TypeResolverSource
func (NodeResolvers) ResolveType(p graphql.ResolveTypeParams) *graphql.Object {
	var name string
	switch p.Value.(type) {
	case *User:
		name = "User"
	case *Review:
		name = "Review"
	default:
		return nil
	}
	obj, _ := p.Info.Schema.Type(name).(*graphql.Object)
	return obj
}

// UserResolvers resolves the computed fields of User
type UserResolvers struct{}

// Reviews resolves User.reviews
func (UserResolvers) Reviews(p graphql.ResolveParams) (any, error) {
	u, ok := p.Source.(*User)
	if !ok {
		return nil, nil
	}
	return load(p.Context, ReviewsByAuthorLoader, u.ID)
}

// ReviewResolvers resolves the references of Review
type ReviewResolvers struct{}

// Author resolves Review.author
func (ReviewResolvers) Author(p graphql.ResolveParams) (any, error) {
	r, ok := p.Source.(*Review)
	if !ok {
		return nil, nil
	}
	return load(p.Context, UserLoader, r.AuthorID)
}

// Product resolves Review.product
func (ReviewResolvers) Product(p graphql.ResolveParams) (any, error) {
	r, ok := p.Source.(*Review)
	if !ok {
		return nil, nil
	}
	return load(p.Context, ProductLoader, r.ProductUPC)
}

func load(ctx context.Context, name, key string) (any, error) {
	th, err := loader.Load(ctx, name, key)
	if err != nil {
		return nil, err
	}
	return th, nil
}

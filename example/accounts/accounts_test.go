package accounts

import (
	"context"
	"io/fs"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/gqlwire/handler"
	"github.com/c360/gqlwire/loader"
)

func TestStore(t *testing.T) {
	s := NewStore()

	users, err := s.UsersByID(context.Background(), []string{"42", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", users[0].(*User).Name)
	assert.Nil(t, users[1])

	products, err := s.ProductsByUPC(context.Background(), []string{"3", "9"})
	require.NoError(t, err)
	assert.Len(t, products, 1)

	reviews, err := s.ReviewsByAuthor(context.Background(), []string{"1", "nobody"})
	require.NoError(t, err)
	assert.Len(t, reviews[0], 2)
	assert.Empty(t, reviews[1])

	assert.Equal(t, [][]string{{"42", "nobody"}}, s.Reads("users"))

	top := s.TopProducts(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Couch", top[0].Name)
	assert.Equal(t, "Table", top[1].Name)
	assert.Len(t, s.TopProducts(10), 3)
}

func TestClasses(t *testing.T) {
	classes := Classes()
	for _, c := range classes {
		assert.Equal(t, Package, c.Package, c.Name)
	}
	assert.Len(t, handler.DefaultCatalog().Scan(Package), len(classes), "init registers every class once")

	entities := classes[1].MarkersOf(handler.KindEntity)
	require.Len(t, entities, 2)
	assert.Equal(t, "User", entities[0].Entity.ExternalName)
	assert.Equal(t, "User", entities[0].Entity.SourceType.Name())
}

func TestSchemaFS(t *testing.T) {
	data, err := fs.ReadFile(SchemaFS(), "accounts.graphqls")
	require.NoError(t, err)
	assert.Contains(t, string(data), `type User implements Node @key(fields: "id")`)
}

func TestLoaders(t *testing.T) {
	store := NewStore()
	l := &Loaders{store: store}
	reviews, err := l.ReviewsByAuthorLoader()
	require.NoError(t, err)

	repo := loader.NewRepository(loader.Defaults{}, nil)
	for name, def := range map[string]*loader.Loader{
		UserLoader:            l.UserLoader(),
		ProductLoader:         l.ProductLoader(),
		ReviewsByAuthorLoader: reviews,
	} {
		_, err := repo.Register(name, def)
		require.NoError(t, err)
	}
	assert.Equal(t, 50, reviews.BatchCapacity())

	ctx := loader.WithScope(context.Background(), repo.NewScope())
	q := &QueryResolvers{store: store}

	v, err := q.Viewer(graphql.ResolveParams{Context: ctx})
	require.NoError(t, err)
	user, err := v.(loader.Thunk)()
	require.NoError(t, err)
	assert.Equal(t, "ada", user.(*User).Username)

	v, err = ReviewResolvers{}.Product(graphql.ResolveParams{Context: ctx, Source: &Review{ProductUPC: "404"}})
	require.NoError(t, err)
	product, err := v.(loader.Thunk)()
	require.NoError(t, err)
	assert.Nil(t, product, "keys missing from a mapped batch resolve to nil")

	_, err = (&Loaders{}).ReviewsByAuthorLoader()
	assert.Error(t, err)

	_, err = q.User(graphql.ResolveParams{Context: context.Background(), Args: map[string]any{"id": "1"}})
	assert.Error(t, err, "loads need a request scope")
}

func TestNodeResolvers_ResolveType(t *testing.T) {
	userType := graphql.NewObject(graphql.ObjectConfig{Name: "User", Fields: graphql.Fields{"id": {Type: graphql.ID}}})
	reviewType := graphql.NewObject(graphql.ObjectConfig{Name: "Review", Fields: graphql.Fields{"id": {Type: graphql.ID}}})
	s, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: graphql.Fields{
			"u": {Type: userType}, "r": {Type: reviewType},
		}}),
	})
	require.NoError(t, err)

	resolve := func(v any) *graphql.Object {
		return NodeResolvers{}.ResolveType(graphql.ResolveTypeParams{Value: v, Info: graphql.ResolveInfo{Schema: s}})
	}
	assert.Equal(t, "User", resolve(&User{}).Name())
	assert.Equal(t, "Review", resolve(&Review{}).Name())
	assert.Nil(t, resolve("other"))
}

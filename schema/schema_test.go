package schema

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/entity"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/wiring"
)

const librarySDL = `
interface Node {
  id: ID!
}

enum Genre {
  FICTION
  SCIENCE
}

input BookFilter {
  genre: Genre
  limit: Int = 10
}

type Book implements Node {
  id: ID!
  title: String!
  genre: Genre
  legacyCode: String @deprecated(reason: "use id")
}

type Author implements Node {
  id: ID!
  name: String!
}

union SearchResult = Book | Author

scalar Upc

type Query {
  node(id: ID!): Node
  books(filter: BookFilter): [Book!]!
  search: [SearchResult!]!
  upc: Upc
}
`

type author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type namedBook struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (namedBook) TypeName() string { return "Book" }

func src(input string) []*ast.Source {
	return []*ast.Source{{Name: "library.graphqls", Input: input}}
}

func libraryWiring() *wiring.Config {
	acc := wiring.NewAccumulator()
	acc.AddField(wiring.Coordinate{Type: "Query", Field: "node"}, func(p graphql.ResolveParams) (any, error) {
		if p.Args["id"] == "a1" {
			return &author{ID: "a1", Name: "Le Guin"}, nil
		}
		return namedBook{ID: "b1", Title: "Dune"}, nil
	})
	acc.AddField(wiring.Coordinate{Type: "Query", Field: "books"}, func(p graphql.ResolveParams) (any, error) {
		filter, _ := p.Args["filter"].(map[string]any)
		return []any{
			map[string]any{"id": "b1", "title": "Dune", "genre": filter["genre"]},
			map[string]any{"id": "b2", "title": "Limit", "genre": "FICTION", "legacyCode": filter["limit"]},
		}, nil
	})
	acc.AddField(wiring.Coordinate{Type: "Query", Field: "search"}, func(graphql.ResolveParams) (any, error) {
		return []any{
			map[string]any{"__typename": "Author", "id": "a2", "name": "Butler"},
			namedBook{ID: "b3", Title: "Kindred"},
		}, nil
	})
	acc.AddField(wiring.Coordinate{Type: "Query", Field: "upc"}, func(graphql.ResolveParams) (any, error) {
		return map[string]any{"code": "123"}, nil
	})
	return acc.Build(nil)
}

func execute(t *testing.T, exec *Executable, query string, vars map[string]any) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:         exec.Schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        context.Background(),
	})
}

func TestAssemble_ExecutesWiredFields(t *testing.T) {
	entities := entity.NewRegistry(nil)
	_, err := entities.Register(entity.Metadata{
		SourceType: reflect.TypeOf(author{}), ExternalName: "Author", IDField: "id", LoaderField: "authorLoader",
	})
	require.NoError(t, err)

	exec, err := Assemble(src(librarySDL), libraryWiring(), Options{Entities: entities})
	require.NoError(t, err)

	result := execute(t, exec, `{
		byName: node(id: "b1") { __typename id }
		byRegistry: node(id: "a1") { __typename ... on Author { name } }
		books(filter: {genre: SCIENCE}) { id genre legacyCode }
		search { __typename ... on Book { title } ... on Author { name } }
		upc
	}`, nil)
	require.Empty(t, result.Errors)

	data := result.Data.(map[string]any)
	assert.Equal(t, map[string]any{"__typename": "Book", "id": "b1"}, data["byName"])
	assert.Equal(t, map[string]any{"__typename": "Author", "name": "Le Guin"}, data["byRegistry"])

	books := data["books"].([]any)
	assert.Equal(t, "SCIENCE", books[0].(map[string]any)["genre"])
	assert.Equal(t, "10", books[1].(map[string]any)["legacyCode"], "input default value applied")

	search := data["search"].([]any)
	assert.Equal(t, map[string]any{"__typename": "Author", "name": "Butler"}, search[0])
	assert.Equal(t, map[string]any{"__typename": "Book", "title": "Kindred"}, search[1])

	assert.Equal(t, map[string]any{"code": "123"}, data["upc"])
}

func TestAssemble_Introspection(t *testing.T) {
	exec, err := Assemble(src(librarySDL), libraryWiring(), Options{})
	require.NoError(t, err)

	result := execute(t, exec, `{ __type(name: "Book") { fields(includeDeprecated: true) { name isDeprecated deprecationReason } } }`, nil)
	require.Empty(t, result.Errors)

	fields := result.Data.(map[string]any)["__type"].(map[string]any)["fields"].([]any)
	var legacy map[string]any
	for _, f := range fields {
		if f.(map[string]any)["name"] == "legacyCode" {
			legacy = f.(map[string]any)
		}
	}
	require.NotNil(t, legacy)
	assert.Equal(t, true, legacy["isDeprecated"])
	assert.Equal(t, "use id", legacy["deprecationReason"])
}

func TestAssemble_CustomScalarFromWiring(t *testing.T) {
	acc := wiring.NewAccumulator()
	acc.AddScalar(graphql.NewScalar(graphql.ScalarConfig{
		Name:      "Upc",
		Serialize: func(v any) any { return "upc:" + v.(string) },
	}))
	acc.AddField(wiring.Coordinate{Type: "Query", Field: "upc"}, func(graphql.ResolveParams) (any, error) {
		return "42", nil
	})

	exec, err := Assemble(src(librarySDL), acc.Build(nil), Options{})
	require.NoError(t, err)

	result := execute(t, exec, `{ upc }`, nil)
	require.Empty(t, result.Errors)
	assert.Equal(t, "upc:42", result.Data.(map[string]any)["upc"])
}

func TestAssemble_Failures(t *testing.T) {
	tests := []struct {
		name    string
		sources []*ast.Source
		opts    Options
		target  error
	}{
		{"no sources", nil, Options{}, errors.ErrSchemaNotFound},
		{"invalid idl", src(`type Query { broken: Missing }`), Options{}, errors.ErrSchemaInvalid},
		{"no query", src(`type User { id: ID! }`), Options{}, errors.ErrSchemaInvalid},
		{"federation directive without prelude", src(`type Query { a: Int } type User @key(fields: "id") { id: ID! }`), Options{}, errors.ErrSchemaInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.sources, nil, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestAssemble_FederatedPrelude(t *testing.T) {
	sdl := `
type User @key(fields: "id") {
  id: ID!
  name: String
}

extend type Query {
  me: User
}
`
	exec, err := Assemble(src(sdl), nil, Options{Federated: true})
	require.NoError(t, err)

	assert.NotNil(t, exec.AST.Types["_FieldSet"])
	assert.NotNil(t, exec.AST.Query.Fields.ForName("_service"), "query root synthesized for extend-only subgraphs")
	assert.NotNil(t, exec.Schema.Type("User"))

	withQuery := `type Query { me: User } type User @key(fields: "id") { id: ID! }`
	exec, err = Assemble(src(withQuery), nil, Options{Federated: true})
	require.NoError(t, err)
	assert.Nil(t, exec.AST.Query.Fields.ForName("_service"))
}

type addFieldExtension struct{}

func (addFieldExtension) Name() string { return "version" }

func (addFieldExtension) Extend(d *Draft) (*Contribution, error) {
	return &Contribution{
		Sources: []*ast.Source{{Name: "version.graphqls", Input: "extend type " + d.AST.Query.Name + " { version: String! }"}},
		Resolvers: map[wiring.Coordinate]graphql.FieldResolveFn{
			{Type: "Query", Field: "version"}: func(graphql.ResolveParams) (any, error) { return "1.0", nil },
		},
	}, nil
}

func TestAssemble_Extension(t *testing.T) {
	exec, err := Assemble(src(librarySDL), libraryWiring(), Options{})
	require.NoError(t, err)

	extended, err := exec.Reassemble(addFieldExtension{})
	require.NoError(t, err)

	result := execute(t, extended, `{ version }`, nil)
	require.Empty(t, result.Errors)
	assert.Equal(t, "1.0", result.Data.(map[string]any)["version"])

	sdl, err := extended.SDL()
	require.NoError(t, err)
	assert.NotContains(t, sdl, "version", "SDL covers user sources only")
	assert.Contains(t, extended.PrintSchema(), "version: String!")

	result = execute(t, exec, `{ version }`, nil)
	assert.NotEmpty(t, result.Errors, "original executable is unchanged")
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"b/users.graphqls": {Data: []byte("type User { id: ID! }")},
		"a/query.graphqls": {Data: []byte("type Query { me: User }")},
		"notes.txt":        {Data: []byte("ignored")},
		"c/other.graphql":  {Data: []byte("ignored too")},
	}

	sources, err := LoadFS(fsys, "")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a/query.graphqls", sources[0].Name)
	assert.Equal(t, "b/users.graphqls", sources[1].Name)

	sources, err = LoadFS(fsys, ".graphql")
	require.NoError(t, err)
	require.Len(t, sources, 1)

	_, err = LoadFS(fstest.MapFS{}, "graphqls")
	assert.ErrorIs(t, err, errors.ErrSchemaNotFound)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.graphqls"), []byte(librarySDL), 0o600))

	sources, err := LoadDir(dir, DefaultExtension)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, filepath.Join(dir, "schema.graphqls"), sources[0].Name)

	_, err = LoadDir(filepath.Join(dir, "missing"), DefaultExtension)
	assert.ErrorIs(t, err, errors.ErrSchemaNotFound)
}

func TestFormatSources(t *testing.T) {
	out, err := FormatSources(src(`type User @key(fields: "id") { id: ID! }`))
	require.NoError(t, err)
	assert.Contains(t, out, `@key(fields: "id")`)

	_, err = FormatSources(src(`type {`))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "-version")
	require.NoError(t, err)
	assert.Equal(t, "gqlwire "+Version+"\n", out)
}

func TestRun_PrintSchema(t *testing.T) {
	out, err := runCLI(t, "-print-schema")
	require.NoError(t, err)
	assert.Contains(t, out, `type User implements Node @key(fields: "id")`)
	assert.NotContains(t, out, "_entities")

	out, err = runCLI(t, "-print-schema", "-full")
	require.NoError(t, err)
	assert.Contains(t, out, "_entities(representations: [_Any!]!): [_Entity]!")
}

func TestRun_Query(t *testing.T) {
	out, err := runCLI(t,
		"-query", `query($r: [_Any!]!) { _entities(representations: $r) { ... on User { name } } }`,
		"-variables", `{"r": [{"__typename": "User", "id": "42"}, {"__typename": "Product", "upc": "1"}]}`)
	require.NoError(t, err)

	var result struct {
		Data struct {
			Entities []map[string]any `json:"_entities"`
		} `json:"data"`
		Extensions map[string]any `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []map[string]any{{"name": "Grace Hopper"}, nil}, result.Data.Entities)
	assert.Contains(t, result.Extensions, "batching")
}

func TestRun_QueryErrors(t *testing.T) {
	out, err := runCLI(t, "-query", `{ nope }`)
	assert.Error(t, err)
	assert.Contains(t, out, "GRAPHQL_VALIDATION_FAILED")

	_, err = runCLI(t, "-query", `{ me { name } }`, "-variables", `{`)
	assert.Error(t, err)

	_, err = runCLI(t, "-query", "x", "-query-file", "y")
	assert.Error(t, err)
}

func TestRun_QueryFileAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "me.graphql")
	require.NoError(t, os.WriteFile(path, []byte(`{ me { username reviews { body } } }`), 0o600))

	out, err := runCLI(t, "-query-file", path, "-metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "ada"`)
	assert.Contains(t, out, "gqlwire_execution_total")
	assert.Contains(t, out, `gqlwire_loader_batches_total{loader="userLoader"} 1`)
}

func TestRun_Validate(t *testing.T) {
	out, err := runCLI(t, "-validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Query.me")
	assert.Contains(t, out, "userLoader")
	assert.Contains(t, out, "0 failed")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	schemaDir := filepath.Join(dir, "schema")
	require.NoError(t, os.Mkdir(schemaDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "a.graphqls"), []byte("type Query { ping: String }"), 0o600))

	cfgPath := filepath.Join(dir, "gqlwire.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema_dir: "+schemaDir+"\n"), 0o600))

	out, err := runCLI(t, "-config", cfgPath, "-query", "{ ping }")
	require.NoError(t, err)
	assert.Contains(t, out, `"ping": null`)

	_, err = runCLI(t, "-config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = runCLI(t, "-log-level", "loud")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/gqlwire/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "graphqls", cfg.SchemaFileExtension)
	assert.Equal(t, 100, cfg.MaxQueryCost)
	assert.False(t, cfg.Federated)
	assert.Empty(t, cfg.BasePackage)
	assert.Empty(t, cfg.AdditionalClasses)
	assert.Equal(t, []string{"product-upc"}, cfg.Exclusions)
	assert.Equal(t, 2*time.Millisecond, cfg.Loader.Wait())
	assert.True(t, cfg.Instrumentation.BatchStatistics)
	assert.False(t, cfg.Instrumentation.Logging)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:   "extension dot stripped",
			mutate: func(c *Config) { c.SchemaFileExtension = ".graphql" },
			check:  func(t *testing.T, c *Config) { assert.Equal(t, "graphql", c.SchemaFileExtension) },
		},
		{
			name:   "zero cost uses default",
			mutate: func(c *Config) { c.MaxQueryCost = 0 },
			check:  func(t *testing.T, c *Config) { assert.Equal(t, 100, c.MaxQueryCost) },
		},
		{name: "negative cost", mutate: func(c *Config) { c.MaxQueryCost = -1 }, wantErr: true},
		{name: "empty class name", mutate: func(c *Config) { c.AdditionalClasses = []string{" "} }, wantErr: true},
		{name: "empty exclusion name", mutate: func(c *Config) { c.Exclusions = []string{""} }, wantErr: true},
		{name: "bad wait", mutate: func(c *Config) { c.Loader.WaitStr = "soon" }, wantErr: true},
		{name: "wait too long", mutate: func(c *Config) { c.Loader.WaitStr = "2s" }, wantErr: true},
		{
			name:   "zero wait allowed",
			mutate: func(c *Config) { c.Loader.WaitStr = "0s" },
			check:  func(t *testing.T, c *Config) { assert.Zero(t, c.Loader.Wait()) },
		},
		{name: "negative capacity", mutate: func(c *Config) { c.Loader.BatchCapacity = -1 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{
			name:    "nats loaders without url",
			mutate:  func(c *Config) { c.NATS.Loaders = []RemoteLoader{{Name: "a", Subject: "s"}} },
			wantErr: true,
		},
		{
			name: "nats loader defaults",
			mutate: func(c *Config) {
				c.NATS.URL = "nats://localhost:4222"
				c.NATS.Loaders = []RemoteLoader{{Name: "a", Subject: "s"}}
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "id", c.NATS.Loaders[0].IDField)
				assert.Equal(t, 5*time.Second, c.NATS.Loaders[0].Timeout())
			},
		},
		{
			name: "duplicate nats loader",
			mutate: func(c *Config) {
				c.NATS.URL = "nats://localhost:4222"
				c.NATS.Loaders = []RemoteLoader{{Name: "a", Subject: "s"}, {Name: "a", Subject: "t"}}
			},
			wantErr: true,
		},
		{
			name: "nats timeout out of range",
			mutate: func(c *Config) {
				c.NATS.URL = "nats://localhost:4222"
				c.NATS.Loaders = []RemoteLoader{{Name: "a", Subject: "s", TimeoutStr: "1ms"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, &cfg)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gqlwire.yaml", `
base_package: example.com/shop
schema_dir: ./schema
federated: true
exclusions: []
loader:
  wait: 5ms
  batch_capacity: 50
nats:
  url: nats://localhost:4222
  loaders:
    - name: inventoryLoader
      subject: inventory.entities
      timeout: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com/shop", cfg.BasePackage)
	assert.Equal(t, "./schema", cfg.SchemaDir)
	assert.True(t, cfg.Federated)
	assert.Empty(t, cfg.Exclusions)
	assert.NotNil(t, cfg.Exclusions, "an explicit empty list disables exclusion")
	assert.Equal(t, 5*time.Millisecond, cfg.Loader.Wait())
	assert.Equal(t, 50, cfg.Loader.BatchCapacity)
	assert.Equal(t, "graphqls", cfg.SchemaFileExtension, "unset keys keep defaults")
	assert.True(t, cfg.Instrumentation.BatchStatistics)
	require.Len(t, cfg.NATS.Loaders, 1)
	assert.Equal(t, 250*time.Millisecond, cfg.NATS.Loaders[0].Timeout())
}

func TestLoader_Layers(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.json", `{"base_package": "example.com/a", "loader": {"wait": "3ms", "cache_size": 10}}`)
	override := writeFile(t, dir, "override.yml", "loader:\n  cache_size: -1\nlog:\n  level: debug\n")

	l := NewLoader()
	l.AddLayer(base)
	l.AddLayer(override)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "example.com/a", cfg.BasePackage)
	assert.Equal(t, 3*time.Millisecond, cfg.Loader.Wait(), "nested keys merge")
	assert.Equal(t, -1, cfg.Loader.CacheSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.json", `{"base_package": "example.com/a"}`)
	t.Setenv("GQLWIRE_BASE_PACKAGE", "example.com/b")
	t.Setenv("GQLWIRE_FEDERATED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/b", cfg.BasePackage)
	assert.True(t, cfg.Federated)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "cfg.toml", "x = 1"))
	assert.Error(t, err, "unsupported extension")

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "broken.json", `{"base_package":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParsingFailed)

	_, err = Load(writeFile(t, dir, "invalid.yaml", "log:\n  level: loud\n"))
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = Load(writeFile(t, dir, "wrongtype.json", `{"max_query_cost": "lots"}`))
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/c360/gqlwire/errors"
)

// Config holds builder configuration. Each field mirrors a builder option.
type Config struct {
	// BasePackage scopes the catalog scan. Empty disables scanning.
	BasePackage string `json:"base_package,omitempty"`

	// AdditionalClasses names catalog classes ("pkg/path.Name") wired in
	// addition to the scan, ahead of it.
	AdditionalClasses []string `json:"additional_classes,omitempty"`

	// SchemaDir is the directory holding the static IDL files
	SchemaDir string `json:"schema_dir,omitempty"`

	// SchemaFileExtension selects IDL files (default: "graphqls")
	SchemaFileExtension string `json:"schema_file_extension"`

	// MaxQueryCost is carried to the runtime (default: 100)
	MaxQueryCost int `json:"max_query_cost"`

	// Federated enables the federation transform
	Federated bool `json:"federated"`

	// Exclusions names the entity exclusion rules to apply. An empty list
	// disables exclusion.
	Exclusions []string `json:"exclusions"`

	Loader          LoaderConfig          `json:"loader"`
	Instrumentation InstrumentationConfig `json:"instrumentation"`
	Log             LogConfig             `json:"log"`
	NATS            NATSConfig            `json:"nats"`
}

// LoaderConfig holds repository-wide loader defaults
type LoaderConfig struct {
	// WaitStr is the dispatch tick (default: "2ms")
	WaitStr string `json:"wait"`

	// BatchCapacity caps keys per batch call, 0 for no cap
	BatchCapacity int `json:"batch_capacity"`

	// CacheSize bounds the per-request cache. 0 is unbounded, negative disables it.
	CacheSize int `json:"cache_size"`

	wait time.Duration
}

// InstrumentationConfig selects the execution instrumentation
type InstrumentationConfig struct {
	BatchStatistics bool `json:"batch_statistics"`
	Logging         bool `json:"logging"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// NATSConfig configures loaders served over NATS request/reply
type NATSConfig struct {
	URL     string         `json:"url,omitempty"`
	Loaders []RemoteLoader `json:"loaders,omitempty"`
}

// RemoteLoader registers one NATS-backed loader under Name
type RemoteLoader struct {
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	IDField    string `json:"id_field,omitempty"`
	TimeoutStr string `json:"timeout,omitempty"`

	timeout time.Duration
}

// Timeout returns the parsed request timeout
func (r *RemoteLoader) Timeout() time.Duration {
	return r.timeout
}

// Wait returns the parsed dispatch tick
func (l *LoaderConfig) Wait() time.Duration {
	return l.wait
}

// DefaultConfig returns the builder defaults
func DefaultConfig() Config {
	return Config{
		SchemaFileExtension: "graphqls",
		MaxQueryCost:        100,
		Exclusions:          []string{"product-upc"},
		Loader: LoaderConfig{
			WaitStr: "2ms",
			wait:    2 * time.Millisecond,
		},
		Instrumentation: InstrumentationConfig{
			BatchStatistics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate fills defaults and checks every section
func (c *Config) Validate() error {
	c.SchemaFileExtension = strings.TrimPrefix(c.SchemaFileExtension, ".")
	if c.SchemaFileExtension == "" {
		c.SchemaFileExtension = "graphqls"
	}

	if c.MaxQueryCost == 0 {
		c.MaxQueryCost = 100
	}
	if c.MaxQueryCost < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_query_cost must not be negative")
	}

	for _, name := range c.AdditionalClasses {
		if strings.TrimSpace(name) == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"additional_classes must not contain empty names")
		}
	}
	for _, name := range c.Exclusions {
		if name == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"exclusions must not contain empty names")
		}
	}

	if err := c.Loader.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "loader validation")
	}
	if err := c.Log.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "log validation")
	}
	if err := c.NATS.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "nats validation")
	}
	return nil
}

// Validate parses the wait and checks the bounds
func (l *LoaderConfig) Validate() error {
	if l.WaitStr == "" {
		l.wait = 2 * time.Millisecond
		return l.checkCapacity()
	}

	wait, err := time.ParseDuration(l.WaitStr)
	if err != nil {
		return errors.WrapInvalid(err, "LoaderConfig", "Validate",
			fmt.Sprintf("invalid wait format: %s", l.WaitStr))
	}
	if wait < 0 || wait > time.Second {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "LoaderConfig", "Validate",
			"wait must be between 0 and 1s")
	}
	l.wait = wait
	return l.checkCapacity()
}

func (l *LoaderConfig) checkCapacity() error {
	if l.BatchCapacity < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "LoaderConfig", "Validate",
			"batch_capacity must not be negative")
	}
	return nil
}

// Validate checks level and format
func (l *LogConfig) Validate() error {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "LogConfig", "Validate",
			fmt.Sprintf("invalid log level: %s", l.Level))
	}
	switch l.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "LogConfig", "Validate",
			fmt.Sprintf("invalid log format: %s", l.Format))
	}
	return nil
}

// Validate checks the remote loaders. Loaders need a URL to connect to.
func (n *NATSConfig) Validate() error {
	if len(n.Loaders) > 0 && n.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "NATSConfig", "Validate",
			"url is required when loaders are configured")
	}

	seen := make(map[string]bool, len(n.Loaders))
	for i := range n.Loaders {
		rl := &n.Loaders[i]
		if rl.Name == "" || rl.Subject == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "NATSConfig", "Validate",
				fmt.Sprintf("loader %d needs name and subject", i))
		}
		if seen[rl.Name] {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "NATSConfig", "Validate",
				fmt.Sprintf("duplicate loader name: %s", rl.Name))
		}
		seen[rl.Name] = true

		if rl.IDField == "" {
			rl.IDField = "id"
		}
		if rl.TimeoutStr == "" {
			rl.timeout = 5 * time.Second
			continue
		}
		timeout, err := time.ParseDuration(rl.TimeoutStr)
		if err != nil {
			return errors.WrapInvalid(err, "NATSConfig", "Validate",
				fmt.Sprintf("invalid timeout format: %s", rl.TimeoutStr))
		}
		if timeout < 10*time.Millisecond || timeout > time.Minute {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "NATSConfig", "Validate",
				"timeout must be between 10ms and 1m")
		}
		rl.timeout = timeout
	}
	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

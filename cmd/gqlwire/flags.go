package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	SchemaDir   string
	Federated   bool
	LogLevel    string
	LogFormat   string
	Query       string
	QueryFile   string
	Variables   string
	Operation   string
	PrintSchema bool
	FullSchema  bool
	Metrics     bool
	Validate    bool
	ShowVersion bool

	set map[string]bool
}

func parseFlags(args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("GQLWIRE_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: GQLWIRE_CONFIG)")
	fs.StringVar(&cfg.SchemaDir, "schema-dir",
		getEnv("GQLWIRE_SCHEMA_DIR", ""),
		"Directory of IDL files; the built-in accounts schema when empty (env: GQLWIRE_SCHEMA_DIR)")
	fs.BoolVar(&cfg.Federated, "federated",
		getEnvBool("GQLWIRE_FEDERATED", true),
		"Apply the federation transform (env: GQLWIRE_FEDERATED)")
	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("GQLWIRE_LOG_LEVEL", "warn"),
		"Log level: debug, info, warn, error (env: GQLWIRE_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("GQLWIRE_LOG_FORMAT", "text"),
		"Log format: json, text (env: GQLWIRE_LOG_FORMAT)")

	fs.StringVar(&cfg.Query, "query", "", "Execute this query and print the result")
	fs.StringVar(&cfg.QueryFile, "query-file", "", "Execute the query in this file")
	fs.StringVar(&cfg.Variables, "variables", "", "Query variables as a JSON object")
	fs.StringVar(&cfg.Operation, "operation", "", "Operation name to execute")
	fs.BoolVar(&cfg.PrintSchema, "print-schema", false, "Print the schema SDL")
	fs.BoolVar(&cfg.FullSchema, "full", false, "With -print-schema, include prelude and federation types")
	fs.BoolVar(&cfg.Metrics, "metrics", false, "Print metrics in Prometheus text format before exiting")
	fs.BoolVar(&cfg.Validate, "validate", false, "Build the schema, print the scan report and exit")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), `%s - GraphQL schema wiring and federation

Usage: %s [options]

Options:
`, appName, appName)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(fs.Output(), `
Examples:
  # Print the federated SDL of the built-in accounts service
  %s -print-schema

  # Resolve entities
  %s -query 'query($r: [_Any!]!) { _entities(representations: $r) { ... on User { name } } }' \
     -variables '{"r": [{"__typename": "User", "id": "42"}]}'

  # Validate a configuration
  %s -config gqlwire.yaml -validate
`, appName, appName, appName)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}
	if cfg.Query != "" && cfg.QueryFile != "" {
		return fmt.Errorf("use either -query or -query-file")
	}
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

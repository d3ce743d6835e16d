// Package main implements the gqlwire command. It builds the schema from
// configuration, or from the built-in accounts service, and prints, validates
// or queries it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/gqlwire"
	"github.com/c360/gqlwire/config"
	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/example/accounts"
	"github.com/c360/gqlwire/loader/natsloader"
	"github.com/c360/gqlwire/metric"
)

// Build information
const (
	Version = "0.1.0"
	appName = "gqlwire"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args)
	if err != nil {
		return err
	}
	if err := validateFlags(cli); err != nil {
		return err
	}
	if cli.ShowVersion {
		_, err := fmt.Fprintf(stdout, "%s %s\n", appName, Version)
		return err
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)

	registry := metric.NewMetricsRegistry()
	opts := []gqlwire.Option{
		gqlwire.WithConfig(cfg),
		gqlwire.WithLogger(logger),
		gqlwire.WithMetrics(registry),
	}
	if cfg.SchemaDir == "" {
		opts = append(opts,
			gqlwire.WithSchemaFS(accounts.SchemaFS()),
			gqlwire.WithInstanceProvider(accounts.NewProvider(accounts.NewStore())))
		if cfg.BasePackage == "" {
			opts = append(opts, gqlwire.WithBasePackage(accounts.Package))
		}
	}

	remote, closeConn, err := remoteLoaders(cfg, logger)
	if err != nil {
		return err
	}
	defer closeConn()
	opts = append(opts, remote...)

	rt, err := gqlwire.New(opts...).Build()
	if err != nil {
		return err
	}

	if err := perform(cli, rt, stdout); err != nil {
		return err
	}
	if cli.Metrics {
		return registry.WriteText(stdout)
	}
	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	var cfg *config.Config
	if cli.ConfigPath != "" {
		loaded, err := config.Load(cli.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := config.DefaultConfig()
		cfg = &defaults
		cfg.Federated = cli.Federated
		cfg.Log.Level = cli.LogLevel
		cfg.Log.Format = cli.LogFormat
	}

	if cli.set["schema-dir"] || (cli.ConfigPath == "" && cli.SchemaDir != "") {
		cfg.SchemaDir = cli.SchemaDir
	}
	if cli.set["federated"] {
		cfg.Federated = cli.Federated
	}
	if cli.set["log-level"] {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.set["log-format"] {
		cfg.Log.Format = cli.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// remoteLoaders connects to NATS and builds one loader per configured
// remote loader.
func remoteLoaders(cfg *config.Config, logger *slog.Logger) ([]gqlwire.Option, func(), error) {
	if len(cfg.NATS.Loaders) == 0 {
		return nil, func() {}, nil
	}

	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3))
	if err != nil {
		return nil, nil, errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrNoConnection, err),
			"main", "remoteLoaders", "connect to NATS")
	}

	var opts []gqlwire.Option
	for _, rl := range cfg.NATS.Loaders {
		l, err := natsloader.New(conn, natsloader.Config{
			Subject: rl.Subject,
			Timeout: rl.Timeout(),
			IDField: rl.IDField,
			Retry:   errors.DefaultRetryConfig(),
		}, logger)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		opts = append(opts, gqlwire.WithLoader(rl.Name, l))
	}
	return opts, conn.Close, nil
}

func perform(cli *CLIConfig, rt *gqlwire.Runtime, stdout io.Writer) error {
	switch {
	case cli.Validate:
		return printReport(rt, stdout)
	case cli.PrintSchema:
		if cli.FullSchema {
			_, err := io.WriteString(stdout, rt.Executable().PrintSchema())
			return err
		}
		sdl, err := rt.SDL()
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, sdl)
		return err
	case cli.Query != "" || cli.QueryFile != "":
		return execute(cli, rt, stdout)
	}
	return nil
}

func printReport(rt *gqlwire.Runtime, stdout io.Writer) error {
	report := rt.Report()
	for _, item := range report.Items {
		status := "ok"
		switch {
		case item.Err != nil:
			status = "FAILED: " + item.Err.Error()
		case item.Replaced:
			status = "replaced"
		}
		if _, err := fmt.Fprintf(stdout, "%-10s %-55s %-28s %s\n",
			item.Strategy, item.Class, item.Target, status); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(stdout, "\n%d registered, %d failed, %d entities, %d loaders\n",
		len(report.Succeeded()), len(report.Failed()), rt.Entities().Len(), rt.Loaders().Len())
	if err != nil {
		return err
	}
	return report.Err()
}

func execute(cli *CLIConfig, rt *gqlwire.Runtime, stdout io.Writer) error {
	query := cli.Query
	if cli.QueryFile != "" {
		data, err := os.ReadFile(cli.QueryFile)
		if err != nil {
			return errors.WrapInvalid(err, "main", "execute", "read query file")
		}
		query = string(data)
	}

	var variables map[string]any
	if cli.Variables != "" {
		if err := json.Unmarshal([]byte(cli.Variables), &variables); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
				"main", "execute", "parse variables")
		}
	}

	result := rt.Execute(context.Background(), gqlwire.Request{
		Query:         query,
		OperationName: cli.Operation,
		Variables:     variables,
	})

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.HasErrors() {
		return fmt.Errorf("query returned %d errors", len(result.Errors))
	}
	return nil
}

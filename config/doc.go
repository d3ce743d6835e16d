// Package config loads gqlwire builder configuration.
//
// Files are JSON or YAML, chosen by extension, and are merged over
// DefaultConfig key by key. Environment variables prefixed GQLWIRE_ override
// the merged result:
//
//	loader := config.NewLoader()
//	loader.AddLayer("gqlwire.yaml")
//	loader.AddLayer("gqlwire.local.json") // overrides gqlwire.yaml
//	cfg, err := loader.Load()
//
// A minimal YAML file:
//
//	base_package: example.com/shop/handlers
//	schema_dir: ./schema
//	federated: true
//	loader:
//	  wait: 5ms
//	  batch_capacity: 100
//	nats:
//	  url: nats://localhost:4222
//	  loaders:
//	    - name: inventoryLoader
//	      subject: inventory.entities
//
// Validate fills defaults and parses durations, so Wait and Timeout are only
// meaningful after it has run.
package config

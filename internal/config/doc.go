// Package config loads the concordance API configuration from environment
// variables.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Load parses struct tags with caarlos0/env; Validate reports every problem
// at once through errors.Join.
//
// # Configuration Groups
//
//   - ServerConfig: HTTP port, environment and timeouts
//   - DatabaseConfig: storage driver and SurrealDB connection
//   - PanelistsConfig: where the panelist system role comes from
//   - TelemetryConfig: OTLP trace export and Prometheus metrics
package config

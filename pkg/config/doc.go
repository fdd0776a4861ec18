// Package config provides configuration management for Ganymede.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. The core
// packages (registry, schema, instance, datamodel) never read
// configuration; it is consumed by the CLI and the optional audit and
// telemetry layers.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("ganymede.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("ganymede.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// GANYMEDE_SECTION_FIELD. For example:
//
//   - GANYMEDE_MODULES_LIBRARY overrides modules.library
//   - GANYMEDE_VALIDATION_MODE overrides validation.mode
//   - GANYMEDE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// GANYMEDE_MODULES_SEARCH_PATHS takes a list in $PATH syntax.
// Environment variables always take precedence over file-based
// configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later
// overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading.
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - validation.mode: invalid mode "strict" (must be "collect" or "fail-fast")
//	  - audit.sqlite.path: database path is required when audit is enabled
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	modules:
//	  library: "models/yang-library.json"
//	  search_paths: ["models", "models/vendor"]
//
//	validation:
//	  mode: "collect"
//	  fill_defaults: true
//
//	audit:
//	  enabled: true
//	  sqlite:
//	    path: "data/audit.db"
//	  retention:
//	    days: 90
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
package config

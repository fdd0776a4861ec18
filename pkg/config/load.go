package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path. It applies default values, validates the configuration, and
// returns any errors. The configuration is not modified by environment
// variables; use LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention GANYMEDE_SECTION_FIELD
// (e.g., GANYMEDE_VALIDATION_MODE). Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadConfigIfPresent behaves like LoadConfigWithEnvOverrides when the
// file exists and falls back to defaults plus environment overrides
// when it does not. Command line tools use this so they run without a
// configuration file.
func LoadConfigIfPresent(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat configuration file %q: %w", path, err)
		}
		var cfg Config
		ApplyDefaults(&cfg)
		applyEnvOverrides(&cfg)
		if err := Validate(&cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return &cfg, nil
	}
	return LoadConfigWithEnvOverrides(path)
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are ignored; the file value stays.
func applyEnvOverrides(cfg *Config) {
	// Modules overrides
	if val := os.Getenv("GANYMEDE_MODULES_LIBRARY"); val != "" {
		cfg.Modules.Library = val
	}
	if val := os.Getenv("GANYMEDE_MODULES_SEARCH_PATHS"); val != "" {
		// List separator of the platform, like $PATH.
		cfg.Modules.SearchPaths = filepath.SplitList(val)
	}
	if val := os.Getenv("GANYMEDE_MODULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Modules.Watch = b
		}
	}

	// Validation overrides
	if val := os.Getenv("GANYMEDE_VALIDATION_MODE"); val != "" {
		cfg.Validation.Mode = val
	}
	if val := os.Getenv("GANYMEDE_VALIDATION_FILL_DEFAULTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Validation.FillDefaults = b
		}
	}
	if val := os.Getenv("GANYMEDE_VALIDATION_MAX_VIOLATIONS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Validation.MaxViolations = i
		}
	}

	// Audit overrides
	if val := os.Getenv("GANYMEDE_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLite.Path = val
	}
	if val := os.Getenv("GANYMEDE_AUDIT_RECORDER_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Recorder.Buffer = i
		}
	}
	if val := os.Getenv("GANYMEDE_AUDIT_RECORDER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Audit.Recorder.WriteTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}
	if val := os.Getenv("GANYMEDE_AUDIT_RETENTION_SCHEDULE"); val != "" {
		cfg.Audit.Retention.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.Metrics.Port = i
		}
	}
}

package config

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/yang"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "validation.mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access
// to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. It returns nil if the
// configuration is valid. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateModules(&cfg.Modules)...)
	errs = append(errs, validateValidation(&cfg.Validation)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateModules validates module discovery configuration.
func validateModules(cfg *ModulesConfig) []FieldError {
	var errs []FieldError

	if cfg.Library == "" {
		errs = append(errs, FieldError{
			Field:   "modules.library",
			Message: "library path is required",
		})
	}

	for i, path := range cfg.SearchPaths {
		if path == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("modules.search_paths[%d]", i),
				Message: "search path must not be empty",
			})
		}
	}

	// Module and feature names feed YANG name resolution; catch typos
	// here rather than as build failures later.
	for module, features := range cfg.Features {
		if !yang.IsIdentifier(module) {
			errs = append(errs, FieldError{
				Field:   "modules.features",
				Message: fmt.Sprintf("%q is not a valid module name", module),
			})
			continue
		}
		for _, feature := range features {
			if !yang.IsIdentifier(feature) {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("modules.features.%s", module),
					Message: fmt.Sprintf("%q is not a valid feature name", feature),
				})
			}
		}
	}

	return errs
}

// validateValidation validates validation behavior configuration.
func validateValidation(cfg *ValidationConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "collect", "fail-fast":
	default:
		errs = append(errs, FieldError{
			Field:   "validation.mode",
			Message: fmt.Sprintf("invalid mode %q (must be \"collect\" or \"fail-fast\")", cfg.Mode),
		})
	}

	if cfg.MaxViolations < 0 {
		errs = append(errs, FieldError{
			Field:   "validation.max_violations",
			Message: "max violations must be non-negative",
		})
	}

	return errs
}

// validateAudit validates audit trail configuration. The store and
// recorder settings are only checked when the audit trail is enabled.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative",
		})
	}

	if !cfg.Enabled {
		return errs
	}

	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.path",
			Message: "database path is required when audit is enabled",
		})
	}
	if cfg.SQLite.MaxOpenConns <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.max_open_conns",
			Message: "max open connections must be positive",
		})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns && cfg.SQLite.MaxOpenConns > 0 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.max_idle_conns",
			Message: "max idle connections cannot exceed max open connections",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.Recorder.Buffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.recorder.buffer",
			Message: "buffer size must be positive",
		})
	}
	if cfg.Recorder.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.recorder.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.Retention.Days > 0 && cfg.Retention.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "audit.retention.prune_schedule",
			Message: "prune schedule is required when retention days is set",
		})
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if !cfg.Metrics.Enabled {
		return errs
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.port",
			Message: "port must be between 0 and 65535",
		})
	}
	if !isMetricName(cfg.Metrics.Namespace) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: fmt.Sprintf("invalid namespace %q", cfg.Metrics.Namespace),
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	return errs
}

// isMetricName reports whether s is usable as a Prometheus metric name
// component.
func isMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

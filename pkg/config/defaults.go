package config

import "time"

// Default values for configuration fields.
const (
	// Modules defaults
	DefaultLibraryPath = "yang-library.json"

	// Validation defaults
	DefaultValidationMode = "collect"

	// Audit defaults
	DefaultAuditSQLitePath     = "data/audit.db"
	DefaultAuditMaxOpenConns   = 10
	DefaultAuditMaxIdleConns   = 5
	DefaultAuditBusyTimeout    = 5 * time.Second
	DefaultAuditRecorderBuffer = 1000
	DefaultAuditWriteTimeout   = 5 * time.Second
	DefaultAuditPruneSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ganymede"
)

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values. This function is
// idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Modules defaults
	if cfg.Modules.Library == "" {
		cfg.Modules.Library = DefaultLibraryPath
	}
	if len(cfg.Modules.SearchPaths) == 0 {
		cfg.Modules.SearchPaths = []string{"."}
	}

	// Validation defaults
	if cfg.Validation.Mode == "" {
		cfg.Validation.Mode = DefaultValidationMode
	}

	// Audit defaults. Retention days stay zero: zero means keep
	// records forever.
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditBusyTimeout
	}
	if cfg.Audit.Recorder.Buffer == 0 {
		cfg.Audit.Recorder.Buffer = DefaultAuditRecorderBuffer
	}
	if cfg.Audit.Recorder.WriteTimeout == 0 {
		cfg.Audit.Recorder.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = []float64{
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		}
	}
}

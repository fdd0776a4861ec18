package config

import "time"

// Config is the root configuration structure for Ganymede. It covers
// module discovery, validation behavior, the validation audit trail,
// and telemetry settings.
type Config struct {
	// Modules configures where module sources and the YANG library
	// document are found.
	Modules ModulesConfig `yaml:"modules"`

	// Validation configures how instance documents are checked.
	Validation ValidationConfig `yaml:"validation"`

	// Audit configures the validation audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ModulesConfig configures module discovery.
type ModulesConfig struct {
	// Library is the path to the YANG library document (RFC 7895 JSON)
	// naming the module set.
	// Default: "yang-library.json"
	Library string `yaml:"library"`

	// SearchPaths lists the directories scanned for module sources in
	// "name.yang" or "name@revision.yang" layout. Directories are tried
	// in order; the first match wins.
	// Default: ["."]
	SearchPaths []string `yaml:"search_paths"`

	// Features enables additional features per module, on top of the
	// features the library document already enables. Keys are module
	// names, values are feature names.
	Features map[string][]string `yaml:"features"`

	// Watch enables watching the search paths for source changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ValidationConfig configures instance document validation.
type ValidationConfig struct {
	// Mode selects how violations are reported.
	// Options: "collect" (report every violation), "fail-fast" (stop at
	// the first one)
	// Default: "collect"
	Mode string `yaml:"mode"`

	// FillDefaults applies schema default values to the document before
	// validating it.
	// Default: false
	FillDefaults bool `yaml:"fill_defaults"`

	// MaxViolations caps the number of reported violations in collect
	// mode. 0 means unlimited.
	// Default: 0
	MaxViolations int `yaml:"max_violations"`
}

// AuditConfig configures the validation audit trail.
type AuditConfig struct {
	// Enabled controls whether validation runs are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SQLite contains SQLite store configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains audit recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite store configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// DisableWAL turns off Write-Ahead Logging mode. WAL is on by
	// default for better concurrency.
	// Default: false
	DisableWAL bool `yaml:"disable_wal"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains audit recorder configuration.
type RecorderConfig struct {
	// Buffer is the size of the async write channel buffer. When the
	// buffer is full, records are dropped and counted.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// WriteTimeout is the timeout for writing a record to the store.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit records. Records older
	// than this are eligible for pruning. 0 means keep records forever.
	// Default: 0
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning. Only
	// used when Days is positive.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of records to keep. Oldest
	// records beyond the limit are pruned. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is the port the metrics endpoint listens on. 0 disables the
	// endpoint; collectors still register and can be gathered in
	// process.
	// Default: 0
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets, in seconds, for build
	// and validation durations.
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

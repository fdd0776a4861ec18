package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Modules.Library != DefaultLibraryPath {
		t.Errorf("Library = %q", cfg.Modules.Library)
	}
	if !reflect.DeepEqual(cfg.Modules.SearchPaths, []string{"."}) {
		t.Errorf("SearchPaths = %v", cfg.Modules.SearchPaths)
	}
	if cfg.Validation.Mode != "collect" {
		t.Errorf("Mode = %q", cfg.Validation.Mode)
	}
	if cfg.Audit.Enabled {
		t.Error("audit enabled by default")
	}
	if cfg.Audit.SQLite.MaxOpenConns != DefaultAuditMaxOpenConns {
		t.Errorf("MaxOpenConns = %d", cfg.Audit.SQLite.MaxOpenConns)
	}
	if cfg.Audit.Retention.Days != 0 {
		t.Errorf("retention days defaulted to %d, want 0 (keep forever)", cfg.Audit.Retention.Days)
	}
	if cfg.Audit.Retention.PruneSchedule != DefaultAuditPruneSchedule {
		t.Errorf("PruneSchedule = %q", cfg.Audit.Retention.PruneSchedule)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Metrics.Namespace != "ganymede" {
		t.Errorf("Namespace = %q", cfg.Telemetry.Metrics.Namespace)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		t.Error("no default duration buckets")
	}

	// Defaults never override explicit values.
	cfg.Modules.Library = "custom.json"
	cfg.Validation.Mode = "fail-fast"
	before := cfg
	ApplyDefaults(&cfg)
	if !reflect.DeepEqual(before, cfg) {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		var cfg Config
		ApplyDefaults(&cfg)
		return &cfg
	}

	if err := Validate(valid()); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}

	tests := []struct {
		name  string
		edit  func(cfg *Config)
		field string
	}{
		{
			name:  "empty library path",
			edit:  func(cfg *Config) { cfg.Modules.Library = "" },
			field: "modules.library",
		},
		{
			name:  "empty search path",
			edit:  func(cfg *Config) { cfg.Modules.SearchPaths = []string{"models", ""} },
			field: "modules.search_paths[1]",
		},
		{
			name:  "bad module name in features",
			edit:  func(cfg *Config) { cfg.Modules.Features = map[string][]string{"9bad": nil} },
			field: "modules.features",
		},
		{
			name:  "bad feature name",
			edit:  func(cfg *Config) { cfg.Modules.Features = map[string][]string{"sys": {"has space"}} },
			field: "modules.features.sys",
		},
		{
			name:  "unknown validation mode",
			edit:  func(cfg *Config) { cfg.Validation.Mode = "strict" },
			field: "validation.mode",
		},
		{
			name:  "negative max violations",
			edit:  func(cfg *Config) { cfg.Validation.MaxViolations = -1 },
			field: "validation.max_violations",
		},
		{
			name: "audit without database path",
			edit: func(cfg *Config) {
				cfg.Audit.Enabled = true
				cfg.Audit.SQLite.Path = ""
			},
			field: "audit.sqlite.path",
		},
		{
			name: "idle connections above open",
			edit: func(cfg *Config) {
				cfg.Audit.Enabled = true
				cfg.Audit.SQLite.MaxOpenConns = 2
				cfg.Audit.SQLite.MaxIdleConns = 5
			},
			field: "audit.sqlite.max_idle_conns",
		},
		{
			name: "retention without schedule",
			edit: func(cfg *Config) {
				cfg.Audit.Enabled = true
				cfg.Audit.Retention.Days = 30
				cfg.Audit.Retention.PruneSchedule = ""
			},
			field: "audit.retention.prune_schedule",
		},
		{
			name:  "negative retention days",
			edit:  func(cfg *Config) { cfg.Audit.Retention.Days = -1 },
			field: "audit.retention.days",
		},
		{
			name:  "unknown log level",
			edit:  func(cfg *Config) { cfg.Telemetry.Logging.Level = "verbose" },
			field: "telemetry.logging.level",
		},
		{
			name:  "unknown log format",
			edit:  func(cfg *Config) { cfg.Telemetry.Logging.Format = "xml" },
			field: "telemetry.logging.format",
		},
		{
			name: "metrics path without slash",
			edit: func(cfg *Config) {
				cfg.Telemetry.Metrics.Enabled = true
				cfg.Telemetry.Metrics.Path = "metrics"
			},
			field: "telemetry.metrics.path",
		},
		{
			name: "metrics port out of range",
			edit: func(cfg *Config) {
				cfg.Telemetry.Metrics.Enabled = true
				cfg.Telemetry.Metrics.Port = 70000
			},
			field: "telemetry.metrics.port",
		},
		{
			name: "bad metrics namespace",
			edit: func(cfg *Config) {
				cfg.Telemetry.Metrics.Enabled = true
				cfg.Telemetry.Metrics.Namespace = "1st"
			},
			field: "telemetry.metrics.namespace",
		},
		{
			name: "buckets not increasing",
			edit: func(cfg *Config) {
				cfg.Telemetry.Metrics.Enabled = true
				cfg.Telemetry.Metrics.DurationBuckets = []float64{0.1, 0.1, 1}
			},
			field: "telemetry.metrics.duration_buckets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.edit(cfg)
			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate = %v, want ValidationError", err)
			}
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					return
				}
			}
			t.Errorf("no error for field %q, got %v", tt.field, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ganymede.yaml")
	content := `
modules:
  library: "models/library.json"
  search_paths: ["models", "vendor"]
  features:
    sys: [ldap, ntp]

validation:
  mode: "fail-fast"
  fill_defaults: true

audit:
  enabled: true
  sqlite:
    path: "audit.db"
  retention:
    days: 30

telemetry:
  logging:
    level: "debug"
    format: "text"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Modules.Library != "models/library.json" {
		t.Errorf("Library = %q", cfg.Modules.Library)
	}
	if !reflect.DeepEqual(cfg.Modules.SearchPaths, []string{"models", "vendor"}) {
		t.Errorf("SearchPaths = %v", cfg.Modules.SearchPaths)
	}
	if !reflect.DeepEqual(cfg.Modules.Features["sys"], []string{"ldap", "ntp"}) {
		t.Errorf("Features = %v", cfg.Modules.Features)
	}
	if cfg.Validation.Mode != "fail-fast" || !cfg.Validation.FillDefaults {
		t.Errorf("validation = %+v", cfg.Validation)
	}
	if !cfg.Audit.Enabled || cfg.Audit.SQLite.Path != "audit.db" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.Audit.Retention.Days != 30 {
		t.Errorf("Days = %d", cfg.Audit.Retention.Days)
	}
	// Unset fields still pick up defaults.
	if cfg.Audit.Recorder.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.Audit.Recorder.WriteTimeout)
	}
	if cfg.Telemetry.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Telemetry.Metrics.Path)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("no error for missing file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("modules: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("no error for malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("validation:\n  mode: strict\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(invalid)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("LoadConfig = %v, want ValidationError", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ganymede.yaml")
	content := `
validation:
  mode: "collect"
audit:
  retention:
    days: 90
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GANYMEDE_VALIDATION_MODE", "fail-fast")
	t.Setenv("GANYMEDE_MODULES_SEARCH_PATHS", "a"+string(os.PathListSeparator)+"b")
	t.Setenv("GANYMEDE_AUDIT_RETENTION_DAYS", "30")
	t.Setenv("GANYMEDE_TELEMETRY_METRICS_PORT", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Validation.Mode != "fail-fast" {
		t.Errorf("Mode = %q, env override lost", cfg.Validation.Mode)
	}
	if !reflect.DeepEqual(cfg.Modules.SearchPaths, []string{"a", "b"}) {
		t.Errorf("SearchPaths = %v", cfg.Modules.SearchPaths)
	}
	if cfg.Audit.Retention.Days != 30 {
		t.Errorf("Days = %d, env override lost", cfg.Audit.Retention.Days)
	}
	// Unparseable overrides keep the file/default value.
	if cfg.Telemetry.Metrics.Port != 0 {
		t.Errorf("Port = %d", cfg.Telemetry.Metrics.Port)
	}

	// An override that fails validation surfaces as an error.
	t.Setenv("GANYMEDE_VALIDATION_MODE", "strict")
	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("no error for invalid override")
	}
}

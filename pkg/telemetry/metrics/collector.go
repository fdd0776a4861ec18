package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the central entry point for Prometheus metrics in
// Ganymede. It owns the registry, registers every metric group on
// construction, and provides the recording methods used by the schema,
// validation, and audit components.
//
// All recording methods check the Enabled flag and become no-ops when
// metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	schemaMetrics     *SchemaMetrics
	validationMetrics *ValidationMetrics
	auditMetrics      *AuditMetrics
}

// NewCollector creates a metrics collector backed by the given
// registry. If registry is nil, a fresh registry is created. Missing
// configuration values fall back to package defaults, so a zero
// MetricsConfig is usable.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "ganymede",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = prometheus.DefBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.schemaMetrics = NewSchemaMetrics(cfg, registry)
	c.validationMetrics = NewValidationMetrics(cfg, registry)
	c.auditMetrics = NewAuditMetrics(cfg, registry)

	return c
}

// RecordSchemaBuild records a completed schema context build.
//
// Parameters:
//   - status: build status ("success" or "error")
//   - duration: time spent building the context
func (c *Collector) RecordSchemaBuild(status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.schemaMetrics.RecordBuild(status, duration)
}

// SetModuleCount updates the number of modules in the active schema
// context for one conformance type.
//
// Parameters:
//   - conformance: conformance type ("implement" or "import")
//   - count: number of modules
func (c *Collector) SetModuleCount(conformance string, count int) {
	if !c.config.Enabled {
		return
	}

	c.schemaMetrics.SetModules(conformance, count)
}

// RecordValidation records a completed validation run.
//
// Parameters:
//   - outcome: run outcome ("valid", "invalid", or "error")
//   - duration: total run duration
//   - documentBytes: size of the validated document, 0 when unknown
func (c *Collector) RecordValidation(outcome string, duration time.Duration, documentBytes int) {
	if !c.config.Enabled {
		return
	}

	c.validationMetrics.RecordRun(outcome, duration, documentBytes)
}

// RecordViolation records a single validation finding.
//
// Parameters:
//   - kind: finding kind ("schema" or "semantic")
//   - tag: RFC 7950 error tag (e.g. "missing-data", "must-violation")
func (c *Collector) RecordViolation(kind, tag string) {
	if !c.config.Enabled {
		return
	}

	c.validationMetrics.RecordViolation(kind, tag)
}

// RecordAuditRecord records the outcome of one audit trail write.
//
// Parameters:
//   - status: "recorded" when the record was accepted, "dropped" when
//     the recorder discarded it
func (c *Collector) RecordAuditRecord(status string) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordWrite(status)
}

// AddAuditPruned adds to the count of audit records deleted by
// retention pruning.
func (c *Collector) AddAuditPruned(count int64) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.AddPruned(count)
}

// Registry returns the Prometheus registry used by this collector.
// It can be handed to promhttp directly when Collector.Handler does
// not fit:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

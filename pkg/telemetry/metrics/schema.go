package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SchemaMetrics tracks schema context construction.
//
// Metrics:
//   - ganymede_schema_builds_total: Context build count by status
//   - ganymede_schema_build_duration_seconds: Context build duration
//   - ganymede_schema_modules: Modules in the active context by conformance type
type SchemaMetrics struct {
	buildsTotal   *prometheus.CounterVec
	buildDuration prometheus.Histogram
	modules       *prometheus.GaugeVec
}

// NewSchemaMetrics creates and registers schema metrics with the
// provided registry.
func NewSchemaMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SchemaMetrics {
	sm := &SchemaMetrics{
		buildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "schema",
				Name:      "builds_total",
				Help:      "Total number of schema context builds",
			},
			[]string{"status"},
		),

		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "schema",
				Name:      "build_duration_seconds",
				Help:      "Duration of schema context builds in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		modules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "schema",
				Name:      "modules",
				Help:      "Modules in the active schema context by conformance type",
			},
			[]string{"conformance"},
		),
	}

	registry.MustRegister(
		sm.buildsTotal,
		sm.buildDuration,
		sm.modules,
	)

	return sm
}

// RecordBuild records one schema context build.
//
// Parameters:
//   - status: build status ("success" or "error")
//   - duration: build duration
func (sm *SchemaMetrics) RecordBuild(status string, duration time.Duration) {
	sm.buildsTotal.WithLabelValues(status).Inc()
	sm.buildDuration.Observe(duration.Seconds())
}

// SetModules sets the module count for one conformance type.
func (sm *SchemaMetrics) SetModules(conformance string, count int) {
	sm.modules.WithLabelValues(conformance).Set(float64(count))
}

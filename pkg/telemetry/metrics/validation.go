package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics tracks instance document validation.
//
// Metrics:
//   - ganymede_validation_runs_total: Validation run count by outcome
//   - ganymede_validation_duration_seconds: Validation run duration
//   - ganymede_validation_violations_total: Findings by kind and error tag
//   - ganymede_validation_document_bytes: Validated document sizes
type ValidationMetrics struct {
	runsTotal       *prometheus.CounterVec
	duration        prometheus.Histogram
	violationsTotal *prometheus.CounterVec
	documentBytes   prometheus.Histogram
}

// NewValidationMetrics creates and registers validation metrics with
// the provided registry.
func NewValidationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	vm := &ValidationMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "runs_total",
				Help:      "Total number of validation runs",
			},
			[]string{"outcome"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "duration_seconds",
				Help:      "Duration of validation runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "violations_total",
				Help:      "Total number of validation findings by kind and error tag",
			},
			[]string{"kind", "tag"},
		),

		documentBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "document_bytes",
				Help:      "Size of validated instance documents in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
		),
	}

	registry.MustRegister(
		vm.runsTotal,
		vm.duration,
		vm.violationsTotal,
		vm.documentBytes,
	)

	return vm
}

// RecordRun records one completed validation run.
//
// Parameters:
//   - outcome: run outcome ("valid", "invalid", or "error")
//   - duration: run duration
//   - documentBytes: document size, skipped when <= 0
func (vm *ValidationMetrics) RecordRun(outcome string, duration time.Duration, documentBytes int) {
	vm.runsTotal.WithLabelValues(outcome).Inc()
	vm.duration.Observe(duration.Seconds())

	if documentBytes > 0 {
		vm.documentBytes.Observe(float64(documentBytes))
	}
}

// RecordViolation records a single validation finding.
func (vm *ValidationMetrics) RecordViolation(kind, tag string) {
	vm.violationsTotal.WithLabelValues(kind, tag).Inc()
}

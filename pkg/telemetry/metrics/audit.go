package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks the audit trail.
//
// Metrics:
//   - ganymede_audit_records_total: Audit record writes by status
//   - ganymede_audit_pruned_total: Audit records deleted by retention pruning
type AuditMetrics struct {
	recordsTotal *prometheus.CounterVec
	prunedTotal  prometheus.Counter
}

// NewAuditMetrics creates and registers audit metrics with the
// provided registry.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "records_total",
				Help:      "Total number of audit record writes by status",
			},
			[]string{"status"},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "pruned_total",
				Help:      "Total number of audit records deleted by retention pruning",
			},
		),
	}

	registry.MustRegister(
		am.recordsTotal,
		am.prunedTotal,
	)

	return am
}

// RecordWrite records the outcome of one audit trail write.
//
// Parameters:
//   - status: "recorded" or "dropped"
func (am *AuditMetrics) RecordWrite(status string) {
	am.recordsTotal.WithLabelValues(status).Inc()
}

// AddPruned adds to the pruned record count. Non-positive counts are
// ignored.
func (am *AuditMetrics) AddPruned(count int64) {
	if count > 0 {
		am.prunedTotal.Add(float64(count))
	}
}

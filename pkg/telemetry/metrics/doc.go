// Package metrics provides Prometheus metrics collection for Ganymede.
//
// # Overview
//
// The package instruments schema context construction, instance
// document validation, and the audit trail. A single Collector owns
// the registry, registers every metric group on construction, and
// exposes recording methods that are safe to call from any goroutine.
// When metrics are disabled in the configuration every recording
// method is a no-op, so callers hold a collector unconditionally and
// never guard call sites.
//
// # Metric Categories
//
//   - Schema metrics: context build count and duration, plus module
//     counts by conformance type
//   - Validation metrics: run count by outcome, run duration, finding
//     counts by kind and error tag, and validated document sizes
//   - Audit metrics: audit record writes by status and records removed
//     by retention pruning
//
// # Usage
//
//	collector := metrics.NewCollector(cfg, nil)
//
//	collector.RecordSchemaBuild("success", 120*time.Millisecond)
//	collector.SetModuleCount("implement", 14)
//
//	collector.RecordValidation("invalid", 3*time.Millisecond, len(doc))
//	collector.RecordViolation("semantic", "must-violation")
//
// # Prometheus Endpoint
//
// Collector.Handler serves every registered metric in the standard
// exposition format:
//
//	# HELP ganymede_validation_runs_total Total number of validation runs
//	# TYPE ganymede_validation_runs_total counter
//	ganymede_validation_runs_total{outcome="invalid"} 12
package metrics

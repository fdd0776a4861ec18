// Package telemetry groups the observability subpackages for Ganymede.
//
// # Components
//
//   - logging: structured logger construction from configuration
//   - metrics: Prometheus collectors for schema builds, validation
//     runs, and the audit trail
//
// Core packages (registry, types, schema, instance, xpath, datamodel)
// never log and never record metrics; only the collaborator layers
// (sources, audit, CLI) are instrumented.
//
// # Usage
//
//	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordSchemaBuild("success", took)
package telemetry

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/audit/retention"
	"mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/datamodel"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/source"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

var validateFlags struct {
	mode         string
	fillDefaults bool
	format       string
	watch        bool
}

var validateCmd = &cobra.Command{
	Use:   "validate [document...]",
	Short: "Validate JSON instance documents",
	Long: `Validate JSON instance documents against the compiled module set.

Each document is bound to the schema tree and checked against the full
constraint set: mandatory and cardinality rules, list keys and unique
clauses, choice consistency, must and when expressions, leafref and
instance-identifier integrity, and type restrictions.

With --watch the command keeps running, revalidates the documents
whenever a module source changes, and serves Prometheus metrics when
telemetry is configured.

Examples:
  # Validate one document
  ganymede validate config.json

  # Report every violation as JSON
  ganymede validate config.json --mode collect --format json

  # Apply schema defaults before validation
  ganymede validate config.json --fill-defaults

  # Keep validating as module sources change
  ganymede validate config.json --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateDocuments,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addModelFlags(validateCmd)
	validateCmd.Flags().StringVar(&validateFlags.mode, "mode", "", "violation reporting: collect, fail-fast (overrides config)")
	validateCmd.Flags().BoolVar(&validateFlags.fillDefaults, "fill-defaults", false, "apply schema defaults before validating")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().BoolVar(&validateFlags.watch, "watch", false, "keep running and revalidate on module changes")
}

// DocumentResult is the validation outcome for one document.
type DocumentResult struct {
	File       string      `json:"file"`
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
	// Total counts every finding, including ones truncated from
	// Violations by validation.max_violations.
	Total int    `json:"violations_total,omitempty"`
	Error string `json:"error,omitempty"`
}

// Violation is a single finding against a document.
type Violation struct {
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func validateDocuments(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	if validateFlags.mode != "" {
		cfg.Validation.Mode = validateFlags.mode
	}
	switch cfg.Validation.Mode {
	case "collect", "fail-fast":
	default:
		return cli.NewConfigError("validation.mode", fmt.Sprintf("unsupported mode %q", cfg.Validation.Mode))
	}
	if cmd.Flags().Changed("fill-defaults") {
		cfg.Validation.FillDefaults = validateFlags.fillDefaults
	}

	if validateFlags.watch || cfg.Modules.Watch {
		return watchValidate(cfg, args, format)
	}

	ctx := context.Background()

	sink, err := newAuditSink(&cfg.Audit)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer sink.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	dm, took, err := buildTimed(cfg)
	collector.RecordSchemaBuild(buildStatus(err), took)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	recordModuleCounts(collector, dm.Context().Library())

	results := runValidation(ctx, cfg, dm, args, sink, collector)
	if err := outputResults(os.Stdout, results, format); err != nil {
		return err
	}

	if failed := countFailed(results); failed > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d document(s) failed validation", failed, len(results)))
	}
	return nil
}

// watchValidate revalidates the documents on every module source
// change until the process receives SIGINT or SIGTERM.
func watchValidate(cfg *config.Config, files []string, format cli.OutputFormat) error {
	ctx := cli.SetupSignalHandler()

	sink, err := newAuditSink(&cfg.Audit)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer sink.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	stopMetrics := startMetricsServer(&cfg.Telemetry.Metrics, collector)
	defer stopMetrics()

	if sink != nil {
		pruner := retention.NewPruner(sink.store, &retention.Config{
			Days:          cfg.Audit.Retention.Days,
			PruneSchedule: cfg.Audit.Retention.PruneSchedule,
			MaxRecords:    cfg.Audit.Retention.MaxRecords,
		}, slog.Default())
		if deleted, err := pruner.Prune(ctx); err != nil {
			slog.Warn("initial audit prune failed", "error", err)
		} else if deleted > 0 {
			collector.AddAuditPruned(deleted)
		}
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("audit prune scheduler not started", "error", err)
		}
		defer pruner.Stop()
	}

	run := func() error {
		dm, took, err := buildTimed(cfg)
		collector.RecordSchemaBuild(buildStatus(err), took)
		if err != nil {
			slog.Error("model build failed", "error", err)
			return nil
		}
		recordModuleCounts(collector, dm.Context().Library())

		results := runValidation(ctx, cfg, dm, files, sink, collector)
		return outputResults(os.Stdout, results, format)
	}
	if err := run(); err != nil {
		return err
	}

	watcher, err := source.NewWatcher(&source.WatcherConfig{Paths: cfg.Modules.SearchPaths}, slog.Default())
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer watcher.Stop()

	if err := watcher.Watch(ctx, run); err != nil {
		return cli.NewCommandError("validate", err)
	}
	return nil
}

// runValidation validates every document against the model.
func runValidation(ctx context.Context, cfg *config.Config, dm *datamodel.DataModel, files []string, sink *auditSink, collector *metrics.Collector) []DocumentResult {
	results := make([]DocumentResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateOne(ctx, cfg, dm, file, sink, collector))
	}
	return results
}

func validateOne(ctx context.Context, cfg *config.Config, dm *datamodel.DataModel, file string, sink *auditSink, collector *metrics.Collector) DocumentResult {
	started := time.Now()

	data, verr := os.ReadFile(file)
	if verr == nil {
		verr = validateBytes(cfg, dm, data)
	}

	rec := audit.NewRecord(dm.Context().Library().ModuleSetID, file, data, started, verr)
	if status := sink.record(ctx, rec); status != "" {
		collector.RecordAuditRecord(status)
	}
	collector.RecordValidation(string(rec.Outcome), rec.Duration, len(data))
	if list := asErrorList(verr); list != nil {
		for _, v := range list.Errors {
			collector.RecordViolation(string(v.Kind), v.Tag)
		}
	}

	return resultFrom(file, verr, cfg.Validation.MaxViolations)
}

// validateBytes binds the raw document to the schema and validates it.
func validateBytes(cfg *config.Config, dm *datamodel.DataModel, data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	h, err := dm.FromRaw(raw)
	if err != nil {
		return err
	}
	if cfg.Validation.FillDefaults {
		if h, err = dm.AddDefaults(h); err != nil {
			return err
		}
	}
	if cfg.Validation.Mode == "fail-fast" {
		return dm.Validate(h)
	}
	return dm.ValidateAll(h)
}

// resultFrom classifies the validation error into a result. max caps
// reported violations, 0 means no cap.
func resultFrom(file string, verr error, max int) DocumentResult {
	result := DocumentResult{File: file, Valid: verr == nil}
	if verr == nil {
		return result
	}

	if list := asErrorList(verr); list != nil {
		result.Total = list.Count()
		for _, v := range list.Errors {
			if max > 0 && len(result.Violations) >= max {
				break
			}
			result.Violations = append(result.Violations, violationFrom(v))
		}
		return result
	}
	if single, ok := verr.(*yangErrors.ValidationError); ok {
		result.Total = 1
		result.Violations = append(result.Violations, violationFrom(single))
		return result
	}
	result.Error = verr.Error()
	return result
}

// asErrorList unwraps a collect-mode validation error.
func asErrorList(err error) *yangErrors.ErrorList {
	if list, ok := err.(*yangErrors.ErrorList); ok {
		return list
	}
	return nil
}

func violationFrom(v *yangErrors.ValidationError) Violation {
	return Violation{
		Kind:    string(v.Kind),
		Path:    v.Path,
		Tag:     v.Tag,
		Message: v.Message,
	}
}

func countFailed(results []DocumentResult) int {
	failed := 0
	for _, r := range results {
		if !r.Valid {
			failed++
		}
	}
	return failed
}

func outputResults(w io.Writer, results []DocumentResult, format cli.OutputFormat) error {
	if format == cli.FormatJSON {
		formatter := &cli.JSONFormatter{Indent: true}
		return formatter.FormatTo(w, results)
	}
	printResults(w, results)
	return nil
}

func printResults(w io.Writer, results []DocumentResult) {
	valid, invalid, failures := 0, 0, 0

	for _, result := range results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)

		switch {
		case result.Valid:
			fmt.Fprintln(w, "✓ Valid")
			valid++
		case result.Error != "":
			fmt.Fprintf(w, "✗ Error: %s\n", result.Error)
			failures++
		default:
			for _, v := range result.Violations {
				path := v.Path
				if path == "" {
					path = "/"
				}
				fmt.Fprintf(w, "✗ [%s] %s: %s: %s\n", v.Kind, path, v.Tag, v.Message)
			}
			if hidden := result.Total - len(result.Violations); hidden > 0 {
				fmt.Fprintf(w, "  ... %d more violation(s) not shown\n", hidden)
			}
			invalid++
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d document(s), %d valid, %d invalid, %d error(s)\n", len(results), valid, invalid, failures)
}

// buildTimed compiles the model, timing the build for telemetry.
func buildTimed(cfg *config.Config) (*datamodel.DataModel, time.Duration, error) {
	started := time.Now()
	dm, err := buildModel(cfg)
	return dm, time.Since(started), err
}

func buildStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// recordModuleCounts publishes the module count gauge per conformance.
func recordModuleCounts(collector *metrics.Collector, lib *registry.Library) {
	counts := make(map[registry.Conformance]int)
	for _, m := range lib.Modules {
		counts[m.Conformance]++
	}
	collector.SetModuleCount(registry.Implement.String(), counts[registry.Implement])
	collector.SetModuleCount(registry.Import.String(), counts[registry.Import])
}

// startMetricsServer serves the Prometheus endpoint when telemetry is
// configured with a port. The returned function stops the server.
func startMetricsServer(cfg *config.MetricsConfig, collector *metrics.Collector) func() {
	if !cfg.Enabled || cfg.Port <= 0 {
		return func() {}
	}

	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, collector.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics endpoint listening", "addr", srv.Addr, "path", path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics endpoint shutdown failed", "error", err)
		}
	}
}

// auditSink couples the audit store with its async recorder. A nil
// sink is valid and records nothing.
type auditSink struct {
	store    audit.Storage
	recorder *recorder.Recorder
}

// newAuditSink opens the audit trail when it is enabled. It returns
// nil when auditing is off.
func newAuditSink(cfg *config.AuditConfig) (*auditSink, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	store, err := storage.NewSQLite(&storage.Config{
		Path:         cfg.SQLite.Path,
		MaxOpenConns: cfg.SQLite.MaxOpenConns,
		MaxIdleConns: cfg.SQLite.MaxIdleConns,
		DisableWAL:   cfg.SQLite.DisableWAL,
		BusyTimeout:  cfg.SQLite.BusyTimeout,
	}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	rec := recorder.NewRecorder(store, &recorder.Config{
		Buffer:       cfg.Recorder.Buffer,
		WriteTimeout: cfg.Recorder.WriteTimeout,
	}, slog.Default())

	return &auditSink{store: store, recorder: rec}, nil
}

// record hands the record to the async recorder. It returns the audit
// status label, or empty when the sink is disabled.
func (s *auditSink) record(ctx context.Context, rec *audit.Record) string {
	if s == nil {
		return ""
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		slog.Warn("audit record dropped", "document", rec.Document, "error", err)
		return "dropped"
	}
	return "recorded"
}

// Close drains the recorder and closes the store.
func (s *auditSink) Close() {
	if s == nil {
		return
	}
	if err := s.recorder.Close(); err != nil {
		slog.Warn("audit recorder close failed", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("audit store close failed", "error", err)
	}
}

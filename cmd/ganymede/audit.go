package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/export"
	"mercator-hq/ganymede/pkg/audit/retention"
	"mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
)

var auditFlags struct {
	db            string
	timeRange     string
	moduleSet     string
	document      string
	outcome       string
	tag           string
	minViolations int
	limit         int
	offset        int
	sortBy        string
	sortOrder     string
	format        string
	output        string
	pretty        bool
	noHeader      bool
	days          int
	maxRecords    int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the validation audit trail",
	Long: `Query, export and prune the validation audit trail.

Every recorded validation run keeps what was validated, against which
module set, and how the run ended, including per-tag violation counts.

Subcommands:
  list    - List audit records with filters
  report  - Summarize records over a time range
  export  - Export records as JSON or CSV
  prune   - Delete records beyond the retention policy

Examples:
  # List the most recent invalid runs
  ganymede audit list --outcome invalid

  # Summarize last week
  ganymede audit report --time-range "2026-08-18T00:00:00Z/2026-08-25T00:00:00Z"

  # Export everything to CSV
  ganymede audit export --format csv --output audit.csv

  # Apply the retention policy once
  ganymede audit prune --days 30`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records",
	Long: `List audit records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-18T00:00:00Z/2026-08-25T00:00:00Z"

Examples:
  # List runs of one document
  ganymede audit list --document config.json

  # List runs that hit a specific constraint
  ganymede audit list --tag must-violation

  # Worst offenders first
  ganymede audit list --sort-by violations --sort-order desc`,
	RunE: listAuditRecords,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize audit records",
	Long:  `Summarize audit records: outcomes, violation tags and durations.`,
	RunE:  reportAuditRecords,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit records",
	Long: `Export audit records as JSON or CSV.

Examples:
  # JSON to stdout
  ganymede audit export --format json --pretty

  # CSV for a spreadsheet, without the header row
  ganymede audit export --format csv --no-header --output audit.csv`,
	RunE: exportAuditRecords,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records beyond the retention policy",
	Long: `Delete audit records beyond the retention policy.

Age and count limits from the configuration apply unless overridden by
the --days and --max-records flags. A limit of 0 means unlimited.`,
	RunE: pruneAuditRecords,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditReportCmd, auditExportCmd, auditPruneCmd)

	auditCmd.PersistentFlags().StringVar(&auditFlags.db, "db", "", "audit database path (uses config if not specified)")

	// Flags for list command
	auditListCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	auditListCmd.Flags().StringVar(&auditFlags.moduleSet, "module-set", "", "filter by module set id")
	auditListCmd.Flags().StringVar(&auditFlags.document, "document", "", "filter by document name")
	auditListCmd.Flags().StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome (valid, invalid, error)")
	auditListCmd.Flags().StringVar(&auditFlags.tag, "tag", "", "filter by violation tag")
	auditListCmd.Flags().IntVar(&auditFlags.minViolations, "min-violations", 0, "minimum violation count")
	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.DefaultQueryLimit, "max results")
	auditListCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditListCmd.Flags().StringVar(&auditFlags.sortBy, "sort-by", "", "sort field: started_time, violations, duration")
	auditListCmd.Flags().StringVar(&auditFlags.sortOrder, "sort-order", "", "sort order: asc, desc")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")

	// Flags for report command
	auditReportCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval)")
	auditReportCmd.Flags().StringVar(&auditFlags.moduleSet, "module-set", "", "filter by module set id")

	// Flags for export command
	auditExportCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval)")
	auditExportCmd.Flags().StringVar(&auditFlags.moduleSet, "module-set", "", "filter by module set id")
	auditExportCmd.Flags().StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome")
	auditExportCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.MaxQueryLimit, "max results")
	auditExportCmd.Flags().StringVar(&auditFlags.format, "format", "json", "export format: json, csv")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")
	auditExportCmd.Flags().BoolVar(&auditFlags.pretty, "pretty", false, "indent JSON output")
	auditExportCmd.Flags().BoolVar(&auditFlags.noHeader, "no-header", false, "omit the CSV header row")

	// Flags for prune command
	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", -1, "retention age in days (overrides config)")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", -1, "retention record count (overrides config)")
}

// openAuditStore opens the audit database named by config or --db.
func openAuditStore(cfg *config.Config) (audit.Storage, error) {
	path := cfg.Audit.SQLite.Path
	if auditFlags.db != "" {
		path = auditFlags.db
	}
	store, err := storage.NewSQLite(&storage.Config{
		Path:         path,
		MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
		MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
		DisableWAL:   cfg.Audit.SQLite.DisableWAL,
		BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
	}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}
	return store, nil
}

// buildAuditQuery folds the flags into a validated query.
func buildAuditQuery() (*audit.Query, error) {
	query := &audit.Query{
		ModuleSetID: auditFlags.moduleSet,
		Document:    auditFlags.document,
		Outcome:     audit.Outcome(auditFlags.outcome),
		Tag:         auditFlags.tag,
		Limit:       auditFlags.limit,
		Offset:      auditFlags.offset,
		SortBy:      auditFlags.sortBy,
		SortOrder:   auditFlags.sortOrder,
	}
	if auditFlags.minViolations > 0 {
		query.MinViolations = &auditFlags.minViolations
	}

	if auditFlags.timeRange != "" {
		parts := strings.Split(auditFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}
		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		query.StartTime = &startTime
		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		query.EndTime = &endTime
	}

	if err := query.Validate(); err != nil {
		return nil, err
	}
	return query, nil
}

func listAuditRecords(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}

	store, err := openAuditStore(cfg)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.Count(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("count failed: %w", err))
	}

	if format == cli.FormatJSON {
		formatter := &cli.JSONFormatter{Indent: true}
		return formatter.FormatTo(os.Stdout, map[string]any{
			"total_records": total,
			"returned":      len(records),
			"records":       records,
		})
	}
	printAuditRecords(os.Stdout, records, total, query)
	return nil
}

func printAuditRecords(w io.Writer, records []*audit.Record, total int64, query *audit.Query) {
	fmt.Fprintln(w, "Querying audit records...")
	fmt.Fprintln(w)

	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(w, "Time range: %s to %s\n",
			query.StartTime.Format(time.RFC3339),
			query.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Total records: %d\n", total)
	fmt.Fprintln(w)

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Record ID: %s\n", record.ID)
		fmt.Fprintf(w, "Started: %s\n", record.StartedTime.Format(time.RFC3339))
		fmt.Fprintf(w, "Document: %s\n", record.Document)
		fmt.Fprintf(w, "Module Set: %s\n", record.ModuleSetID)
		fmt.Fprintf(w, "Outcome: %s\n", record.Outcome)
		if record.Violations > 0 {
			fmt.Fprintf(w, "Violations: %d (schema: %d, semantic: %d)\n",
				record.Violations, record.SchemaViolations, record.SemanticViolations)
		}
		if record.FirstViolation != "" {
			fmt.Fprintf(w, "First Violation: %s\n", record.FirstViolation)
		}
		if record.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", record.Error)
		}
		fmt.Fprintf(w, "Duration: %s\n", record.Duration)

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(w)
			fmt.Fprintf(w, "... and %d more records\n", remaining)
			fmt.Fprintf(w, "Use --limit and --offset for pagination.\n")
			break
		}
	}
}

func reportAuditRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}
	query.Limit = audit.MaxQueryLimit

	store, err := openAuditStore(cfg)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	records, err := store.Query(context.Background(), query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	printAuditReport(os.Stdout, records, query)
	return nil
}

func printAuditReport(w io.Writer, records []*audit.Record, query *audit.Query) {
	fmt.Fprintln(w, "Validation Audit Report")
	fmt.Fprintln(w, "=======================")

	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			query.StartTime.Format("2006-01-02"),
			query.EndTime.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(w)

	outcomeCounts := make(map[audit.Outcome]int)
	tagCounts := make(map[string]int)
	totalViolations := 0
	var totalDuration time.Duration

	for _, record := range records {
		outcomeCounts[record.Outcome]++
		totalViolations += record.Violations
		totalDuration += record.Duration
		for tag, n := range record.ViolationTags {
			tagCounts[tag] += n
		}
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintln(w, "--------")
	fmt.Fprintf(w, "Total Runs: %d\n", len(records))
	fmt.Fprintf(w, "Total Violations: %d\n", totalViolations)
	if len(records) > 0 {
		fmt.Fprintf(w, "Average Duration: %s\n", totalDuration/time.Duration(len(records)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Outcomes:")
	for _, outcome := range []audit.Outcome{audit.OutcomeValid, audit.OutcomeInvalid, audit.OutcomeError} {
		count := outcomeCounts[outcome]
		if len(records) > 0 {
			pct := float64(count) / float64(len(records)) * 100
			fmt.Fprintf(w, "  %s: %d runs (%.0f%%)\n", outcome, count, pct)
		} else {
			fmt.Fprintf(w, "  %s: 0 runs\n", outcome)
		}
	}

	if len(tagCounts) > 0 {
		tags := make([]string, 0, len(tagCounts))
		for tag := range tagCounts {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool {
			if tagCounts[tags[i]] != tagCounts[tags[j]] {
				return tagCounts[tags[i]] > tagCounts[tags[j]]
			}
			return tags[i] < tags[j]
		})

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Violations By Tag:")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %s: %d\n", tag, tagCounts[tag])
		}
	}
}

func exportAuditRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}

	var exporter audit.Exporter
	switch auditFlags.format {
	case "json":
		exporter = export.NewJSONExporter(auditFlags.pretty)
	case "csv":
		exporter = export.NewCSVExporter(!auditFlags.noHeader)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, csv)", auditFlags.format)
	}

	store, err := openAuditStore(cfg)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	output := os.Stdout
	if auditFlags.output != "" {
		output, err = os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := exporter.Export(ctx, records, output); err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("export failed: %w", err))
	}
	if auditFlags.output != "" {
		fmt.Printf("Exported %d record(s) to %s\n", len(records), auditFlags.output)
	}
	return nil
}

func pruneAuditRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	retentionCfg := &retention.Config{
		Days:       cfg.Audit.Retention.Days,
		MaxRecords: cfg.Audit.Retention.MaxRecords,
	}
	if auditFlags.days >= 0 {
		retentionCfg.Days = auditFlags.days
	}
	if auditFlags.maxRecords >= 0 {
		retentionCfg.MaxRecords = auditFlags.maxRecords
	}
	if retentionCfg.Days == 0 && retentionCfg.MaxRecords == 0 {
		return fmt.Errorf("nothing to prune: no retention limits configured (set --days or --max-records)")
	}

	store, err := openAuditStore(cfg)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	ctx := context.Background()
	pruner := retention.NewPruner(store, retentionCfg, slog.Default())
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("prune failed: %w", err))
	}

	remaining, err := store.Count(ctx, &audit.Query{})
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("count failed: %w", err))
	}

	fmt.Printf("Pruned %d record(s), %d remaining\n", deleted, remaining)
	return nil
}

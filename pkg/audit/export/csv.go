package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"mercator-hq/ganymede/pkg/audit"
)

// CSVExporter exports audit records in CSV format. Nested fields are
// flattened: the per-tag violation counts become a JSON object in a
// single column.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes the records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}

	return nil
}

// headerRow returns the CSV header row.
func headerRow() []string {
	return []string{
		"id",
		"started_time", "recorded_time",
		"module_set_id", "document", "document_hash",
		"outcome", "violations", "schema_violations", "semantic_violations",
		"violation_tags", "first_violation",
		"duration_us",
		"error",
	}
}

// recordToRow converts an audit record to a CSV row.
func recordToRow(record *audit.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339Nano)
	}

	tags := ""
	if len(record.ViolationTags) > 0 {
		data, _ := json.Marshal(record.ViolationTags)
		tags = string(data)
	}

	return []string{
		record.ID,
		formatTime(record.StartedTime),
		formatTime(record.RecordedTime),
		record.ModuleSetID,
		record.Document,
		record.DocumentHash,
		string(record.Outcome),
		strconv.Itoa(record.Violations),
		strconv.Itoa(record.SchemaViolations),
		strconv.Itoa(record.SemanticViolations),
		tags,
		record.FirstViolation,
		strconv.FormatInt(record.Duration.Microseconds(), 10),
		record.Error,
	}
}

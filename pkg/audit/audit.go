package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Outcome classifies how a validation run ended.
type Outcome string

const (
	// OutcomeValid means the document satisfied every constraint.
	OutcomeValid Outcome = "valid"

	// OutcomeInvalid means validation completed and reported findings.
	OutcomeInvalid Outcome = "invalid"

	// OutcomeError means the run failed before reaching a verdict, for
	// example because the document did not parse.
	OutcomeError Outcome = "error"
)

// Record is one entry in the validation audit trail. A record captures
// what was validated, against which module set, and how the run ended.
type Record struct {
	// ID is the unique record identifier (UUID v4).
	ID string `json:"id"`

	// StartedTime is when the validation run began.
	StartedTime time.Time `json:"started_time"`

	// RecordedTime is when the record was built.
	RecordedTime time.Time `json:"recorded_time"`

	// ModuleSetID identifies the module set the document was validated
	// against.
	ModuleSetID string `json:"module_set_id"`

	// Document names the validated document, typically a file path.
	Document string `json:"document"`

	// DocumentHash is the hex-encoded SHA-256 hash of the document bytes.
	DocumentHash string `json:"document_hash,omitempty"`

	// Outcome is the verdict of the run.
	Outcome Outcome `json:"outcome"`

	// Violations is the total number of findings.
	Violations int `json:"violations"`

	// SchemaViolations counts findings against the tree structure:
	// missing or duplicate data, cardinality, unknown members.
	SchemaViolations int `json:"schema_violations"`

	// SemanticViolations counts findings against semantic rules: must,
	// unique, require-instance, value restrictions.
	SemanticViolations int `json:"semantic_violations"`

	// ViolationTags counts findings per error tag.
	ViolationTags map[string]int `json:"violation_tags,omitempty"`

	// FirstViolation holds the path and message of the first finding,
	// truncated for storage.
	FirstViolation string `json:"first_violation,omitempty"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Error describes the failure when Outcome is OutcomeError.
	Error string `json:"error,omitempty"`
}

// Query selects audit records. Zero-valued fields are ignored.
type Query struct {
	// StartTime filters records whose run started at or after this time.
	StartTime *time.Time

	// EndTime filters records whose run started at or before this time.
	EndTime *time.Time

	// ModuleSetID filters by module set.
	ModuleSetID string

	// Document filters by document name.
	Document string

	// Outcome filters by verdict.
	Outcome Outcome

	// Tag filters records whose findings include the given error tag.
	Tag string

	// MinViolations filters records with at least this many findings.
	MinViolations *int

	// MaxViolations filters records with at most this many findings.
	MaxViolations *int

	// Limit caps the number of returned records. Zero means the backend
	// default of DefaultQueryLimit.
	Limit int

	// Offset skips that many records for pagination.
	Offset int

	// SortBy selects the sort field: "started_time" (default),
	// "violations" or "duration".
	SortBy string

	// SortOrder is "asc" or "desc" (default).
	SortOrder string
}

const (
	// DefaultQueryLimit is the number of records returned when a query
	// does not set a limit.
	DefaultQueryLimit = 100

	// MaxQueryLimit is the largest allowed query limit.
	MaxQueryLimit = 10000
)

// sortFields contains the fields a query may sort by.
var sortFields = map[string]bool{
	"started_time": true,
	"violations":   true,
	"duration":     true,
}

// Validate checks the query parameters and returns a *QueryError
// describing the first invalid one.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxQueryLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxQueryLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortBy != "" && !sortFields[q.SortBy] {
		return NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start time must be before end time"))
	}
	if q.MinViolations != nil && q.MaxViolations != nil && *q.MinViolations > *q.MaxViolations {
		return NewQueryError(q, fmt.Errorf("min violations must be <= max violations"))
	}
	switch q.Outcome {
	case "", OutcomeValid, OutcomeInvalid, OutcomeError:
	default:
		return NewQueryError(q, fmt.Errorf("invalid outcome: %s", q.Outcome))
	}
	return nil
}

// Storage persists audit records.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching the query.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes the records matching the query and returns how
	// many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes audit records to an output stream.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}

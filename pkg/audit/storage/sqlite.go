package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/ganymede/pkg/audit"
)

// Config contains configuration for the SQLite storage backend.
type Config struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// DisableWAL turns off write-ahead logging.
	DisableWAL bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default SQLite configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLite implements audit.Storage using a SQLite database file.
type SQLite struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger
}

// NewSQLite creates a SQLite storage backend. It initializes the
// database schema and enables WAL mode unless disabled.
func NewSQLite(config *Config, logger *slog.Logger) (*SQLite, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLite{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite audit storage initialized",
		"path", config.Path,
		"wal", !config.DisableWAL,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and pragmas.
func (s *SQLite) initialize() error {
	if !s.config.DisableWAL {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	s.logger.Debug("schema version verified", "version", version)

	return nil
}

// Store persists an audit record to the database.
func (s *SQLite) Store(ctx context.Context, record *audit.Record) error {
	violationTags, _ := json.Marshal(record.ViolationTags)

	query := `
		INSERT INTO validation_runs (` + selectColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// NULL rather than "" for absent error text
	var errorVal interface{}
	if record.Error != "" {
		errorVal = record.Error
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.StartedTime, record.RecordedTime,
		record.ModuleSetID, record.Document, record.DocumentHash,
		string(record.Outcome), record.Violations, record.SchemaViolations, record.SemanticViolations,
		string(violationTags), record.FirstViolation,
		record.Duration.Microseconds(),
		errorVal,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves audit records matching the query filters.
func (s *SQLite) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM validation_runs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += orderClause(query)

	limit := audit.DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*audit.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of audit records matching the query filters.
func (s *SQLite) Count(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM validation_runs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes audit records matching the query filters and returns
// the number of records deleted.
func (s *SQLite) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM validation_runs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("sqlite audit storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from the query filters.
// Returns the clause without the "WHERE" keyword plus its arguments.
func buildWhereClause(query *audit.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "started_time >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_time <= ?")
		args = append(args, *query.EndTime)
	}

	if query.ModuleSetID != "" {
		conditions = append(conditions, "module_set_id = ?")
		args = append(args, query.ModuleSetID)
	}
	if query.Document != "" {
		conditions = append(conditions, "document = ?")
		args = append(args, query.Document)
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(query.Outcome))
	}

	// violation_tags holds a JSON object keyed by tag
	if query.Tag != "" {
		conditions = append(conditions, "violation_tags LIKE ?")
		args = append(args, `%"`+query.Tag+`":%`)
	}

	if query.MinViolations != nil {
		conditions = append(conditions, "violations >= ?")
		args = append(args, *query.MinViolations)
	}
	if query.MaxViolations != nil {
		conditions = append(conditions, "violations <= ?")
		args = append(args, *query.MaxViolations)
	}

	return strings.Join(conditions, " AND "), args
}

// sortColumns maps Query.SortBy values to their columns.
var sortColumns = map[string]string{
	"started_time": "started_time",
	"violations":   "violations",
	"duration":     "duration_us",
}

// orderClause builds the ORDER BY clause. The sort column comes from a
// fixed map, never from the query text itself.
func orderClause(query *audit.Query) string {
	col, ok := sortColumns[query.SortBy]
	if !ok {
		col = "started_time"
	}
	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	return " ORDER BY " + col + " " + order
}

// scanRow scans a database row into an audit.Record.
func scanRow(rows *sql.Rows) (*audit.Record, error) {
	var record audit.Record
	var outcome, violationTags string
	var durationUs int64
	var errorVal sql.NullString

	err := rows.Scan(
		&record.ID,
		&record.StartedTime, &record.RecordedTime,
		&record.ModuleSetID, &record.Document, &record.DocumentHash,
		&outcome, &record.Violations, &record.SchemaViolations, &record.SemanticViolations,
		&violationTags, &record.FirstViolation,
		&durationUs,
		&errorVal,
	)
	if err != nil {
		return nil, err
	}

	record.Outcome = audit.Outcome(outcome)
	if errorVal.Valid {
		record.Error = errorVal.String
	}
	if violationTags != "" && violationTags != "null" {
		json.Unmarshal([]byte(violationTags), &record.ViolationTags)
	}
	record.Duration = time.Duration(durationUs) * time.Microsecond

	return &record, nil
}

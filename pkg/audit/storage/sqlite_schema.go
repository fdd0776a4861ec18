package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements creating the audit database schema.
const Schema = `
-- Validation run records
CREATE TABLE IF NOT EXISTS validation_runs (
    id TEXT PRIMARY KEY,

    -- Timestamps
    started_time TIMESTAMP NOT NULL,
    recorded_time TIMESTAMP NOT NULL,

    -- Validated document
    module_set_id TEXT NOT NULL,
    document TEXT NOT NULL,
    document_hash TEXT,

    -- Verdict
    outcome TEXT NOT NULL,
    violations INTEGER NOT NULL,
    schema_violations INTEGER NOT NULL,
    semantic_violations INTEGER NOT NULL,
    violation_tags TEXT,
    first_violation TEXT,

    -- Run duration in microseconds
    duration_us INTEGER,

    -- Error info for failed runs
    error TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_started_time ON validation_runs(started_time);
CREATE INDEX IF NOT EXISTS idx_runs_module_set_id ON validation_runs(module_set_id);
CREATE INDEX IF NOT EXISTS idx_runs_document ON validation_runs(document);
CREATE INDEX IF NOT EXISTS idx_runs_outcome ON validation_runs(outcome);
CREATE INDEX IF NOT EXISTS idx_runs_violations ON validation_runs(violations);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// selectColumns lists the validation_runs columns in the order scanRow
// reads them.
const selectColumns = `
    id,
    started_time, recorded_time,
    module_set_id, document, document_hash,
    outcome, violations, schema_violations, semantic_violations,
    violation_tags, first_violation,
    duration_us,
    error`

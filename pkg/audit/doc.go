// Package audit defines the validation audit trail: one Record per
// validation run, a Storage interface for persisting records, and a
// Query type for retrieving them.
//
// Records are built with NewRecord from the outcome of a validation run
// and carry a verdict, per-tag violation counts and a document hash.
// The subpackages provide the moving parts: recorder writes records
// asynchronously, storage implements SQLite and in-memory backends,
// retention prunes old records on a cron schedule, and export renders
// records as JSON or CSV.
//
// The audit trail is an optional outer layer. Validation itself never
// depends on this package; callers that want a trail build records from
// validation results and hand them to a recorder.
package audit

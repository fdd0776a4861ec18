// Package datamodel ties the registry, schema, type and instance layers
// into one entry point.
//
// # Architecture
//
// A DataModel is built once from YANG-library metadata and a module
// loader: the registry resolves revisions, imports and features, the
// schema builder compiles the implemented modules into a tree, and the
// result is immutable. Building never returns a partial model.
//
// From there documents flow through three stages. FromRaw matches a
// decoded JSON tree against the schema and produces an immutable
// instance tree. Validate or ValidateAll walk that tree checking
// structural rules (mandatory members, list keys, cardinality, choice
// consistency) and semantic rules (must, when, uniqueness, leafref and
// instance-identifier integrity); Validate stops at the first finding,
// ValidateAll collects all of them. AddDefaults fills in schema
// defaults, producing a new tree and leaving the input untouched.
//
// The package performs no I/O and does not log; loading module text is
// the caller's concern, typically through pkg/source.
package datamodel

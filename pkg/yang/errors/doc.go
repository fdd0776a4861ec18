// Package errors defines the typed errors raised by every layer of
// ganymede: module resolution, statement parsing, type handling, schema
// construction, instance navigation and validation.
//
// Callers are expected to match on concrete types with errors.As. The
// ValidationErrorList accumulates validation findings so that a full
// report can be produced instead of stopping at the first violation.
package errors

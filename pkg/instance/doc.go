// Package instance holds data documents matched against a schema tree.
//
// # Architecture
//
// Values are persistent: objects are hash maps keyed by qualified member
// names, arrays are vectors, and every mutation returns a new value that
// shares structure with the original. A snapshot can therefore be read
// from any number of goroutines while edits build new snapshots beside
// it.
//
// Navigation is a zipper. A Handle pairs a value with the path of
// handles that produced it; moving up splices the current value back
// into the parent, so edits made at a focus surface in the root returned
// by Root without ever mutating a node in place. All navigation is pure:
// a failed move returns a typed error and leaves every handle intact.
//
// Raw decoded JSON enters through FromRaw, which checks each member
// against the schema: undeclared members, values of the wrong shape and
// malformed scalars are rejected with errors carrying a JSON pointer to
// the offending location. Handles are addressable by JSON pointers and
// by RFC 7951 instance-identifiers.
package instance

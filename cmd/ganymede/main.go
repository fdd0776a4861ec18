// Ganymede is a YANG data model toolkit: it compiles a module set into
// a schema tree and validates JSON instance documents against it.
//
// It provides:
//   - Module set compilation from a YANG library document (RFC 7895)
//   - Schema-aware linting with source coordinates
//   - Instance document validation with structured findings
//   - A validation audit trail with query, export and retention
//   - Prometheus metrics for long-running validation
//
// Usage:
//
//	# Lint the module set named by yang-library.json
//	ganymede lint --library yang-library.json --module-dir modules/
//
//	# Print the compiled schema tree
//	ganymede tree --library yang-library.json --module-dir modules/
//
//	# Validate instance documents
//	ganymede validate config.json --fill-defaults
//
//	# Keep validating as module sources change
//	ganymede validate config.json --watch
//
//	# Query the audit trail
//	ganymede audit list --time-range "2026-08-01T00:00:00Z/2026-08-25T00:00:00Z"
//
//	# Show version information
//	ganymede version
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}

// Package source locates YANG module text for the registry.
//
// The core packages never read files; they pull statement trees through
// the registry's Loader interface. This package supplies the common
// implementations behind that interface: DirSource scans directories
// laid out as "name.yang" or "name@revision.yang", MemSource holds
// registered text for tests and embedding, and Loader adapts either to
// the registry contract by parsing the located text.
//
// Watcher optionally watches the source directories and reports
// debounced change events, so long-running callers can rebuild their
// model when module files change.
package source

// Package registry maintains the set of YANG modules that make up a
// data model: which modules are implemented, which are imported for
// their definitions only, how prefixes map between them, which features
// are enabled, and how identities derive from one another.
//
// A Context is built once from RFC 7895 YANG library data plus a module
// Loader and is immutable afterwards, so it can be shared freely across
// goroutines. All name resolution questions during schema building and
// validation go through it.
//
// # Architecture
//
// Construction runs in phases: load and register every listed module
// and submodule, bind import prefixes, reject import cycles, check
// feature prerequisites, and index identities. Each phase only relies
// on the previous ones, which keeps the failure modes precise: a
// missing module surfaces as ModuleNotRegistered from prefix binding,
// never as a confusing downstream failure.
package registry

// Package schema compiles registered YANG modules into the schema tree
// used for instance matching and validation.
//
// # Architecture
//
// Build walks the statement trees of every implemented module top-down.
// For each statement it evaluates if-feature guards first, so a disabled
// node is never materialized, then computes the effective config flag by
// inheritance, expands groupings at their point of use and resolves the
// node's type. Augments are applied once all module trees exist, and a
// final phase resolves everything that may point forward or across
// modules: list keys, unique constraint paths and leafref targets.
//
// The result is a Tree of immutable Nodes. All lookups distinguish three
// outcomes: the node, a typed error for names the schema never declares,
// and quiet absence (nil, nil) for names that exist structurally but are
// not addressable the way the caller asked, such as a feature-pruned
// node or a choice addressed through a data path.
package schema

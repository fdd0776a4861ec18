// Package xpath implements the XPath 1.0 subset used by YANG must,
// when and leafref path expressions.
//
// Expressions are parsed once, with prefixes resolved to module names
// at parse time, and evaluated many times against any tree that
// implements the Node interface. The supported subset covers the child,
// parent, self, descendant and ancestor axes, the core function
// library, and the YANG additions current(), derived-from(),
// derived-from-or-self() and bit-is-set(). Constructs outside the
// subset are rejected with NotSupported rather than silently
// misevaluated.
//
// # Architecture
//
// The package is split along the classic compiler seams:
//
//   - lexer.go tokenizes, using lookbehind to tell operator names
//     (and, or, div, mod) from node tests
//   - parser.go builds an expression tree and resolves prefixes
//   - eval.go walks the tree against a Node context
//   - functions.go holds the function library
//
// The Node interface keeps this package free of any dependency on the
// instance layer; the instance layer implements it.
package xpath

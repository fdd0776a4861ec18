// Package parser turns YANG module text into the statement trees
// defined by pkg/yang/ast.
//
// The parser handles the full statement grammar of RFC 7950 section 6:
// unquoted, single-quoted and double-quoted arguments, string
// concatenation with "+", both comment forms, and extension keywords.
// It does not interpret any statement; that is the job of the registry,
// type and schema layers.
package parser

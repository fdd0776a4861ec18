// Package types implements the YANG type system: the builtin scalar
// types, typedef derivation and the restriction chains derived types
// accumulate.
//
// # Architecture
//
// A Type is an immutable descriptor of a value space. Resolver turns a
// "type" statement into a Type by following typedef derivations down to
// a builtin and applying each stage's restrictions on the way back up.
// Restrictions only ever narrow: range and length arguments are
// intersected with the previous stage, patterns accumulate, and
// enumerations and bits restrict to subsets of the base.
//
// Values share one internal representation per builtin category: int64
// for the signed widths, uint64 for the unsigned ones, Decimal for
// decimal64, string, bool, []byte for binary, []string for bits and
// yang.QName for identityref. Contains is total over any value,
// FromRaw converts decoded JSON values checking lexical shape only,
// and ParseValue converts lexical strings enforcing the full
// restriction chain.
package types

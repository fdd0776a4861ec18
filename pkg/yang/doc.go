// Package yang defines the basic vocabulary shared by every layer of
// ganymede: qualified names, YANG identifiers, prefixed names, and
// revision labels.
//
// A QName pairs a local name with the name of the module that defines
// it. Namespace qualification by module name (rather than by XML
// namespace URI) follows the RFC 7951 convention used throughout the
// data model layer.
package yang

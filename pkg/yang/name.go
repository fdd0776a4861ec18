package yang

import "strings"

// QName is a qualified name: a local name together with the name of the
// module whose schema defines it. The zero QName identifies the root of
// a schema tree.
type QName struct {
	// Name is the local name.
	Name string
	// Module is the name of the defining module. Empty means the name
	// is unqualified and inherits qualification from its context.
	Module string
}

// NewQName builds a QName from a module name and a local name.
func NewQName(module, name string) QName {
	return QName{Name: name, Module: module}
}

// String renders the qualified form "module:name", or just the local
// name when no module qualifies it.
func (q QName) String() string {
	if q.Module == "" {
		return q.Name
	}
	return q.Module + ":" + q.Name
}

// IsZero reports whether the QName is the zero value.
func (q QName) IsZero() bool {
	return q.Name == "" && q.Module == ""
}

// IsIdentifier reports whether s is a valid YANG identifier: a letter
// or underscore followed by letters, digits, underscores, hyphens and
// dots, not starting with "xml" in any case combination.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	if len(s) >= 3 {
		switch s[:3] {
		case "xml", "Xml", "xMl", "xmL", "XMl", "xML", "XmL", "XML":
			return false
		}
	}
	return true
}

// SplitPName splits a prefixed name "prefix:name" into its parts. A
// name without a colon yields an empty prefix. ok is false when either
// part is not a valid identifier or the input has more than one colon.
func SplitPName(s string) (prefix, name string, ok bool) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		if !IsIdentifier(s) {
			return "", "", false
		}
		return "", s, true
	}
	prefix, name = s[:i], s[i+1:]
	if !IsIdentifier(prefix) || !IsIdentifier(name) {
		return "", "", false
	}
	return prefix, name, true
}

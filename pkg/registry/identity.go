package registry

import "mercator-hq/ganymede/pkg/yang"

// IdentityKnown reports whether the identity is defined by a registered
// module and not pruned by a disabled feature.
func (c *Context) IdentityKnown(identity yang.QName) bool {
	_, exists := c.identities[identity]
	return exists
}

// DerivedFrom reports whether identity derives, directly or
// transitively, from base. An identity does not derive from itself.
func (c *Context) DerivedFrom(identity, base yang.QName) bool {
	visited := make(map[yang.QName]bool)
	var climb func(qn yang.QName) bool
	climb = func(qn yang.QName) bool {
		if visited[qn] {
			return false
		}
		visited[qn] = true
		for _, b := range c.identities[qn] {
			if b == base || climb(b) {
				return true
			}
		}
		return false
	}
	return climb(identity)
}

// DerivedFromOrSelf reports whether identity is base itself or derives
// from it.
func (c *Context) DerivedFromOrSelf(identity, base yang.QName) bool {
	if identity == base && c.IdentityKnown(identity) {
		return true
	}
	return c.DerivedFrom(identity, base)
}

// IdentityDerivatives returns every known identity derived from base,
// in no particular order.
func (c *Context) IdentityDerivatives(base yang.QName) []yang.QName {
	var out []yang.QName
	for qn := range c.identities {
		if c.DerivedFrom(qn, base) {
			out = append(out, qn)
		}
	}
	return out
}

package types

import (
	"strings"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
)

// IdentityrefType represents an identityref. Valid values are the
// identities derived from every declared base.
type IdentityrefType struct {
	typeBase
	ctx    *registry.Context
	mid    registry.ModuleID
	module string
	bases  []yang.QName
}

func newIdentityrefType(ctx *registry.Context, mid registry.ModuleID, bases []yang.QName) (*IdentityrefType, error) {
	main, err := ctx.ResolvePrefix("", mid)
	if err != nil {
		return nil, err
	}
	return &IdentityrefType{
		typeBase: typeBase{name: "identityref"},
		ctx:      ctx,
		mid:      mid,
		module:   main.Name,
		bases:    bases,
	}, nil
}

// Bases returns the base identities a value must derive from.
func (t *IdentityrefType) Bases() []yang.QName { return t.bases }

func (t *IdentityrefType) Contains(v any) bool {
	qn, ok := v.(yang.QName)
	if !ok || !t.ctx.IdentityKnown(qn) {
		return false
	}
	for _, base := range t.bases {
		if !t.ctx.DerivedFrom(qn, base) {
			return false
		}
	}
	return true
}

// FromRaw interprets the RFC 7951 form: the identity name, qualified
// by its defining module's name when that differs from the module
// defining this type.
func (t *IdentityrefType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	module, local := t.module, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		module, local = s[:i], s[i+1:]
	}
	qn := yang.NewQName(module, local)
	if !t.ctx.IdentityKnown(qn) {
		return nil, typeError(t, s)
	}
	return qn, nil
}

// ParseValue interprets the lexical form, with prefixes bound in the
// module that defined the type.
func (t *IdentityrefType) ParseValue(text string) (any, error) {
	qn, err := t.ctx.TranslatePName(text, t.mid)
	if err != nil || !t.Contains(qn) {
		return nil, typeError(t, text)
	}
	return qn, nil
}

func (t *IdentityrefType) CanonicalString(v any) (string, error) {
	qn, ok := v.(yang.QName)
	if !ok {
		return "", typeError(t, v)
	}
	if qn.Module == t.module {
		return qn.Name, nil
	}
	return qn.String(), nil
}

// LeafrefType represents a leafref. The target type is attached once
// the referenced schema node exists; until then the value space is
// empty.
type LeafrefType struct {
	typeBase
	path            string
	expr            *xpath.Expr
	requireInstance bool
	target          Type
}

// Path returns the original path argument.
func (t *LeafrefType) Path() string { return t.path }

// Expr returns the parsed path, with prefixes already resolved to
// module names.
func (t *LeafrefType) Expr() *xpath.Expr { return t.expr }

// RequireInstance reports whether a referenced instance must exist.
func (t *LeafrefType) RequireInstance() bool { return t.requireInstance }

// Target returns the type of the referenced leaf, once resolved.
func (t *LeafrefType) Target() Type { return t.target }

// SetTarget attaches the referenced leaf's type.
func (t *LeafrefType) SetTarget(target Type) { t.target = target }

func (t *LeafrefType) Contains(v any) bool {
	return t.target != nil && t.target.Contains(v)
}

func (t *LeafrefType) FromRaw(raw any) (any, error) {
	if t.target == nil {
		return nil, typeError(t, raw)
	}
	return t.target.FromRaw(raw)
}

func (t *LeafrefType) ParseValue(text string) (any, error) {
	if t.target == nil {
		return nil, typeError(t, text)
	}
	return t.target.ParseValue(text)
}

func (t *LeafrefType) CanonicalString(v any) (string, error) {
	if t.target == nil {
		return "", typeError(t, v)
	}
	return t.target.CanonicalString(v)
}

// InstanceIDType represents an instance-identifier. Values keep their
// lexical form; resolution against a data tree happens at validation.
type InstanceIDType struct {
	typeBase
	requireInstance bool
}

// RequireInstance reports whether the identified instance must exist.
func (t *InstanceIDType) RequireInstance() bool { return t.requireInstance }

func (t *InstanceIDType) Contains(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "/")
}

func (t *InstanceIDType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	return t.ParseValue(s)
}

func (t *InstanceIDType) ParseValue(text string) (any, error) {
	if !strings.HasPrefix(text, "/") {
		return nil, typeError(t, text)
	}
	return text, nil
}

func (t *InstanceIDType) CanonicalString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(t, v)
	}
	return s, nil
}

// UnionType represents a union. A value belongs to the first member
// type that accepts it.
type UnionType struct {
	typeBase
	members []Type
}

// Members returns the member types in declaration order.
func (t *UnionType) Members() []Type { return t.members }

func (t *UnionType) Contains(v any) bool {
	for _, m := range t.members {
		if m.Contains(v) {
			return true
		}
	}
	return false
}

func (t *UnionType) FromRaw(raw any) (any, error) {
	for _, m := range t.members {
		v, err := m.FromRaw(raw)
		if err == nil && m.Contains(v) {
			return v, nil
		}
	}
	return nil, typeError(t, raw)
}

func (t *UnionType) ParseValue(text string) (any, error) {
	for _, m := range t.members {
		if v, err := m.ParseValue(text); err == nil {
			return v, nil
		}
	}
	return nil, typeError(t, text)
}

func (t *UnionType) CanonicalString(v any) (string, error) {
	for _, m := range t.members {
		if m.Contains(v) {
			return m.CanonicalString(v)
		}
	}
	return "", typeError(t, v)
}

// Default returns the union's own default, falling back to the first
// member that declares one.
func (t *UnionType) Default() (any, bool) {
	if v, ok := t.typeBase.Default(); ok {
		return v, true
	}
	for _, m := range t.members {
		if v, ok := m.Default(); ok {
			return v, true
		}
	}
	return nil, false
}

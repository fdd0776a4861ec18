package types

import (
	"fmt"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Type describes the value space of a leaf or leaf-list.
type Type interface {
	// Name returns the builtin category the type derives from.
	Name() string

	// Units returns the units declared nearest in the derivation
	// chain, or the empty string.
	Units() string

	// Default returns the type's own default value, declared by the
	// nearest stage of the derivation chain.
	Default() (any, bool)

	// Contains reports whether v lies in the value space under every
	// restriction of the derivation chain. It is total: a value of a
	// foreign shape is simply not contained.
	Contains(v any) bool

	// FromRaw converts a decoded JSON value into the internal
	// representation, checking lexical shape only. Restrictions are
	// checked separately through Contains.
	FromRaw(raw any) (any, error)

	// ParseValue converts a lexical string into the internal
	// representation and enforces the restriction chain.
	ParseValue(text string) (any, error)

	// CanonicalString renders an internal value in its canonical
	// lexical form.
	CanonicalString(v any) (string, error)
}

// typeBase carries the attributes every type shares. Concrete types
// embed it by value; each derivation stage works on a fresh copy.
type typeBase struct {
	name    string
	units   string
	deflt   any
	hasDflt bool
}

func (b *typeBase) Name() string { return b.name }

func (b *typeBase) Units() string { return b.units }

func (b *typeBase) Default() (any, bool) { return b.deflt, b.hasDflt }

func (b *typeBase) base() *typeBase { return b }

// baseOf reaches the embedded common fields of any concrete type.
func baseOf(t Type) *typeBase {
	return t.(interface{ base() *typeBase }).base()
}

func typeError(t Type, value any) error {
	return &yangErrors.YangTypeError{Value: fmt.Sprint(value), Type: t.Name()}
}

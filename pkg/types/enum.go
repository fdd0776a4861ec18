package types

import (
	"sort"
	"strings"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// EnumType represents an enumeration. Values are the assigned names;
// the declared integer values are kept for callers that need them.
type EnumType struct {
	typeBase
	names  []string
	values map[string]int32
}

func newEnumType(stmt *ast.Statement, mid registry.ModuleID, ctx *registry.Context) (*EnumType, error) {
	enums := stmt.FindAll("enum")
	if len(enums) == 0 {
		return nil, &yangErrors.StatementNotFound{Keyword: "enum", In: "type enumeration"}
	}
	t := &EnumType{
		typeBase: typeBase{name: "enumeration"},
		values:   make(map[string]int32),
	}
	next := int32(0)
	for _, e := range enums {
		enabled, err := ctx.IfFeatures(e, mid)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		name := e.Argument
		if _, dup := t.values[name]; dup {
			return nil, &yangErrors.WrongArgument{Keyword: "enum", Argument: name, Reason: "duplicate name"}
		}
		value := next
		if text, ok := e.ArgumentOf("value"); ok {
			n, err := parseInt(text, 32)
			if err != nil {
				return nil, &yangErrors.WrongArgument{Keyword: "value", Argument: text, Reason: "not a 32-bit integer"}
			}
			value = int32(n)
		}
		t.names = append(t.names, name)
		t.values[name] = value
		if value >= next {
			next = value + 1
		}
	}
	return t, nil
}

// restrictEnum narrows an enumeration to a declared subset. Explicit
// values must repeat the base assignment.
func restrictEnum(base *EnumType, stmt *ast.Statement, mid registry.ModuleID, ctx *registry.Context) (*EnumType, error) {
	enums := stmt.FindAll("enum")
	if len(enums) == 0 {
		return base, nil
	}
	t := &EnumType{
		typeBase: base.typeBase,
		values:   make(map[string]int32),
	}
	for _, e := range enums {
		enabled, err := ctx.IfFeatures(e, mid)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		name := e.Argument
		inherited, exists := base.values[name]
		if !exists {
			return nil, &yangErrors.WrongArgument{Keyword: "enum", Argument: name, Reason: "not in the base type"}
		}
		if text, ok := e.ArgumentOf("value"); ok {
			n, err := parseInt(text, 32)
			if err != nil || int32(n) != inherited {
				return nil, &yangErrors.WrongArgument{Keyword: "value", Argument: text, Reason: "must repeat the base value"}
			}
		}
		t.names = append(t.names, name)
		t.values[name] = inherited
	}
	return t, nil
}

// Names returns the enum names in declaration order.
func (t *EnumType) Names() []string { return t.names }

// Value returns the integer assigned to an enum name.
func (t *EnumType) Value(name string) (int32, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *EnumType) Contains(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, declared := t.values[s]
	return declared
}

func (t *EnumType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	return s, nil
}

func (t *EnumType) ParseValue(text string) (any, error) {
	if _, declared := t.values[text]; !declared {
		return nil, typeError(t, text)
	}
	return text, nil
}

func (t *EnumType) CanonicalString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(t, v)
	}
	return s, nil
}

// BitsType represents a bits type. Values are slices of bit names in
// canonical order, which follows the assigned positions.
type BitsType struct {
	typeBase
	names     []string
	positions map[string]uint32
}

func newBitsType(stmt *ast.Statement, mid registry.ModuleID, ctx *registry.Context) (*BitsType, error) {
	bits := stmt.FindAll("bit")
	if len(bits) == 0 {
		return nil, &yangErrors.StatementNotFound{Keyword: "bit", In: "type bits"}
	}
	t := &BitsType{
		typeBase:  typeBase{name: "bits"},
		positions: make(map[string]uint32),
	}
	next := uint32(0)
	for _, b := range bits {
		enabled, err := ctx.IfFeatures(b, mid)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		name := b.Argument
		if _, dup := t.positions[name]; dup {
			return nil, &yangErrors.WrongArgument{Keyword: "bit", Argument: name, Reason: "duplicate name"}
		}
		position := next
		if text, ok := b.ArgumentOf("position"); ok {
			n, err := parseUint(text, 32)
			if err != nil {
				return nil, &yangErrors.WrongArgument{Keyword: "position", Argument: text, Reason: "not a 32-bit unsigned integer"}
			}
			position = uint32(n)
		}
		t.names = append(t.names, name)
		t.positions[name] = position
		if position >= next {
			next = position + 1
		}
	}
	t.sortNames()
	return t, nil
}

// restrictBits narrows a bits type to a declared subset. Explicit
// positions must repeat the base assignment.
func restrictBits(base *BitsType, stmt *ast.Statement, mid registry.ModuleID, ctx *registry.Context) (*BitsType, error) {
	bits := stmt.FindAll("bit")
	if len(bits) == 0 {
		return base, nil
	}
	t := &BitsType{
		typeBase:  base.typeBase,
		positions: make(map[string]uint32),
	}
	for _, b := range bits {
		enabled, err := ctx.IfFeatures(b, mid)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		name := b.Argument
		inherited, exists := base.positions[name]
		if !exists {
			return nil, &yangErrors.WrongArgument{Keyword: "bit", Argument: name, Reason: "not in the base type"}
		}
		if text, ok := b.ArgumentOf("position"); ok {
			n, err := parseUint(text, 32)
			if err != nil || uint32(n) != inherited {
				return nil, &yangErrors.WrongArgument{Keyword: "position", Argument: text, Reason: "must repeat the base position"}
			}
		}
		t.names = append(t.names, name)
		t.positions[name] = inherited
	}
	t.sortNames()
	return t, nil
}

func (t *BitsType) sortNames() {
	sort.Slice(t.names, func(i, j int) bool {
		return t.positions[t.names[i]] < t.positions[t.names[j]]
	})
}

// Names returns the bit names in position order.
func (t *BitsType) Names() []string { return t.names }

// Position returns the position assigned to a bit name.
func (t *BitsType) Position(name string) (uint32, bool) {
	p, ok := t.positions[name]
	return p, ok
}

func (t *BitsType) Contains(v any) bool {
	set, ok := v.([]string)
	if !ok {
		return false
	}
	seen := make(map[string]bool, len(set))
	for _, name := range set {
		if _, declared := t.positions[name]; !declared || seen[name] {
			return false
		}
		seen[name] = true
	}
	return true
}

func (t *BitsType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	return t.ParseValue(s)
}

func (t *BitsType) ParseValue(text string) (any, error) {
	fields := strings.Fields(text)
	set := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, name := range fields {
		if _, declared := t.positions[name]; !declared || seen[name] {
			return nil, typeError(t, text)
		}
		seen[name] = true
		set = append(set, name)
	}
	sort.Slice(set, func(i, j int) bool {
		return t.positions[set[i]] < t.positions[set[j]]
	})
	return set, nil
}

func (t *BitsType) CanonicalString(v any) (string, error) {
	set, ok := v.([]string)
	if !ok || !t.Contains(v) {
		return "", typeError(t, v)
	}
	ordered := append([]string(nil), set...)
	sort.Slice(ordered, func(i, j int) bool {
		return t.positions[ordered[i]] < t.positions[ordered[j]]
	})
	return strings.Join(ordered, " "), nil
}

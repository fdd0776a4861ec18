package types

import (
	"strconv"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Scope locates a type use inside module text: the chain of enclosing
// statements, innermost first and ending with the (sub)module
// statement, plus the module whose prefixes are in force. Unprefixed
// typedef names are searched through the chain lexically.
type Scope struct {
	Stmts []*ast.Statement
	MID   registry.ModuleID
}

// Enter returns the scope extended with a nested statement.
func (s Scope) Enter(stmt *ast.Statement) Scope {
	stmts := make([]*ast.Statement, 0, len(s.Stmts)+1)
	stmts = append(stmts, stmt)
	stmts = append(stmts, s.Stmts...)
	return Scope{Stmts: stmts, MID: s.MID}
}

// Resolver builds Types from "type" statements.
type Resolver struct {
	ctx *registry.Context
}

func NewResolver(ctx *registry.Context) *Resolver {
	return &Resolver{ctx: ctx}
}

// Resolve builds the effective type declared by a "type" statement,
// following typedef derivation down to a builtin and applying each
// stage's restrictions.
func (r *Resolver) Resolve(stmt *ast.Statement, scope Scope) (Type, error) {
	return r.resolve(stmt, scope, make(map[*ast.Statement]bool))
}

func (r *Resolver) resolve(stmt *ast.Statement, scope Scope, seen map[*ast.Statement]bool) (Type, error) {
	if t, ok, err := r.builtin(stmt, scope, seen); ok || err != nil {
		return t, err
	}
	base, err := r.derived(stmt.Argument, scope, seen)
	if err != nil {
		return nil, err
	}
	return r.restrict(base, stmt, scope.MID, false)
}

// derived locates the typedef a type name refers to and expands it.
func (r *Resolver) derived(name string, scope Scope, seen map[*ast.Statement]bool) (Type, error) {
	prefix, local, ok := yang.SplitPName(name)
	if !ok {
		return nil, &yangErrors.WrongArgument{Keyword: "type", Argument: name, Reason: "not a valid type name"}
	}
	own, err := r.ctx.ResolvePrefix("", scope.MID)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		target, err := r.ctx.ResolvePrefix(prefix, scope.MID)
		if err != nil {
			return nil, err
		}
		if target.Name != own.Name {
			return r.topLevel(yang.NewQName(target.Name, local), seen)
		}
	}

	// Lexical search: an unprefixed or self-prefixed name binds to the
	// nearest enclosing typedef.
	for i, enclosing := range scope.Stmts {
		if td := enclosing.FindWithArgument("typedef", local); td != nil {
			return r.expand(td, Scope{Stmts: scope.Stmts[i:], MID: scope.MID}, seen)
		}
	}
	// Fall through to the module's top level, which also covers
	// definitions in sibling submodules.
	return r.topLevel(yang.NewQName(own.Name, local), seen)
}

func (r *Resolver) topLevel(qn yang.QName, seen map[*ast.Statement]bool) (Type, error) {
	td, mid, err := r.ctx.Definition("typedef", qn)
	if err != nil {
		return nil, err
	}
	mod, err := r.ctx.Module(mid)
	if err != nil {
		return nil, err
	}
	return r.expand(td, Scope{Stmts: []*ast.Statement{mod.Statement}, MID: mid}, seen)
}

// expand resolves a typedef's own type and attaches the typedef's
// units and default. The default is parsed at this stage, after the
// typedef's restrictions but before any later ones.
func (r *Resolver) expand(td *ast.Statement, scope Scope, seen map[*ast.Statement]bool) (Type, error) {
	if seen[td] {
		return nil, &yangErrors.WrongArgument{Keyword: "typedef", Argument: td.Argument, Reason: "circular derivation"}
	}
	seen[td] = true
	defer delete(seen, td)

	typeStmt := td.Find("type")
	if typeStmt == nil {
		return nil, &yangErrors.StatementNotFound{Keyword: "type", In: "typedef " + td.Argument}
	}
	t, err := r.resolve(typeStmt, scope.Enter(td), seen)
	if err != nil {
		return nil, err
	}
	if units, ok := td.ArgumentOf("units"); ok {
		baseOf(t).units = units
	}
	if text, ok := td.ArgumentOf("default"); ok {
		v, err := t.ParseValue(text)
		if err != nil {
			return nil, err
		}
		b := baseOf(t)
		b.deflt = v
		b.hasDflt = true
	}
	return t, nil
}

var builtinNames = map[string]bool{
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"decimal64": true, "string": true, "boolean": true, "empty": true,
	"binary": true, "enumeration": true, "bits": true, "union": true,
	"identityref": true, "leafref": true, "instance-identifier": true,
}

// builtin constructs a builtin type from its introducing statement and
// applies that statement's restrictions. The second result reports
// whether the name was a builtin at all.
func (r *Resolver) builtin(stmt *ast.Statement, scope Scope, seen map[*ast.Statement]bool) (Type, bool, error) {
	name := stmt.Argument
	if !builtinNames[name] {
		return nil, false, nil
	}
	var t Type
	switch name {
	case "int8":
		t = newIntType(name, 8)
	case "int16":
		t = newIntType(name, 16)
	case "int32":
		t = newIntType(name, 32)
	case "int64":
		t = newIntType(name, 64)
	case "uint8":
		t = newUintType(name, 8)
	case "uint16":
		t = newUintType(name, 16)
	case "uint32":
		t = newUintType(name, 32)
	case "uint64":
		t = newUintType(name, 64)
	case "decimal64":
		text, ok := stmt.ArgumentOf("fraction-digits")
		if !ok {
			return nil, true, &yangErrors.StatementNotFound{Keyword: "fraction-digits", In: "type decimal64"}
		}
		scale, err := strconv.ParseUint(text, 10, 8)
		if err != nil || scale < 1 || scale > 18 {
			return nil, true, &yangErrors.WrongArgument{Keyword: "fraction-digits", Argument: text, Reason: "not in 1..18"}
		}
		t = newDecimalType(uint8(scale))
	case "string":
		t = newStringType()
	case "boolean":
		t = newBoolType()
	case "empty":
		t = newEmptyType()
	case "binary":
		t = newBinaryType()
	case "enumeration":
		et, err := newEnumType(stmt, scope.MID, r.ctx)
		if err != nil {
			return nil, true, err
		}
		t = et
	case "bits":
		bt, err := newBitsType(stmt, scope.MID, r.ctx)
		if err != nil {
			return nil, true, err
		}
		t = bt
	case "identityref":
		baseStmts := stmt.FindAll("base")
		if len(baseStmts) == 0 {
			return nil, true, &yangErrors.StatementNotFound{Keyword: "base", In: "type identityref"}
		}
		bases := make([]yang.QName, 0, len(baseStmts))
		for _, b := range baseStmts {
			qn, err := r.ctx.TranslatePName(b.Argument, scope.MID)
			if err != nil {
				return nil, true, err
			}
			bases = append(bases, qn)
		}
		it, err := newIdentityrefType(r.ctx, scope.MID, bases)
		if err != nil {
			return nil, true, err
		}
		t = it
	case "leafref":
		path, ok := stmt.ArgumentOf("path")
		if !ok {
			return nil, true, &yangErrors.StatementNotFound{Keyword: "path", In: "type leafref"}
		}
		expr, err := xpath.Parse(path, r.ctx.ModuleNameResolver(scope.MID))
		if err != nil {
			return nil, true, err
		}
		lt := &LeafrefType{
			typeBase:        typeBase{name: "leafref"},
			path:            path,
			expr:            expr,
			requireInstance: true,
		}
		if err := applyRequireInstance(stmt, &lt.requireInstance); err != nil {
			return nil, true, err
		}
		t = lt
	case "instance-identifier":
		it := &InstanceIDType{
			typeBase:        typeBase{name: "instance-identifier"},
			requireInstance: true,
		}
		if err := applyRequireInstance(stmt, &it.requireInstance); err != nil {
			return nil, true, err
		}
		t = it
	case "union":
		memberStmts := stmt.FindAll("type")
		if len(memberStmts) == 0 {
			return nil, true, &yangErrors.StatementNotFound{Keyword: "type", In: "type union"}
		}
		members := make([]Type, 0, len(memberStmts))
		for _, m := range memberStmts {
			mt, err := r.resolve(m, scope, seen)
			if err != nil {
				return nil, true, err
			}
			members = append(members, mt)
		}
		t = &UnionType{typeBase: typeBase{name: "union"}, members: members}
	}
	t, err := r.restrict(t, stmt, scope.MID, true)
	return t, true, err
}

func applyRequireInstance(stmt *ast.Statement, out *bool) error {
	text, ok := stmt.ArgumentOf("require-instance")
	if !ok {
		return nil
	}
	switch text {
	case "true":
		*out = true
	case "false":
		*out = false
	default:
		return &yangErrors.WrongArgument{Keyword: "require-instance", Argument: text, Reason: "not a boolean"}
	}
	return nil
}

// restrict applies one derivation stage's restriction statements.
// defining marks the stage that introduced the builtin, whose
// category-defining statements were consumed during construction;
// later stages may only narrow.
func (r *Resolver) restrict(base Type, stmt *ast.Statement, mid registry.ModuleID, defining bool) (Type, error) {
	switch t := base.(type) {
	case *IntType:
		arg, ok := stmt.ArgumentOf("range")
		if !ok {
			return t, nil
		}
		parts, err := parseIntRange(arg, t.parts)
		if err != nil {
			return nil, err
		}
		c := *t
		c.parts = parts
		return &c, nil

	case *UintType:
		arg, ok := stmt.ArgumentOf("range")
		if !ok {
			return t, nil
		}
		parts, err := parseUintRange("range", arg, t.parts)
		if err != nil {
			return nil, err
		}
		c := *t
		c.parts = parts
		return &c, nil

	case *DecimalType:
		if _, ok := stmt.ArgumentOf("fraction-digits"); ok && !defining {
			return nil, &yangErrors.WrongArgument{
				Keyword:  "fraction-digits",
				Argument: stmt.Argument,
				Reason:   "cannot change in a derived type",
			}
		}
		arg, ok := stmt.ArgumentOf("range")
		if !ok {
			return t, nil
		}
		parts, err := parseDecRange(arg, t.scale, t.parts)
		if err != nil {
			return nil, err
		}
		c := *t
		c.parts = parts
		return &c, nil

	case *StringType:
		patternStmts := stmt.FindAll("pattern")
		arg, hasLength := stmt.ArgumentOf("length")
		if !hasLength && len(patternStmts) == 0 {
			return t, nil
		}
		c := *t
		if hasLength {
			parts, err := parseUintRange("length", arg, t.lengths)
			if err != nil {
				return nil, err
			}
			c.lengths = parts
		}
		if len(patternStmts) > 0 {
			c.patterns = append([]pattern(nil), t.patterns...)
			for _, p := range patternStmts {
				invert := false
				if m, ok := p.ArgumentOf("modifier"); ok {
					if m != "invert-match" {
						return nil, &yangErrors.WrongArgument{Keyword: "modifier", Argument: m, Reason: "unknown modifier"}
					}
					invert = true
				}
				compiled, err := compilePattern(p.Argument, invert)
				if err != nil {
					return nil, err
				}
				c.patterns = append(c.patterns, compiled)
			}
		}
		return &c, nil

	case *BinaryType:
		arg, ok := stmt.ArgumentOf("length")
		if !ok {
			return t, nil
		}
		parts, err := parseUintRange("length", arg, t.lengths)
		if err != nil {
			return nil, err
		}
		c := *t
		c.lengths = parts
		return &c, nil

	case *EnumType:
		if defining {
			return t, nil
		}
		return restrictEnum(t, stmt, mid, r.ctx)

	case *BitsType:
		if defining {
			return t, nil
		}
		return restrictBits(t, stmt, mid, r.ctx)

	case *LeafrefType:
		if !defining {
			if _, ok := stmt.ArgumentOf("path"); ok {
				return nil, &yangErrors.WrongArgument{Keyword: "path", Argument: stmt.Argument, Reason: "cannot change in a derived type"}
			}
		}
		if _, ok := stmt.ArgumentOf("require-instance"); !ok || defining {
			return t, nil
		}
		c := *t
		if err := applyRequireInstance(stmt, &c.requireInstance); err != nil {
			return nil, err
		}
		return &c, nil

	case *InstanceIDType:
		if _, ok := stmt.ArgumentOf("require-instance"); !ok || defining {
			return t, nil
		}
		c := *t
		if err := applyRequireInstance(stmt, &c.requireInstance); err != nil {
			return nil, err
		}
		return &c, nil

	case *IdentityrefType:
		if !defining && stmt.Find("base") != nil {
			return nil, &yangErrors.WrongArgument{Keyword: "base", Argument: stmt.Argument, Reason: "cannot change in a derived type"}
		}
		return t, nil

	case *UnionType:
		if !defining && stmt.Find("type") != nil {
			return nil, &yangErrors.WrongArgument{Keyword: "type", Argument: stmt.Argument, Reason: "cannot add member types in a derived type"}
		}
		return t, nil

	default:
		return base, nil
	}
}

package types

import (
	"errors"
	"testing"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
	"mercator-hq/ganymede/pkg/yang/parser"
)

const tyModule = `module ty {
  yang-version 1.1;
  namespace "urn:example:ty";
  prefix ty;

  identity idBase;
  identity idA {
    base idBase;
  }
  identity idB {
    base idA;
  }

  typedef myint {
    type int32 {
      range "1..100";
    }
    units "seconds";
    default 42;
  }
  typedef myint2 {
    type myint {
      range "10..50";
    }
  }
  typedef myint3 {
    type myint {
      range "min..20|90..max";
    }
  }
  typedef short-str {
    type string {
      length "2..10|20..max";
      pattern "\\S(.*\\S)?";
    }
  }
  typedef loop {
    type loop2;
  }
  typedef loop2 {
    type loop;
  }

  leaf li8 { type int8 { range "-100..100"; } }
  leaf lu16 { type uint16; }
  leaf ld { type decimal64 { fraction-digits 2; range "1..3.5"; } }
  leaf ls { type short-str; }
  leaf lsi { type string { pattern "xx.*" { modifier invert-match; } } }
  leaf le { type enumeration { enum zero; enum five { value 5; } enum six; } }
  leaf lb { type bits { bit b3 { position 3; } bit b0 { position 0; } bit b1; } }
  leaf lbin { type binary { length "3..4"; } }
  leaf lbool { type boolean; }
  leaf lempty { type empty; }
  leaf lunion { type union { type myint2; type boolean; } }
  leaf lder { type myint2; }
  leaf lder3 { type myint3; }
  leaf lid { type identityref { base idBase; } }
  leaf lref { type leafref { path "../lder"; } }
  leaf linst { type instance-identifier { require-instance false; } }
  leaf lloop { type loop; }
  leaf lmissing { type nosuch; }
  leaf lbadfd { type decimal64; }
  leaf lbadrange { type int8 { range "5..1"; } }
  leaf lbadenum { type enumeration; }
}`

const tybModule = `module tyb {
  yang-version 1.1;
  namespace "urn:example:tyb";
  prefix tb;

  import ty {
    prefix t;
  }

  leaf lx { type t:myint2; }
}`

const tyLibrary = `{
  "ietf-yang-library:modules-state": {
    "module-set-id": "ty1",
    "module": [
      {"name": "ty", "namespace": "urn:example:ty", "conformance-type": "implement"},
      {"name": "tyb", "namespace": "urn:example:tyb", "conformance-type": "implement"}
    ]
  }
}`

type fixture struct {
	resolver *Resolver
	ctx      *registry.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib, err := registry.ParseLibrary([]byte(tyLibrary))
	if err != nil {
		t.Fatalf("ParseLibrary failed: %v", err)
	}
	sources := map[string]string{"ty": tyModule, "tyb": tybModule}
	loader := registry.LoaderFunc(func(name string, rev yang.Revision) (*ast.Statement, error) {
		text, ok := sources[name]
		if !ok {
			return nil, &yangErrors.ModuleNotFound{Name: name, Revision: rev}
		}
		return parser.Parse([]byte(text), name+".yang")
	})
	ctx, err := registry.NewContext(lib, loader)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return &fixture{resolver: NewResolver(ctx), ctx: ctx}
}

// leafType resolves the type of a top-level leaf in the given module.
func (f *fixture) leafType(t *testing.T, module, leaf string) (Type, error) {
	t.Helper()
	mod, err := f.ctx.ImplementedModule(module)
	if err != nil {
		t.Fatalf("ImplementedModule failed: %v", err)
	}
	leafStmt := mod.Statement.FindWithArgument("leaf", leaf)
	if leafStmt == nil {
		t.Fatalf("leaf %s not in module %s", leaf, module)
	}
	scope := Scope{Stmts: []*ast.Statement{mod.Statement}, MID: mod.ID}
	return f.resolver.Resolve(leafStmt.Find("type"), scope)
}

func (f *fixture) mustLeafType(t *testing.T, module, leaf string) Type {
	t.Helper()
	tp, err := f.leafType(t, module, leaf)
	if err != nil {
		t.Fatalf("resolving type of %s failed: %v", leaf, err)
	}
	return tp
}

func TestIntegerTypes(t *testing.T) {
	f := newFixture(t)

	i8 := f.mustLeafType(t, "ty", "li8")
	tests := []struct {
		v    int64
		want bool
	}{
		{v: 100, want: true},
		{v: -100, want: true},
		{v: 101, want: false},
		{v: -101, want: false},
		{v: 0, want: true},
	}
	for _, tt := range tests {
		if got := i8.Contains(tt.v); got != tt.want {
			t.Errorf("int8.Contains(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if i8.Contains("100") {
		t.Error("int8.Contains accepted a string")
	}

	v, err := i8.ParseValue("0x10")
	if err != nil || v != int64(16) {
		t.Errorf("ParseValue(0x10) = %v, %v", v, err)
	}
	if _, err := i8.ParseValue("200"); err == nil {
		t.Error("ParseValue(200) succeeded for restricted int8")
	}

	// FromRaw checks the width only; the declared range is left to
	// Contains.
	v, err = i8.FromRaw("-120")
	if err != nil || v != int64(-120) {
		t.Errorf("FromRaw(-120) = %v, %v", v, err)
	}
	if i8.Contains(v) {
		t.Error("Contains(-120) = true outside the declared range")
	}
	if _, err := i8.FromRaw("200"); err == nil {
		t.Error("FromRaw(200) succeeded beyond int8 width")
	}
	if v, err := i8.FromRaw(float64(64)); err != nil || v != int64(64) {
		t.Errorf("FromRaw(64.0) = %v, %v", v, err)
	}
	if _, err := i8.FromRaw(float64(1.5)); err == nil {
		t.Error("FromRaw(1.5) succeeded")
	}

	u16 := f.mustLeafType(t, "ty", "lu16")
	if !u16.Contains(uint64(65535)) || u16.Contains(uint64(65536)) {
		t.Error("uint16 width bounds wrong")
	}
	if _, err := u16.FromRaw("-1"); err == nil {
		t.Error("FromRaw(-1) succeeded for uint16")
	}
	s, err := u16.CanonicalString(uint64(7))
	if err != nil || s != "7" {
		t.Errorf("CanonicalString = %q, %v", s, err)
	}
}

func TestDerivedChain(t *testing.T) {
	f := newFixture(t)

	der := f.mustLeafType(t, "ty", "lder")
	if der.Name() != "int32" {
		t.Errorf("Name = %q, want int32", der.Name())
	}
	if der.Units() != "seconds" {
		t.Errorf("Units = %q, want seconds", der.Units())
	}
	if v, ok := der.Default(); !ok || v != int64(42) {
		t.Errorf("Default = %v, %v", v, ok)
	}

	// Both stages restrict: the effective range is the intersection.
	for v, want := range map[int64]bool{45: true, 10: true, 50: true, 5: false, 101: false, 0: false} {
		if got := der.Contains(v); got != want {
			t.Errorf("Contains(%d) = %v, want %v", v, got, want)
		}
	}
	if _, err := der.ParseValue("60"); err == nil {
		t.Error("ParseValue(60) succeeded outside the derived range")
	}

	// min and max refer to the previous stage's bounds.
	der3 := f.mustLeafType(t, "ty", "lder3")
	for v, want := range map[int64]bool{1: true, 15: true, 20: true, 50: false, 90: true, 100: true, 101: false} {
		if got := der3.Contains(v); got != want {
			t.Errorf("myint3.Contains(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestCrossModuleTypedef(t *testing.T) {
	f := newFixture(t)

	x := f.mustLeafType(t, "tyb", "lx")
	if !x.Contains(int64(45)) || x.Contains(int64(5)) {
		t.Error("cross-module typedef range wrong")
	}
	if x.Units() != "seconds" {
		t.Errorf("Units = %q", x.Units())
	}
	if v, ok := x.Default(); !ok || v != int64(42) {
		t.Errorf("Default = %v, %v", v, ok)
	}
}

func TestDecimalType(t *testing.T) {
	f := newFixture(t)

	d := f.mustLeafType(t, "ty", "ld").(*DecimalType)
	if d.Scale() != 2 {
		t.Fatalf("Scale = %d, want 2", d.Scale())
	}

	v, err := d.ParseValue("2.50")
	if err != nil || v != (Decimal{V: 250, S: 2}) {
		t.Errorf("ParseValue(2.50) = %v, %v", v, err)
	}
	s, err := d.CanonicalString(v)
	if err != nil || s != "2.5" {
		t.Errorf("CanonicalString = %q, %v", s, err)
	}

	// Excess fraction digits are truncated before the range check.
	v, err = d.ParseValue("3.509")
	if err != nil || v != (Decimal{V: 350, S: 2}) {
		t.Errorf("ParseValue(3.509) = %v, %v", v, err)
	}

	for _, bad := range []string{"3.51", "0.99", "abc", "1..2"} {
		if _, err := d.ParseValue(bad); err == nil {
			t.Errorf("ParseValue(%q) succeeded", bad)
		}
	}

	// FromRaw is lexical only.
	v, err = d.FromRaw("0.5")
	if err != nil || v != (Decimal{V: 50, S: 2}) {
		t.Errorf("FromRaw(0.5) = %v, %v", v, err)
	}
	if d.Contains(v) {
		t.Error("Contains(0.5) = true below the declared range")
	}
	if d.Contains(Decimal{V: 100, S: 3}) {
		t.Error("Contains accepted a value of a different scale")
	}
	if d.Contains(int64(2)) {
		t.Error("Contains accepted an integer")
	}
}

func TestDecimalValue(t *testing.T) {
	pi, err := ParseDecimal("3.141592653589793238", 18)
	if err != nil {
		t.Fatalf("ParseDecimal failed: %v", err)
	}
	if pi.String() != "3.141592653589793238" {
		t.Errorf("String = %q", pi.String())
	}
	truncated, err := ParseDecimal("3.14159265358979323846264338327950288", 18)
	if err != nil || truncated != pi {
		t.Errorf("truncation = %v, %v, want %v", truncated, err, pi)
	}

	tests := []struct {
		text  string
		scale uint8
		want  string
	}{
		{text: "-0.50", scale: 2, want: "-0.5"},
		{text: "3.00", scale: 2, want: "3.0"},
		{text: "10", scale: 1, want: "10.0"},
		{text: "+7.5", scale: 1, want: "7.5"},
		{text: "007.5", scale: 1, want: "7.5"},
	}
	for _, tt := range tests {
		d, err := ParseDecimal(tt.text, tt.scale)
		if err != nil {
			t.Errorf("ParseDecimal(%q) failed: %v", tt.text, err)
			continue
		}
		if d.String() != tt.want {
			t.Errorf("ParseDecimal(%q).String() = %q, want %q", tt.text, d.String(), tt.want)
		}
	}

	for _, bad := range []string{"", ".", "1.", ".5", "1.2.3", "x", "10000000000000000000", "1e3"} {
		if _, err := ParseDecimal(bad, 2); err == nil {
			t.Errorf("ParseDecimal(%q) succeeded", bad)
		}
	}

	a, _ := ParseDecimal("1.5", 1)
	b, _ := ParseDecimal("1.50", 2)
	if a.Cmp(b) != 0 {
		t.Error("1.5 != 1.50 across scales")
	}
	c, _ := ParseDecimal("0.5", 1)
	if c.Cmp(a) != -1 || a.Cmp(c) != 1 {
		t.Error("0.5 vs 1.5 ordering wrong")
	}
	neg, _ := ParseDecimal("-2.5", 1)
	if neg.Cmp(c) != -1 {
		t.Error("-2.5 vs 0.5 ordering wrong")
	}
}

func TestStringTypes(t *testing.T) {
	f := newFixture(t)

	s := f.mustLeafType(t, "ty", "ls")
	tests := []struct {
		v    string
		want bool
	}{
		{v: "hi", want: true},
		{v: "h", want: false},
		{v: "hello world", want: false},
		{v: "aaaaaaaaaaaaaaaaaaaa", want: true},
		{v: " hi", want: false},
		{v: "hi ", want: false},
		{v: "9 \tx", want: true},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.v); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if _, err := s.ParseValue("h"); err == nil {
		t.Error("ParseValue(h) succeeded under min length")
	}

	inv := f.mustLeafType(t, "ty", "lsi")
	if inv.Contains("xxabc") {
		t.Error("invert-match pattern accepted an excluded value")
	}
	if !inv.Contains("abc") {
		t.Error("invert-match pattern rejected an allowed value")
	}
}

func TestEnumType(t *testing.T) {
	f := newFixture(t)

	e := f.mustLeafType(t, "ty", "le").(*EnumType)
	if got := e.Names(); len(got) != 3 || got[0] != "zero" || got[1] != "five" || got[2] != "six" {
		t.Errorf("Names = %v", got)
	}
	for name, want := range map[string]int32{"zero": 0, "five": 5, "six": 6} {
		if v, ok := e.Value(name); !ok || v != want {
			t.Errorf("Value(%s) = %d, %v, want %d", name, v, ok, want)
		}
	}
	if v, err := e.ParseValue("five"); err != nil || v != "five" {
		t.Errorf("ParseValue(five) = %v, %v", v, err)
	}
	if _, err := e.ParseValue("two"); err == nil {
		t.Error("ParseValue(two) succeeded")
	}
	if _, err := e.FromRaw(3.0); err == nil {
		t.Error("FromRaw(3.0) succeeded for an enumeration")
	}
}

func TestBitsType(t *testing.T) {
	f := newFixture(t)

	b := f.mustLeafType(t, "ty", "lb").(*BitsType)
	if got := b.Names(); len(got) != 3 || got[0] != "b0" || got[1] != "b3" || got[2] != "b1" {
		t.Errorf("Names = %v", got)
	}
	if p, ok := b.Position("b1"); !ok || p != 4 {
		t.Errorf("Position(b1) = %d, %v, want 4", p, ok)
	}

	v, err := b.ParseValue("b3 b0")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	set := v.([]string)
	if len(set) != 2 || set[0] != "b0" || set[1] != "b3" {
		t.Errorf("canonical order = %v", set)
	}
	s, err := b.CanonicalString(v)
	if err != nil || s != "b0 b3" {
		t.Errorf("CanonicalString = %q, %v", s, err)
	}

	if _, err := b.ParseValue("b0 b0"); err == nil {
		t.Error("duplicate bit accepted")
	}
	if _, err := b.ParseValue("bX"); err == nil {
		t.Error("undeclared bit accepted")
	}
}

func TestBinaryType(t *testing.T) {
	f := newFixture(t)

	b := f.mustLeafType(t, "ty", "lbin")
	v, err := b.ParseValue("YWJj")
	if err != nil || string(v.([]byte)) != "abc" {
		t.Errorf("ParseValue = %v, %v", v, err)
	}
	if _, err := b.ParseValue("YWJjZGU="); err == nil {
		t.Error("5-byte value accepted beyond length 3..4")
	}
	if _, err := b.FromRaw("!!!"); err == nil {
		t.Error("malformed base64 accepted")
	}
	s, err := b.CanonicalString([]byte("abc"))
	if err != nil || s != "YWJj" {
		t.Errorf("CanonicalString = %q, %v", s, err)
	}
}

func TestBoolAndEmpty(t *testing.T) {
	f := newFixture(t)

	bl := f.mustLeafType(t, "ty", "lbool")
	if v, err := bl.ParseValue("true"); err != nil || v != true {
		t.Errorf("ParseValue(true) = %v, %v", v, err)
	}
	if _, err := bl.ParseValue("TRUE"); err == nil {
		t.Error("ParseValue(TRUE) succeeded")
	}
	if v, err := bl.FromRaw(true); err != nil || v != true {
		t.Errorf("FromRaw(true) = %v, %v", v, err)
	}

	em := f.mustLeafType(t, "ty", "lempty")
	if v, err := em.ParseValue(""); err != nil || v != (Empty{}) {
		t.Errorf("ParseValue empty = %v, %v", v, err)
	}
	if v, err := em.FromRaw([]any{nil}); err != nil || v != (Empty{}) {
		t.Errorf("FromRaw([null]) = %v, %v", v, err)
	}
	if _, err := em.FromRaw([]any{"x"}); err == nil {
		t.Error("FromRaw([x]) succeeded")
	}
}

func TestUnionType(t *testing.T) {
	f := newFixture(t)

	u := f.mustLeafType(t, "ty", "lunion")
	if v, err := u.ParseValue("20"); err != nil || v != int64(20) {
		t.Errorf("ParseValue(20) = %v, %v", v, err)
	}
	if v, err := u.ParseValue("true"); err != nil || v != true {
		t.Errorf("ParseValue(true) = %v, %v", v, err)
	}
	// 7 misses the integer member's range and is not a boolean.
	if _, err := u.ParseValue("7"); err == nil {
		t.Error("ParseValue(7) succeeded")
	}
	if !u.Contains(int64(20)) || !u.Contains(true) || u.Contains("x") {
		t.Error("union membership wrong")
	}
	// The type's own chain has no default; the first member's is used.
	if v, ok := u.Default(); !ok || v != int64(42) {
		t.Errorf("Default = %v, %v", v, ok)
	}
}

func TestIdentityrefType(t *testing.T) {
	f := newFixture(t)

	id := f.mustLeafType(t, "ty", "lid")
	v, err := id.ParseValue("idA")
	if err != nil || v != yang.NewQName("ty", "idA") {
		t.Errorf("ParseValue(idA) = %v, %v", v, err)
	}
	if v, err := id.ParseValue("ty:idB"); err != nil || v != yang.NewQName("ty", "idB") {
		t.Errorf("ParseValue(ty:idB) = %v, %v", v, err)
	}
	// The base itself is not a valid value.
	if _, err := id.ParseValue("idBase"); err == nil {
		t.Error("ParseValue(idBase) succeeded")
	}

	if v, err := id.FromRaw("ty:idA"); err != nil || v != yang.NewQName("ty", "idA") {
		t.Errorf("FromRaw(ty:idA) = %v, %v", v, err)
	}
	if _, err := id.FromRaw("nosuch"); err == nil {
		t.Error("FromRaw(nosuch) succeeded")
	}

	if !id.Contains(yang.NewQName("ty", "idA")) || id.Contains(yang.NewQName("ty", "idBase")) {
		t.Error("identityref membership wrong")
	}
	s, err := id.CanonicalString(yang.NewQName("ty", "idA"))
	if err != nil || s != "idA" {
		t.Errorf("CanonicalString = %q, %v", s, err)
	}
}

func TestLeafrefType(t *testing.T) {
	f := newFixture(t)

	lr := f.mustLeafType(t, "ty", "lref").(*LeafrefType)
	if !lr.RequireInstance() {
		t.Error("RequireInstance defaulted to false")
	}
	steps, absolute, ok := lr.Expr().LocationSteps()
	if !ok || absolute || len(steps) != 2 {
		t.Fatalf("LocationSteps = %v, %v, %v", steps, absolute, ok)
	}
	if !steps[0].Up || steps[1].Name != yang.NewQName("ty", "lder") {
		t.Errorf("steps = %v", steps)
	}

	if _, err := lr.ParseValue("45"); err == nil {
		t.Error("ParseValue succeeded before target resolution")
	}
	lr.SetTarget(f.mustLeafType(t, "ty", "lder"))
	if v, err := lr.ParseValue("45"); err != nil || v != int64(45) {
		t.Errorf("ParseValue(45) = %v, %v", v, err)
	}
	if !lr.Contains(int64(45)) || lr.Contains(int64(5)) {
		t.Error("leafref delegation wrong")
	}
}

func TestInstanceIDType(t *testing.T) {
	f := newFixture(t)

	ii := f.mustLeafType(t, "ty", "linst").(*InstanceIDType)
	if ii.RequireInstance() {
		t.Error("require-instance false not honored")
	}
	if v, err := ii.ParseValue("/ty:lder"); err != nil || v != "/ty:lder" {
		t.Errorf("ParseValue = %v, %v", v, err)
	}
	if _, err := ii.ParseValue("no-slash"); err == nil {
		t.Error("relative instance-identifier accepted")
	}
}

func TestResolveErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.leafType(t, "ty", "lloop")
	var wrongArg *yangErrors.WrongArgument
	if !errors.As(err, &wrongArg) {
		t.Errorf("circular typedef error = %v, want WrongArgument", err)
	}

	_, err = f.leafType(t, "ty", "lmissing")
	var notFound *yangErrors.DefinitionNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("missing typedef error = %v, want DefinitionNotFound", err)
	}

	_, err = f.leafType(t, "ty", "lbadfd")
	var missingStmt *yangErrors.StatementNotFound
	if !errors.As(err, &missingStmt) {
		t.Errorf("decimal64 without fraction-digits error = %v, want StatementNotFound", err)
	}

	_, err = f.leafType(t, "ty", "lbadrange")
	if !errors.As(err, &wrongArg) {
		t.Errorf("descending range error = %v, want WrongArgument", err)
	}

	_, err = f.leafType(t, "ty", "lbadenum")
	if !errors.As(err, &missingStmt) {
		t.Errorf("empty enumeration error = %v, want StatementNotFound", err)
	}

	// A restriction on a restricted value that fails at parse time
	// keeps the error taxonomy: YangTypeError.
	d := f.mustLeafType(t, "ty", "ld")
	_, err = d.ParseValue("99")
	var typeErr *yangErrors.YangTypeError
	if !errors.As(err, &typeErr) {
		t.Errorf("out-of-range error = %v, want YangTypeError", err)
	}
}

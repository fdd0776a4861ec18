package xpath

import (
	"math"
	"strings"

	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

type funcImpl func(c *context, args []Value) (Value, error)

type funcSpec struct {
	minArgs int
	maxArgs int // -1 means variadic
	impl    funcImpl
}

// functions is the supported function library: the XPath 1.0 core
// functions that make sense without attributes or namespaces, plus the
// YANG additions from RFC 7950 section 10.
var functions = map[string]funcSpec{
	"last":                 {0, 0, fnLast},
	"position":             {0, 0, fnPosition},
	"count":                {1, 1, fnCount},
	"current":              {0, 0, fnCurrent},
	"name":                 {0, 1, fnName},
	"local-name":           {0, 1, fnLocalName},
	"string":               {0, 1, fnString},
	"number":               {0, 1, fnNumber},
	"boolean":              {1, 1, fnBoolean},
	"not":                  {1, 1, fnNot},
	"true":                 {0, 0, fnTrue},
	"false":                {0, 0, fnFalse},
	"concat":               {2, -1, fnConcat},
	"contains":             {2, 2, fnContains},
	"starts-with":          {2, 2, fnStartsWith},
	"string-length":        {0, 1, fnStringLength},
	"substring":            {2, 3, fnSubstring},
	"substring-before":     {2, 2, fnSubstringBefore},
	"substring-after":      {2, 2, fnSubstringAfter},
	"normalize-space":      {0, 1, fnNormalizeSpace},
	"translate":            {3, 3, fnTranslate},
	"floor":                {1, 1, fnFloor},
	"ceiling":              {1, 1, fnCeiling},
	"round":                {1, 1, fnRound},
	"sum":                  {1, 1, fnSum},
	"derived-from":         {2, 2, fnDerivedFrom},
	"derived-from-or-self": {2, 2, fnDerivedFromOrSelf},
	"bit-is-set":           {2, 2, fnBitIsSet},
}

func fnLast(c *context, _ []Value) (Value, error) {
	return Number(c.size), nil
}

func fnPosition(c *context, _ []Value) (Value, error) {
	return Number(c.pos), nil
}

func fnCount(_ *context, args []Value) (Value, error) {
	ns, ok := args[0].(NodeSet)
	if !ok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: args[0].kind()}
	}
	return Number(len(ns)), nil
}

func fnCurrent(c *context, _ []Value) (Value, error) {
	return NodeSet{c.origin}, nil
}

func fnName(c *context, args []Value) (Value, error) {
	qn, err := argNodeName(c, args)
	if err != nil {
		return nil, err
	}
	return String(qn.String()), nil
}

func fnLocalName(c *context, args []Value) (Value, error) {
	qn, err := argNodeName(c, args)
	if err != nil {
		return nil, err
	}
	return String(qn.Name), nil
}

func argNodeName(c *context, args []Value) (yang.QName, error) {
	if len(args) == 0 {
		return c.node.Name(), nil
	}
	ns, ok := args[0].(NodeSet)
	if !ok {
		return yang.QName{}, &yangErrors.XPathTypeError{Expected: "node-set", Actual: args[0].kind()}
	}
	if len(ns) == 0 {
		return yang.QName{}, nil
	}
	return ns[0].Name(), nil
}

func fnString(c *context, args []Value) (Value, error) {
	if len(args) == 0 {
		return String(c.node.StringValue()), nil
	}
	return String(args[0].String()), nil
}

func fnNumber(c *context, args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(stringToNumber(c.node.StringValue())), nil
	}
	return Number(args[0].Number()), nil
}

func fnBoolean(_ *context, args []Value) (Value, error) {
	return Boolean(args[0].Boolean()), nil
}

func fnNot(_ *context, args []Value) (Value, error) {
	return Boolean(!args[0].Boolean()), nil
}

func fnTrue(*context, []Value) (Value, error) { return Boolean(true), nil }

func fnFalse(*context, []Value) (Value, error) { return Boolean(false), nil }

func fnConcat(_ *context, args []Value) (Value, error) {
	var sb strings.Builder
	for _, arg := range args {
		sb.WriteString(arg.String())
	}
	return String(sb.String()), nil
}

func fnContains(_ *context, args []Value) (Value, error) {
	return Boolean(strings.Contains(args[0].String(), args[1].String())), nil
}

func fnStartsWith(_ *context, args []Value) (Value, error) {
	return Boolean(strings.HasPrefix(args[0].String(), args[1].String())), nil
}

func fnStringLength(c *context, args []Value) (Value, error) {
	s := c.node.StringValue()
	if len(args) > 0 {
		s = args[0].String()
	}
	return Number(len([]rune(s))), nil
}

// fnSubstring implements the XPath substring() rounding rules, which
// make substring("12345", 1.5, 2.6) return "234".
func fnSubstring(_ *context, args []Value) (Value, error) {
	runes := []rune(args[0].String())
	start := args[1].Number()
	end := math.Inf(1)
	if len(args) == 3 {
		end = xpathRound(start) + xpathRound(args[2].Number())
	}
	start = xpathRound(start)

	var sb strings.Builder
	for i, r := range runes {
		pos := float64(i + 1)
		if pos >= start && pos < end {
			sb.WriteRune(r)
		}
	}
	return String(sb.String()), nil
}

func fnSubstringBefore(_ *context, args []Value) (Value, error) {
	s, sub := args[0].String(), args[1].String()
	if i := strings.Index(s, sub); i >= 0 {
		return String(s[:i]), nil
	}
	return String(""), nil
}

func fnSubstringAfter(_ *context, args []Value) (Value, error) {
	s, sub := args[0].String(), args[1].String()
	if i := strings.Index(s, sub); i >= 0 {
		return String(s[i+len(sub):]), nil
	}
	return String(""), nil
}

func fnNormalizeSpace(c *context, args []Value) (Value, error) {
	s := c.node.StringValue()
	if len(args) > 0 {
		s = args[0].String()
	}
	return String(strings.Join(strings.Fields(s), " ")), nil
}

func fnTranslate(_ *context, args []Value) (Value, error) {
	s := args[0].String()
	from := []rune(args[1].String())
	to := []rune(args[2].String())

	mapping := make(map[rune]rune, len(from))
	remove := make(map[rune]bool)
	for i, r := range from {
		if _, dup := mapping[r]; dup || remove[r] {
			continue
		}
		if i < len(to) {
			mapping[r] = to[i]
		} else {
			remove[r] = true
		}
	}

	var sb strings.Builder
	for _, r := range s {
		if remove[r] {
			continue
		}
		if repl, ok := mapping[r]; ok {
			sb.WriteRune(repl)
			continue
		}
		sb.WriteRune(r)
	}
	return String(sb.String()), nil
}

func fnFloor(_ *context, args []Value) (Value, error) {
	return Number(math.Floor(args[0].Number())), nil
}

func fnCeiling(_ *context, args []Value) (Value, error) {
	return Number(math.Ceil(args[0].Number())), nil
}

func fnRound(_ *context, args []Value) (Value, error) {
	return Number(xpathRound(args[0].Number())), nil
}

// xpathRound rounds half towards positive infinity, per XPath round().
func xpathRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

func fnSum(_ *context, args []Value) (Value, error) {
	ns, ok := args[0].(NodeSet)
	if !ok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: args[0].kind()}
	}
	total := 0.0
	for _, n := range ns {
		total += stringToNumber(n.StringValue())
	}
	return Number(total), nil
}

func fnDerivedFrom(c *context, args []Value) (Value, error) {
	return derivedFrom(c, args, false)
}

func fnDerivedFromOrSelf(c *context, args []Value) (Value, error) {
	return derivedFrom(c, args, true)
}

func derivedFrom(c *context, args []Value, orSelf bool) (Value, error) {
	if c.env == nil || c.env.DerivedFrom == nil {
		return nil, &yangErrors.NotSupported{Construct: "derived-from() without identity context"}
	}
	ns, ok := args[0].(NodeSet)
	if !ok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: args[0].kind()}
	}
	base := args[1].String()

	for _, n := range ns {
		value := n.StringValue()
		baseQN := qnameFromString(base, n.Name().Module)
		if orSelf && value == baseQN.String() {
			return Boolean(true), nil
		}
		if c.env.DerivedFrom(value, baseQN) {
			return Boolean(true), nil
		}
	}
	return Boolean(false), nil
}

// fnBitIsSet tests the first node of the set, per RFC 7950 section
// 10.6.1.
func fnBitIsSet(_ *context, args []Value) (Value, error) {
	ns, ok := args[0].(NodeSet)
	if !ok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: args[0].kind()}
	}
	if len(ns) == 0 {
		return Boolean(false), nil
	}
	name := args[1].String()
	for _, bit := range strings.Fields(ns[0].StringValue()) {
		if bit == name {
			return Boolean(true), nil
		}
	}
	return Boolean(false), nil
}

// qnameFromString parses "module:name", defaulting the module to
// fallback for unqualified names.
func qnameFromString(s, fallback string) yang.QName {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return yang.NewQName(s[:i], s[i+1:])
	}
	return yang.NewQName(fallback, s)
}

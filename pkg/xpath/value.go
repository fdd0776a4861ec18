package xpath

import (
	"math"
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression: a boolean, a number,
// a string or a node-set, with the XPath 1.0 conversion rules between
// them.
type Value interface {
	// Boolean converts the value per the XPath boolean() rules.
	Boolean() bool
	// Number converts the value per the XPath number() rules.
	Number() float64
	// String converts the value per the XPath string() rules.
	String() string

	kind() string
}

// Boolean is an XPath boolean value.
type Boolean bool

func (v Boolean) Boolean() bool { return bool(v) }

func (v Boolean) Number() float64 {
	if v {
		return 1
	}
	return 0
}

func (v Boolean) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v Boolean) kind() string { return "boolean" }

// Number is an XPath number value.
type Number float64

func (v Number) Boolean() bool {
	f := float64(v)
	return f != 0 && !math.IsNaN(f)
}

func (v Number) Number() float64 { return float64(v) }

func (v Number) String() string { return formatNumber(float64(v)) }

func (v Number) kind() string { return "number" }

// String is an XPath string value.
type String string

func (v String) Boolean() bool { return len(v) > 0 }

func (v String) Number() float64 { return stringToNumber(string(v)) }

func (v String) String() string { return string(v) }

func (v String) kind() string { return "string" }

// NodeSet is an XPath node-set in document order.
type NodeSet []Node

func (v NodeSet) Boolean() bool { return len(v) > 0 }

func (v NodeSet) Number() float64 { return stringToNumber(v.String()) }

// String returns the string-value of the first node, or the empty
// string for an empty set.
func (v NodeSet) String() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].StringValue()
}

func (v NodeSet) kind() string { return "node-set" }

// formatNumber renders a number the way XPath string() does: no
// exponent notation, integers without a decimal point.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stringToNumber parses a number the way XPath number() does: optional
// sign, digits, optional fraction, surrounded by optional whitespace.
// Anything else is NaN, including forms ParseFloat would accept such as
// exponent notation and named infinities.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	body := strings.TrimPrefix(s, "-")
	if body == "" || body == "." {
		return math.NaN()
	}
	seenDot := false
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !seenDot:
			seenDot = true
		default:
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

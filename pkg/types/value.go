package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimal is an exact decimal64 value: the integer V scaled down by
// 10^S. Two decimals of the same scale compare by V alone.
type Decimal struct {
	V int64
	S uint8
}

// ParseDecimal parses the lexical form of a decimal64 value at the
// given scale. Fraction digits beyond the scale are truncated toward
// zero.
func ParseDecimal(text string, scale uint8) (Decimal, error) {
	if scale < 1 || scale > 18 {
		return Decimal{}, fmt.Errorf("decimal scale %d out of 1..18", scale)
	}
	s := text
	sign := ""
	switch {
	case strings.HasPrefix(s, "-"):
		sign = "-"
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || !isDigits(intPart) {
		return Decimal{}, fmt.Errorf("malformed decimal %q", text)
	}
	if hasDot && (fracPart == "" || !isDigits(fracPart)) {
		return Decimal{}, fmt.Errorf("malformed decimal %q", text)
	}
	if len(fracPart) > int(scale) {
		fracPart = fracPart[:scale]
	}
	fracPart += strings.Repeat("0", int(scale)-len(fracPart))
	v, err := strconv.ParseInt(sign+intPart+fracPart, 10, 64)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal %q out of 64-bit range at scale %d", text, scale)
	}
	return Decimal{V: v, S: scale}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// split returns the absolute integer and fraction digit strings. The
// fraction has exactly S digits.
func (d Decimal) split() (string, string) {
	digits := strconv.FormatInt(d.V, 10)
	digits = strings.TrimPrefix(digits, "-")
	for len(digits) <= int(d.S) {
		digits = "0" + digits
	}
	n := len(digits) - int(d.S)
	return digits[:n], digits[n:]
}

// String renders the canonical form: no leading or trailing zeros,
// with at least one digit on each side of the point.
func (d Decimal) String() string {
	intPart, fracPart := d.split()
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		fracPart = "0"
	}
	s := intPart + "." + fracPart
	if d.V < 0 {
		s = "-" + s
	}
	return s
}

// Cmp compares two decimals exactly, returning -1, 0 or 1. The scales
// may differ.
func (d Decimal) Cmp(o Decimal) int {
	dNeg, oNeg := d.V < 0, o.V < 0
	if dNeg != oNeg {
		if dNeg {
			return -1
		}
		return 1
	}
	dInt, dFrac := d.split()
	oInt, oFrac := o.split()
	for len(dFrac) < len(oFrac) {
		dFrac += "0"
	}
	for len(oFrac) < len(dFrac) {
		oFrac += "0"
	}
	c := cmpDigits(strings.TrimLeft(dInt, "0")+dFrac, strings.TrimLeft(oInt, "0")+oFrac)
	if dNeg {
		return -c
	}
	return c
}

// cmpDigits compares two digit strings numerically. Leading zeros must
// already be trimmed from the integer portions.
func cmpDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Float returns the nearest float64, for expression evaluation. The
// conversion may lose precision.
func (d Decimal) Float() float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

// Empty is the single value of the empty type.
type Empty struct{}

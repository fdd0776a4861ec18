package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// IntType represents the signed integer builtins int8 through int64.
// Values are held as int64 regardless of width.
type IntType struct {
	typeBase
	bits  uint
	parts []intPart
}

func newIntType(name string, bits uint) *IntType {
	return &IntType{
		typeBase: typeBase{name: name},
		bits:     bits,
		parts:    []intPart{{minInt(bits), maxInt(bits)}},
	}
}

func (t *IntType) Contains(v any) bool {
	n, ok := v.(int64)
	return ok && inIntParts(t.parts, n)
}

func (t *IntType) FromRaw(raw any) (any, error) {
	switch r := raw.(type) {
	case string:
		n, err := strconv.ParseInt(r, 10, int(t.bits))
		if err != nil {
			return nil, typeError(t, r)
		}
		return n, nil
	case json.Number:
		return t.FromRaw(string(r))
	case float64:
		// Width bounds as exact powers of two, so the conversion
		// below never overflows.
		hi := math.Ldexp(1, int(t.bits)-1)
		if r != math.Trunc(r) || r < -hi || r >= hi {
			return nil, typeError(t, r)
		}
		return int64(r), nil
	default:
		return nil, typeError(t, raw)
	}
}

func (t *IntType) ParseValue(text string) (any, error) {
	n, err := parseInt(text, t.bits)
	if err != nil || !inIntParts(t.parts, n) {
		return nil, typeError(t, text)
	}
	return n, nil
}

func (t *IntType) CanonicalString(v any) (string, error) {
	n, ok := v.(int64)
	if !ok {
		return "", typeError(t, v)
	}
	return strconv.FormatInt(n, 10), nil
}

func minInt(bits uint) int64 { return int64(-1) << (bits - 1) }

func maxInt(bits uint) int64 { return -(minInt(bits) + 1) }

// UintType represents the unsigned integer builtins uint8 through
// uint64. Values are held as uint64 regardless of width.
type UintType struct {
	typeBase
	bits  uint
	parts []uintPart
}

func newUintType(name string, bits uint) *UintType {
	hi := uint64(math.MaxUint64)
	if bits < 64 {
		hi = 1<<bits - 1
	}
	return &UintType{
		typeBase: typeBase{name: name},
		bits:     bits,
		parts:    []uintPart{{0, hi}},
	}
}

func (t *UintType) Contains(v any) bool {
	n, ok := v.(uint64)
	return ok && inUintParts(t.parts, n)
}

func (t *UintType) FromRaw(raw any) (any, error) {
	switch r := raw.(type) {
	case string:
		n, err := strconv.ParseUint(r, 10, int(t.bits))
		if err != nil {
			return nil, typeError(t, r)
		}
		return n, nil
	case json.Number:
		return t.FromRaw(string(r))
	case float64:
		hi := math.Ldexp(1, int(t.bits))
		if r != math.Trunc(r) || r < 0 || r >= hi {
			return nil, typeError(t, r)
		}
		return uint64(r), nil
	default:
		return nil, typeError(t, raw)
	}
}

func (t *UintType) ParseValue(text string) (any, error) {
	n, err := parseUint(text, t.bits)
	if err != nil || !inUintParts(t.parts, n) {
		return nil, typeError(t, text)
	}
	return n, nil
}

func (t *UintType) CanonicalString(v any) (string, error) {
	n, ok := v.(uint64)
	if !ok {
		return "", typeError(t, v)
	}
	return strconv.FormatUint(n, 10), nil
}

// DecimalType represents decimal64 at a fixed scale. Every value it
// accepts carries the same scale, so comparisons are exact.
type DecimalType struct {
	typeBase
	scale uint8
	parts []decPart
}

func newDecimalType(scale uint8) *DecimalType {
	return &DecimalType{
		typeBase: typeBase{name: "decimal64"},
		scale:    scale,
		parts: []decPart{{
			Decimal{V: math.MinInt64, S: scale},
			Decimal{V: math.MaxInt64, S: scale},
		}},
	}
}

// Scale returns the number of fraction digits.
func (t *DecimalType) Scale() uint8 { return t.scale }

func (t *DecimalType) Contains(v any) bool {
	d, ok := v.(Decimal)
	return ok && d.S == t.scale && inDecParts(t.parts, d)
}

func (t *DecimalType) FromRaw(raw any) (any, error) {
	switch r := raw.(type) {
	case string:
		d, err := ParseDecimal(r, t.scale)
		if err != nil {
			return nil, typeError(t, r)
		}
		return d, nil
	case json.Number:
		return t.FromRaw(string(r))
	case float64:
		return t.FromRaw(strconv.FormatFloat(r, 'f', -1, 64))
	default:
		return nil, typeError(t, raw)
	}
}

func (t *DecimalType) ParseValue(text string) (any, error) {
	d, err := ParseDecimal(text, t.scale)
	if err != nil || !inDecParts(t.parts, d) {
		return nil, typeError(t, text)
	}
	return d, nil
}

func (t *DecimalType) CanonicalString(v any) (string, error) {
	d, ok := v.(Decimal)
	if !ok {
		return "", typeError(t, v)
	}
	return d.String(), nil
}

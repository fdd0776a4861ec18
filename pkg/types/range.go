package types

import (
	"strconv"
	"strings"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// intPart is one closed interval of a signed range restriction. Parts
// of a range are kept in ascending, disjoint order.
type intPart struct{ lo, hi int64 }

type uintPart struct{ lo, hi uint64 }

type decPart struct{ lo, hi Decimal }

// splitRangePiece cuts one "lo..hi" part of a range argument. A single
// value stands for itself on both sides.
func splitRangePiece(piece string) (string, string) {
	piece = strings.TrimSpace(piece)
	if i := strings.Index(piece, ".."); i >= 0 {
		return strings.TrimSpace(piece[:i]), strings.TrimSpace(piece[i+2:])
	}
	return piece, piece
}

func rangeError(keyword, arg, reason string) error {
	return &yangErrors.WrongArgument{Keyword: keyword, Argument: arg, Reason: reason}
}

// parseIntRange interprets a range argument against the parent stage.
// The keywords min and max refer to the parent's outermost bounds and
// the result is intersected with the parent, so derivation only ever
// narrows.
func parseIntRange(arg string, parent []intPart) ([]intPart, error) {
	var parts []intPart
	for _, piece := range strings.Split(arg, "|") {
		loText, hiText := splitRangePiece(piece)
		lo, err := intBound(loText, arg, parent)
		if err != nil {
			return nil, err
		}
		hi, err := intBound(hiText, arg, parent)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, rangeError("range", arg, "descending part")
		}
		if len(parts) > 0 && parts[len(parts)-1].hi >= lo {
			return nil, rangeError("range", arg, "parts must be disjoint and ascending")
		}
		parts = append(parts, intPart{lo, hi})
	}
	out := intersectInt(parent, parts)
	if len(out) == 0 {
		return nil, rangeError("range", arg, "no values remain within the base range")
	}
	return out, nil
}

func intBound(text, arg string, parent []intPart) (int64, error) {
	switch text {
	case "min":
		return parent[0].lo, nil
	case "max":
		return parent[len(parent)-1].hi, nil
	}
	n, err := parseInt(text, 64)
	if err != nil {
		return 0, rangeError("range", arg, "bound "+strconv.Quote(text)+" is not an integer")
	}
	return n, nil
}

func intersectInt(a, b []intPart) []intPart {
	var out []intPart
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].lo, b[j].lo)
		hi := min(a[i].hi, b[j].hi)
		if lo <= hi {
			out = append(out, intPart{lo, hi})
		}
		if a[i].hi < b[j].hi {
			i++
		} else {
			j++
		}
	}
	return out
}

func inIntParts(parts []intPart, v int64) bool {
	for _, p := range parts {
		if v >= p.lo && v <= p.hi {
			return true
		}
	}
	return false
}

// parseUintRange handles both unsigned range and length arguments; the
// keyword only matters for error reporting.
func parseUintRange(keyword, arg string, parent []uintPart) ([]uintPart, error) {
	var parts []uintPart
	for _, piece := range strings.Split(arg, "|") {
		loText, hiText := splitRangePiece(piece)
		lo, err := uintBound(keyword, loText, arg, parent)
		if err != nil {
			return nil, err
		}
		hi, err := uintBound(keyword, hiText, arg, parent)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, rangeError(keyword, arg, "descending part")
		}
		if len(parts) > 0 && parts[len(parts)-1].hi >= lo {
			return nil, rangeError(keyword, arg, "parts must be disjoint and ascending")
		}
		parts = append(parts, uintPart{lo, hi})
	}
	out := intersectUint(parent, parts)
	if len(out) == 0 {
		return nil, rangeError(keyword, arg, "no values remain within the base range")
	}
	return out, nil
}

func uintBound(keyword, text, arg string, parent []uintPart) (uint64, error) {
	switch text {
	case "min":
		return parent[0].lo, nil
	case "max":
		return parent[len(parent)-1].hi, nil
	}
	n, err := parseUint(text, 64)
	if err != nil {
		return 0, rangeError(keyword, arg, "bound "+strconv.Quote(text)+" is not an unsigned integer")
	}
	return n, nil
}

func intersectUint(a, b []uintPart) []uintPart {
	var out []uintPart
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].lo, b[j].lo)
		hi := min(a[i].hi, b[j].hi)
		if lo <= hi {
			out = append(out, uintPart{lo, hi})
		}
		if a[i].hi < b[j].hi {
			i++
		} else {
			j++
		}
	}
	return out
}

func inUintParts(parts []uintPart, v uint64) bool {
	for _, p := range parts {
		if v >= p.lo && v <= p.hi {
			return true
		}
	}
	return false
}

// parseDecRange parses a decimal range at the type's scale.
func parseDecRange(arg string, scale uint8, parent []decPart) ([]decPart, error) {
	var parts []decPart
	for _, piece := range strings.Split(arg, "|") {
		loText, hiText := splitRangePiece(piece)
		lo, err := decBound(loText, arg, scale, parent)
		if err != nil {
			return nil, err
		}
		hi, err := decBound(hiText, arg, scale, parent)
		if err != nil {
			return nil, err
		}
		if lo.Cmp(hi) > 0 {
			return nil, rangeError("range", arg, "descending part")
		}
		if len(parts) > 0 && parts[len(parts)-1].hi.Cmp(lo) >= 0 {
			return nil, rangeError("range", arg, "parts must be disjoint and ascending")
		}
		parts = append(parts, decPart{lo, hi})
	}
	out := intersectDec(parent, parts)
	if len(out) == 0 {
		return nil, rangeError("range", arg, "no values remain within the base range")
	}
	return out, nil
}

func decBound(text, arg string, scale uint8, parent []decPart) (Decimal, error) {
	switch text {
	case "min":
		return parent[0].lo, nil
	case "max":
		return parent[len(parent)-1].hi, nil
	}
	d, err := ParseDecimal(text, scale)
	if err != nil {
		return Decimal{}, rangeError("range", arg, "bound "+strconv.Quote(text)+" is not a decimal")
	}
	return d, nil
}

func intersectDec(a, b []decPart) []decPart {
	var out []decPart
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := a[i].lo
		if b[j].lo.Cmp(lo) > 0 {
			lo = b[j].lo
		}
		hi := a[i].hi
		if b[j].hi.Cmp(hi) < 0 {
			hi = b[j].hi
		}
		if lo.Cmp(hi) <= 0 {
			out = append(out, decPart{lo, hi})
		}
		if a[i].hi.Cmp(b[j].hi) < 0 {
			i++
		} else {
			j++
		}
	}
	return out
}

func inDecParts(parts []decPart, v Decimal) bool {
	for _, p := range parts {
		if v.Cmp(p.lo) >= 0 && v.Cmp(p.hi) <= 0 {
			return true
		}
	}
	return false
}

// parseInt accepts the YANG lexical forms of an integer: decimal, or
// hexadecimal with a 0x prefix. Plain leading zeros read as decimal.
func parseInt(text string, bits uint) (int64, error) {
	if hasHexPrefix(text) {
		return strconv.ParseInt(text, 0, int(bits))
	}
	return strconv.ParseInt(text, 10, int(bits))
}

func parseUint(text string, bits uint) (uint64, error) {
	if hasHexPrefix(text) {
		return strconv.ParseUint(text, 0, int(bits))
	}
	return strconv.ParseUint(text, 10, int(bits))
}

func hasHexPrefix(text string) bool {
	text = strings.TrimPrefix(text, "-")
	text = strings.TrimPrefix(text, "+")
	return strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
}

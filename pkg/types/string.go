package types

import (
	"encoding/base64"
	"math"
	"regexp"
	"unicode/utf8"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// pattern is one compiled pattern restriction. The expression is
// anchored so it must match the whole value; with invert set, matching
// values are the ones excluded.
type pattern struct {
	re     *regexp.Regexp
	invert bool
}

func compilePattern(expr string, invert bool) (pattern, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return pattern{}, &yangErrors.WrongArgument{
			Keyword:  "pattern",
			Argument: expr,
			Reason:   err.Error(),
		}
	}
	return pattern{re: re, invert: invert}, nil
}

// StringType represents the string builtin with its accumulated length
// and pattern restrictions. Lengths count code points.
type StringType struct {
	typeBase
	lengths  []uintPart
	patterns []pattern
}

func newStringType() *StringType {
	return &StringType{
		typeBase: typeBase{name: "string"},
		lengths:  []uintPart{{0, math.MaxUint64}},
	}
}

func (t *StringType) Contains(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if !inUintParts(t.lengths, uint64(utf8.RuneCountInString(s))) {
		return false
	}
	for _, p := range t.patterns {
		if p.re.MatchString(s) == p.invert {
			return false
		}
	}
	return true
}

func (t *StringType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	return s, nil
}

func (t *StringType) ParseValue(text string) (any, error) {
	if !t.Contains(text) {
		return nil, typeError(t, text)
	}
	return text, nil
}

func (t *StringType) CanonicalString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(t, v)
	}
	return s, nil
}

// BinaryType represents the binary builtin. Values are the decoded
// bytes; lengths count them.
type BinaryType struct {
	typeBase
	lengths []uintPart
}

func newBinaryType() *BinaryType {
	return &BinaryType{
		typeBase: typeBase{name: "binary"},
		lengths:  []uintPart{{0, math.MaxUint64}},
	}
}

func (t *BinaryType) Contains(v any) bool {
	b, ok := v.([]byte)
	return ok && inUintParts(t.lengths, uint64(len(b)))
}

func (t *BinaryType) FromRaw(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(t, raw)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, typeError(t, s)
	}
	return b, nil
}

func (t *BinaryType) ParseValue(text string) (any, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil || !inUintParts(t.lengths, uint64(len(b))) {
		return nil, typeError(t, text)
	}
	return b, nil
}

func (t *BinaryType) CanonicalString(v any) (string, error) {
	b, ok := v.([]byte)
	if !ok {
		return "", typeError(t, v)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// BoolType represents the boolean builtin.
type BoolType struct {
	typeBase
}

func newBoolType() *BoolType {
	return &BoolType{typeBase: typeBase{name: "boolean"}}
}

func (t *BoolType) Contains(v any) bool {
	_, ok := v.(bool)
	return ok
}

func (t *BoolType) FromRaw(raw any) (any, error) {
	switch r := raw.(type) {
	case bool:
		return r, nil
	case string:
		return t.ParseValue(r)
	default:
		return nil, typeError(t, raw)
	}
}

func (t *BoolType) ParseValue(text string) (any, error) {
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, typeError(t, text)
}

func (t *BoolType) CanonicalString(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", typeError(t, v)
	}
	if b {
		return "true", nil
	}
	return "false", nil
}

// EmptyType represents the empty builtin, whose only value carries no
// information beyond existence. The JSON form is [null].
type EmptyType struct {
	typeBase
}

func newEmptyType() *EmptyType {
	return &EmptyType{typeBase: typeBase{name: "empty"}}
}

func (t *EmptyType) Contains(v any) bool {
	_, ok := v.(Empty)
	return ok
}

func (t *EmptyType) FromRaw(raw any) (any, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 1 || arr[0] != nil {
		return nil, typeError(t, raw)
	}
	return Empty{}, nil
}

func (t *EmptyType) ParseValue(text string) (any, error) {
	if text != "" {
		return nil, typeError(t, text)
	}
	return Empty{}, nil
}

func (t *EmptyType) CanonicalString(v any) (string, error) {
	if _, ok := v.(Empty); !ok {
		return "", typeError(t, v)
	}
	return "", nil
}

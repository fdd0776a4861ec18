package errors

import (
	"fmt"
	"strings"
)

// ValidationKind categorizes a validation finding.
type ValidationKind string

const (
	// KindSchema marks violations of the schema structure: missing
	// mandatory nodes, cardinality, keys, choice consistency.
	KindSchema ValidationKind = "schema"
	// KindSemantic marks violations of semantic rules: must and when
	// expressions, uniqueness, referential integrity.
	KindSemantic ValidationKind = "semantic"
)

// Error tags attached to validation findings. Where RFC 7950 names an
// error-app-tag for a constraint, the same string is used here.
const (
	TagMissingData      = "missing-data"
	TagMissingChoice    = "missing-choice"
	TagMissingKey       = "missing-key"
	TagDuplicateKey     = "duplicate-key"
	TagDataNotUnique    = "data-not-unique"
	TagTooFewElements   = "too-few-elements"
	TagTooManyElements  = "too-many-elements"
	TagMustViolation    = "must-violation"
	TagWhenDisabled     = "when-disabled"
	TagInstanceRequired = "instance-required"
	TagInvalidValue     = "invalid-value"
	TagMultipleCases    = "multiple-cases"
)

// ValidationError is a single validation finding against an instance
// document: which node, which rule, and a human-readable message.
type ValidationError struct {
	Kind    ValidationKind // Category of the violated rule
	Path    string         // Instance path of the offending node
	Tag     string         // Stable machine-readable tag
	Message string         // Human-readable description
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", e.Kind, path, e.Tag, e.Message)
}

// NewSchemaError builds a schema-kind validation error.
func NewSchemaError(path, tag, message string) *ValidationError {
	return &ValidationError{Kind: KindSchema, Path: path, Tag: tag, Message: message}
}

// NewSemanticError builds a semantic-kind validation error.
func NewSemanticError(path, tag, message string) *ValidationError {
	return &ValidationError{Kind: KindSemantic, Path: path, Tag: tag, Message: message}
}

// ErrorList accumulates validation errors so that a validation pass can
// report every finding instead of stopping at the first one.
type ErrorList struct {
	Errors []*ValidationError
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*ValidationError, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *ValidationError) {
	el.Errors = append(el.Errors, err)
}

// AddSchema creates and adds a schema-kind error.
func (el *ErrorList) AddSchema(path, tag, message string) {
	el.Add(NewSchemaError(path, tag, message))
}

// AddSemantic creates and adds a semantic-kind error.
func (el *ErrorList) AddSemantic(path, tag, message string) {
	el.Add(NewSemanticError(path, tag, message))
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface. It returns all errors formatted
// as a single string.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d validation error(s):\n", el.Count()))
	for _, err := range el.Errors {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToError returns nil if the error list is empty, otherwise the list
// itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByTag returns all errors carrying the given tag.
func (el *ErrorList) ByTag(tag string) []*ValidationError {
	var result []*ValidationError
	for _, err := range el.Errors {
		if err.Tag == tag {
			result = append(result, err)
		}
	}
	return result
}

// HasTag returns true if at least one error carries the given tag.
func (el *ErrorList) HasTag(tag string) bool {
	for _, err := range el.Errors {
		if err.Tag == tag {
			return true
		}
	}
	return false
}

// ByKind returns all errors of the given kind.
func (el *ErrorList) ByKind(kind ValidationKind) []*ValidationError {
	var result []*ValidationError
	for _, err := range el.Errors {
		if err.Kind == kind {
			result = append(result, err)
		}
	}
	return result
}

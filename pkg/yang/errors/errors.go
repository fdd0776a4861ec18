package errors

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
)

// ModuleNotFound indicates that a module or submodule text could not be
// obtained from any configured source.
type ModuleNotFound struct {
	Name     string
	Revision yang.Revision
}

func (e *ModuleNotFound) Error() string {
	return "module not found: " + moduleRef(e.Name, e.Revision)
}

// ModuleNotRegistered indicates that a module is referenced (imported
// or included) but does not appear in the YANG library data.
type ModuleNotRegistered struct {
	Name     string
	Revision yang.Revision
}

func (e *ModuleNotRegistered) Error() string {
	return "module not registered: " + moduleRef(e.Name, e.Revision)
}

// ModuleNotImplemented indicates that a module is registered for import
// only, while the operation requires an implemented module.
type ModuleNotImplemented struct {
	Name string
}

func (e *ModuleNotImplemented) Error() string {
	return "module not implemented: " + e.Name
}

// MultipleImplementedRevisions indicates that the YANG library lists
// more than one implemented revision of the same module.
type MultipleImplementedRevisions struct {
	Name string
}

func (e *MultipleImplementedRevisions) Error() string {
	return "multiple implemented revisions of module " + e.Name
}

// CyclicImports indicates a dependency cycle among module imports.
type CyclicImports struct {
	Cycle []string
}

func (e *CyclicImports) Error() string {
	return "cyclic imports: " + strings.Join(e.Cycle, " -> ")
}

// BadYangLibraryData indicates malformed or inconsistent YANG library
// data.
type BadYangLibraryData struct {
	Reason string
}

func (e *BadYangLibraryData) Error() string {
	return "invalid YANG library data: " + e.Reason
}

// UnknownPrefix indicates a prefix that is not declared by the module
// in whose context a prefixed name is being resolved.
type UnknownPrefix struct {
	Prefix string
	Module string
}

func (e *UnknownPrefix) Error() string {
	return fmt.Sprintf("unknown prefix %q in module %s", e.Prefix, e.Module)
}

// ModuleNotImported indicates a reference to a module that the
// referring module does not import.
type ModuleNotImported struct {
	Name   string
	Module string
}

func (e *ModuleNotImported) Error() string {
	return fmt.Sprintf("module %s not imported by %s", e.Name, e.Module)
}

// FeaturePrerequisiteError indicates an enabled feature whose if-feature
// prerequisites are not satisfied.
type FeaturePrerequisiteError struct {
	Feature string
	Module  string
}

func (e *FeaturePrerequisiteError) Error() string {
	return fmt.Sprintf("unsatisfied prerequisite for feature %s in module %s", e.Feature, e.Module)
}

// InvalidFeatureExpression indicates a syntactically invalid if-feature
// expression.
type InvalidFeatureExpression struct {
	Expression string
	Offset     int
}

func (e *InvalidFeatureExpression) Error() string {
	return fmt.Sprintf("invalid feature expression %q at offset %d", e.Expression, e.Offset)
}

// StatementNotFound indicates that a mandatory substatement is missing.
type StatementNotFound struct {
	Keyword string
	In      string
}

func (e *StatementNotFound) Error() string {
	return fmt.Sprintf("missing %q statement in %s", e.Keyword, e.In)
}

// DefinitionNotFound indicates that a named definition (grouping,
// typedef, identity or feature) could not be resolved.
type DefinitionNotFound struct {
	Kind string
	Name string
}

func (e *DefinitionNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// WrongArgument indicates a statement argument that is syntactically
// present but semantically unacceptable.
type WrongArgument struct {
	Keyword  string
	Argument string
	Reason   string
}

func (e *WrongArgument) Error() string {
	msg := fmt.Sprintf("bad argument %q of %q", e.Argument, e.Keyword)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// EndOfInput indicates that a parser ran out of input while expecting
// more.
type EndOfInput struct {
	Location ast.Location
	Expected string
}

func (e *EndOfInput) Error() string {
	msg := "unexpected end of input"
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	if e.Location.IsValid() {
		msg += " at " + e.Location.String()
	}
	return msg
}

// UnexpectedInput indicates input that does not match the grammar at
// the reported location.
type UnexpectedInput struct {
	Location ast.Location
	Expected string
	Found    string
}

func (e *UnexpectedInput) Error() string {
	msg := "unexpected input"
	if e.Found != "" {
		msg += " " + e.Found
	}
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	if e.Location.IsValid() {
		msg += " at " + e.Location.String()
	}
	return msg
}

// NonexistentSchemaNode indicates a schema path step that names a node
// the schema never declares.
type NonexistentSchemaNode struct {
	Name   yang.QName
	Under  string
	Detail string
}

func (e *NonexistentSchemaNode) Error() string {
	msg := fmt.Sprintf("schema node %s not found", e.Name)
	if e.Under != "" {
		msg += " under " + e.Under
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// BadSchemaNodeType indicates a schema node of an unexpected kind, for
// example a leaf where a list was required.
type BadSchemaNodeType struct {
	Path     string
	Expected string
}

func (e *BadSchemaNodeType) Error() string {
	return fmt.Sprintf("schema node %s is not a %s", e.Path, e.Expected)
}

// InvalidLeafrefPath indicates a leafref path that does not lead to a
// leaf or leaf-list node.
type InvalidLeafrefPath struct {
	Node string
	Path string
}

func (e *InvalidLeafrefPath) Error() string {
	return fmt.Sprintf("invalid leafref path %q at %s", e.Path, e.Node)
}

// InvalidSchemaPath indicates a malformed schema or data path.
type InvalidSchemaPath struct {
	Path string
}

func (e *InvalidSchemaPath) Error() string {
	return fmt.Sprintf("invalid schema path %q", e.Path)
}

// BadPath indicates a malformed instance path, for example a broken
// instance identifier.
type BadPath struct {
	Path   string
	Reason string
}

func (e *BadPath) Error() string {
	msg := fmt.Sprintf("bad path %q", e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// BadPrefName indicates a name that does not follow the
// "prefix:identifier" syntax.
type BadPrefName struct {
	Name string
}

func (e *BadPrefName) Error() string {
	return fmt.Sprintf("malformed prefixed name %q", e.Name)
}

// InvalidXPath indicates a syntactically invalid XPath expression.
type InvalidXPath struct {
	Expression string
	Offset     int
	Reason     string
}

func (e *InvalidXPath) Error() string {
	msg := fmt.Sprintf("invalid xpath %q at offset %d", e.Expression, e.Offset)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NotSupported indicates an XPath construct that is outside the
// supported subset.
type NotSupported struct {
	Construct string
}

func (e *NotSupported) Error() string {
	return "not supported: " + e.Construct
}

// XPathTypeError indicates an XPath operand of the wrong type, for
// example a string where a node-set is required.
type XPathTypeError struct {
	Expected string
	Actual   string
}

func (e *XPathTypeError) Error() string {
	return fmt.Sprintf("xpath type error: expected %s, got %s", e.Expected, e.Actual)
}

// YangTypeError indicates a value that does not belong to a YANG type,
// either lexically or because a restriction excludes it.
type YangTypeError struct {
	Value string
	Type  string
}

func (e *YangTypeError) Error() string {
	return fmt.Sprintf("value %q not in type %s", e.Value, e.Type)
}

func moduleRef(name string, rev yang.Revision) string {
	if rev == "" {
		return name
	}
	return name + "@" + string(rev)
}

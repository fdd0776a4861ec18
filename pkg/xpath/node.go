package xpath

import "mercator-hq/ganymede/pkg/yang"

// Node is the view of a data tree that expression evaluation operates
// on. The instance layer implements it; tests may substitute any other
// tree shape.
//
// Children must be returned in a stable order, and Path must uniquely
// identify a node within its tree, since node-sets are deduplicated by
// path.
type Node interface {
	// Parent returns the parent node, or nil at the root.
	Parent() Node
	// Children returns element children in document order. Scalars
	// return nil.
	Children() []Node
	// Name returns the node's qualified name. The root returns the
	// zero QName.
	Name() yang.QName
	// StringValue returns the XPath string-value of the node.
	StringValue() string
	// Path returns a stable identification of the node within its
	// tree.
	Path() string
}

// Env carries the per-document evaluation environment.
type Env struct {
	// Root is the document root, the target of absolute paths.
	Root Node
	// DerivedFrom reports whether the identity named by value (in
	// canonical "module:name" form) is derived from base. When nil,
	// the derived-from functions report NotSupported.
	DerivedFrom func(value string, base yang.QName) bool
}

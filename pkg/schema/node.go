package schema

import (
	"strings"

	"mercator-hq/ganymede/pkg/types"
	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Kind names the category of a schema node.
type Kind int

const (
	// KindSchema is the synthetic root above all module trees.
	KindSchema Kind = iota
	KindContainer
	KindList
	KindLeaf
	KindLeafList
	KindChoice
	KindCase
	KindAnydata
	KindAnyxml
	// KindRPC covers both top-level rpcs and actions nested in the
	// data tree.
	KindRPC
	KindInput
	KindOutput
	KindNotification
)

var kindNames = map[Kind]string{
	KindSchema:       "schema",
	KindContainer:    "container",
	KindList:         "list",
	KindLeaf:         "leaf",
	KindLeafList:     "leaf-list",
	KindChoice:       "choice",
	KindCase:         "case",
	KindAnydata:      "anydata",
	KindAnyxml:       "anyxml",
	KindRPC:          "rpc",
	KindInput:        "input",
	KindOutput:       "output",
	KindNotification: "notification",
}

func (k Kind) String() string { return kindNames[k] }

// Route is a pre-parsed sequence of qualified-name steps, as used for
// list keys, unique constraints and descendant lookups.
type Route []yang.QName

// Must is one must constraint attached to a node.
type Must struct {
	Expr *xpath.Expr
	// Message is the declared error-message, empty when absent.
	Message string
	// AppTag is the declared error-app-tag, empty when absent.
	AppTag string
}

// Node is one node of the compiled schema tree. Nodes are built once and
// never modified afterwards; a Tree may be shared freely across
// goroutines.
type Node struct {
	Name   yang.QName
	Kind   Kind
	Parent *Node

	Config      bool
	Mandatory   bool
	Description string
	Units       string

	// Whens collects the when expressions governing this node: its
	// own, plus any inherited from a uses or augment that introduced
	// it. All of them must hold for the node to be valid.
	Whens []*xpath.Expr
	Musts []*Must

	// Type is the resolved type of a leaf or leaf-list.
	Type types.Type
	// Default is the effective default: a scalar for a leaf, a []any
	// for a leaf-list. nil means no default applies.
	Default any

	// Presence marks presence containers.
	Presence bool

	// Keys names the key leaves of a keyed list, in declared order.
	Keys []yang.QName
	// Unique lists the unique constraint groups of a list; each group
	// is a set of descendant leaf routes.
	Unique [][]Route
	// MinElements and MaxElements bound list and leaf-list
	// cardinality. MaxElements zero means unbounded.
	MinElements uint64
	MaxElements uint64
	// UserOrdered marks ordered-by user lists and leaf-lists.
	UserOrdered bool

	// DefaultCase names a choice's default case, zero when none.
	DefaultCase yang.QName

	children []*Node
	byName   map[yang.QName]*Node
	// pruned records the names of feature-disabled children, so path
	// lookups can answer absence instead of nonexistence.
	pruned map[yang.QName]bool
}

// Children returns the direct children in declaration order, including
// choice, case, input and output nodes.
func (n *Node) Children() []*Node { return n.children }

// Child returns the direct child with the given name, or nil. Choices,
// cases, input and output are addressed by their own names.
func (n *Node) Child(qn yang.QName) *Node { return n.byName[qn] }

// IsDataNode reports whether the node can hold instance data directly.
func (n *Node) IsDataNode() bool {
	switch n.Kind {
	case KindContainer, KindList, KindLeaf, KindLeafList, KindAnydata, KindAnyxml:
		return true
	}
	return false
}

// hit classifies the outcome of a data-child search.
type hit int

const (
	hitNone hit = iota
	hitData
	// hitShadow marks a name that exists at this level but is not a
	// data node, such as a choice or an rpc.
	hitShadow
	hitPruned
)

// classify searches for a data child by name, descending transparently
// into choice and case layers.
func (n *Node) classify(qn yang.QName) (*Node, hit) {
	for _, c := range n.children {
		if c.Name == qn {
			if c.IsDataNode() {
				return c, hitData
			}
			return nil, hitShadow
		}
		if c.Kind == KindChoice || c.Kind == KindCase {
			if d, h := c.classify(qn); h != hitNone {
				return d, h
			}
		}
	}
	if n.pruned[qn] {
		return nil, hitPruned
	}
	return nil, hitNone
}

// DataChild returns the data child with the given name, looking through
// choice and case layers, or nil.
func (n *Node) DataChild(qn yang.QName) *Node {
	d, h := n.classify(qn)
	if h != hitData {
		return nil
	}
	return d
}

// DataChildren returns the data nodes visible at this level in
// declaration order, flattening choice and case layers.
func (n *Node) DataChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		switch {
		case c.IsDataNode():
			out = append(out, c)
		case c.Kind == KindChoice || c.Kind == KindCase:
			out = append(out, c.DataChildren()...)
		}
	}
	return out
}

// DataParent returns the nearest ancestor that holds instance data:
// a data node, an rpc's input or output, a notification, or the tree
// root.
func (n *Node) DataParent() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		switch {
		case p.IsDataNode():
			return p
		case p.Kind == KindSchema, p.Kind == KindInput, p.Kind == KindOutput, p.Kind == KindNotification:
			return p
		}
	}
	return nil
}

// GetSchemaDescendant resolves a route of data-child steps from this
// node, stepping transparently through choice and case layers.
func (n *Node) GetSchemaDescendant(route Route) (*Node, error) {
	cur := n
	for _, qn := range route {
		d, h := cur.classify(qn)
		if h != hitData {
			return nil, &yangErrors.NonexistentSchemaNode{Name: qn, Under: cur.SchemaPath()}
		}
		cur = d
	}
	return cur, nil
}

// Case returns the case child a data descendant belongs to, for a
// choice node, or nil when the node is not under this choice.
func (n *Node) Case(d *Node) *Node {
	for p := d; p != nil; p = p.Parent {
		if p.Parent == n && p.Kind == KindCase {
			return p
		}
	}
	return nil
}

// SchemaPath renders the full schema path of the node, naming every
// level including choices, cases, input and output.
func (n *Node) SchemaPath() string {
	return n.renderPath(func(*Node) bool { return true })
}

// DataPath renders the data path of the node, skipping choice and case
// levels.
func (n *Node) DataPath() string {
	return n.renderPath(func(a *Node) bool {
		return a.Kind != KindChoice && a.Kind != KindCase
	})
}

func (n *Node) renderPath(keep func(*Node) bool) string {
	if n.Kind == KindSchema {
		return "/"
	}
	var nodes []*Node
	for p := n; p != nil && p.Kind != KindSchema; p = p.Parent {
		if p == n || keep(p) {
			nodes = append(nodes, p)
		}
	}
	var b strings.Builder
	prevModule := ""
	for i := len(nodes) - 1; i >= 0; i-- {
		b.WriteByte('/')
		if nodes[i].Name.Module != prevModule {
			b.WriteString(nodes[i].Name.Module)
			b.WriteByte(':')
		}
		b.WriteString(nodes[i].Name.Name)
		prevModule = nodes[i].Name.Module
	}
	return b.String()
}

// addChild links a new child into the node, rejecting duplicate names.
func (n *Node) addChild(c *Node) error {
	if n.byName == nil {
		n.byName = make(map[yang.QName]*Node)
	}
	if _, exists := n.byName[c.Name]; exists {
		return &yangErrors.WrongArgument{
			Keyword:  c.Kind.String(),
			Argument: c.Name.Name,
			Reason:   "duplicate node name under " + n.SchemaPath(),
		}
	}
	n.byName[c.Name] = c
	n.children = append(n.children, c)
	return nil
}

// prune records a feature-disabled child name.
func (n *Node) prune(qn yang.QName) {
	if n.pruned == nil {
		n.pruned = make(map[yang.QName]bool)
	}
	n.pruned[qn] = true
}

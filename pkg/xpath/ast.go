package xpath

import (
	"mercator-hq/ganymede/pkg/yang"
)

// Expr is a parsed expression, ready for repeated evaluation.
type Expr struct {
	text string
	root exprNode
}

// String returns the original expression text.
func (e *Expr) String() string { return e.text }

// Evaluate evaluates the expression with node as both the context node
// and the current() node.
func (e *Expr) Evaluate(env *Env, node Node) (Value, error) {
	return e.EvaluateWithOrigin(env, node, node)
}

// EvaluateWithOrigin evaluates the expression with an explicit
// current() node, as required for expressions carried by a schema node
// but evaluated against a different context.
func (e *Expr) EvaluateWithOrigin(env *Env, node, origin Node) (Value, error) {
	c := &context{env: env, node: node, origin: origin, pos: 1, size: 1}
	return e.root.eval(c)
}

// exprNode is one node of the expression tree.
type exprNode interface {
	eval(c *context) (Value, error)
}

type binOp int

const (
	opOr binOp = iota
	opAnd
	opEq
	opNeq
	opLt
	opLe
	opGt
	opGe
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opUnion
)

type binaryExpr struct {
	op  binOp
	lhs exprNode
	rhs exprNode
}

type unaryMinus struct {
	operand exprNode
}

type numberLit float64

type stringLit string

type funcCall struct {
	name string
	args []exprNode
	impl funcImpl
}

// pathExpr is a location path, optionally rooted in a primary
// expression ("current()/../x") or at the document root.
type pathExpr struct {
	primary  exprNode // nil for plain location paths
	absolute bool
	steps    []*step
}

// filterExpr is a primary expression with predicates but no trailing
// path, e.g. "current()[. = 'x']".
type filterExpr struct {
	primary exprNode
	preds   []exprNode
}

type axis int

const (
	axisChild axis = iota
	axisParent
	axisSelf
	axisDescendant
	axisDescendantOrSelf
	axisAncestor
	axisAncestorOrSelf
)

// nodeTest selects nodes along an axis: a specific qualified name, any
// element ("*"), or any node ("node()").
type nodeTest struct {
	anyNode  bool
	wildcard bool
	name     yang.QName
}

type step struct {
	axis  axis
	test  nodeTest
	preds []exprNode
}

// LocationStep is one step of a plain location path, as used by the
// static portion of leafref path analysis: either one step up or one
// named child step down.
type LocationStep struct {
	// Up is true for a parent step.
	Up bool
	// Name is the child step's qualified name when Up is false.
	Name yang.QName
}

// LocationSteps flattens the expression into parent and named child
// steps when it is a plain location path. Key predicates on child steps
// are allowed and skipped. ok is false when the expression contains
// anything else, in which case it cannot serve as a leafref path.
func (e *Expr) LocationSteps() (steps []LocationStep, absolute bool, ok bool) {
	p, isPath := e.root.(*pathExpr)
	if !isPath || p.primary != nil {
		return nil, false, false
	}
	for _, st := range p.steps {
		switch {
		case st.axis == axisParent && st.test.anyNode && len(st.preds) == 0:
			steps = append(steps, LocationStep{Up: true})
		case st.axis == axisChild && !st.test.anyNode && !st.test.wildcard:
			steps = append(steps, LocationStep{Name: st.test.name})
		default:
			return nil, false, false
		}
	}
	return steps, p.absolute, true
}

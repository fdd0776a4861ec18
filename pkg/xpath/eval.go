package xpath

import (
	"math"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// context is the evaluation state threaded through the expression tree:
// the context node, its position and size within the node-set being
// filtered, and the node current() refers to.
type context struct {
	env    *Env
	node   Node
	origin Node
	pos    int
	size   int
}

func (c *context) at(node Node, pos, size int) *context {
	return &context{env: c.env, node: node, origin: c.origin, pos: pos, size: size}
}

func (b *binaryExpr) eval(c *context) (Value, error) {
	if b.op == opAnd || b.op == opOr {
		lv, err := b.lhs.eval(c)
		if err != nil {
			return nil, err
		}
		if lv.Boolean() == (b.op == opOr) {
			return Boolean(b.op == opOr), nil
		}
		rv, err := b.rhs.eval(c)
		if err != nil {
			return nil, err
		}
		return Boolean(rv.Boolean()), nil
	}

	lv, err := b.lhs.eval(c)
	if err != nil {
		return nil, err
	}
	rv, err := b.rhs.eval(c)
	if err != nil {
		return nil, err
	}

	switch b.op {
	case opEq, opNeq, opLt, opLe, opGt, opGe:
		return compare(b.op, lv, rv)
	case opAdd, opSub, opMul, opDiv, opMod:
		return arithmetic(b.op, lv.Number(), rv.Number()), nil
	case opUnion:
		return union(lv, rv)
	}
	return nil, &yangErrors.NotSupported{Construct: "operator"}
}

func (u *unaryMinus) eval(c *context) (Value, error) {
	v, err := u.operand.eval(c)
	if err != nil {
		return nil, err
	}
	return Number(-v.Number()), nil
}

func (n numberLit) eval(*context) (Value, error) { return Number(n), nil }

func (s stringLit) eval(*context) (Value, error) { return String(s), nil }

func (f *funcCall) eval(c *context) (Value, error) {
	args := make([]Value, len(f.args))
	for i, arg := range f.args {
		v, err := arg.eval(c)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return f.impl(c, args)
}

func (f *filterExpr) eval(c *context) (Value, error) {
	v, err := f.primary.eval(c)
	if err != nil {
		return nil, err
	}
	ns, ok := v.(NodeSet)
	if !ok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: v.kind()}
	}
	return filterNodeSet(c, ns, f.preds)
}

func (p *pathExpr) eval(c *context) (Value, error) {
	var ns NodeSet
	switch {
	case p.primary != nil:
		v, err := p.primary.eval(c)
		if err != nil {
			return nil, err
		}
		set, ok := v.(NodeSet)
		if !ok {
			return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: v.kind()}
		}
		ns = set
	case p.absolute:
		if c.env == nil || c.env.Root == nil {
			return nil, &yangErrors.XPathTypeError{Expected: "rooted context", Actual: "none"}
		}
		ns = NodeSet{c.env.Root}
	default:
		ns = NodeSet{c.node}
	}

	for _, st := range p.steps {
		next, err := applyStep(c, ns, st)
		if err != nil {
			return nil, err
		}
		ns = next
	}
	return ns, nil
}

// applyStep expands every node of ns along the step's axis, keeps those
// matching the node test, deduplicates by path, and applies the step's
// predicates.
func applyStep(c *context, ns NodeSet, st *step) (NodeSet, error) {
	var out NodeSet
	seen := make(map[string]struct{})

	add := func(n Node) {
		if !st.test.matches(n) {
			return
		}
		path := n.Path()
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, n)
	}

	for _, n := range ns {
		switch st.axis {
		case axisChild:
			for _, ch := range n.Children() {
				add(ch)
			}
		case axisParent:
			if parent := n.Parent(); parent != nil {
				add(parent)
			}
		case axisSelf:
			add(n)
		case axisDescendant:
			walkDescendants(n, add)
		case axisDescendantOrSelf:
			add(n)
			walkDescendants(n, add)
		case axisAncestor:
			for a := n.Parent(); a != nil; a = a.Parent() {
				add(a)
			}
		case axisAncestorOrSelf:
			add(n)
			for a := n.Parent(); a != nil; a = a.Parent() {
				add(a)
			}
		}
	}

	return filterNodeSet(c, out, st.preds)
}

func walkDescendants(n Node, visit func(Node)) {
	for _, ch := range n.Children() {
		visit(ch)
		walkDescendants(ch, visit)
	}
}

// filterNodeSet applies predicates in order. A numeric predicate
// selects by position; anything else is taken as a boolean.
func filterNodeSet(c *context, ns NodeSet, preds []exprNode) (NodeSet, error) {
	for _, pred := range preds {
		var kept NodeSet
		size := len(ns)
		for i, n := range ns {
			v, err := pred.eval(c.at(n, i+1, size))
			if err != nil {
				return nil, err
			}
			if num, isNum := v.(Number); isNum {
				if float64(i+1) == float64(num) {
					kept = append(kept, n)
				}
			} else if v.Boolean() {
				kept = append(kept, n)
			}
		}
		ns = kept
	}
	return ns, nil
}

func (t nodeTest) matches(n Node) bool {
	switch {
	case t.anyNode:
		return true
	case t.wildcard:
		return !n.Name().IsZero()
	default:
		return n.Name() == t.name
	}
}

func arithmetic(op binOp, a, b float64) Number {
	switch op {
	case opAdd:
		return Number(a + b)
	case opSub:
		return Number(a - b)
	case opMul:
		return Number(a * b)
	case opDiv:
		return Number(a / b)
	default:
		return Number(math.Mod(a, b))
	}
}

func union(lv, rv Value) (Value, error) {
	lns, lok := lv.(NodeSet)
	if !lok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: lv.kind()}
	}
	rns, rok := rv.(NodeSet)
	if !rok {
		return nil, &yangErrors.XPathTypeError{Expected: "node-set", Actual: rv.kind()}
	}

	out := make(NodeSet, 0, len(lns)+len(rns))
	seen := make(map[string]struct{}, len(lns)+len(rns))
	for _, n := range lns {
		if _, dup := seen[n.Path()]; !dup {
			seen[n.Path()] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range rns {
		if _, dup := seen[n.Path()]; !dup {
			seen[n.Path()] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

// compare implements the XPath comparison rules, including the
// existential semantics of node-set operands.
func compare(op binOp, a, b Value) (Value, error) {
	ans, aIsNS := a.(NodeSet)
	bns, bIsNS := b.(NodeSet)

	switch {
	case aIsNS && bIsNS:
		for _, na := range ans {
			for _, nb := range bns {
				if scalarCompare(op, String(na.StringValue()), String(nb.StringValue())) {
					return Boolean(true), nil
				}
			}
		}
		return Boolean(false), nil

	case aIsNS:
		if _, isBool := b.(Boolean); isBool {
			return Boolean(scalarCompare(op, Boolean(a.Boolean()), b)), nil
		}
		for _, n := range ans {
			if scalarCompare(op, String(n.StringValue()), b) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil

	case bIsNS:
		if _, isBool := a.(Boolean); isBool {
			return Boolean(scalarCompare(op, a, Boolean(b.Boolean()))), nil
		}
		for _, n := range bns {
			if scalarCompare(op, a, String(n.StringValue())) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil

	default:
		return Boolean(scalarCompare(op, a, b)), nil
	}
}

func scalarCompare(op binOp, a, b Value) bool {
	switch op {
	case opEq, opNeq:
		var equal bool
		_, aBool := a.(Boolean)
		_, bBool := b.(Boolean)
		_, aNum := a.(Number)
		_, bNum := b.(Number)
		switch {
		case aBool || bBool:
			equal = a.Boolean() == b.Boolean()
		case aNum || bNum:
			equal = a.Number() == b.Number()
		default:
			equal = a.String() == b.String()
		}
		if op == opEq {
			return equal
		}
		return !equal
	case opLt:
		return a.Number() < b.Number()
	case opLe:
		return a.Number() <= b.Number()
	case opGt:
		return a.Number() > b.Number()
	default:
		return a.Number() >= b.Number()
	}
}

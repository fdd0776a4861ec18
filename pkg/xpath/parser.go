package xpath

import (
	"strconv"

	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// PrefixResolver maps a prefix appearing in an expression to a module
// name. It is called with the empty string for unprefixed names, which
// resolve to the module the expression was written in.
type PrefixResolver func(prefix string) (string, error)

// Parse parses an expression, resolving prefixes with resolve. A nil
// resolver maps every prefix to itself, which is convenient for tests
// and for expressions that are already module-qualified.
func Parse(text string, resolve PrefixResolver) (*Expr, error) {
	if resolve == nil {
		resolve = func(prefix string) (string, error) { return prefix, nil }
	}
	tokens, err := lexAll(text)
	if err != nil {
		return nil, err
	}
	p := &parser{text: text, tokens: tokens, resolve: resolve}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != TokenEOF {
		return nil, p.errorf("trailing input")
	}
	return &Expr{text: text, root: root}, nil
}

type parser struct {
	text    string
	tokens  []Token
	idx     int
	resolve PrefixResolver
}

func (p *parser) cur() Token { return p.tokens[p.idx] }

func (p *parser) peek() Token {
	if p.tokens[p.idx].Type == TokenEOF {
		return p.tokens[p.idx]
	}
	return p.tokens[p.idx+1]
}

func (p *parser) advance() Token {
	t := p.tokens[p.idx]
	if t.Type != TokenEOF {
		p.idx++
	}
	return t
}

func (p *parser) accept(tt TokenType) bool {
	if p.cur().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(tt TokenType, what string) error {
	if !p.accept(tt) {
		return p.errorf("expected " + what)
	}
	return nil
}

func (p *parser) errorf(reason string) error {
	return &yangErrors.InvalidXPath{
		Expression: p.text,
		Offset:     p.cur().Pos,
		Reason:     reason,
	}
}

func (p *parser) parseOr() (exprNode, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenOr) {
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: opOr, lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (exprNode, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenAnd) {
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: opAnd, lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseEquality() (exprNode, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.cur().Type {
		case TokenEq:
			op = opEq
		case TokenNeq:
			op = opNeq
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseRelational() (exprNode, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.cur().Type {
		case TokenLt:
			op = opLt
		case TokenLe:
			op = opLe
		case TokenGt:
			op = opGt
		case TokenGe:
			op = opGe
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseAdditive() (exprNode, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.cur().Type {
		case TokenPlus:
			op = opAdd
		case TokenMinus:
			op = opSub
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseMultiplicative() (exprNode, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.cur().Type {
		case TokenStar:
			op = opMul
		case TokenDiv:
			op = opDiv
		case TokenMod:
			op = opMod
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseUnary() (exprNode, error) {
	if p.accept(TokenMinus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryMinus{operand: operand}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (exprNode, error) {
	lhs, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenPipe) {
		rhs, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: opUnion, lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

// parsePath parses a location path or a primary expression with an
// optional trailing path.
func (p *parser) parsePath() (exprNode, error) {
	switch t := p.cur(); t.Type {
	case TokenSlash, TokenDoubleSlash:
		out := &pathExpr{absolute: true}
		if t.Type == TokenDoubleSlash {
			out.steps = append(out.steps, descendantOrSelfStep())
		}
		p.advance()
		// A bare "/" selects the root.
		if !p.startsStep() && t.Type == TokenSlash {
			return out, nil
		}
		if err := p.parseSteps(out); err != nil {
			return nil, err
		}
		return out, nil

	case TokenLiteral:
		p.advance()
		return p.parsePrimaryTail(stringLit(t.Text))

	case TokenNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.errorf("malformed number " + t.Text)
		}
		return p.parsePrimaryTail(numberLit(f))

	case TokenLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, `")"`); err != nil {
			return nil, err
		}
		return p.parsePrimaryTail(inner)

	case TokenDollar:
		return nil, &yangErrors.NotSupported{Construct: "variable reference"}

	case TokenName:
		if p.peek().Type == TokenLParen && !isNodeType(t.Text) {
			call, err := p.parseFunctionCall()
			if err != nil {
				return nil, err
			}
			return p.parsePrimaryTail(call)
		}
		out := &pathExpr{}
		if err := p.parseSteps(out); err != nil {
			return nil, err
		}
		return out, nil

	case TokenDot, TokenDotDot, TokenAt, TokenStar:
		out := &pathExpr{}
		if err := p.parseSteps(out); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, p.errorf("expected expression")
	}
}

// parsePrimaryTail parses the predicates and path continuation that may
// follow a primary expression.
func (p *parser) parsePrimaryTail(primary exprNode) (exprNode, error) {
	preds, err := p.parsePredicates()
	if err != nil {
		return nil, err
	}
	if len(preds) > 0 {
		primary = &filterExpr{primary: primary, preds: preds}
	}

	switch p.cur().Type {
	case TokenSlash:
		p.advance()
	case TokenDoubleSlash:
		p.advance()
		out := &pathExpr{primary: primary}
		out.steps = append(out.steps, descendantOrSelfStep())
		if err := p.parseSteps(out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return primary, nil
	}

	out := &pathExpr{primary: primary}
	if err := p.parseSteps(out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseSteps parses "step (('/'|'//') step)*" into out.
func (p *parser) parseSteps(out *pathExpr) error {
	for {
		st, err := p.parseStep()
		if err != nil {
			return err
		}
		out.steps = append(out.steps, st)

		switch p.cur().Type {
		case TokenSlash:
			p.advance()
		case TokenDoubleSlash:
			p.advance()
			out.steps = append(out.steps, descendantOrSelfStep())
		default:
			return nil
		}
	}
}

func (p *parser) startsStep() bool {
	switch p.cur().Type {
	case TokenName, TokenDot, TokenDotDot, TokenAt, TokenStar:
		return true
	}
	return false
}

func (p *parser) parseStep() (*step, error) {
	switch t := p.cur(); t.Type {
	case TokenDot:
		p.advance()
		return &step{axis: axisSelf, test: nodeTest{anyNode: true}}, nil
	case TokenDotDot:
		p.advance()
		return &step{axis: axisParent, test: nodeTest{anyNode: true}}, nil
	case TokenAt:
		return nil, &yangErrors.NotSupported{Construct: "attribute axis"}
	}

	st := &step{axis: axisChild}
	if p.cur().Type == TokenName && p.peek().Type == TokenAxisSep {
		name := p.advance().Text
		p.advance()
		ax, err := p.axisByName(name)
		if err != nil {
			return nil, err
		}
		st.axis = ax
	}

	switch t := p.cur(); t.Type {
	case TokenStar:
		p.advance()
		st.test = nodeTest{wildcard: true}
	case TokenName:
		if p.peek().Type == TokenLParen {
			if !isNodeType(t.Text) {
				return nil, p.errorf("unexpected function call in node test")
			}
			if t.Text != "node" {
				return nil, &yangErrors.NotSupported{Construct: t.Text + "() node test"}
			}
			p.advance()
			p.advance()
			if err := p.expect(TokenRParen, `")"`); err != nil {
				return nil, err
			}
			st.test = nodeTest{anyNode: true}
			break
		}
		p.advance()
		qn, err := p.qualify(t.Text)
		if err != nil {
			return nil, err
		}
		st.test = nodeTest{name: qn}
	default:
		return nil, p.errorf("expected node test")
	}

	preds, err := p.parsePredicates()
	if err != nil {
		return nil, err
	}
	st.preds = preds
	return st, nil
}

func (p *parser) parsePredicates() ([]exprNode, error) {
	var preds []exprNode
	for p.accept(TokenLBracket) {
		pred, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRBracket, `"]"`); err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func (p *parser) parseFunctionCall() (exprNode, error) {
	name := p.advance().Text
	p.advance() // "("

	var args []exprNode
	if p.cur().Type != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.accept(TokenComma) {
				break
			}
		}
	}
	if err := p.expect(TokenRParen, `")"`); err != nil {
		return nil, err
	}

	spec, known := functions[name]
	if !known {
		return nil, &yangErrors.NotSupported{Construct: "function " + name + "()"}
	}
	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		return nil, p.errorf("wrong number of arguments to " + name + "()")
	}

	// The identity argument of the derived-from functions carries a
	// prefix bound in the expression's own module, so it has to be
	// resolved now while the resolver is at hand.
	if name == "derived-from" || name == "derived-from-or-self" {
		if lit, isLit := args[1].(stringLit); isLit {
			if prefix, local, ok := yang.SplitPName(string(lit)); ok {
				module, err := p.resolve(prefix)
				if err != nil {
					return nil, err
				}
				args[1] = stringLit(module + ":" + local)
			}
		}
	}
	return &funcCall{name: name, args: args, impl: spec.impl}, nil
}

func (p *parser) axisByName(name string) (axis, error) {
	switch name {
	case "child":
		return axisChild, nil
	case "parent":
		return axisParent, nil
	case "self":
		return axisSelf, nil
	case "descendant":
		return axisDescendant, nil
	case "descendant-or-self":
		return axisDescendantOrSelf, nil
	case "ancestor":
		return axisAncestor, nil
	case "ancestor-or-self":
		return axisAncestorOrSelf, nil
	case "attribute", "namespace", "following", "following-sibling",
		"preceding", "preceding-sibling":
		return 0, &yangErrors.NotSupported{Construct: name + " axis"}
	default:
		return 0, p.errorf("unknown axis " + name)
	}
}

// qualify resolves the optional prefix of a node test name.
func (p *parser) qualify(word string) (yang.QName, error) {
	prefix, local, ok := yang.SplitPName(word)
	if !ok {
		return yang.QName{}, p.errorf("malformed name " + word)
	}
	module, err := p.resolve(prefix)
	if err != nil {
		return yang.QName{}, err
	}
	return yang.NewQName(module, local), nil
}

func isNodeType(name string) bool {
	switch name {
	case "node", "text", "comment", "processing-instruction":
		return true
	}
	return false
}

func descendantOrSelfStep() *step {
	return &step{axis: axisDescendantOrSelf, test: nodeTest{anyNode: true}}
}

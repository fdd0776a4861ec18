package registry

import (
	"errors"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// FeatureExpr evaluates an if-feature expression in the context of the
// (sub)module mid. The grammar follows RFC 7950 section 7.20.2:
// feature references combined with "and", "or", "not" and parentheses,
// where "not" binds tightest and "or" loosest.
func (c *Context) FeatureExpr(text string, mid ModuleID) (bool, error) {
	p := &featureParser{ctx: c, mid: mid, text: text}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	p.skipSpace()
	if p.pos < len(p.text) {
		return false, p.bad()
	}
	return result, nil
}

type featureParser struct {
	ctx  *Context
	mid  ModuleID
	text string
	pos  int
}

func (p *featureParser) bad() error {
	return &yangErrors.InvalidFeatureExpression{Expression: p.text, Offset: p.pos}
}

func (p *featureParser) skipSpace() {
	for p.pos < len(p.text) {
		switch p.text[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// word reads the identifier-like token at the cursor without consuming
// it.
func (p *featureParser) word() string {
	end := p.pos
	for end < len(p.text) {
		c := p.text[end]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' {
			break
		}
		end++
	}
	return p.text[p.pos:end]
}

func (p *featureParser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for {
		p.skipSpace()
		if p.word() != "or" {
			return result, nil
		}
		p.pos += len("or")
		operand, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || operand
	}
}

func (p *featureParser) parseAnd() (bool, error) {
	result, err := p.parseNot()
	if err != nil {
		return false, err
	}
	for {
		p.skipSpace()
		if p.word() != "and" {
			return result, nil
		}
		p.pos += len("and")
		operand, err := p.parseNot()
		if err != nil {
			return false, err
		}
		result = result && operand
	}
}

func (p *featureParser) parseNot() (bool, error) {
	p.skipSpace()
	if p.word() == "not" {
		p.pos += len("not")
		operand, err := p.parseNot()
		if err != nil {
			return false, err
		}
		return !operand, nil
	}
	return p.parseAtom()
}

func (p *featureParser) parseAtom() (bool, error) {
	p.skipSpace()
	if p.pos >= len(p.text) {
		return false, p.bad()
	}

	if p.text[p.pos] == '(' {
		p.pos++
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		p.skipSpace()
		if p.pos >= len(p.text) || p.text[p.pos] != ')' {
			return false, p.bad()
		}
		p.pos++
		return result, nil
	}

	name := p.word()
	if name == "" || name == "and" || name == "or" {
		return false, p.bad()
	}
	qn, err := p.ctx.TranslatePName(name, p.mid)
	if err != nil {
		// A malformed token is a syntax problem of the expression;
		// an unknown prefix keeps its own identity.
		var badName *yangErrors.BadPrefName
		if errors.As(err, &badName) {
			return false, p.bad()
		}
		return false, err
	}
	p.pos += len(name)
	return p.ctx.FeatureSupported(qn), nil
}

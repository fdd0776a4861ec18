package instance

import (
	"fmt"
	"strconv"
	"strings"

	"jsouthworth.net/go/try"

	"mercator-hq/ganymede/pkg/schema"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// InstanceID is a parsed instance-identifier, a slash-separated chain
// of member names with optional entry predicates.
type InstanceID struct {
	text  string
	steps []iidStep
}

func (iid *InstanceID) String() string { return iid.text }

type iidStep struct {
	name  yang.QName
	preds []iidPred
}

// iidPred is one predicate of a step: a one-based position, a key leaf
// comparison, or a leaf-list value comparison written [.='v'].
type iidPred struct {
	pos   int
	key   yang.QName
	dot   bool
	value string
}

// ParseInstanceID parses text of the form /module:name[key='v']/name[2].
// The first step must carry a module qualifier; later steps inherit the
// previous step's module. Malformed text fails with BadPath.
func ParseInstanceID(text string) (*InstanceID, error) {
	out, err := try.Apply(parseInstanceID, text)
	if err != nil {
		return nil, &yangErrors.BadPath{Path: text, Reason: err.Error()}
	}
	return out.(*InstanceID), nil
}

// parseInstanceID panics on malformed input. ParseInstanceID recovers
// the panic into the returned error.
func parseInstanceID(text string) *InstanceID {
	p := &iidParser{text: text}
	if !p.accept('/') {
		p.fail("must begin with /")
	}
	iid := &InstanceID{text: text}
	for {
		st := iidStep{name: p.name()}
		for p.peek() == '[' {
			st.preds = append(st.preds, p.predicate())
		}
		iid.steps = append(iid.steps, st)
		if p.pos >= len(p.text) {
			if iid.steps[0].name.Module == "" {
				p.fail("the first step must be module qualified")
			}
			return iid
		}
		if !p.accept('/') {
			p.fail("expected /")
		}
	}
}

type iidParser struct {
	text string
	pos  int
}

func (p *iidParser) fail(msg string) {
	panic(fmt.Errorf("%s at offset %d", msg, p.pos))
}

func (p *iidParser) peek() byte {
	if p.pos >= len(p.text) {
		return 0
	}
	return p.text[p.pos]
}

func (p *iidParser) accept(c byte) bool {
	if p.peek() != c {
		return false
	}
	p.pos++
	return true
}

func (p *iidParser) expect(c byte) {
	if !p.accept(c) {
		p.fail("expected " + strconv.QuoteRune(rune(c)))
	}
}

func (p *iidParser) skipSpace() {
	for p.peek() == ' ' || p.peek() == '\t' {
		p.pos++
	}
}

func (p *iidParser) name() yang.QName {
	start := p.pos
	for p.pos < len(p.text) && p.text[p.pos] != '/' && p.text[p.pos] != '[' {
		p.pos++
	}
	return p.qname(p.text[start:p.pos])
}

func (p *iidParser) qname(raw string) yang.QName {
	module, local, ok := yang.SplitPName(raw)
	if !ok {
		p.fail("bad node name " + strconv.Quote(raw))
	}
	return yang.NewQName(module, local)
}

func (p *iidParser) predicate() iidPred {
	p.expect('[')
	p.skipSpace()
	switch c := p.peek(); {
	case c == '.':
		p.pos++
		p.skipSpace()
		p.expect('=')
		v := p.quoted()
		p.skipSpace()
		p.expect(']')
		return iidPred{dot: true, value: v}
	case c >= '0' && c <= '9':
		start := p.pos
		for c := p.peek(); c >= '0' && c <= '9'; c = p.peek() {
			p.pos++
		}
		n, err := strconv.Atoi(p.text[start:p.pos])
		if err != nil || n < 1 {
			p.fail("position must be a positive integer")
		}
		p.skipSpace()
		p.expect(']')
		return iidPred{pos: n}
	default:
		start := p.pos
		for c := p.peek(); c != 0 && c != '=' && c != ']' && c != ' ' && c != '\t'; c = p.peek() {
			p.pos++
		}
		key := p.qname(p.text[start:p.pos])
		p.skipSpace()
		p.expect('=')
		v := p.quoted()
		p.skipSpace()
		p.expect(']')
		return iidPred{key: key, value: v}
	}
}

func (p *iidParser) quoted() string {
	p.skipSpace()
	q := p.peek()
	if q != '\'' && q != '"' {
		p.fail("expected a quoted value")
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.text) && p.text[p.pos] != q {
		p.pos++
	}
	if p.pos >= len(p.text) {
		p.fail("unterminated quote")
	}
	v := p.text[start:p.pos]
	p.pos++
	return v
}

// AtInstanceID returns the focus the identifier names, resolved
// relative to the receiver. Key and leaf-list predicate values are
// parsed through the addressed leaf's type, so the comparison uses
// internal representations.
func (h *Handle) AtInstanceID(iid *InstanceID) (*Handle, error) {
	cur := h
	module := ""
	for _, st := range iid.steps {
		name := st.name
		if name.Module == "" {
			name.Module = module
		}
		module = name.Module
		var err error
		cur, err = cur.Member(name)
		if err != nil {
			return nil, err
		}
		var keys map[yang.QName]any
		for _, pr := range st.preds {
			switch {
			case pr.pos > 0:
				cur, err = cur.Entry(pr.pos - 1)
			case pr.dot:
				var v any
				v, err = predValue(cur.Schema(), yang.QName{}, pr.value)
				if err == nil {
					cur, err = cur.LookupValue(v)
				}
			default:
				key := pr.key
				if key.Module == "" {
					key.Module = module
				}
				var v any
				v, err = predValue(cur.Schema(), key, pr.value)
				if keys == nil {
					keys = make(map[yang.QName]any)
				}
				keys[key] = v
			}
			if err != nil {
				return nil, err
			}
		}
		if keys != nil {
			cur, err = cur.LookupEntry(keys)
			if err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

// predValue parses a predicate value through the type of the addressed
// leaf. A zero key names the list node itself, for leaf-list values.
// Without a schema the raw string is compared.
func predValue(sn *schema.Node, key yang.QName, text string) (any, error) {
	if sn != nil && !key.IsZero() {
		sn = sn.DataChild(key)
	}
	if sn == nil || sn.Type == nil {
		return text, nil
	}
	v, err := sn.Type.ParseValue(text)
	if err != nil {
		return nil, &yangErrors.InvalidKeyValue{Value: text}
	}
	return v, nil
}

// AtPointer returns the focus at a JSON-pointer style path of member
// names and zero-based entry indexes, for example /sw:routing/route/0.
// Unqualified member names inherit the module of the nearest qualified
// ancestor.
func (h *Handle) AtPointer(ptr string) (*Handle, error) {
	if ptr == "" || ptr == "/" {
		return h, nil
	}
	if ptr[0] != '/' {
		return nil, &yangErrors.BadPath{Path: ptr, Reason: "must begin with /"}
	}
	cur := h
	module := cur.Name().Module
	for _, seg := range strings.Split(ptr[1:], "/") {
		if seg == "" {
			return nil, &yangErrors.BadPath{Path: ptr, Reason: "empty segment"}
		}
		if _, ok := cur.value.(*Array); ok {
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 {
				return nil, &yangErrors.BadPath{Path: ptr, Reason: "bad entry index " + strconv.Quote(seg)}
			}
			cur, err = cur.Entry(i)
			if err != nil {
				return nil, err
			}
			continue
		}
		mod, local, ok := yang.SplitPName(seg)
		if !ok {
			return nil, &yangErrors.BadPath{Path: ptr, Reason: "bad member name " + strconv.Quote(seg)}
		}
		if mod == "" {
			mod = module
		}
		if mod == "" {
			return nil, &yangErrors.BadPath{Path: ptr, Reason: "unqualified top-level member " + strconv.Quote(seg)}
		}
		next, err := cur.Member(yang.NewQName(mod, local))
		if err != nil {
			return nil, err
		}
		cur, module = next, mod
	}
	return cur, nil
}

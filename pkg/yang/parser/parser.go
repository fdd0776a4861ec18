package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

const defaultMaxDepth = 1000

// Option configures a Parser.
type Option func(*Parser)

// WithFileName sets the file name recorded in statement locations.
func WithFileName(name string) Option {
	return func(p *Parser) {
		p.file = name
	}
}

// WithMaxDepth sets the maximum statement nesting depth. Input nested
// deeper than this is rejected.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// Parser parses YANG module text into a statement tree.
type Parser struct {
	file     string
	maxDepth int
}

// New creates a Parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is a convenience wrapper that parses src with default options,
// recording file as the source name.
func Parse(src []byte, file string) (*ast.Statement, error) {
	return New(WithFileName(file)).Parse(src)
}

// Parse parses one complete module or submodule text and returns its
// top-level statement.
func (p *Parser) Parse(src []byte) (*ast.Statement, error) {
	s := &scanner{src: string(src), file: p.file, line: 1, col: 1}

	s.skipSep()
	if s.eof() {
		return nil, &yangErrors.EndOfInput{Location: s.location(), Expected: "statement"}
	}
	stmt, err := p.parseStatement(s, 0)
	if err != nil {
		return nil, err
	}
	s.skipSep()
	if !s.eof() {
		return nil, &yangErrors.UnexpectedInput{
			Location: s.location(),
			Expected: "end of input",
			Found:    fmt.Sprintf("%q", s.peekToken()),
		}
	}
	return stmt, nil
}

func (p *Parser) parseStatement(s *scanner, depth int) (*ast.Statement, error) {
	if depth > p.maxDepth {
		return nil, &yangErrors.UnexpectedInput{
			Location: s.location(),
			Found:    fmt.Sprintf("statement nested deeper than %d levels", p.maxDepth),
		}
	}

	loc := s.location()
	keyword, err := s.readKeyword()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Statement{Keyword: keyword, Location: loc}

	s.skipSep()
	if s.eof() {
		return nil, &yangErrors.EndOfInput{Location: s.location(), Expected: `";" or "{"`}
	}
	if c := s.peek(); c != ';' && c != '{' {
		arg, err := s.readArgument()
		if err != nil {
			return nil, err
		}
		stmt.Argument = arg
		stmt.HasArgument = true
		s.skipSep()
	}

	if s.eof() {
		return nil, &yangErrors.EndOfInput{Location: s.location(), Expected: `";" or "{"`}
	}
	switch s.peek() {
	case ';':
		s.next()
		return stmt, nil
	case '{':
		s.next()
		for {
			s.skipSep()
			if s.eof() {
				return nil, &yangErrors.EndOfInput{Location: s.location(), Expected: `"}"`}
			}
			if s.peek() == '}' {
				s.next()
				return stmt, nil
			}
			sub, err := p.parseStatement(s, depth+1)
			if err != nil {
				return nil, err
			}
			stmt.Substatements = append(stmt.Substatements, sub)
		}
	default:
		return nil, &yangErrors.UnexpectedInput{
			Location: s.location(),
			Expected: `";" or "{"`,
			Found:    fmt.Sprintf("%q", s.peekToken()),
		}
	}
}

// scanner walks module text byte-wise, tracking line and column for
// error locations. Columns count runes.
type scanner struct {
	src  string
	file string
	pos  int
	line int
	col  int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte { return s.src[s.pos] }

// peekToken returns a short excerpt of upcoming input for error
// messages.
func (s *scanner) peekToken() string {
	end := s.pos
	for end < len(s.src) && end-s.pos < 12 {
		c := s.src[end]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		end++
	}
	if end == s.pos {
		return string(s.src[s.pos])
	}
	return s.src[s.pos:end]
}

func (s *scanner) location() ast.Location {
	return ast.Location{File: s.file, Line: s.line, Column: s.col}
}

// next consumes one rune and keeps the line and column counters in
// step.
func (s *scanner) next() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

// skipSep consumes whitespace and both comment forms.
func (s *scanner) skipSep() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			s.next()
		case '/':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
				for !s.eof() && s.peek() != '\n' {
					s.next()
				}
				continue
			}
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '*' {
				s.next()
				s.next()
				for !s.eof() {
					if s.peek() == '*' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
						s.next()
						s.next()
						break
					}
					s.next()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

// readKeyword reads a statement keyword: an identifier, optionally
// prefixed for extension statements.
func (s *scanner) readKeyword() (string, error) {
	loc := s.location()
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' || c == '{' || c == '}' {
			break
		}
		s.next()
	}
	word := s.src[start:s.pos]
	if word == "" {
		return "", &yangErrors.UnexpectedInput{
			Location: loc,
			Expected: "statement keyword",
			Found:    fmt.Sprintf("%q", s.peekToken()),
		}
	}
	if _, _, ok := yang.SplitPName(word); !ok {
		return "", &yangErrors.UnexpectedInput{
			Location: loc,
			Expected: "statement keyword",
			Found:    fmt.Sprintf("%q", word),
		}
	}
	return word, nil
}

// readArgument reads a statement argument: an unquoted word or a
// sequence of quoted strings joined with "+".
func (s *scanner) readArgument() (string, error) {
	if c := s.peek(); c != '"' && c != '\'' {
		return s.readUnquoted(), nil
	}

	var sb strings.Builder
	for {
		part, err := s.readQuoted()
		if err != nil {
			return "", err
		}
		sb.WriteString(part)

		s.skipSep()
		if s.eof() || s.peek() != '+' {
			return sb.String(), nil
		}
		s.next()
		s.skipSep()
		if s.eof() {
			return "", &yangErrors.EndOfInput{Location: s.location(), Expected: "quoted string"}
		}
		if c := s.peek(); c != '"' && c != '\'' {
			return "", &yangErrors.UnexpectedInput{
				Location: s.location(),
				Expected: "quoted string",
				Found:    fmt.Sprintf("%q", s.peekToken()),
			}
		}
	}
}

// readUnquoted reads an argument up to whitespace, a structural
// character or the start of a comment. A single "/" does not end the
// argument, so path expressions stay intact.
func (s *scanner) readUnquoted() string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' || c == '{' || c == '}' {
			break
		}
		if c == '/' && s.pos+1 < len(s.src) && (s.src[s.pos+1] == '/' || s.src[s.pos+1] == '*') {
			break
		}
		s.next()
	}
	return s.src[start:s.pos]
}

func (s *scanner) readQuoted() (string, error) {
	quote := s.peek()
	quoteCol := s.col
	s.next()

	if quote == '\'' {
		start := s.pos
		for !s.eof() && s.peek() != '\'' {
			s.next()
		}
		if s.eof() {
			return "", &yangErrors.EndOfInput{Location: s.location(), Expected: `"'"`}
		}
		out := s.src[start:s.pos]
		s.next()
		return out, nil
	}

	var sb strings.Builder
	for {
		if s.eof() {
			return "", &yangErrors.EndOfInput{Location: s.location(), Expected: `'"'`}
		}
		switch c := s.peek(); c {
		case '"':
			s.next()
			return sb.String(), nil
		case '\\':
			loc := s.location()
			s.next()
			if s.eof() {
				return "", &yangErrors.EndOfInput{Location: s.location(), Expected: "escape character"}
			}
			switch esc := s.next(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return "", &yangErrors.UnexpectedInput{
					Location: loc,
					Expected: `one of "\n", "\t", "\"", "\\"`,
					Found:    fmt.Sprintf("\\%c", esc),
				}
			}
		case '\n':
			// Trailing whitespace before a line break inside a
			// double-quoted string is insignificant per RFC 7950
			// section 6.1.3, as is indentation up to the column
			// after the opening quote.
			trimmed := strings.TrimRight(sb.String(), " \t")
			sb.Reset()
			sb.WriteString(trimmed)
			sb.WriteByte('\n')
			s.next()
			indent := 0
			for !s.eof() && indent < quoteCol {
				if c := s.peek(); c == ' ' {
					indent++
				} else if c == '\t' {
					indent += 8
				} else {
					break
				}
				s.next()
			}
		default:
			sb.WriteRune(s.next())
		}
	}
}

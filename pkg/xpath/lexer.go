package xpath

import (
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenName
	TokenNumber
	TokenLiteral
	TokenSlash
	TokenDoubleSlash
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenDot
	TokenDotDot
	TokenAt
	TokenComma
	TokenAxisSep
	TokenStar
	TokenPipe
	TokenPlus
	TokenMinus
	TokenEq
	TokenNeq
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenAnd
	TokenOr
	TokenDiv
	TokenMod
	TokenDollar
)

// Token is one lexical token of an expression.
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

// lexAll tokenizes a whole expression. Operator names (and, or, div,
// mod) are told apart from node tests by lookbehind: a name directly
// after something that can end an operand is an operator. Star gets the
// same treatment, multiplication after an operand and a wildcard
// elsewhere; the parser keys off the token type.
func lexAll(text string) ([]Token, error) {
	var (
		tokens   []Token
		pos      int
		afterOp  bool // previous token can end an operand
		srcError = func(off int, reason string) error {
			return &yangErrors.InvalidXPath{Expression: text, Offset: off, Reason: reason}
		}
	)

	for pos < len(text) {
		c := text[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
			continue

		case c == '(':
			tokens = append(tokens, Token{TokenLParen, "(", pos})
			pos, afterOp = pos+1, false
		case c == ')':
			tokens = append(tokens, Token{TokenRParen, ")", pos})
			pos, afterOp = pos+1, true
		case c == '[':
			tokens = append(tokens, Token{TokenLBracket, "[", pos})
			pos, afterOp = pos+1, false
		case c == ']':
			tokens = append(tokens, Token{TokenRBracket, "]", pos})
			pos, afterOp = pos+1, true
		case c == ',':
			tokens = append(tokens, Token{TokenComma, ",", pos})
			pos, afterOp = pos+1, false
		case c == '@':
			tokens = append(tokens, Token{TokenAt, "@", pos})
			pos, afterOp = pos+1, false
		case c == '$':
			tokens = append(tokens, Token{TokenDollar, "$", pos})
			pos, afterOp = pos+1, false
		case c == '|':
			tokens = append(tokens, Token{TokenPipe, "|", pos})
			pos, afterOp = pos+1, false
		case c == '+':
			tokens = append(tokens, Token{TokenPlus, "+", pos})
			pos, afterOp = pos+1, false
		case c == '-':
			tokens = append(tokens, Token{TokenMinus, "-", pos})
			pos, afterOp = pos+1, false
		case c == '*':
			// Multiplication after an operand, wildcard elsewhere.
			// The parser tells them apart by position; only the
			// operand state flips here.
			tokens = append(tokens, Token{TokenStar, "*", pos})
			afterOp = !afterOp
			pos++

		case c == '/':
			if pos+1 < len(text) && text[pos+1] == '/' {
				tokens = append(tokens, Token{TokenDoubleSlash, "//", pos})
				pos += 2
			} else {
				tokens = append(tokens, Token{TokenSlash, "/", pos})
				pos++
			}
			afterOp = false

		case c == '.':
			if pos+1 < len(text) && text[pos+1] == '.' {
				tokens = append(tokens, Token{TokenDotDot, "..", pos})
				pos += 2
				afterOp = true
			} else if pos+1 < len(text) && isDigit(text[pos+1]) {
				start := pos
				pos = scanNumber(text, pos)
				tokens = append(tokens, Token{TokenNumber, text[start:pos], start})
				afterOp = true
			} else {
				tokens = append(tokens, Token{TokenDot, ".", pos})
				pos++
				afterOp = true
			}

		case c == ':':
			if pos+1 < len(text) && text[pos+1] == ':' {
				tokens = append(tokens, Token{TokenAxisSep, "::", pos})
				pos += 2
				afterOp = false
			} else {
				return nil, srcError(pos, "stray colon")
			}

		case c == '=':
			tokens = append(tokens, Token{TokenEq, "=", pos})
			pos, afterOp = pos+1, false
		case c == '!':
			if pos+1 >= len(text) || text[pos+1] != '=' {
				return nil, srcError(pos, `"!" must be followed by "="`)
			}
			tokens = append(tokens, Token{TokenNeq, "!=", pos})
			pos, afterOp = pos+2, false
		case c == '<':
			if pos+1 < len(text) && text[pos+1] == '=' {
				tokens = append(tokens, Token{TokenLe, "<=", pos})
				pos += 2
			} else {
				tokens = append(tokens, Token{TokenLt, "<", pos})
				pos++
			}
			afterOp = false
		case c == '>':
			if pos+1 < len(text) && text[pos+1] == '=' {
				tokens = append(tokens, Token{TokenGe, ">=", pos})
				pos += 2
			} else {
				tokens = append(tokens, Token{TokenGt, ">", pos})
				pos++
			}
			afterOp = false

		case c == '"' || c == '\'':
			start := pos
			pos++
			for pos < len(text) && text[pos] != c {
				pos++
			}
			if pos >= len(text) {
				return nil, srcError(start, "unterminated literal")
			}
			tokens = append(tokens, Token{TokenLiteral, text[start+1 : pos], start})
			pos++
			afterOp = true

		case isDigit(c):
			start := pos
			pos = scanNumber(text, pos)
			tokens = append(tokens, Token{TokenNumber, text[start:pos], start})
			afterOp = true

		case isNameStart(c):
			start := pos
			pos = scanName(text, pos)
			word := text[start:pos]
			// An embedded prefix: "p:name". A double colon is an
			// axis separator and stays un-consumed.
			if pos < len(text) && text[pos] == ':' && !(pos+1 < len(text) && text[pos+1] == ':') {
				pos++
				if pos >= len(text) || !isNameStart(text[pos]) {
					return nil, srcError(pos, "expected name after prefix")
				}
				pos = scanName(text, pos)
				word = text[start:pos]
			}
			if afterOp {
				switch word {
				case "and":
					tokens = append(tokens, Token{TokenAnd, word, start})
					afterOp = false
					continue
				case "or":
					tokens = append(tokens, Token{TokenOr, word, start})
					afterOp = false
					continue
				case "div":
					tokens = append(tokens, Token{TokenDiv, word, start})
					afterOp = false
					continue
				case "mod":
					tokens = append(tokens, Token{TokenMod, word, start})
					afterOp = false
					continue
				}
			}
			tokens = append(tokens, Token{TokenName, word, start})
			afterOp = true

		default:
			return nil, srcError(pos, "unexpected character "+string(c))
		}
	}

	tokens = append(tokens, Token{TokenEOF, "", len(text)})
	return tokens, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-' || c == '.'
}

func scanNumber(text string, pos int) int {
	for pos < len(text) && isDigit(text[pos]) {
		pos++
	}
	if pos < len(text) && text[pos] == '.' {
		// ".." after digits belongs to a following parent step.
		if !(pos+1 < len(text) && text[pos+1] == '.') {
			pos++
			for pos < len(text) && isDigit(text[pos]) {
				pos++
			}
		}
	}
	return pos
}

func scanName(text string, pos int) int {
	for pos < len(text) && isNameChar(text[pos]) {
		// A trailing dot pair belongs to a parent step, and a name
		// never ends with a dot in YANG identifiers.
		if text[pos] == '.' && pos+1 < len(text) && text[pos+1] == '.' {
			break
		}
		pos++
	}
	return pos
}

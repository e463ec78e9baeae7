package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokQuestion
	tokColon
	tokAssign
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of formula"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokIdent:
		return "identifier"
	case tokOp:
		return "operator"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokQuestion:
		return "'?'"
	case tokColon:
		return "':'"
	case tokAssign:
		return "'='"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string // operator spelling, identifier, number literal or unquoted string
	pos  int
}

// twoCharOps must be checked before single-character operators.
var twoCharOps = []string{"**", "<=", ">=", "==", "!=", "&&", "||"}

const singleCharOps = "+-*/%^<>!"

// tokenize splits src into tokens. The final token is always tokEOF.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case isDigit(src[i]) || (src[i] == '.' && i+1 < len(src) && isDigit(src[i+1])):
			end, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:end], pos: i})
			i = end

		case r == '\'' || r == '"':
			text, end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: text, pos: i})
			i = end

		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})

		default:
			tok, ok := scanPunct(src, i)
			if !ok {
				return nil, errorf(CodeSyntax, i, "unexpected character %q", r)
			}
			toks = append(toks, tok)
			i += len(tok.text)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func scanPunct(src string, i int) (token, bool) {
	for _, op := range twoCharOps {
		if strings.HasPrefix(src[i:], op) {
			return token{kind: tokOp, text: op, pos: i}, true
		}
	}
	c := src[i]
	switch c {
	case '(':
		return token{kind: tokLParen, text: "(", pos: i}, true
	case ')':
		return token{kind: tokRParen, text: ")", pos: i}, true
	case ',':
		return token{kind: tokComma, text: ",", pos: i}, true
	case '?':
		return token{kind: tokQuestion, text: "?", pos: i}, true
	case ':':
		return token{kind: tokColon, text: ":", pos: i}, true
	case '=':
		return token{kind: tokAssign, text: "=", pos: i}, true
	}
	if strings.IndexByte(singleCharOps, c) >= 0 {
		return token{kind: tokOp, text: string(c), pos: i}, true
	}
	return token{}, false
}

// scanNumber accepts 12, 9.8, .5 and 6.02e23 forms.
func scanNumber(src string, start int) (int, error) {
	i := start
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j >= len(src) || !isDigit(src[j]) {
			return 0, errorf(CodeSyntax, i, "malformed exponent in number %q", src[start:j])
		}
		for j < len(src) && isDigit(src[j]) {
			j++
		}
		i = j
	}
	if i < len(src) {
		if r, _ := utf8.DecodeRuneInString(src[i:]); isIdentStart(r) || r == '.' {
			return 0, errorf(CodeSyntax, i, "malformed number %q", src[start:i+1])
		}
	}
	return i, nil
}

// scanString reads a quoted literal. A backslash escapes the next character.
func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			b.WriteByte(src[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errorf(CodeSyntax, start, "unterminated string literal")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }

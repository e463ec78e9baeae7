package expr

import (
	"strconv"
)

// Formula is a parsed compute entry.
type Formula struct {
	// Target is the name from an "x = ..." prefix, or "" for a bare formula.
	Target string

	// Expr is the right-hand side.
	Expr Node

	// Source is the original formula text.
	Source string
}

// maxDepth bounds parser recursion so hostile input cannot exhaust the stack.
const maxDepth = 64

// Binding powers, loosest first.
const (
	bpNone = iota
	bpOr
	bpAnd
	bpEquality
	bpCompare
	bpAdditive
	bpMultiplicative
	bpUnary
	bpPower
)

var infixPower = map[string]int{
	"||": bpOr,
	"&&": bpAnd,
	"==": bpEquality,
	"!=": bpEquality,
	"<":  bpCompare,
	">":  bpCompare,
	"<=": bpCompare,
	">=": bpCompare,
	"+":  bpAdditive,
	"-":  bpAdditive,
	"*":  bpMultiplicative,
	"/":  bpMultiplicative,
	"%":  bpMultiplicative,
	"^":  bpPower,
	"**": bpPower,
}

// Parse parses a formula, accepting an optional "name =" prefix.
func Parse(src string) (*Formula, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	f := &Formula{Source: src}
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokAssign {
		f.Target = p.next().text
		p.next()
	}

	expr, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		if tok.kind == tokQuestion {
			return nil, errorf(CodeSyntax, tok.pos, "nested conditional: at most one '?' per formula")
		}
		return nil, errorf(CodeSyntax, tok.pos, "unexpected %s after expression", describe(tok))
	}
	f.Expr = expr
	return f, nil
}

// ParseFor parses a compute entry bound to target. A prefix naming a
// different target is a syntax error.
func ParseFor(target, src string) (*Formula, error) {
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if f.Target != "" && f.Target != target {
		return nil, errorf(CodeSyntax, 0, "formula assigns %q but is declared as %q", f.Target, target)
	}
	f.Target = target
	return f, nil
}

type parser struct {
	toks         []token
	pos          int
	depth        int
	conditionals int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, errorf(CodeSyntax, tok.pos, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxDepth {
		return errorf(CodeSyntax, pos, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseConditional parses expr [ "?" expr ":" expr ].
func (p *parser) parseConditional() (Node, error) {
	cond, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	q := p.peek()
	if q.kind != tokQuestion {
		return cond, nil
	}
	p.next()
	p.conditionals++
	if p.conditionals > 1 {
		return nil, errorf(CodeSyntax, q.pos, "nested conditional: at most one '?' per formula")
	}

	then, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokQuestion {
		return nil, errorf(CodeSyntax, tok.pos, "nested conditional: at most one '?' per formula")
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	return Conditional{Cond: cond, Then: then, Else: els, Offset: q.pos}, nil
}

// parseExpr is the Pratt loop: a prefix parse followed by infix operators
// binding tighter than minBP.
func (p *parser) parseExpr(minBP int) (Node, error) {
	if err := p.enter(p.peek().pos); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp {
			return left, nil
		}
		bp, ok := infixPower[tok.text]
		if !ok {
			return nil, errorf(CodeSyntax, tok.pos, "%q is not a binary operator", tok.text)
		}
		if bp <= minBP {
			return left, nil
		}
		p.next()

		rbp := bp
		if bp == bpPower {
			rbp = bp - 1 // right-associative
		}
		right, err := p.parseExpr(rbp)
		if err != nil {
			return nil, err
		}
		op := tok.text
		if op == "**" {
			op = "^"
		}
		left = Binary{Op: op, Left: left, Right: right, Offset: tok.pos}
	}
}

func (p *parser) parsePrefix() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, errorf(CodeSyntax, tok.pos, "invalid number %q", tok.text)
		}
		return NumberLit{Value: v, Offset: tok.pos}, nil

	case tokString:
		return StringLit{Value: tok.text, Offset: tok.pos}, nil

	case tokIdent:
		switch tok.text {
		case "true":
			return BoolLit{Value: true, Offset: tok.pos}, nil
		case "false":
			return BoolLit{Value: false, Offset: tok.pos}, nil
		}
		if p.peek().kind == tokLParen {
			return p.parseCall(tok)
		}
		return Ident{Name: tok.text, Offset: tok.pos}, nil

	case tokLParen:
		inner, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case tokOp:
		switch tok.text {
		case "-", "+", "!":
			operand, err := p.parseExpr(bpUnary)
			if err != nil {
				return nil, err
			}
			return Unary{Op: tok.text, Operand: operand, Offset: tok.pos}, nil
		}
	}
	return nil, errorf(CodeSyntax, tok.pos, "unexpected %s", describe(tok))
}

func (p *parser) parseCall(name token) (Node, error) {
	fn, ok := builtins[name.text]
	if !ok {
		return nil, errorf(CodeSyntax, name.pos, "unknown function %q", name.text)
	}
	p.next() // (

	var args []Node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, errorf(CodeSyntax, name.pos, "%s expects %s, got %d", name.text, fn.arity(), len(args))
	}
	return Call{Func: name.text, Args: args, Offset: name.pos}, nil
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of formula"
	case tokOp, tokIdent, tokNumber:
		return strconv.Quote(tok.text)
	case tokString:
		return "string literal"
	default:
		return tok.kind.String()
	}
}

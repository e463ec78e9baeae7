// Package expr is the sandboxed formula evaluator for template compute
// blocks.
//
// A formula is tokenized, parsed by a Pratt parser into a sealed AST and
// interpreted against a binding environment. Nothing is ever handed to a
// general-purpose evaluator: the grammar below and a fixed whitelist of
// pure math functions are the whole language.
//
//	formula     = [ ident "=" ] conditional
//	conditional = expr [ "?" expr ":" expr ]      (at most one per formula)
//	expr        = literal | ident | call | "(" conditional ")"
//	            | prefix expr | expr infix expr
//	prefix      = "-" | "+" | "!"
//	infix       = "||" | "&&" | "==" | "!=" | "<" | ">" | "<=" | ">="
//	            | "+" | "-" | "*" | "/" | "%" | "^" | "**"
//
// Precedence, loosest first: || && equality comparison additive
// multiplicative unary power. Power is right-associative and binds tighter
// than unary minus, so -2^2 is -4.
//
// Failures are returned as *Error values carrying a Code. The caller decides
// the fallback policy; this package never logs.
package expr

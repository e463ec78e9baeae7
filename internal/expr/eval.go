package expr

import (
	"math"

	"github.com/roach88/exgen/internal/ir"
)

// Env resolves identifiers during evaluation.
// ir.Bindings and ir.Layered implement it.
type Env interface {
	Lookup(name string) (ir.Value, bool)
}

// Eval evaluates the formula against env.
func (f *Formula) Eval(env Env) (ir.Value, error) {
	return Eval(f.Expr, env)
}

// Evaluate parses src and evaluates it against env in one step.
func Evaluate(src string, env Env) (ir.Value, error) {
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return f.Eval(env)
}

// Eval interprets n against env. Numeric results are always finite.
func Eval(n Node, env Env) (ir.Value, error) {
	switch node := n.(type) {
	case NumberLit:
		return ir.Number(node.Value), nil
	case StringLit:
		return ir.String(node.Value), nil
	case BoolLit:
		return ir.Bool(node.Value), nil
	case Ident:
		return lookup(node, env)
	case Unary:
		return evalUnary(node, env)
	case Binary:
		return evalBinary(node, env)
	case Conditional:
		cond, err := evalBool(node.Cond, env, "condition")
		if err != nil {
			return nil, err
		}
		if cond {
			return Eval(node.Then, env)
		}
		return Eval(node.Else, env)
	case Call:
		return evalCall(node, env)
	case nil:
		return nil, errorf(CodeSyntax, -1, "empty formula")
	default:
		return nil, errorf(CodeSyntax, n.Pos(), "unknown node type %T", n)
	}
}

func lookup(id Ident, env Env) (ir.Value, error) {
	if env != nil {
		if v, ok := env.Lookup(id.Name); ok {
			return v, nil
		}
	}
	if c, ok := constants[id.Name]; ok {
		return ir.Number(c), nil
	}
	return nil, &Error{
		Code:    CodeUnbound,
		Pos:     id.Offset,
		Name:    id.Name,
		Message: "unbound identifier " + id.Name,
	}
}

func evalUnary(u Unary, env Env) (ir.Value, error) {
	if u.Op == "!" {
		b, err := evalBool(u.Operand, env, "operand of !")
		if err != nil {
			return nil, err
		}
		return ir.Bool(!b), nil
	}
	x, err := evalNumber(u.Operand, env, "operand of unary "+u.Op)
	if err != nil {
		return nil, err
	}
	if u.Op == "-" {
		return ir.Number(-x), nil
	}
	return ir.Number(x), nil
}

func evalBinary(b Binary, env Env) (ir.Value, error) {
	switch b.Op {
	case "&&", "||":
		left, err := evalBool(b.Left, env, "left operand of "+b.Op)
		if err != nil {
			return nil, err
		}
		if (b.Op == "&&" && !left) || (b.Op == "||" && left) {
			return ir.Bool(left), nil
		}
		right, err := evalBool(b.Right, env, "right operand of "+b.Op)
		if err != nil {
			return nil, err
		}
		return ir.Bool(right), nil

	case "==", "!=":
		left, err := Eval(b.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := Eval(b.Right, env)
		if err != nil {
			return nil, err
		}
		if left.Kind() != right.Kind() {
			return nil, errorf(CodeType, b.Offset, "cannot compare %s with %s", left.Kind(), right.Kind())
		}
		eq := left == right
		if b.Op == "!=" {
			eq = !eq
		}
		return ir.Bool(eq), nil
	}

	x, err := evalNumber(b.Left, env, "left operand of "+b.Op)
	if err != nil {
		return nil, err
	}
	y, err := evalNumber(b.Right, env, "right operand of "+b.Op)
	if err != nil {
		return nil, err
	}

	var r float64
	switch b.Op {
	case "<":
		return ir.Bool(x < y), nil
	case ">":
		return ir.Bool(x > y), nil
	case "<=":
		return ir.Bool(x <= y), nil
	case ">=":
		return ir.Bool(x >= y), nil
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		if y == 0 {
			return nil, errorf(CodeDivZero, b.Offset, "division by zero")
		}
		r = x / y
	case "%":
		if y == 0 {
			return nil, errorf(CodeDivZero, b.Offset, "modulo by zero")
		}
		r = math.Mod(x, y)
	case "^":
		r = math.Pow(x, y)
	default:
		return nil, errorf(CodeSyntax, b.Offset, "unknown operator %q", b.Op)
	}
	return finite(r, b.Offset, b.Op)
}

func evalCall(c Call, env Env) (ir.Value, error) {
	fn := builtins[c.Func]
	args := make([]float64, len(c.Args))
	for i, arg := range c.Args {
		v, err := evalNumber(arg, env, "argument of "+c.Func)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	r, err := fn.fn(args)
	if err != nil {
		return nil, errorf(CodeDomain, c.Offset, "%v", err)
	}
	return finite(r, c.Offset, c.Func)
}

func evalNumber(n Node, env Env, what string) (float64, error) {
	v, err := Eval(n, env)
	if err != nil {
		return 0, err
	}
	num, ok := v.(ir.Number)
	if !ok {
		return 0, errorf(CodeType, n.Pos(), "%s must be a number, got %s", what, v.Kind())
	}
	return float64(num), nil
}

func evalBool(n Node, env Env, what string) (bool, error) {
	v, err := Eval(n, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.Bool)
	if !ok {
		return false, errorf(CodeType, n.Pos(), "%s must be a boolean, got %s", what, v.Kind())
	}
	return bool(b), nil
}

func finite(r float64, pos int, op string) (ir.Value, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, errorf(CodeDomain, pos, "%s produced a non-finite result", op)
	}
	return ir.Number(r), nil
}

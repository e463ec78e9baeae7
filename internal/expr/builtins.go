package expr

import (
	"fmt"
	"math"

	"github.com/roach88/exgen/internal/format"
)

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	fn      func(args []float64) (float64, error)
}

func (b builtin) arity() string {
	switch {
	case b.maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", b.minArgs)
	case b.minArgs == b.maxArgs:
		return fmt.Sprintf("%d argument(s)", b.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", b.minArgs, b.maxArgs)
	}
}

func unary(f func(float64) float64) builtin {
	return builtin{minArgs: 1, maxArgs: 1, fn: func(a []float64) (float64, error) {
		return f(a[0]), nil
	}}
}

// builtins is the complete function whitelist. There is no way to define
// new functions from a formula.
var builtins = map[string]builtin{
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"ln":    unary(math.Log),
	"log10": unary(math.Log10),
	"exp":   unary(math.Exp),
	"pow": {minArgs: 2, maxArgs: 2, fn: func(a []float64) (float64, error) {
		return math.Pow(a[0], a[1]), nil
	}},
	"log": {minArgs: 1, maxArgs: 2, fn: func(a []float64) (float64, error) {
		if len(a) == 1 {
			return math.Log(a[0]), nil
		}
		return math.Log(a[0]) / math.Log(a[1]), nil
	}},
	"min": {minArgs: 1, maxArgs: -1, fn: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"max": {minArgs: 1, maxArgs: -1, fn: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},
	"round": {minArgs: 1, maxArgs: 2, fn: func(a []float64) (float64, error) {
		if len(a) == 1 {
			return math.Round(a[0]), nil
		}
		d := a[1]
		if d != math.Trunc(d) || d < 0 || d > 15 {
			return 0, fmt.Errorf("round: decimals must be an integer in [0, 15], got %v", d)
		}
		return format.Round(a[0], int(d)), nil
	}},
}

// constants resolve only when no bound name shadows them.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

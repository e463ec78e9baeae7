// Package sampler draws one concrete value per declared template variable.
package sampler

import (
	"fmt"
	"math"

	"github.com/roach88/exgen/internal/format"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/rng"
)

// ConfigError reports a variable declaration that cannot be sampled.
// Templates are validated when loaded, so reaching this at generation time
// means an unvalidated template was passed in.
type ConfigError struct {
	Variable string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Variable, e.Message)
}

// Sample consumes exactly one draw per variable, in declaration order, and
// returns the sampled values.
func Sample(vars ir.Variables, src rng.Source) (ir.Bindings, error) {
	values := make(ir.Bindings, len(vars))
	for _, spec := range vars {
		v, err := SampleOne(spec, src.Float64())
		if err != nil {
			return nil, err
		}
		values[spec.Name] = v
	}
	return values, nil
}

// SampleOne maps one draw r in [0, 1) onto spec.
func SampleOne(spec ir.VariableSpec, r float64) (ir.Value, error) {
	switch spec.Type {
	case ir.TypeChoice:
		n := len(spec.Choices)
		if n == 0 {
			return nil, &ConfigError{Variable: spec.Name, Message: "choices must not be empty"}
		}
		idx := int(math.Floor(r * float64(n)))
		idx = max(0, min(idx, n-1))
		return spec.Choices[idx], nil

	case ir.TypeInteger:
		lo, hi, err := bounds(spec)
		if err != nil {
			return nil, err
		}
		lo, hi = math.Ceil(lo), math.Floor(hi)
		if lo > hi {
			return nil, &ConfigError{Variable: spec.Name, Message: "range contains no integer"}
		}
		v := math.Floor(lo + r*(hi-lo+1))
		return ir.Number(clamp(v, lo, hi)), nil

	case ir.TypeNumber:
		lo, hi, err := bounds(spec)
		if err != nil {
			return nil, err
		}
		d := spec.Precision()
		v := format.Round(lo+r*(hi-lo), d)
		return ir.Number(clampToGrid(v, lo, hi, d)), nil

	default:
		return nil, &ConfigError{Variable: spec.Name, Message: fmt.Sprintf("unknown type %q", spec.Type)}
	}
}

func bounds(spec ir.VariableSpec) (lo, hi float64, err error) {
	lo, hi = spec.Bounds()
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 0, &ConfigError{Variable: spec.Name, Message: "bounds must be finite"}
	}
	if lo > hi {
		return 0, 0, &ConfigError{Variable: spec.Name, Message: fmt.Sprintf("min %v > max %v", lo, hi)}
	}
	return lo, hi, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// clampToGrid keeps a rounded value inside [lo, hi]. Rounding can push a
// draw past a bound that is not itself on the decimals grid; the nearest
// grid point inside the range is used instead, or the bound when the grid
// has no point in range.
func clampToGrid(v, lo, hi float64, decimals int) float64 {
	if v >= lo && v <= hi {
		return v
	}
	p := math.Pow(10, float64(decimals))
	if v < lo {
		if g := math.Ceil(lo*p) / p; g <= hi {
			return g
		}
		return lo
	}
	if g := math.Floor(hi*p) / p; g >= lo {
		return g
	}
	return hi
}

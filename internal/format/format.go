// Package format renders numbers as the canonical text substituted into
// exercise templates.
package format

import (
	"math"
	"strconv"
	"strings"
)

// DefaultMaxDecimals is the precision used when a caller passes a negative
// maxDecimals.
const DefaultMaxDecimals = 3

// Magnitude thresholds for scientific notation.
const (
	sciUpper = 1e6
	sciLower = 1e-3
)

// Number renders v for display.
//
//   - |v| >= 1e6, or v != 0 with |v| < 1e-3: scientific notation with a
//     two-digit mantissa fraction and an unpadded exponent ("1.00e+6")
//   - exact integers: no decimal point ("2", and -0 renders "0")
//   - anything else: maxDecimals+1 significant digits, trailing zeros and a
//     trailing point trimmed ("2.567", 2 -> "2.57")
//
// The magnitude check is repeated after rounding, so 999999.9 renders
// "1.00e+6" and not "1000000".
//
// NaN and infinities render as "NaN", "Infinity" and "-Infinity".
func Number(v float64, maxDecimals int) string {
	if maxDecimals < 0 {
		maxDecimals = DefaultMaxDecimals
	}

	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs >= sciUpper || (v != 0 && abs < sciLower) {
		return scientific(v)
	}
	if v == math.Trunc(v) {
		if v == 0 {
			return "0"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'e', maxDecimals, 64), 64)
	if err != nil {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if rounded == 0 {
		return "0"
	}
	if math.Abs(rounded) >= sciUpper {
		return scientific(rounded)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Default renders v with DefaultMaxDecimals.
func Default(v float64) string {
	return Number(v, DefaultMaxDecimals)
}

// scientific formats v as d.dde±x.
func scientific(v float64) string {
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', 2, 64), "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

// Round rounds v to decimals places, halves away from zero. Results that
// would overflow are returned unrounded.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	return r
}

package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		maxDecimals int
		expected    string
	}{
		{"one million is scientific", 1000000, 3, "1.00e+6"},
		{"small is scientific", 0.0005, 3, "5.00e-4"},
		{"negative large", -2500000, 3, "-2.50e+6"},
		{"avogadro", 6.02e23, 3, "6.02e+23"},
		{"threshold below is positional", 0.001, 3, "0.001"},
		{"just under a million", 999999, 3, "999999"},
		{"rounds up to a million", 999999.9, 3, "1.00e+6"},
		{"negative rounds up to a million", -999999.9, 3, "-1.00e+6"},
		{"rounds below a million", 999499.9, 3, "999500"},
		{"whole float", 2.0, 3, "2"},
		{"negative zero", math.Copysign(0, -1), 3, "0"},
		{"zero", 0, 3, "0"},
		{"negative integer", -42, 3, "-42"},
		{"rounded to three significant", 2.567, 2, "2.57"},
		{"no trailing zero", 19.6, 3, "19.6"},
		{"four significant by default", 3.14159, 3, "3.142"},
		{"rounds to integer", 1234.56, 3, "1235"},
		{"small fraction", 0.012346, 3, "0.01235"},
		{"one decimal", 2.25, 0, "2"},
		{"negative fraction", -1.2345, 2, "-1.23"},
		{"negative max decimals uses default", 3.14159, -1, "3.142"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Number(tt.value, tt.maxDecimals))
		})
	}
}

func TestNumberNonFinite(t *testing.T) {
	assert.Equal(t, "NaN", Number(math.NaN(), 3))
	assert.Equal(t, "Infinity", Number(math.Inf(1), 3))
	assert.Equal(t, "-Infinity", Number(math.Inf(-1), 3))
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "19.6", Default(19.6))
	assert.Equal(t, "1.00e+6", Default(1e6))
	assert.Equal(t, "1.00e+6", Default(999999.9))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.57, Round(2.567, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, -3.0, Round(-2.5, 0))
	assert.Equal(t, 4.2, Round(4.2, 1))
	assert.Equal(t, 1e300, Round(1e300, 10))
}

package sampler

import (
	"testing"

	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// fixedDraws replays a scripted sequence of draws.
type fixedDraws struct {
	draws []float64
	calls int
}

func (f *fixedDraws) Float64() float64 {
	r := f.draws[f.calls%len(f.draws)]
	f.calls++
	return r
}

func numberVar(name string, lo, hi float64, decimals int) ir.VariableSpec {
	return ir.VariableSpec{Name: name, Type: ir.TypeNumber, Min: ptr(lo), Max: ptr(hi), Decimals: ptr(decimals)}
}

func integerVar(name string, lo, hi float64) ir.VariableSpec {
	return ir.VariableSpec{Name: name, Type: ir.TypeInteger, Min: ptr(lo), Max: ptr(hi)}
}

func TestSampleIsReproducible(t *testing.T) {
	vars := ir.Variables{numberVar("m", 1, 5, 1)}

	first, err := Sample(vars, rng.New(42))
	require.NoError(t, err)
	second, err := Sample(vars, rng.New(42))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	m := float64(first["m"].(ir.Number))
	assert.GreaterOrEqual(t, m, 1.0)
	assert.LessOrEqual(t, m, 5.0)
	assert.Equal(t, m, float64(int(m*10+0.5))/10, "m has one decimal")
}

func TestSampleConsumesOneDrawPerVariable(t *testing.T) {
	src := &fixedDraws{draws: []float64{0.5}}
	vars := ir.Variables{
		integerVar("a", 1, 10),
		numberVar("b", 0, 1, 2),
		{Name: "c", Type: ir.TypeChoice, Choices: ir.ValueList{ir.String("x"), ir.String("y")}},
	}

	_, err := Sample(vars, src)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestSampleOneInteger(t *testing.T) {
	spec := integerVar("n", 1, 6)
	tests := []struct {
		r        float64
		expected ir.Value
	}{
		{0, ir.Number(1)},
		{0.5, ir.Number(4)},
		{0.9999999999999999, ir.Number(6)},
		{1, ir.Number(6)},
	}
	for _, tt := range tests {
		got, err := SampleOne(spec, tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "r=%v", tt.r)
	}
}

func TestSampleOneIntegerFractionalBounds(t *testing.T) {
	got, err := SampleOne(integerVar("n", 1.5, 3.5), 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(2), got)

	_, err = SampleOne(integerVar("n", 1.2, 1.8), 0.5)
	assert.Error(t, err)
}

func TestSampleOneNumberRoundsToDecimals(t *testing.T) {
	got, err := SampleOne(numberVar("m", 1, 5, 1), 0.5)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(3), got)

	got, err = SampleOne(numberVar("m", 0, 1, 2), 0.12345)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(0.12), got)
}

func TestSampleOneNumberStaysInBoundsOffGrid(t *testing.T) {
	// 1.04 rounds to 1.0 at one decimal, which is below min.
	got, err := SampleOne(numberVar("m", 1.04, 1.26, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(1.1), got)

	// 1.26 rounds to 1.3, above max.
	got, err = SampleOne(numberVar("m", 1.04, 1.26, 1), 0.9999999999999999)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(1.2), got)

	// No grid point in range: the bound itself is returned.
	got, err = SampleOne(numberVar("m", 1.01, 1.04, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(1.01), got)
}

func TestSampleOneNumberDefaultDecimals(t *testing.T) {
	spec := ir.VariableSpec{Name: "x", Type: ir.TypeNumber, Min: ptr(0.0), Max: ptr(1.0)}
	got, err := SampleOne(spec, 0.123456)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(0.12), got)
}

func TestSampleOneChoice(t *testing.T) {
	spec := ir.VariableSpec{Name: "metal", Type: ir.TypeChoice, Choices: ir.ValueList{
		ir.String("iron"), ir.String("copper"), ir.Number(7.9),
	}}

	tests := []struct {
		r        float64
		expected ir.Value
	}{
		{0, ir.String("iron")},
		{0.34, ir.String("copper")},
		{0.99, ir.Number(7.9)},
		{1, ir.Number(7.9)},
	}
	for _, tt := range tests {
		got, err := SampleOne(spec, tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "r=%v", tt.r)
	}
}

func TestSampleRejectsConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		spec ir.VariableSpec
	}{
		{"min greater than max", integerVar("x", 5, 1)},
		{"number min greater than max", numberVar("x", 5, 1, 1)},
		{"empty choices", ir.VariableSpec{Name: "x", Type: ir.TypeChoice}},
		{"unknown type", ir.VariableSpec{Name: "x", Type: "matrix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sample(ir.Variables{tt.spec}, rng.New(1))
			require.Error(t, err)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "x", ce.Variable)
		})
	}
}

func TestSampleBoundsProperty(t *testing.T) {
	vars := ir.Variables{
		integerVar("n", -3, 7),
		numberVar("x", 0.5, 2.5, 2),
		{Name: "c", Type: ir.TypeChoice, Choices: ir.ValueList{ir.Number(1), ir.Number(2)}},
	}
	for seed := int64(0); seed < 500; seed++ {
		values, err := Sample(vars, rng.New(seed))
		require.NoError(t, err)

		n := values["n"].(ir.Number)
		assert.True(t, n.IsInteger())
		assert.True(t, n >= -3 && n <= 7, "seed %d: n=%v", seed, n)

		x := values["x"].(ir.Number)
		assert.True(t, x >= 0.5 && x <= 2.5, "seed %d: x=%v", seed, x)

		assert.Contains(t, vars[2].Choices, values["c"])
	}
}

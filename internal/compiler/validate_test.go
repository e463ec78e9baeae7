package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/testutil"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateFixtures(t *testing.T) {
	for _, tmpl := range []*ir.Template{
		testutil.ForceTemplate(),
		testutil.LabelTemplate(),
		testutil.RandomTemplate(),
	} {
		t.Run(tmpl.ID, func(t *testing.T) {
			assert.Empty(t, Validate(tmpl))
		})
	}
}

func TestValidateAcceptsValue(t *testing.T) {
	assert.Empty(t, Validate(*testutil.ForceTemplate()))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a template")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)

	var nilTemplate *ir.Template
	errs = Validate(nilTemplate)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidateMissingIDAndStatement(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.ID = "  "
	tmpl.Statement = ""

	errs := Validate(tmpl)
	assert.Equal(t, []string{ErrMissingID, ErrMissingStatement}, codes(errs))
}

func TestValidateMinGreaterThanMax(t *testing.T) {
	tmpl := &ir.Template{
		ID:        "inverted",
		Statement: "x is {{x}}",
		Variables: ir.Variables{
			{Name: "x", Type: ir.TypeInteger, Min: testutil.Ptr(5.0), Max: testutil.Ptr(1.0)},
		},
	}

	errs := Validate(tmpl)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMinGreaterThanMax, errs[0].Code)
	assert.Equal(t, "variables.x", errs[0].Field)
	assert.Contains(t, errs[0].Message, "min 5")
}

func TestValidateVariableErrors(t *testing.T) {
	tests := []struct {
		name string
		spec ir.VariableSpec
		code string
	}{
		{"unknown type", ir.VariableSpec{Name: "x", Type: "matrix"}, ErrUnknownType},
		{"empty choices", ir.VariableSpec{Name: "x", Type: ir.TypeChoice}, ErrEmptyChoices},
		{"missing max", ir.VariableSpec{Name: "x", Type: ir.TypeNumber, Min: testutil.Ptr(1.0)}, ErrMissingBounds},
		{"fractional integer bounds", ir.VariableSpec{Name: "x", Type: ir.TypeInteger, Min: testutil.Ptr(0.5), Max: testutil.Ptr(3.0)}, ErrNonIntegralBounds},
		{"decimals too large", ir.VariableSpec{Name: "x", Type: ir.TypeNumber, Min: testutil.Ptr(0.0), Max: testutil.Ptr(1.0), Decimals: testutil.Ptr(11)}, ErrInvalidDecimals},
		{"negative decimals", ir.VariableSpec{Name: "x", Type: ir.TypeNumber, Min: testutil.Ptr(0.0), Max: testutil.Ptr(1.0), Decimals: testutil.Ptr(-1)}, ErrInvalidDecimals},
		{"infinite bound", ir.VariableSpec{Name: "x", Type: ir.TypeNumber, Min: testutil.Ptr(0.0), Max: testutil.Ptr(posInf())}, ErrNonFiniteBound},
		{"invalid name", ir.VariableSpec{Name: "2x", Type: ir.TypeChoice, Choices: ir.ValueList{ir.Number(1)}}, ErrInvalidName},
		{"reserved name", ir.VariableSpec{Name: "true", Type: ir.TypeChoice, Choices: ir.ValueList{ir.Number(1)}}, ErrReservedIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &ir.Template{ID: "t", Statement: "s", Variables: ir.Variables{tt.spec}}
			errs := Validate(tmpl)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestValidateAllowsConstantNames(t *testing.T) {
	tmpl := &ir.Template{
		ID:        "circle",
		Statement: "r = {{r}}",
		Variables: ir.Variables{
			{Name: "pi", Type: ir.TypeNumber, Min: testutil.Ptr(3.0), Max: testutil.Ptr(3.0), Decimals: testutil.Ptr(0)},
			{Name: "e", Type: ir.TypeInteger, Min: testutil.Ptr(1.0), Max: testutil.Ptr(2.0)},
		},
		SolutionSteps: []ir.StepSpec{{
			Step:    1,
			Title:   "Area",
			Content: "{{r}}",
			Compute: ir.Assignments{{Name: "r", Formula: "pi * e"}},
		}},
		FinalAnswer: "{{r}}",
	}
	assert.Empty(t, Validate(tmpl))
}

func TestValidateDuplicateNames(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.SolutionSteps[0].Compute = append(tmpl.SolutionSteps[0].Compute,
		ir.Assignment{Name: "m", Formula: "m * 2"})

	errs := Validate(tmpl)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Contains(t, errs[0].Message, "variables.m")
}

func TestValidateFormulaSyntax(t *testing.T) {
	tests := []struct {
		name    string
		formula string
	}{
		{"dangling operator", "m *"},
		{"unknown function", "frobnicate(m)"},
		{"nested conditional", "m > 1 ? (m > 2 ? 1 : 2) : 3"},
		{"wrong target", "w = m * 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := testutil.ForceTemplate()
			tmpl.SolutionSteps[0].Compute[0].Formula = tt.formula
			errs := Validate(tmpl)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, ErrFormulaSyntax, errs[0].Code)
			assert.Equal(t, "solutionSteps[0].compute.v", errs[0].Field)
		})
	}
}

func TestValidateUnboundReference(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.SolutionSteps[0].Compute[0].Formula = "m * g"

	errs := Validate(tmpl)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnboundReference, errs[0].Code)
	assert.Contains(t, errs[0].Message, `unbound identifier "g"`)
}

func TestValidateForwardReference(t *testing.T) {
	tmpl := testutil.RandomTemplate()
	// Step 1 now reads E, which is computed in step 2.
	tmpl.SolutionSteps[0].Compute[0].Formula = "E / 2"

	errs := Validate(tmpl)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnboundReference, errs[0].Code)
	assert.Contains(t, errs[0].Message, "forward reference")
	assert.Contains(t, errs[0].Message, "solutionSteps[1].compute.E")
}

func TestValidateSelfReference(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.SolutionSteps[0].Compute[0].Formula = "v + 1"

	errs := Validate(tmpl)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnboundReference, errs[0].Code)
	assert.Contains(t, errs[0].Message, "itself")
}

func TestValidateEarlierComputeInSameStepIsVisible(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.SolutionSteps[0].Compute = ir.Assignments{
		{Name: "g", Formula: "9.8"},
		{Name: "v", Formula: "m * g"},
	}
	assert.Empty(t, Validate(tmpl))
}

func TestValidateConstantsAreInScope(t *testing.T) {
	tmpl := testutil.ForceTemplate()
	tmpl.SolutionSteps[0].Compute[0].Formula = "m * pi + e"
	assert.Empty(t, Validate(tmpl))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	tmpl := &ir.Template{
		Variables: ir.Variables{
			{Name: "a", Type: "vector"},
			{Name: "b", Type: ir.TypeChoice},
		},
		SolutionSteps: []ir.StepSpec{{
			Compute: ir.Assignments{{Name: "c", Formula: "a +"}},
		}},
	}

	errs := Validate(tmpl)
	assert.Equal(t, []string{
		ErrMissingID, ErrMissingStatement, ErrUnknownType, ErrEmptyChoices, ErrFormulaSyntax,
	}, codes(errs))
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "variables.x", Message: "min 5 is greater than max 1", Code: ErrMinGreaterThanMax}
	assert.Equal(t, "[E104] variables.x: min 5 is greater than max 1", err.Error())

	err.Line = 12
	assert.True(t, strings.HasPrefix(err.Error(), "[E104] line 12:"))
}

package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/ir"
)

func TestCompileTemplateBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		template: "kinetic-energy": {
			lessonId: "energy"
			title: "Kinetic energy"
			difficulty: 2

			variables: {
				m: { type: "number", min: 1.0, max: 5, decimals: 1 }
				v: { type: "integer", min: 2, max: 12 }
				body: { type: "choice", choices: ["cart", "ball", 3, true] }
			}

			solutionSteps: [{
				title: "Square the speed"
				content: "v^2 = {{v2}}"
				compute: { v2: "v ^ 2" }
			}, {
				step: 7
				title: "Apply the formula"
				content: "E = {{E}} J"
				explanation: "Half of {{m}} times {{v2}}"
				compute: {
					half: "0.5 * m"
					E: "E = half * v2"
				}
			}]

			statement: "A {{m}} kg {{body}} moves at {{v}} m/s."
			finalAnswer: "{{E}} J"
			hints: ["E = m v^2 / 2", "Square {{v}} first"]
			method: "E = m v^2 / 2"
		}
	`)
	require.NoError(t, v.Err())

	tmpl, err := CompileTemplate(v.LookupPath(cue.ParsePath(`template."kinetic-energy"`)))
	require.NoError(t, err)

	assert.Equal(t, "kinetic-energy", tmpl.ID)
	assert.Equal(t, "energy", tmpl.LessonID)
	assert.Equal(t, "Kinetic energy", tmpl.Title)
	assert.Equal(t, ir.Difficulty("2"), tmpl.Difficulty)

	require.Len(t, tmpl.Variables, 3)
	assert.Equal(t, []string{"m", "v", "body"}, tmpl.Variables.Names(), "declaration order preserved")
	assert.Equal(t, ir.TypeNumber, tmpl.Variables[0].Type)
	assert.Equal(t, 1.0, *tmpl.Variables[0].Min)
	assert.Equal(t, 5.0, *tmpl.Variables[0].Max)
	assert.Equal(t, 1, tmpl.Variables[0].Precision())
	assert.Nil(t, tmpl.Variables[1].Decimals)
	assert.Equal(t, ir.ValueList{ir.String("cart"), ir.String("ball"), ir.Number(3), ir.Bool(true)},
		tmpl.Variables[2].Choices)

	require.Len(t, tmpl.SolutionSteps, 2)
	assert.Equal(t, 1, tmpl.SolutionSteps[0].Step, "step defaults to position")
	assert.Equal(t, 7, tmpl.SolutionSteps[1].Step)
	assert.Equal(t, ir.Assignments{{Name: "half", Formula: "0.5 * m"}, {Name: "E", Formula: "E = half * v2"}},
		tmpl.SolutionSteps[1].Compute)
	assert.Equal(t, "Half of {{m}} times {{v2}}", tmpl.SolutionSteps[1].Explanation)

	assert.Equal(t, []string{"E = m v^2 / 2", "Square {{v}} first"}, tmpl.Hints)
	assert.Equal(t, "E = m v^2 / 2", tmpl.Method)

	assert.Empty(t, Validate(tmpl))
}

func TestCompileTemplateExplicitID(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		template: force: {
			id: "weight-force"
			statement: "s"
		}
	`)
	require.NoError(t, v.Err())

	tmpl, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.force")))
	require.NoError(t, err)
	assert.Equal(t, "weight-force", tmpl.ID)
}

func TestCompileTemplateNotExist(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`template: {}`)
	require.NoError(t, v.Err())

	_, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.missing")))
	require.Error(t, err)
}

func TestCompileTemplateWrongFieldType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		template: bad: {
			statement: 42
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.bad")))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "statement", compileErr.Field)
	assert.Contains(t, compileErr.Message, "string")
}

func TestCompileTemplateFormulaMustBeString(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		template: bad: {
			statement: "s"
			solutionSteps: [{ title: "t", content: "c", compute: { x: 3 } }]
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.bad")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "solutionSteps[0].compute.x", compileErr.Field)
}

func TestCompileTemplateErrorHasPosition(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
template: bad: {
	statement: "s"
	variables: x: { type: "integer", min: "one", max: 3 }
}
`, cue.Filename("bad.cue"))
	require.NoError(t, v.Err())

	_, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.bad")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "variables.x.min", compileErr.Field)
	assert.Contains(t, err.Error(), "bad.cue:4:")
}

func TestCompileTemplateConflictReportsCUEError(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		template: bad: {
			statement: "a"
			statement: "b"
		}
	`)
	// Conflicts surface when the template value is inspected.
	_, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.bad")))
	require.Error(t, err)
}

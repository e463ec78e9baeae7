package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const forceTemplateJSON = `{
  "id": "force-1",
  "lessonId": "dynamics",
  "title": "Newton's second law",
  "difficulty": 2,
  "variables": {
    "m": {"type": "number", "min": 1, "max": 5, "decimals": 1},
    "a": {"type": "integer", "min": 1, "max": 10},
    "unit": {"type": "choice", "choices": ["N", "kN"]}
  },
  "solutionSteps": [
    {"step": 1, "title": "Force", "content": "F = {{F}}", "compute": {"F": "m * a", "big": "F > 20"}}
  ],
  "statement": "A {{m}} kg body accelerates at {{a}} m/s^2.",
  "finalAnswer": "{{F}} {{unit}}",
  "hints": ["Use F = m a"]
}`

func TestTemplateJSONPreservesDeclarationOrder(t *testing.T) {
	var tmpl Template
	require.NoError(t, json.Unmarshal([]byte(forceTemplateJSON), &tmpl))

	assert.Equal(t, "force-1", tmpl.ID)
	assert.Equal(t, Difficulty("2"), tmpl.Difficulty)
	assert.Equal(t, []string{"m", "a", "unit"}, tmpl.Variables.Names())

	m := tmpl.Variables[0]
	assert.Equal(t, TypeNumber, m.Type)
	lo, hi := m.Bounds()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)
	assert.Equal(t, 1, m.Precision())

	assert.Equal(t, DefaultDecimals, tmpl.Variables[1].Precision())
	assert.Equal(t, ValueList{String("N"), String("kN")}, tmpl.Variables[2].Choices)

	require.Len(t, tmpl.SolutionSteps, 1)
	assert.Equal(t, Assignments{
		{Name: "F", Formula: "m * a"},
		{Name: "big", Formula: "F > 20"},
	}, tmpl.SolutionSteps[0].Compute)
}

func TestTemplateJSONRoundTripKeepsOrder(t *testing.T) {
	var tmpl Template
	require.NoError(t, json.Unmarshal([]byte(forceTemplateJSON), &tmpl))

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)

	var again Template
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, tmpl, again)
}

func TestVariablesRejectDuplicateNames(t *testing.T) {
	var vs Variables
	err := json.Unmarshal([]byte(`{"m": {"type": "integer"}, "m": {"type": "number"}}`), &vs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

const forceTemplateYAML = `
id: force-1
lessonId: dynamics
title: Newton's second law
difficulty: easy
variables:
  m: {type: number, min: 1, max: 5, decimals: 1}
  a: {type: integer, min: 1, max: 10}
solutionSteps:
  - step: 1
    title: Force
    content: "F = {{F}}"
    compute:
      F: m * a
      label: "m > 3 ? 'heavy' : 'light'"
statement: "A {{m}} kg body"
finalAnswer: "{{F}} N"
`

func TestTemplateYAMLPreservesDeclarationOrder(t *testing.T) {
	var tmpl Template
	require.NoError(t, yaml.Unmarshal([]byte(forceTemplateYAML), &tmpl))

	assert.Equal(t, Difficulty("easy"), tmpl.Difficulty)
	assert.Equal(t, []string{"m", "a"}, tmpl.Variables.Names())
	require.Len(t, tmpl.SolutionSteps, 1)
	assert.Equal(t, "label", tmpl.SolutionSteps[0].Compute[1].Name)
	assert.Equal(t, "m > 3 ? 'heavy' : 'light'", tmpl.SolutionSteps[0].Compute[1].Formula)
}

func TestAssignmentsYAMLRejectsNonScalarFormula(t *testing.T) {
	var as Assignments
	err := yaml.Unmarshal([]byte("F: [1, 2]\n"), &as)
	assert.Error(t, err)
}

func TestInstanceJSONFieldNames(t *testing.T) {
	inst := ExerciseInstance{
		TemplateID:    "force-1",
		LessonID:      "dynamics",
		Title:         "Force",
		Seed:          42,
		Values:        Bindings{"m": Number(2)},
		Computed:      Bindings{"v": Number(19.6)},
		Statement:     "F = 19.6 N",
		SolutionSteps: []RenderedStep{{Step: 1, Title: "t", Content: "c"}},
		FinalAnswer:   "19.6",
		Hints:         []string{},
	}

	data, err := json.Marshal(inst)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"templateId", "lessonId", "title", "seed", "values", "computed", "statement", "solutionSteps", "finalAnswer", "hints"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "diagnostics")
	assert.NotContains(t, raw, "fingerprint")
	assert.NotContains(t, raw, "method")
}

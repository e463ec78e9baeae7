package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/catalog"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/testutil"
)

func TestRunWithGolden_WeightForce(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/weight_force.yaml")
	require.NoError(t, err)

	loaded, errs := catalog.Load(scenario.Templates, catalog.LoadModeFailFast)
	require.Empty(t, errs)

	// First run with -update to create golden file:
	//   go test ./internal/harness -run TestRunWithGolden_WeightForce -update
	require.NoError(t, RunWithGolden(t, scenario, loaded.Catalog))
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mass_label.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.NoError(t, AssertGolden(t, scenario.Name, scenario.Template, result))
}

// The golden files are independent of where the template came from: the
// fixture and the YAML file describe the same template.
func TestRunWithGolden_InlineMatchesFile(t *testing.T) {
	scenario := &Scenario{
		Name:        "weight_force",
		Description: "Inline copy of the weight template",
		Inline:      testutil.ForceTemplate(),
		Seeds:       []int64{1, 2, 42},
		Assertions:  []Assertion{{Type: AssertDeterministic}},
	}
	require.NoError(t, RunWithGolden(t, scenario, nil))
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	scenario := &Scenario{
		Name:        "determinism",
		Description: "Two runs serialize identically",
		Inline:      testutil.RandomTemplate(),
		Seeds:       []int64{3, 1, 2},
		Assertions:  []Assertion{{Type: AssertValuesInBounds}},
	}

	first, err := RunWith(scenario, nil)
	require.NoError(t, err)
	second, err := RunWith(scenario, nil)
	require.NoError(t, err)

	a := InstanceSnapshot{ScenarioName: scenario.Name, TemplateID: scenario.TemplateID(), Instances: first.Instances}
	b := InstanceSnapshot{ScenarioName: scenario.Name, TemplateID: scenario.TemplateID(), Instances: second.Instances}
	aJSON, err := a.Marshal()
	require.NoError(t, err)
	bJSON, err := b.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(aJSON), string(bJSON))
}

func TestInstanceSnapshotJSON(t *testing.T) {
	inst := &ir.ExerciseInstance{
		TemplateID:    "t",
		LessonID:      "l",
		Title:         "T",
		Seed:          7,
		Values:        ir.Bindings{"b": ir.Number(1), "a": ir.String("x")},
		Computed:      ir.Bindings{},
		Statement:     "S",
		SolutionSteps: []ir.RenderedStep{},
		FinalAnswer:   "A",
		Hints:         []string{},
	}
	snap := InstanceSnapshot{ScenarioName: "s", TemplateID: "t", Instances: []*ir.ExerciseInstance{inst}}

	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"instances":[{"computed":{},"finalAnswer":"A","hints":[],"lessonId":"l","seed":7,"solutionSteps":[],"statement":"S","templateId":"t","title":"T","values":{"a":"x","b":1}}],"scenario_name":"s","template_id":"t"}`,
		string(data))
}

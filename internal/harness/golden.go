package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/exgen/internal/ir"
)

// InstanceSnapshot captures the instances generated for a scenario.
// Serialized with canonical JSON for deterministic comparison.
type InstanceSnapshot struct {
	ScenarioName string                 `json:"scenario_name"`
	TemplateID   string                 `json:"template_id"`
	Instances    []*ir.ExerciseInstance `json:"instances"`
}

// Marshal returns the snapshot's canonical JSON.
func (s *InstanceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s)
}

// RunWithGolden executes a scenario and compares the generated instances
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Assertion failures and golden
// mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario, source TemplateSource) error {
	t.Helper()

	result, err := RunWith(scenario, source)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	snapshot := InstanceSnapshot{
		ScenarioName: scenario.Name,
		TemplateID:   scenario.TemplateID(),
		Instances:    result.Instances,
	}
	return assertSnapshot(t, scenario.Name, &snapshot)
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName, templateID string, result *Result) error {
	t.Helper()

	snapshot := InstanceSnapshot{
		ScenarioName: scenarioName,
		TemplateID:   templateID,
		Instances:    result.Instances,
	}
	return assertSnapshot(t, scenarioName, &snapshot)
}

func assertSnapshot(t *testing.T, name string, snapshot *InstanceSnapshot) error {
	t.Helper()

	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

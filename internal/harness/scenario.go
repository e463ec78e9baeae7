package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exgen/internal/ir"
)

// Scenario defines a conformance test scenario: one template, a list of
// seeds, and assertions over the instances those seeds produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Templates is the directory the template is looked up in.
	// Relative paths are resolved against the scenario file's directory.
	// Empty means the caller supplies the catalog.
	Templates string `yaml:"templates,omitempty"`

	// Template is the id of the template under test.
	Template string `yaml:"template,omitempty"`

	// Inline is a template carried by the scenario itself.
	// Exactly one of Template and Inline is set.
	Inline *ir.Template `yaml:"inline,omitempty"`

	// Seeds lists the seeds to generate, in order.
	Seeds []int64 `yaml:"seeds"`

	// Assertions are checked against every generated instance.
	Assertions []Assertion `yaml:"assertions"`
}

// TemplateID returns the id of the template under test.
func (s *Scenario) TemplateID() string {
	if s.Inline != nil {
		return s.Inline.ID
	}
	return s.Template
}

// Assertion validates generated instances.
type Assertion struct {
	// Type selects the check. See the Assert* constants.
	Type string `yaml:"type"`

	// Name is the variable or compute entry (value_equals, computed_equals).
	Name string `yaml:"name,omitempty"`

	// Value is the expected literal (value_equals, computed_equals).
	Value any `yaml:"value,omitempty"`

	// Tolerance bounds numeric comparison. Zero means DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Field is the rendered field to search (rendered_contains), using the
	// names diagnostics use: statement, finalAnswer, method, hints[0],
	// solutionSteps[0].content. Empty searches every field.
	Field string `yaml:"field,omitempty"`

	// Text is the expected substring (rendered_contains).
	Text string `yaml:"text,omitempty"`

	// Seed limits the check to the instance generated from this seed.
	Seed *int64 `yaml:"seed,omitempty"`
}

// Assertion type constants.
const (
	AssertDeterministic      = "deterministic"
	AssertValuesInBounds     = "values_in_bounds"
	AssertNoUnresolvedTokens = "no_unresolved_tokens"
	AssertNoDiagnostics      = "no_diagnostics"
	AssertValueEquals        = "value_equals"
	AssertComputedEquals     = "computed_equals"
	AssertRenderedContains   = "rendered_contains"
)

// DefaultTolerance is the absolute tolerance for numeric expectations.
const DefaultTolerance = 1e-9

// LoadScenario reads and parses a scenario YAML file. A relative
// templates directory is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative templates directory against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the templates path BEFORE validation
	if scenario.Templates != "" && !filepath.IsAbs(scenario.Templates) && basePath != "" {
		scenario.Templates = filepath.Join(basePath, scenario.Templates)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Template == "" && s.Inline == nil:
		return fmt.Errorf("template or inline is required")
	case s.Template != "" && s.Inline != nil:
		return fmt.Errorf("template and inline are mutually exclusive")
	}

	if len(s.Seeds) == 0 {
		return fmt.Errorf("seeds list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Templates != "" {
		info, err := os.Stat(s.Templates)
		if err != nil {
			return fmt.Errorf("templates directory not found: %s", s.Templates)
		}
		if !info.IsDir() {
			return fmt.Errorf("templates path is not a directory: %s", s.Templates)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertDeterministic, AssertValuesInBounds, AssertNoUnresolvedTokens, AssertNoDiagnostics:
	case AssertValueEquals, AssertComputedEquals:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
		if _, err := literal(a.Value); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertRenderedContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for rendered_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// literal converts a decoded YAML scalar to an ir.Value.
func literal(v any) (ir.Value, error) {
	switch val := v.(type) {
	case int:
		return ir.Number(val), nil
	case int64:
		return ir.Number(val), nil
	case uint64:
		return ir.Number(val), nil
	case float64:
		return ir.Number(val), nil
	case string:
		return ir.String(val), nil
	case bool:
		return ir.Bool(val), nil
	default:
		return nil, fmt.Errorf("value must be a number, string or bool, got %T", v)
	}
}

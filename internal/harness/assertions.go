package harness

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/format"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/render"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Seed     int64  // Seed of the offending instance
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (seed %d)\n", e.Type, e.Seed)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertionContext carries what the checks need beyond the instances.
type assertionContext struct {
	engine   *engine.Engine
	template *ir.Template
}

// EvaluateAssertions runs each assertion against the generated instances
// and returns one message per failure.
func EvaluateAssertions(eng *engine.Engine, t *ir.Template, instances []*ir.ExerciseInstance, assertions []Assertion) []string {
	actx := &assertionContext{engine: eng, template: t}
	var errs []string
	for i, a := range assertions {
		targets, err := selectInstances(instances, a)
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
			continue
		}
		for _, inst := range targets {
			if err := actx.check(inst, a); err != nil {
				errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
			}
		}
	}
	return errs
}

func selectInstances(instances []*ir.ExerciseInstance, a Assertion) ([]*ir.ExerciseInstance, error) {
	if a.Seed == nil {
		return instances, nil
	}
	for _, inst := range instances {
		if inst.Seed == *a.Seed {
			return []*ir.ExerciseInstance{inst}, nil
		}
	}
	return nil, fmt.Errorf("seed %d is not among the scenario seeds", *a.Seed)
}

func (c *assertionContext) check(inst *ir.ExerciseInstance, a Assertion) error {
	switch a.Type {
	case AssertDeterministic:
		return c.assertDeterministic(inst)
	case AssertValuesInBounds:
		return assertValuesInBounds(c.template, inst)
	case AssertNoUnresolvedTokens:
		return assertNoUnresolvedTokens(inst)
	case AssertNoDiagnostics:
		return assertNoDiagnostics(inst)
	case AssertValueEquals:
		return assertBindingEquals(AssertValueEquals, inst, inst.Values, a)
	case AssertComputedEquals:
		return assertBindingEquals(AssertComputedEquals, inst, inst.Computed, a)
	case AssertRenderedContains:
		return assertRenderedContains(inst, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertDeterministic regenerates the instance from its seed and compares
// canonical bytes.
func (c *assertionContext) assertDeterministic(inst *ir.ExerciseInstance) error {
	again, err := c.engine.Generate(c.template, inst.Seed)
	if err != nil {
		return &AssertionError{
			Type:     AssertDeterministic,
			Seed:     inst.Seed,
			Expected: "regeneration succeeds",
			Actual:   err.Error(),
		}
	}
	first, err := ir.MarshalCanonical(inst)
	if err != nil {
		return err
	}
	second, err := ir.MarshalCanonical(again)
	if err != nil {
		return err
	}
	if !bytes.Equal(first, second) {
		return &AssertionError{
			Type:     AssertDeterministic,
			Seed:     inst.Seed,
			Expected: string(first),
			Actual:   string(second),
		}
	}
	return nil
}

// assertValuesInBounds checks every declared variable against its spec.
func assertValuesInBounds(t *ir.Template, inst *ir.ExerciseInstance) error {
	for _, spec := range t.Variables {
		v, ok := inst.Values[spec.Name]
		if !ok {
			return &AssertionError{
				Type:     AssertValuesInBounds,
				Seed:     inst.Seed,
				Expected: fmt.Sprintf("value for %s", spec.Name),
				Actual:   "missing",
			}
		}
		if msg := outOfBounds(spec, v); msg != "" {
			return &AssertionError{
				Type:     AssertValuesInBounds,
				Seed:     inst.Seed,
				Expected: describeSpec(spec),
				Actual:   fmt.Sprintf("%s = %s (%s)", spec.Name, show(v), msg),
			}
		}
	}
	return nil
}

// outOfBounds returns why v violates spec, or "" when it does not.
func outOfBounds(spec ir.VariableSpec, v ir.Value) string {
	if spec.Type == ir.TypeChoice {
		if !slices.ContainsFunc(spec.Choices, func(c ir.Value) bool { return c == v }) {
			return "not a declared choice"
		}
		return ""
	}

	n, ok := v.(ir.Number)
	if !ok {
		return "not a number"
	}
	f := float64(n)
	lo, hi := spec.Bounds()
	if f < lo || f > hi {
		return "outside range"
	}
	switch spec.Type {
	case ir.TypeInteger:
		if !n.IsInteger() {
			return "not an integer"
		}
	case ir.TypeNumber:
		// A value off the grid is only allowed when it is a bound itself.
		if format.Round(f, spec.Precision()) != f && f != lo && f != hi {
			return fmt.Sprintf("more than %d decimals", spec.Precision())
		}
	}
	return ""
}

func describeSpec(spec ir.VariableSpec) string {
	if spec.Type == ir.TypeChoice {
		choices := make([]string, len(spec.Choices))
		for i, c := range spec.Choices {
			choices[i] = show(c)
		}
		return fmt.Sprintf("%s in [%s]", spec.Name, strings.Join(choices, ", "))
	}
	lo, hi := spec.Bounds()
	return fmt.Sprintf("%s %s in [%v, %v]", spec.Name, spec.Type, lo, hi)
}

// assertNoUnresolvedTokens checks render diagnostics and scans the text for
// leftover placeholders.
func assertNoUnresolvedTokens(inst *ir.ExerciseInstance) error {
	for _, d := range inst.Diagnostics {
		if d.Kind == ir.DiagnosticRender {
			return &AssertionError{
				Type:     AssertNoUnresolvedTokens,
				Seed:     inst.Seed,
				Expected: "every token resolved",
				Actual:   fmt.Sprintf("%s: {{%s}} unresolved", d.Field, d.Name),
			}
		}
	}
	for _, f := range renderedFields(inst) {
		if toks := render.Tokens(f.text); len(toks) > 0 {
			return &AssertionError{
				Type:     AssertNoUnresolvedTokens,
				Seed:     inst.Seed,
				Expected: "every token resolved",
				Actual:   fmt.Sprintf("%s: %s left in output", f.name, toks[0].Raw),
			}
		}
	}
	return nil
}

func assertNoDiagnostics(inst *ir.ExerciseInstance) error {
	if len(inst.Diagnostics) == 0 {
		return nil
	}
	d := inst.Diagnostics[0]
	return &AssertionError{
		Type:     AssertNoDiagnostics,
		Seed:     inst.Seed,
		Expected: "no diagnostics",
		Actual:   fmt.Sprintf("%d diagnostic(s), first: %s %s: %s", len(inst.Diagnostics), d.Kind, d.Name, d.Message),
	}
}

func assertBindingEquals(kind string, inst *ir.ExerciseInstance, b ir.Bindings, a Assertion) error {
	want, err := literal(a.Value)
	if err != nil {
		return err
	}
	got, ok := b[a.Name]
	if !ok {
		return &AssertionError{
			Type:     kind,
			Seed:     inst.Seed,
			Expected: fmt.Sprintf("%s = %s", a.Name, show(want)),
			Actual:   fmt.Sprintf("%s not bound", a.Name),
		}
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	if !valuesEqual(want, got, tol) {
		return &AssertionError{
			Type:     kind,
			Seed:     inst.Seed,
			Expected: fmt.Sprintf("%s = %s", a.Name, show(want)),
			Actual:   fmt.Sprintf("%s = %s", a.Name, show(got)),
		}
	}
	return nil
}

// valuesEqual compares numbers within tol and other literals exactly.
func valuesEqual(want, got ir.Value, tol float64) bool {
	wn, wok := want.(ir.Number)
	gn, gok := got.(ir.Number)
	if wok && gok {
		return math.Abs(float64(wn)-float64(gn)) <= tol
	}
	return want == got
}

func assertRenderedContains(inst *ir.ExerciseInstance, a Assertion) error {
	fields := renderedFields(inst)
	found := false
	for _, f := range fields {
		if a.Field != "" && f.name != a.Field {
			continue
		}
		found = true
		if strings.Contains(f.text, a.Text) {
			return nil
		}
	}

	where := "any rendered field"
	if a.Field != "" {
		where = a.Field
	}
	actual := "not found"
	if !found {
		actual = fmt.Sprintf("no field named %s", a.Field)
	} else if a.Field != "" {
		for _, f := range fields {
			if f.name == a.Field {
				actual = fmt.Sprintf("%q", f.text)
			}
		}
	}
	return &AssertionError{
		Type:     AssertRenderedContains,
		Seed:     inst.Seed,
		Expected: fmt.Sprintf("%s contains %q", where, a.Text),
		Actual:   actual,
	}
}

// show renders a literal for failure messages with enough digits to tell
// near-equal numbers apart.
func show(v ir.Value) string {
	return render.Value(v, 12)
}

type field struct {
	name string
	text string
}

// renderedFields lists the instance's text in render order, named the way
// render diagnostics name them.
func renderedFields(inst *ir.ExerciseInstance) []field {
	out := []field{{"statement", inst.Statement}}
	for i, s := range inst.SolutionSteps {
		prefix := fmt.Sprintf("solutionSteps[%d]", i)
		out = append(out,
			field{prefix + ".title", s.Title},
			field{prefix + ".content", s.Content},
			field{prefix + ".explanation", s.Explanation},
		)
	}
	out = append(out, field{"finalAnswer", inst.FinalAnswer})
	for i, h := range inst.Hints {
		out = append(out, field{fmt.Sprintf("hints[%d]", i), h})
	}
	return append(out, field{"method", inst.Method})
}

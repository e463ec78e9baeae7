package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exgen/internal/ir"
)

// CompileTemplate parses a CUE value into a Template.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the template struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`template: "weight-force": { ... }`)
//	t, err := CompileTemplate(v.LookupPath(cue.ParsePath(`template."weight-force"`)))
//
// The template ID is the struct label unless an explicit id field is present.
// Struct field order is preserved for variables and compute blocks.
func CompileTemplate(v cue.Value) (*ir.Template, error) {
	if err := v.Err(); err != nil {
		return nil, FormatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "template", Message: "template does not exist", Pos: v.Pos()}
	}

	t := &ir.Template{}

	selectors := v.Path().Selectors()
	if len(selectors) > 0 {
		t.ID = LabelName(selectors[len(selectors)-1])
	}

	var err error
	if t.ID, err = optionalString(v, "id", t.ID); err != nil {
		return nil, err
	}
	if t.LessonID, err = optionalString(v, "lessonId", ""); err != nil {
		return nil, err
	}
	if t.Title, err = optionalString(v, "title", ""); err != nil {
		return nil, err
	}
	if t.Statement, err = optionalString(v, "statement", ""); err != nil {
		return nil, err
	}
	if t.FinalAnswer, err = optionalString(v, "finalAnswer", ""); err != nil {
		return nil, err
	}
	if t.Method, err = optionalString(v, "method", ""); err != nil {
		return nil, err
	}

	if t.Difficulty, err = parseDifficulty(v); err != nil {
		return nil, err
	}
	if t.Variables, err = parseVariables(v); err != nil {
		return nil, err
	}
	if t.SolutionSteps, err = parseSteps(v); err != nil {
		return nil, err
	}
	if t.Hints, err = parseStrings(v, "hints"); err != nil {
		return nil, err
	}

	return t, nil
}

// LabelName returns a field label without CUE quoting.
func LabelName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel && sel.ConstraintType() < cue.PatternConstraint {
		return sel.Unquoted()
	}
	return sel.String()
}

func optionalString(v cue.Value, field, def string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return def, nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

func parseDifficulty(v cue.Value) (ir.Difficulty, error) {
	f := v.LookupPath(cue.ParsePath("difficulty"))
	if !f.Exists() {
		return "", nil
	}
	switch f.IncompleteKind() {
	case cue.StringKind:
		s, err := f.String()
		if err != nil {
			return "", FormatCUEError(err)
		}
		return ir.Difficulty(s), nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		n, err := f.Float64()
		if err != nil {
			return "", FormatCUEError(err)
		}
		return ir.Difficulty(fmt.Sprint(n)), nil
	default:
		return "", &CompileError{Field: "difficulty", Message: "must be a string or number", Pos: f.Pos()}
	}
}

// parseVariables reads the variables struct in declaration order.
func parseVariables(v cue.Value) (ir.Variables, error) {
	varsVal := v.LookupPath(cue.ParsePath("variables"))
	if !varsVal.Exists() {
		return nil, nil
	}

	iter, err := varsVal.Fields()
	if err != nil {
		return nil, FormatCUEError(err)
	}

	var vars ir.Variables
	for iter.Next() {
		name := LabelName(iter.Selector())
		spec, err := parseVariable(name, iter.Value())
		if err != nil {
			return nil, err
		}
		vars = append(vars, spec)
	}
	return vars, nil
}

func parseVariable(name string, v cue.Value) (ir.VariableSpec, error) {
	spec := ir.VariableSpec{Name: name}
	field := "variables." + name

	typ, err := optionalString(v, "type", "")
	if err != nil {
		return spec, err
	}
	spec.Type = ir.VariableType(typ)

	if spec.Min, err = optionalNumber(v, "min", field); err != nil {
		return spec, err
	}
	if spec.Max, err = optionalNumber(v, "max", field); err != nil {
		return spec, err
	}

	if d := v.LookupPath(cue.ParsePath("decimals")); d.Exists() {
		n, err := d.Int64()
		if err != nil {
			return spec, &CompileError{Field: field + ".decimals", Message: "must be an integer", Pos: d.Pos()}
		}
		decimals := int(n)
		spec.Decimals = &decimals
	}

	if c := v.LookupPath(cue.ParsePath("choices")); c.Exists() {
		list, err := c.List()
		if err != nil {
			return spec, &CompileError{Field: field + ".choices", Message: "must be a list", Pos: c.Pos()}
		}
		spec.Choices = ir.ValueList{}
		for list.Next() {
			lit, err := literal(list.Value())
			if err != nil {
				return spec, &CompileError{Field: field + ".choices", Message: err.Error(), Pos: list.Value().Pos()}
			}
			spec.Choices = append(spec.Choices, lit)
		}
	}

	return spec, nil
}

func optionalNumber(v cue.Value, name, field string) (*float64, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	n, err := f.Float64()
	if err != nil {
		return nil, &CompileError{Field: field + "." + name, Message: "must be a number", Pos: f.Pos()}
	}
	return &n, nil
}

// literal converts a concrete CUE scalar into a Value.
func literal(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		n, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return ir.Number(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return ir.String(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return ir.Bool(b), nil
	default:
		return nil, fmt.Errorf("choice must be a concrete number, string or bool, got %v", v.IncompleteKind())
	}
}

func parseSteps(v cue.Value) ([]ir.StepSpec, error) {
	stepsVal := v.LookupPath(cue.ParsePath("solutionSteps"))
	if !stepsVal.Exists() {
		return nil, nil
	}

	list, err := stepsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "solutionSteps", Message: "must be a list", Pos: stepsVal.Pos()}
	}

	var steps []ir.StepSpec
	for i := 0; list.Next(); i++ {
		sv := list.Value()
		field := fmt.Sprintf("solutionSteps[%d]", i)
		step := ir.StepSpec{Step: i + 1}

		if n := sv.LookupPath(cue.ParsePath("step")); n.Exists() {
			ord, err := n.Int64()
			if err != nil {
				return nil, &CompileError{Field: field + ".step", Message: "must be an integer", Pos: n.Pos()}
			}
			step.Step = int(ord)
		}
		if step.Title, err = optionalString(sv, "title", ""); err != nil {
			return nil, err
		}
		if step.Content, err = optionalString(sv, "content", ""); err != nil {
			return nil, err
		}
		if step.Explanation, err = optionalString(sv, "explanation", ""); err != nil {
			return nil, err
		}

		if c := sv.LookupPath(cue.ParsePath("compute")); c.Exists() {
			iter, err := c.Fields()
			if err != nil {
				return nil, FormatCUEError(err)
			}
			for iter.Next() {
				name := LabelName(iter.Selector())
				formula, err := iter.Value().String()
				if err != nil {
					return nil, &CompileError{
						Field:   field + ".compute." + name,
						Message: "formula must be a string",
						Pos:     iter.Value().Pos(),
					}
				}
				step.Compute = append(step.Compute, ir.Assignment{Name: name, Formula: formula})
			}
		}

		steps = append(steps, step)
	}
	return steps, nil
}

func parseStrings(v cue.Value, field string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil, nil
	}
	list, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: f.Pos()}
	}
	var out []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: list.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatCUEError extracts position info from CUE errors.
func FormatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

package compiler

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/roach88/exgen/internal/expr"
	"github.com/roach88/exgen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value passed to Validate

	// Template errors (E101-E119)
	ErrMissingID          = "E101" // id is required
	ErrDuplicateName      = "E102" // variable or compute name declared twice
	ErrUnknownType        = "E103" // variable type not integer/number/choice
	ErrMinGreaterThanMax  = "E104" // min > max
	ErrEmptyChoices       = "E105" // choice variable without choices
	ErrInvalidDecimals    = "E106" // decimals outside [0, MaxDecimals]
	ErrNonIntegralBounds  = "E107" // integer variable with fractional bounds
	ErrFormulaSyntax      = "E108" // formula does not parse
	ErrUnboundReference   = "E109" // formula uses a name not yet introduced
	ErrMissingStatement   = "E110" // statement is required
	ErrInvalidName        = "E111" // name is not an identifier
	ErrMissingBounds      = "E112" // integer/number variable without min or max
	ErrNonFiniteBound     = "E113" // bound is NaN or infinite
	ErrReservedIdentifier = "E114" // name is true or false
)

// MaxDecimals is the largest precision a number variable may declare.
const MaxDecimals = 10

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a template validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a template for configuration errors.
// Returns all errors found (does not fail-fast).
// Accepts *ir.Template or ir.Template.
func Validate(v any) []ValidationError {
	switch t := v.(type) {
	case *ir.Template:
		if t == nil {
			break
		}
		return validateTemplate(t)
	case ir.Template:
		return validateTemplate(&t)
	}
	return []ValidationError{{
		Field:   "type",
		Message: fmt.Sprintf("unsupported type: %T", v),
		Code:    ErrUnsupportedType,
	}}
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func validateTemplate(t *ir.Template) []ValidationError {
	v := &validator{}

	// E101: id is required
	if strings.TrimSpace(t.ID) == "" {
		v.add(ErrMissingID, "id", "id is required and must be non-empty")
	}

	// E110: statement is required
	if strings.TrimSpace(t.Statement) == "" {
		v.add(ErrMissingStatement, "statement", "statement is required and must be non-empty")
	}

	// Names in scope grow in declaration order: variables first, then each
	// compute entry once it has been evaluated.
	declared := make(map[string]string) // name -> field that declared it
	later := computeSites(t)

	for _, spec := range t.Variables {
		field := "variables." + spec.Name
		v.checkName(field, spec.Name, declared)
		declared[spec.Name] = field
		v.validateVariable(field, spec)
	}

	for i, step := range t.SolutionSteps {
		for _, a := range step.Compute {
			field := fmt.Sprintf("solutionSteps[%d].compute.%s", i, a.Name)
			v.checkName(field, a.Name, declared)
			v.validateFormula(field, a, declared, later)
			declared[a.Name] = field
		}
	}

	return v.errs
}

// checkName reports invalid and duplicate names (E102, E111, E114).
func (v *validator) checkName(field, name string, declared map[string]string) {
	if !identPattern.MatchString(name) {
		v.add(ErrInvalidName, field, "name %q is not an identifier", name)
		return
	}
	// pi and e stay usable as names; a binding shadows the constant.
	if name == "true" || name == "false" {
		v.add(ErrReservedIdentifier, field, "name %q is reserved", name)
	}
	if prev, ok := declared[name]; ok {
		v.add(ErrDuplicateName, field, "duplicate name %q (first declared at %s)", name, prev)
	}
}

func (v *validator) validateVariable(field string, spec ir.VariableSpec) {
	switch spec.Type {
	case ir.TypeChoice:
		// E105: choices must be non-empty
		if len(spec.Choices) == 0 {
			v.add(ErrEmptyChoices, field+".choices", "choice variable %q needs at least one choice", spec.Name)
		}
		return
	case ir.TypeInteger, ir.TypeNumber:
	default:
		// E103: unknown type
		v.add(ErrUnknownType, field+".type", "invalid type %q (allowed: integer, number, choice)", spec.Type)
		return
	}

	// E112: numeric variables need both bounds
	if spec.Min == nil || spec.Max == nil {
		v.add(ErrMissingBounds, field, "%s variable %q needs both min and max", spec.Type, spec.Name)
		return
	}
	lo, hi := *spec.Min, *spec.Max

	// E113: bounds must be finite
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		v.add(ErrNonFiniteBound, field, "bounds of %q must be finite", spec.Name)
		return
	}

	// E104: min must not exceed max
	if lo > hi {
		v.add(ErrMinGreaterThanMax, field, "min %v is greater than max %v", lo, hi)
	}

	switch spec.Type {
	case ir.TypeInteger:
		// E107: integer bounds must be whole numbers
		if lo != math.Trunc(lo) || hi != math.Trunc(hi) {
			v.add(ErrNonIntegralBounds, field, "integer variable %q has fractional bounds [%v, %v]", spec.Name, lo, hi)
		}
	case ir.TypeNumber:
		// E106: decimals in range
		if d := spec.Precision(); d < 0 || d > MaxDecimals {
			v.add(ErrInvalidDecimals, field+".decimals", "decimals %d out of range [0, %d]", d, MaxDecimals)
		}
	}
}

// validateFormula reports syntax errors (E108) and references to names
// not yet in scope (E109).
func (v *validator) validateFormula(field string, a ir.Assignment, declared map[string]string, later map[string]string) {
	f, err := expr.ParseFor(a.Name, a.Formula)
	if err != nil {
		v.add(ErrFormulaSyntax, field, "%v", err)
		return
	}

	for _, name := range expr.Identifiers(f.Expr) {
		if _, ok := declared[name]; ok {
			continue
		}
		if expr.IsConstant(name) {
			continue
		}
		if name == a.Name {
			v.add(ErrUnboundReference, field, "formula for %q references itself", a.Name)
			continue
		}
		if site, ok := later[name]; ok {
			v.add(ErrUnboundReference, field,
				"forward reference to %q, which is computed later at %s; reorder the steps", name, site)
			continue
		}
		v.add(ErrUnboundReference, field, "unbound identifier %q", name)
	}
}

// computeSites maps every compute name to the field that declares it.
func computeSites(t *ir.Template) map[string]string {
	sites := make(map[string]string)
	for i, step := range t.SolutionSteps {
		for _, a := range step.Compute {
			if _, ok := sites[a.Name]; !ok {
				sites[a.Name] = fmt.Sprintf("solutionSteps[%d].compute.%s", i, a.Name)
			}
		}
	}
	return sites
}

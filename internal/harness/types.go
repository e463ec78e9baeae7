package harness

import "github.com/roach88/exgen/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// TemplateHash identifies the template definition the instances came from.
	TemplateHash string `json:"template_hash"`

	// Instances holds one generated instance per scenario seed, in seed order.
	Instances []*ir.ExerciseInstance `json:"instances"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Instances: []*ir.ExerciseInstance{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInstance appends a generated instance.
func (r *Result) AddInstance(inst *ir.ExerciseInstance) {
	r.Instances = append(r.Instances, inst)
}

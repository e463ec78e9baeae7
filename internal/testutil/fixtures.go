// Package testutil provides seed sources, loggers and template fixtures
// shared by package tests.
package testutil

import "github.com/roach88/exgen/internal/ir"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Fixed declares a number variable whose range is a single point, so its
// sampled value does not depend on the seed.
func Fixed(name string, v float64) ir.VariableSpec {
	return ir.VariableSpec{Name: name, Type: ir.TypeNumber, Min: Ptr(v), Max: Ptr(v), Decimals: Ptr(1)}
}

// ForceTemplate computes v = m * 9.8 with m fixed at 2.
func ForceTemplate() *ir.Template {
	return &ir.Template{
		ID:         "weight-force",
		LessonID:   "dynamics",
		Title:      "Weight of a body",
		Difficulty: "1",
		Variables:  ir.Variables{Fixed("m", 2)},
		SolutionSteps: []ir.StepSpec{
			{
				Step:    1,
				Title:   "Apply W = m g",
				Content: "F = {{v}} N",
				Compute: ir.Assignments{{Name: "v", Formula: "v = m * 9.8"}},
			},
		},
		Statement:   "A body of mass {{m}} kg rests on the ground. What is its weight?",
		FinalAnswer: "{{v}} N",
		Hints:       []string{"Multiply {{m}} kg by g = 9.8 m/s^2"},
		Method:      "W = m g",
	}
}

// LabelTemplate classifies m fixed at 4 with a conditional.
func LabelTemplate() *ir.Template {
	return &ir.Template{
		ID:        "mass-label",
		LessonID:  "dynamics",
		Title:     "Heavy or light",
		Variables: ir.Variables{Fixed("m", 4)},
		SolutionSteps: []ir.StepSpec{
			{
				Step:    1,
				Title:   "Compare with 3 kg",
				Content: "The body is {{label}}",
				Compute: ir.Assignments{{Name: "label", Formula: "label = m > 3 ? 'heavy' : 'light'"}},
			},
		},
		Statement:   "Is a {{m}} kg body heavy?",
		FinalAnswer: "{{label}}",
	}
}

// RandomTemplate samples a number, an integer and a choice.
func RandomTemplate() *ir.Template {
	return &ir.Template{
		ID:       "kinetic-energy",
		LessonID: "energy",
		Title:    "Kinetic energy",
		Variables: ir.Variables{
			{Name: "m", Type: ir.TypeNumber, Min: Ptr(1.0), Max: Ptr(5.0), Decimals: Ptr(1)},
			{Name: "v", Type: ir.TypeInteger, Min: Ptr(2.0), Max: Ptr(12.0)},
			{Name: "body", Type: ir.TypeChoice, Choices: ir.ValueList{ir.String("cart"), ir.String("ball"), ir.String("sled")}},
		},
		SolutionSteps: []ir.StepSpec{
			{
				Step:    1,
				Title:   "Square the speed",
				Content: "v^2 = {{v2}}",
				Compute: ir.Assignments{{Name: "v2", Formula: "v ^ 2"}},
			},
			{
				Step:        2,
				Title:       "Apply the formula",
				Content:     "E = {{E}} J",
				Explanation: "Half of {{m}} times {{v2}}",
				Compute:     ir.Assignments{{Name: "E", Formula: "E = 0.5 * m * v2"}},
			},
		},
		Statement:   "A {{m}} kg {{body}} moves at {{v}} m/s. Find its kinetic energy.",
		FinalAnswer: "{{E}} J",
		Hints:       []string{"E = m v^2 / 2", "Square {{v}} first"},
	}
}

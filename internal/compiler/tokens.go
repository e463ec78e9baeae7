package compiler

import (
	"fmt"

	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/render"
)

// TokenWarning reports a {{name}} placeholder that no variable or compute
// entry defines. Such tokens survive generation verbatim.
type TokenWarning struct {
	Field   string `json:"field"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// AnalyzeTokens checks every text field of t for placeholders that would
// stay unresolved. Fields are visited in render order.
func AnalyzeTokens(t *ir.Template) []TokenWarning {
	warnings := []TokenWarning{}
	if t == nil {
		return warnings
	}

	known := make(map[string]bool)
	for _, v := range t.Variables {
		known[v.Name] = true
	}
	for _, step := range t.SolutionSteps {
		for _, a := range step.Compute {
			known[a.Name] = true
		}
	}

	check := func(field, text string) {
		for _, tok := range render.Tokens(text) {
			if known[tok.Name] {
				continue
			}
			warnings = append(warnings, TokenWarning{
				Field:   field,
				Token:   tok.Raw,
				Message: fmt.Sprintf("no variable or compute entry named %q", tok.Name),
			})
		}
	}

	check("statement", t.Statement)
	for i, step := range t.SolutionSteps {
		field := fmt.Sprintf("solutionSteps[%d]", i)
		check(field+".title", step.Title)
		check(field+".content", step.Content)
		check(field+".explanation", step.Explanation)
	}
	check("finalAnswer", t.FinalAnswer)
	for i, h := range t.Hints {
		check(fmt.Sprintf("hints[%d]", i), h)
	}
	check("method", t.Method)

	return warnings
}

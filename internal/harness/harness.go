package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/exgen/internal/catalog"
	"github.com/roach88/exgen/internal/compiler"
	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/ir"
)

// TemplateSource resolves template ids. *catalog.Catalog implements it.
type TemplateSource interface {
	Get(id string) (*ir.Template, bool)
}

// Run executes a test scenario and returns the result.
//
// A scenario with a templates directory loads it fail-fast; otherwise the
// template must be inline.
func Run(scenario *Scenario) (*Result, error) {
	var source TemplateSource
	if scenario.Templates != "" {
		loaded, errs := catalog.Load(scenario.Templates, catalog.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, fmt.Errorf("failed to load templates: %w", errs[0])
		}
		source = loaded.Catalog
	}
	return RunWith(scenario, source)
}

// RunWith executes a scenario against templates from source. source may be
// nil for scenarios that carry their template inline.
//
// Execution flow:
// 1. Resolve and validate the template
// 2. Generate one instance per seed, in order
// 3. Evaluate every assertion against the instances
//
// The returned error reports a scenario that could not run at all.
// Assertion failures are reported through Result.Errors.
func RunWith(scenario *Scenario, source TemplateSource) (*Result, error) {
	t, err := resolveTemplate(scenario, source)
	if err != nil {
		return nil, err
	}

	hash, err := ir.TemplateHash(t)
	if err != nil {
		return nil, err
	}

	// Generation warnings surface through instance diagnostics.
	eng := engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	result := NewResult()
	result.TemplateHash = hash
	for _, seed := range scenario.Seeds {
		inst, err := eng.Generate(t, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to generate seed %d: %w", seed, err)
		}
		result.AddInstance(inst)
	}

	for _, msg := range EvaluateAssertions(eng, t, result.Instances, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func resolveTemplate(scenario *Scenario, source TemplateSource) (*ir.Template, error) {
	if scenario.Inline != nil {
		if verrs := compiler.Validate(scenario.Inline); len(verrs) > 0 {
			errs := make([]error, len(verrs))
			for i, v := range verrs {
				errs[i] = v
			}
			return nil, fmt.Errorf("inline template is invalid: %w", errors.Join(errs...))
		}
		return scenario.Inline, nil
	}

	if source == nil {
		return nil, fmt.Errorf("no templates to resolve %q from", scenario.Template)
	}
	t, ok := source.Get(scenario.Template)
	if !ok {
		return nil, fmt.Errorf("template %q not found", scenario.Template)
	}
	return t, nil
}

// Package harness provides conformance testing for exercise templates.
//
// A scenario names one template and a list of seeds. The harness generates
// one instance per seed and checks the instances against the scenario's
// assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: weight_force
//	description: "Weight is mass times g"
//	templates: ../templates    # optional; resolved against the scenario file
//	template: weight-force     # template id in the templates directory
//	seeds: [1, 2, 42]
//	assertions:
//	  - type: deterministic
//	  - type: values_in_bounds
//	  - type: no_unresolved_tokens
//	  - type: value_equals
//	    name: m
//	    value: 2
//	  - type: computed_equals
//	    name: v
//	    value: 19.6
//	  - type: rendered_contains
//	    field: finalAnswer
//	    text: "19.6 N"
//
// A scenario may carry its template inline under `inline:` instead of
// naming one by id.
//
// # Assertion Types
//
//   - deterministic: regenerating each seed yields byte-identical canonical JSON
//   - values_in_bounds: every sampled value lies in its declared range or choice list
//   - no_unresolved_tokens: no {{name}} token survives rendering
//   - no_diagnostics: generation recorded no evaluation or render diagnostics
//   - value_equals: a sampled value equals the expected literal
//   - computed_equals: a computed value equals the expected literal
//   - rendered_contains: a rendered field contains the expected text
//
// value_equals, computed_equals and rendered_contains accept an optional
// `seed:` that limits the check to the instance generated from that seed.
//
// # Golden Files
//
// RunWithGolden snapshots the generated instances as canonical JSON under
// testdata/golden/{scenario}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness

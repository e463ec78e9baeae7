package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// VariableType names how a variable is sampled.
type VariableType string

const (
	TypeInteger VariableType = "integer"
	TypeNumber  VariableType = "number"
	TypeChoice  VariableType = "choice"
)

// ValidVariableTypes defines allowed variable types.
var ValidVariableTypes = map[VariableType]bool{
	TypeInteger: true,
	TypeNumber:  true,
	TypeChoice:  true,
}

// DefaultDecimals is the precision of a number variable that declares none.
const DefaultDecimals = 2

// Template is the parameterized definition of an exercise family.
// Owned by the template catalog; read-only to the engine.
type Template struct {
	ID            string     `json:"id" yaml:"id"`
	LessonID      string     `json:"lessonId" yaml:"lessonId"`
	Title         string     `json:"title" yaml:"title"`
	Difficulty    Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Variables     Variables  `json:"variables" yaml:"variables"`
	SolutionSteps []StepSpec `json:"solutionSteps" yaml:"solutionSteps"`
	Statement     string     `json:"statement" yaml:"statement"`
	FinalAnswer   string     `json:"finalAnswer" yaml:"finalAnswer"`
	Hints         []string   `json:"hints,omitempty" yaml:"hints,omitempty"`
	Method        string     `json:"method,omitempty" yaml:"method,omitempty"`
}

// Difficulty is opaque metadata copied through to instances.
// Authors may write it as a string or a number; it is kept as text.
type Difficulty string

// UnmarshalJSON accepts a JSON string or number.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Difficulty(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("difficulty must be a string or number: %w", err)
	}
	*d = Difficulty(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (d *Difficulty) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: difficulty must be a scalar", node.Line)
	}
	*d = Difficulty(node.Value)
	return nil
}

// VariableSpec declares one sampled variable.
// Min and Max are pointers so that a missing bound is distinguishable from 0.
type VariableSpec struct {
	Name     string       `json:"-" yaml:"-"`
	Type     VariableType `json:"type" yaml:"type"`
	Min      *float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64     `json:"max,omitempty" yaml:"max,omitempty"`
	Decimals *int         `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Choices  ValueList    `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Bounds returns the inclusive range, with missing bounds read as 0.
func (v VariableSpec) Bounds() (lo, hi float64) {
	if v.Min != nil {
		lo = *v.Min
	}
	if v.Max != nil {
		hi = *v.Max
	}
	return lo, hi
}

// Precision returns the declared decimals or DefaultDecimals.
func (v VariableSpec) Precision() int {
	if v.Decimals == nil {
		return DefaultDecimals
	}
	return *v.Decimals
}

// Variables is the ordered set of variable declarations.
// Its JSON and YAML form is a mapping from name to spec; document order
// is preserved because it is the sampling order.
type Variables []VariableSpec

// Names returns variable names in declaration order.
func (vs Variables) Names() []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// MarshalJSON writes the variables as an object in declaration order.
func (vs Variables) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		body, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of variable specs in document order.
func (vs *Variables) UnmarshalJSON(data []byte) error {
	var out Variables
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var spec VariableSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("variable %q: %w", key, err)
		}
		spec.Name = key
		out = append(out, spec)
		return nil
	})
	if err != nil {
		return err
	}
	*vs = out
	return nil
}

// UnmarshalYAML reads a mapping of variable specs in document order.
func (vs *Variables) UnmarshalYAML(node *yaml.Node) error {
	var out Variables
	err := decodeOrderedMapping(node, func(key string, val *yaml.Node) error {
		var spec VariableSpec
		if err := val.Decode(&spec); err != nil {
			return fmt.Errorf("variable %q: %w", key, err)
		}
		spec.Name = key
		out = append(out, spec)
		return nil
	})
	if err != nil {
		return err
	}
	*vs = out
	return nil
}

// StepSpec is one solution step. Compute entries are evaluated when the
// step is reached, in declaration order.
type StepSpec struct {
	Step        int         `json:"step" yaml:"step"`
	Title       string      `json:"title" yaml:"title"`
	Content     string      `json:"content" yaml:"content"`
	Explanation string      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Compute     Assignments `json:"compute,omitempty" yaml:"compute,omitempty"`
}

// Assignment binds the result of Formula to Name.
type Assignment struct {
	Name    string
	Formula string
}

// Assignments is an ordered compute block; its document form is a mapping
// from name to formula.
type Assignments []Assignment

// MarshalJSON writes the assignments as an object in declaration order.
func (as Assignments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range as {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.Formula)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of formulas in document order.
func (as *Assignments) UnmarshalJSON(data []byte) error {
	var out Assignments
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var formula string
		if err := json.Unmarshal(raw, &formula); err != nil {
			return fmt.Errorf("compute %q: formula must be a string", key)
		}
		out = append(out, Assignment{Name: key, Formula: formula})
		return nil
	})
	if err != nil {
		return err
	}
	*as = out
	return nil
}

// UnmarshalYAML reads a mapping of formulas in document order.
func (as *Assignments) UnmarshalYAML(node *yaml.Node) error {
	var out Assignments
	err := decodeOrderedMapping(node, func(key string, val *yaml.Node) error {
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: compute %q: formula must be a string", val.Line, key)
		}
		out = append(out, Assignment{Name: key, Formula: val.Value})
		return nil
	})
	if err != nil {
		return err
	}
	*as = out
	return nil
}

// ExerciseInstance is one concrete, fully rendered exercise.
// Immutable once produced.
type ExerciseInstance struct {
	TemplateID    string         `json:"templateId"`
	LessonID      string         `json:"lessonId"`
	Title         string         `json:"title"`
	Difficulty    Difficulty     `json:"difficulty,omitempty"`
	Seed          int64          `json:"seed"`
	Values        Bindings       `json:"values"`
	Computed      Bindings       `json:"computed"`
	Statement     string         `json:"statement"`
	SolutionSteps []RenderedStep `json:"solutionSteps"`
	FinalAnswer   string         `json:"finalAnswer"`
	Hints         []string       `json:"hints"`
	Method        string         `json:"method,omitempty"`
	Diagnostics   []Diagnostic   `json:"diagnostics,omitempty"`
	Fingerprint   string         `json:"fingerprint,omitempty"`
}

// RenderedStep is a StepSpec with every token resolved.
type RenderedStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Explanation string `json:"explanation,omitempty"`
}

// Diagnostic kinds.
const (
	DiagnosticEvaluation = "evaluation"
	DiagnosticRender     = "render"
)

// Diagnostic records a recoverable problem met during generation.
type Diagnostic struct {
	Kind    string `json:"kind"`              // "evaluation" or "render"
	Name    string `json:"name"`              // compute target or token name
	Field   string `json:"field,omitempty"`   // rendered field for render gaps
	Formula string `json:"formula,omitempty"` // offending formula
	Code    string `json:"code,omitempty"`    // evaluator error code
	Message string `json:"message"`
}

// decodeOrderedObject walks a JSON object calling fn for each member in
// document order. null decodes as an empty object.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		if seen[key] {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// decodeOrderedMapping walks a YAML mapping node calling fn for each pair
// in document order.
func decodeOrderedMapping(node *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", node.Line)
	}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if seen[key] {
			return fmt.Errorf("line %d: duplicate key %q", node.Content[i].Line, key)
		}
		seen[key] = true
		if err := fn(key, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"gopkg.in/yaml.v3"
)

// Kind identifies the dynamic type of a Value.
type Kind string

const (
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindBool   Kind = "bool"
)

// Value is a sealed interface over the literal types a template can bind.
// Only Number, String and Bool implement it.
type Value interface {
	value() // Sealed - only these types implement it
	Kind() Kind
}

// Number is a numeric literal. Sampled integers are Numbers with no
// fractional part.
type Number float64

func (Number) value() {}

// Kind implements Value.
func (Number) Kind() Kind { return KindNumber }

// IsInteger reports whether n has no fractional part.
func (n Number) IsInteger() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// String is a symbolic literal (choice labels, ternary branches).
type String string

func (String) value() {}

// Kind implements Value.
func (String) Kind() Kind { return KindString }

// Bool is the result of a comparison.
type Bool bool

func (Bool) value() {}

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

// MarshalValue marshals a Value to JSON bytes.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite number %v", f)
		}
		return json.Marshal(f)
	case String:
		return json.Marshal(string(val))
	case Bool:
		return json.Marshal(bool(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// UnmarshalValue decodes a JSON scalar into a Value.
// Arrays, objects and null are rejected.
func UnmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is not a valid literal")
	case '[', '{':
		return nil, fmt.Errorf("literal must be a number, string or bool, got %s", string(data))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", n, err)
		}
		return Number(f), nil
	}
}

// valueFromYAML decodes a YAML scalar node into a Value using its resolved tag.
func valueFromYAML(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: literal must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			var n int64
			if derr := node.Decode(&n); derr != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
			}
			f = float64(n)
		}
		return Number(f), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Bool(b), nil
	case "!!null":
		return nil, fmt.Errorf("line %d: null is not a valid literal", node.Line)
	default:
		return String(node.Value), nil
	}
}

// ValueList is an ordered list of literals (choice values).
type ValueList []Value

// MarshalJSON implements json.Marshaler.
func (l ValueList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ValueList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ValueList, len(raw))
	for i, r := range raw {
		v, err := UnmarshalValue(r)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	*l = out
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *ValueList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: choices must be a sequence", node.Line)
	}
	out := make(ValueList, len(node.Content))
	for i, item := range node.Content {
		v, err := valueFromYAML(item)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	*l = out
	return nil
}

// Bindings maps names to literals. Used for sampled values, computed
// values and evaluation environments.
// Use SortedKeys() for deterministic iteration.
type Bindings map[string]Value

// Lookup returns the value bound to name.
func (b Bindings) Lookup(name string) (Value, bool) {
	v, ok := b[name]
	return v, ok
}

// Clone returns a shallow copy of b.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (b Bindings) SortedKeys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (b Bindings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(b[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bindings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = make(Bindings, len(raw))
	for k, r := range raw {
		v, err := UnmarshalValue(r)
		if err != nil {
			return fmt.Errorf("Bindings key %q: %w", k, err)
		}
		(*b)[k] = v
	}
	return nil
}

// Layered resolves a name against several Bindings, last layer first.
// The engine layers computed values over sampled values.
type Layered []Bindings

// Lookup returns the value from the topmost layer that binds name.
func (l Layered) Lookup(name string) (Value, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if v, ok := l[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Flatten merges all layers into one Bindings, upper layers winning.
func (l Layered) Flatten() Bindings {
	out := make(Bindings)
	for _, layer := range l {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

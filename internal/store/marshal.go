package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/exgen/internal/ir"
)

// marshalInstance converts an instance to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so the stored text hashes to the fingerprint.
func marshalInstance(inst *ir.ExerciseInstance) (string, error) {
	data, err := ir.MarshalCanonical(inst)
	if err != nil {
		return "", fmt.Errorf("marshal instance: %w", err)
	}
	return string(data), nil
}

// unmarshalInstance parses stored JSON TEXT back into an instance.
func unmarshalInstance(data string) (*ir.ExerciseInstance, error) {
	var inst ir.ExerciseInstance
	if err := json.Unmarshal([]byte(data), &inst); err != nil {
		return nil, fmt.Errorf("unmarshal instance: %w", err)
	}
	if inst.Hints == nil {
		inst.Hints = []string{}
	}
	if inst.SolutionSteps == nil {
		inst.SolutionSteps = []ir.RenderedStep{}
	}
	return &inst, nil
}

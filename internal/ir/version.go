package ir

// Version constants for the instance format and engine.
const (
	// FormatVersion is the ExerciseInstance record format version.
	FormatVersion = "1"

	// EngineVersion is the exgen engine version.
	EngineVersion = "0.1.0"
)

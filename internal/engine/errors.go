package engine

import (
	"errors"
	"fmt"
)

// GenerationError reports a generation that could not produce an instance.
type GenerationError struct {
	// Code identifies the error category.
	Code GenerationErrorCode

	// TemplateID identifies the template being generated.
	TemplateID string

	// Seed is the seed in use.
	Seed int64

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// GenerationErrorCode categorizes generation errors.
type GenerationErrorCode string

const (
	// ErrCodeNilTemplate indicates Generate was called without a template.
	ErrCodeNilTemplate GenerationErrorCode = "NIL_TEMPLATE"

	// ErrCodeConfiguration indicates a variable declaration that cannot be
	// sampled (min > max, empty choices, unknown type).
	ErrCodeConfiguration GenerationErrorCode = "CONFIGURATION"

	// ErrCodeFingerprint indicates the instance could not be hashed.
	ErrCodeFingerprint GenerationErrorCode = "FINGERPRINT"
)

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s (template=%s, seed=%d)", e.Code, e.Message, e.TemplateID, e.Seed)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true if err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeConfiguration
	}
	return false
}

package cli

import (
	"errors"

	"github.com/roach88/exgen/internal/catalog"
)

// CLI error codes. Load errors keep their catalog code (E001-E008) and
// template validation errors their compiler code (E1xx).
const (
	ErrCodeGeneric          = catalog.ErrCodeGeneric
	ErrCodeNotFound         = catalog.ErrCodeNotFound
	ErrCodeWriteFailed      = "E009" // File write error
	ErrCodeTemplateNotFound = "E010" // Unknown template id
	ErrCodeGeneration       = "E011" // Generation failed
	ErrCodeStore            = "E012" // Archive open/read/write failed
	ErrCodeInvalidFlag      = "E013" // Flag value out of range
	ErrCodeReplayMismatch   = "E014" // Replay diverged from the archive
	ErrCodeTestFailed       = "E015" // One or more scenarios failed
)

// loadCatalog loads templates fail-fast and returns the first error as a
// LoadError so callers can report its code.
func loadCatalog(dir string) (*catalog.Result, *catalog.LoadError) {
	res, errs := catalog.Load(dir, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, asLoadError(errs[0])
	}
	return res, nil
}

// asLoadError converts any load failure to a LoadError.
func asLoadError(err error) *catalog.LoadError {
	var loadErr *catalog.LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &catalog.LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

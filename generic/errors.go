/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer layers (api, cmd) map these to status codes and messages.

ERROR CATEGORIES:
  1. Validation errors - A malformed catalog row (strict mode only)
  2. Configuration errors - Bad budget, combo size, or cost reaching an
     algorithm. Always fatal, never coerced.
  3. Lookup errors - Missing catalogs in a CatalogStore

NO RESULT IS NOT AN ERROR:
  PickBest returning nil, or Allocate/FindCombos returning nothing, means
  "no eligible option". Callers render that; they do not get an error.

SEE ALSO:
  - normalize.go: Produces MalformedRowError
  - allocate.go, efficiency.go, combos.go: Produce ConfigurationError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedRow is returned by strict normalization for the first row
	// that would otherwise be skipped.
	ErrMalformedRow = errors.New("malformed catalog row")

	// ErrInvalidBudget is returned when budget < 0.
	ErrInvalidBudget = errors.New("budget must be >= 0")

	// ErrInvalidMaxSize is returned when a combo size is < 1 or above the
	// configured ceiling.
	ErrInvalidMaxSize = errors.New("invalid max combo size")

	// ErrInvalidCost is returned when an option with cost <= 0 reaches an
	// algorithm. Normalization drops such rows, so this signals a caller
	// that built options by hand.
	ErrInvalidCost = errors.New("option cost must be > 0")

	// ErrInvalidOrder is returned for an unknown combo ranking key.
	ErrInvalidOrder = errors.New("unknown combo order")

	// ErrComboLimitExceeded is returned when the number of subsets to
	// enumerate would exceed ComboLimits.MaxSubsets.
	ErrComboLimitExceeded = errors.New("combination count exceeds limit")

	// ErrCatalogNotFound is returned when a referenced catalog doesn't exist.
	ErrCatalogNotFound = errors.New("catalog not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedRowError identifies the offending source row.
type MalformedRowError struct {
	Row    int
	Field  string
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}

// ConfigurationError wraps one of the configuration sentinels with the
// offending field and value.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s=%v: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s=%v: %v (%s)", e.Field, e.Value, e.Err, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(err error, field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError returns true for errors caused by invalid call
// parameters or hand-built options.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsConfigurationError(err) || errors.Is(err, ErrMalformedRow)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCatalogNotFound)
}

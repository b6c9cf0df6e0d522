// SPDX-License-Identifier: MIT
// Package core: error taxonomy shared by every calculation package.
//
// Purpose:
//   - Give callers one place to classify failures by kind with errors.Is/As.
//   - Keep messages prefixed with "core: ..." for easy grepping across logs.
//
// Kinds:
//   - ErrConfig          : invalid Dmax/N/q-range/slit values or malformed measurement.
//   - ErrSingularSystem  : regularized normal equations not solvable even after fallback.
//   - ErrNoSolution      : diagnostics requested before a successful solve.
//   - ErrNumericalWarning: non-fatal condition attached to a best-effort result.
//   - ErrCalculation     : umbrella matched by every solver/estimator failure.

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("core: invalid configuration")

	// ErrSingularSystem is matched by every *SingularSystemError.
	ErrSingularSystem = errors.New("core: singular system")

	// ErrNoSolution indicates that a solution-dependent query ran before any
	// successful solve.
	ErrNoSolution = errors.New("core: no solution available")

	// ErrNumericalWarning is matched by every *NumericalWarning.
	ErrNumericalWarning = errors.New("core: numerical warning")

	// ErrCalculation is the umbrella kind for failures raised while computing
	// (as opposed to rejecting input).
	ErrCalculation = errors.New("core: calculation failed")
)

// ConfigError describes a rejected configuration or measurement value.
type ConfigError struct {
	Field  string  // offending field, e.g. "DMax" or "Err[3]"
	Value  float64 // offending value (NaN when not numeric)
	Reason string  // short human-readable constraint
}

// NewConfigError builds a *ConfigError.
func NewConfigError(field string, value float64, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("core: invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrConfig as the kind of every ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// SingularSystemError reports a normal-equation matrix that could not be
// factorized, together with what the decomposition observed.
type SingularSystemError struct {
	Dim  int     // order of the system
	Rank int     // numerical rank (singular values above tolerance)
	Cond float64 // condition number estimate (+Inf when rank-deficient)
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("core: singular system: dim=%d rank=%d cond=%g", e.Dim, e.Rank, e.Cond)
}

// Is matches both ErrSingularSystem and the ErrCalculation umbrella.
func (e *SingularSystemError) Is(target error) bool {
	return target == ErrSingularSystem || target == ErrCalculation
}

// NumericalWarning is a non-fatal condition; the result it accompanies is a
// best-effort value.
type NumericalWarning struct {
	Op      string  // operation that raised the warning
	Cond    float64 // condition number estimate when relevant
	Message string
}

func (w *NumericalWarning) Error() string {
	return fmt.Sprintf("core: %s: %s (cond=%g)", w.Op, w.Message, w.Cond)
}

// Is reports ErrNumericalWarning.
func (w *NumericalWarning) Is(target error) bool { return target == ErrNumericalWarning }

// SPDX-License-Identifier: MIT
// Package: core
//
// Purpose:
//   - Provide the single source of truth for measurement and configuration checks.
//   - Reject invalid input synchronously at the boundary; never default silently.
//
// Determinism:
//   - Checks run in a fixed order and report the first violation found.

package core

import "fmt"

// Validate checks that the measurement is usable for an inversion.
//
// Errors (*ConfigError, matches ErrConfig):
//   - empty measurement or mismatched slice lengths;
//   - non-finite q, I or σ; q ≤ 0; σ ≤ 0;
//   - negative or non-finite slit dimensions.
//
// Complexity: O(n).
func (m *Measurement) Validate() error {
	if m == nil || len(m.Q) == 0 {
		return NewConfigError("Measurement", 0, "no data points")
	}
	n := len(m.Q)
	if len(m.I) != n {
		return NewConfigError("I", float64(len(m.I)), fmt.Sprintf("length must equal len(Q)=%d", n))
	}
	if len(m.Err) != n {
		return NewConfigError("Err", float64(len(m.Err)), fmt.Sprintf("length must equal len(Q)=%d", n))
	}

	for i := 0; i < n; i++ {
		if isNonFinite(m.Q[i]) || m.Q[i] <= 0 {
			return NewConfigError(fmt.Sprintf("Q[%d]", i), m.Q[i], "must be finite and > 0")
		}
		if isNonFinite(m.I[i]) {
			return NewConfigError(fmt.Sprintf("I[%d]", i), m.I[i], "must be finite")
		}
		if err := ValidateSigma(i, m.Err[i]); err != nil {
			return err
		}
	}

	if isNonFinite(m.SlitHeight) || m.SlitHeight < 0 {
		return NewConfigError("SlitHeight", m.SlitHeight, "must be finite and >= 0")
	}
	if isNonFinite(m.SlitWidth) || m.SlitWidth < 0 {
		return NewConfigError("SlitWidth", m.SlitWidth, "must be finite and >= 0")
	}

	return nil
}

// ValidateSigma rejects an uncertainty that would give an infinite or
// ill-defined weight. i is only used to label the error.
func ValidateSigma(i int, sigma float64) error {
	if isNonFinite(sigma) || sigma <= 0 {
		return NewConfigError(fmt.Sprintf("Err[%d]", i), sigma, "must be finite and > 0")
	}

	return nil
}

// Validate checks every scalar of the configuration.
//
// Errors (*ConfigError): DMax ≤ 0, NTerms < 1, α < 0, negative or inverted
// q window, SlitPoints < 2, any non-finite value.
func (c Config) Validate() error {
	if isNonFinite(c.DMax) || c.DMax <= 0 {
		return NewConfigError("DMax", c.DMax, "must be finite and > 0")
	}
	if c.NTerms < 1 {
		return NewConfigError("NTerms", float64(c.NTerms), "must be >= 1")
	}
	if isNonFinite(c.Alpha) || c.Alpha < 0 {
		return NewConfigError("Alpha", c.Alpha, "must be finite and >= 0")
	}
	if isNonFinite(c.QMin) || c.QMin < 0 {
		return NewConfigError("QMin", c.QMin, "must be finite and >= 0")
	}
	if isNonFinite(c.QMax) || c.QMax < 0 {
		return NewConfigError("QMax", c.QMax, "must be finite and >= 0")
	}
	if c.QMax > 0 && c.QMin > c.QMax {
		return NewConfigError("QMin", c.QMin, fmt.Sprintf("must not exceed QMax=%g", c.QMax))
	}
	if c.BackgroundMode != BackgroundEstimate && c.BackgroundMode != BackgroundFixed {
		return NewConfigError("BackgroundMode", float64(c.BackgroundMode), "unknown mode")
	}
	if isNonFinite(c.Background) {
		return NewConfigError("Background", c.Background, "must be finite")
	}
	if c.SlitPoints < 2 {
		return NewConfigError("SlitPoints", float64(c.SlitPoints), "must be >= 2")
	}

	return nil
}

// ValidateFor checks the configuration against a measurement: the q window
// must select at least one point.
func (c Config) ValidateFor(m *Measurement) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if len(m.Window(c.QMin, c.QMax)) == 0 {
		return NewConfigError("QMin", c.QMin, fmt.Sprintf("window [%g, %g] selects no points", c.QMin, c.QMax))
	}

	return nil
}

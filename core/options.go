// SPDX-License-Identifier: MIT

// Package core: functional configuration for a calculation Config.
// This file defines:
//   - documented defaults (constants, single source of truth),
//   - ConfigOption constructors (WithX) with strong validation
//     (panic only on nonsensical values, i.e. programmer error),
//   - NewConfig, which resolves options on top of the defaults.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - User-supplied values that may legitimately be wrong at runtime (from a
//     form, a file) go through Config.Validate, which returns *ConfigError.
package core

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultNTerms is the number of basis terms of a fresh Config.
	DefaultNTerms = 10

	// DefaultAlpha is the dimensionless regularization weight.
	DefaultAlpha = 1e-4

	// DefaultDMax is the maximum distance (same length unit as 1/q).
	DefaultDMax = 140.0

	// DefaultBackgroundMode fits the background as a free parameter.
	DefaultBackgroundMode = BackgroundEstimate

	// DefaultSlitPoints is the number of quadrature points per non-zero
	// slit dimension.
	DefaultSlitPoints = 21
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicNTermsInvalid     = "core: WithNTerms: n must be >= 1"
	panicDMaxInvalid       = "core: WithDMax: dmax must be finite and > 0"
	panicAlphaInvalid      = "core: WithAlpha: alpha must be finite and >= 0"
	panicQRangeInvalid     = "core: WithQRange: bounds must be finite, >= 0 and ordered"
	panicBackgroundInvalid = "core: WithFixedBackground: value must be finite"
	panicSlitPointsInvalid = "core: WithSlitPoints: npts must be >= 2"
)

// ConfigOption mutates a Config under construction.
type ConfigOption func(*Config)

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		DMax:           DefaultDMax,
		NTerms:         DefaultNTerms,
		Alpha:          DefaultAlpha,
		BackgroundMode: DefaultBackgroundMode,
		SlitPoints:     DefaultSlitPoints,
	}
}

// NewConfig applies opts left-to-right on top of DefaultConfig.
//
// Complexity: O(len(opts)).
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithNTerms sets the number of basis terms.
func WithNTerms(n int) ConfigOption {
	if n < 1 {
		panic(panicNTermsInvalid)
	}

	return func(c *Config) { c.NTerms = n }
}

// WithDMax sets the maximum distance.
func WithDMax(dmax float64) ConfigOption {
	if isNonFinite(dmax) || dmax <= 0 {
		panic(panicDMaxInvalid)
	}

	return func(c *Config) { c.DMax = dmax }
}

// WithAlpha sets the dimensionless regularization weight.
// Alpha = 0 disables regularization.
func WithAlpha(alpha float64) ConfigOption {
	if isNonFinite(alpha) || alpha < 0 {
		panic(panicAlphaInvalid)
	}

	return func(c *Config) { c.Alpha = alpha }
}

// WithQRange restricts the calculation to qmin ≤ q ≤ qmax.
// A zero bound means unbounded on that side.
func WithQRange(qmin, qmax float64) ConfigOption {
	if isNonFinite(qmin) || isNonFinite(qmax) || qmin < 0 || qmax < 0 ||
		(qmax > 0 && qmin > qmax) {
		panic(panicQRangeInvalid)
	}

	return func(c *Config) { c.QMin, c.QMax = qmin, qmax }
}

// WithFixedBackground subtracts a known background instead of fitting it.
func WithFixedBackground(bg float64) ConfigOption {
	if isNonFinite(bg) {
		panic(panicBackgroundInvalid)
	}

	return func(c *Config) {
		c.BackgroundMode = BackgroundFixed
		c.Background = bg
	}
}

// WithEstimatedBackground fits the background as a free parameter.
func WithEstimatedBackground() ConfigOption {
	return func(c *Config) {
		c.BackgroundMode = BackgroundEstimate
		c.Background = 0
	}
}

// WithSlitPoints sets the quadrature density used for slit smearing.
func WithSlitPoints(npts int) ConfigOption {
	if npts < 2 {
		panic(panicSlitPointsInvalid)
	}

	return func(c *Config) { c.SlitPoints = npts }
}

// isNonFinite reports NaN or ±Inf.
func isNonFinite(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

// SPDX-License-Identifier: MIT

// Package matrix: functional configuration of the numeric policy used by the
// symmetric solvers. This file defines:
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal) that resolves options over defaults.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each threshold impacts a kernel and is covered by tests.
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultPinvRcond is the relative singular-value cutoff of the
	// pseudo-inverse fallback: σᵢ ≤ rcond·σmax are discarded.
	DefaultPinvRcond = 1e-12

	// DefaultSingularRcond is the relative cutoff below which a direction is
	// considered absent when counting the numerical rank. A system whose
	// rank falls to zero under it is reported as singular.
	DefaultSingularRcond = 1e-15
)

// ---------- Internal panic messages ----------

const (
	panicPinvRcond     = "matrix: WithPinvRcond: rcond must be finite and in (0, 1)"
	panicSingularRcond = "matrix: WithSingularRcond: rcond must be finite and in [0, 1)"
)

// Options holds the resolved numeric policy. Fields are unexported; use the
// WithX constructors.
type Options struct {
	pinvRcond     float64
	singularRcond float64
	forceSVD      bool
}

// Option mutates Options.
type Option func(*Options)

// WithPinvRcond sets the pseudo-inverse cutoff.
func WithPinvRcond(rcond float64) Option {
	if math.IsNaN(rcond) || rcond <= 0 || rcond >= 1 {
		panic(panicPinvRcond)
	}

	return func(o *Options) { o.pinvRcond = rcond }
}

// WithSingularRcond sets the rank cutoff.
func WithSingularRcond(rcond float64) Option {
	if math.IsNaN(rcond) || rcond < 0 || rcond >= 1 {
		panic(panicSingularRcond)
	}

	return func(o *Options) { o.singularRcond = rcond }
}

// WithForceSVD skips the Cholesky attempt and always takes the SVD path.
func WithForceSVD() Option {
	return func(o *Options) { o.forceSVD = true }
}

// gatherOptions resolves opts left-to-right on top of the defaults.
func gatherOptions(opts ...Option) Options {
	o := Options{
		pinvRcond:     DefaultPinvRcond,
		singularRcond: DefaultSingularRcond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

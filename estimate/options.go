// SPDX-License-Identifier: MIT

// Package estimate: functional configuration of the α and N sweeps.
// This file defines the documented defaults, the WithX constructors (which
// panic only on nonsensical values, i.e. programmer error) and
// gatherOptions, which resolves options over the defaults.
package estimate

import (
	"log/slog"
	"math"
	"runtime"

	"github.com/katalvlaran/pofr/solver"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultAlphaMin and DefaultAlphaMax bound the geometric α sweep.
	DefaultAlphaMin = 1e-6
	DefaultAlphaMax = 1e2

	// DefaultPointsPerDecade is the density of the α sweep.
	DefaultPointsPerDecade = 2

	// DefaultOscillationThreshold is the largest accepted oscillation count.
	DefaultOscillationThreshold = 2

	// DefaultChiSquareFactor bounds an accepted χ² relative to the best χ²
	// of the sweep.
	DefaultChiSquareFactor = 2.0

	// DefaultNMin and DefaultNMax bound the term-count sweep.
	DefaultNMin = 10
	DefaultNMax = 30

	// DefaultPlateauWindow is the number of following term counts that must
	// agree with a candidate.
	DefaultPlateauWindow = 2

	// DefaultPlateauTolerance is the relative spread of Rg and I(0) accepted
	// across a plateau window.
	DefaultPlateauTolerance = 1e-2

	// DefaultSamples is the r grid used to count oscillations.
	DefaultSamples = 101
)

// ---------- Internal panic messages ----------

const (
	panicLogger     = "estimate: WithLogger: logger must not be nil"
	panicWorkers    = "estimate: WithWorkers: n must be >= 1"
	panicAlphaRange = "estimate: WithAlphaRange: need 0 < min <= max, both finite"
	panicPerDecade  = "estimate: WithPointsPerDecade: n must be >= 1"
	panicOscillate  = "estimate: WithOscillationThreshold: n must be >= 0"
	panicChi2Factor = "estimate: WithChiSquareFactor: factor must be finite and >= 1"
	panicNRange     = "estimate: WithNRange: need 1 <= min <= max"
	panicPlateau    = "estimate: WithPlateau: window must be >= 1 and tolerance finite and > 0"
	panicSamples    = "estimate: WithSamples: n must be >= 3"
)

// Options is the resolved configuration of a sweep.
type Options struct {
	logger        *slog.Logger
	workers       int
	alphaMin      float64
	alphaMax      float64
	perDecade     int
	oscThreshold  int
	chi2Factor    float64
	nMin, nMax    int
	plateauWindow int
	plateauTol    float64
	keepSlit      bool
	samples       int
	solverOpts    []solver.Option
}

// Option configures a sweep.
type Option func(*Options)

// WithLogger routes sweep logging (trial failures at Warn) to l.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicLogger)
	}

	return func(o *Options) { o.logger = l }
}

// WithWorkers bounds the number of trials solved concurrently.
func WithWorkers(n int) Option {
	if n < 1 {
		panic(panicWorkers)
	}

	return func(o *Options) { o.workers = n }
}

// WithAlphaRange sets the bounds of the α sweep.
func WithAlphaRange(min, max float64) Option {
	if !(min > 0) || min > max || math.IsInf(max, 0) || math.IsNaN(max) {
		panic(panicAlphaRange)
	}

	return func(o *Options) { o.alphaMin, o.alphaMax = min, max }
}

// WithPointsPerDecade sets the density of the α sweep.
func WithPointsPerDecade(n int) Option {
	if n < 1 {
		panic(panicPerDecade)
	}

	return func(o *Options) { o.perDecade = n }
}

// WithOscillationThreshold sets the largest accepted oscillation count.
func WithOscillationThreshold(n int) Option {
	if n < 0 {
		panic(panicOscillate)
	}

	return func(o *Options) { o.oscThreshold = n }
}

// WithChiSquareFactor sets the accepted χ² band relative to the best trial.
func WithChiSquareFactor(f float64) Option {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		panic(panicChi2Factor)
	}

	return func(o *Options) { o.chi2Factor = f }
}

// WithNRange sets the bounds of the term-count sweep.
func WithNRange(min, max int) Option {
	if min < 1 || min > max {
		panic(panicNRange)
	}

	return func(o *Options) { o.nMin, o.nMax = min, max }
}

// WithPlateau sets the plateau window and tolerance of the N sweep.
func WithPlateau(window int, tol float64) Option {
	if window < 1 || math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		panic(panicPlateau)
	}

	return func(o *Options) { o.plateauWindow, o.plateauTol = window, tol }
}

// WithSlit keeps slit smearing during the sweeps. By default trials are
// solved on the unsmeared view of the measurement.
func WithSlit(keep bool) Option {
	return func(o *Options) { o.keepSlit = keep }
}

// WithSamples sets the r grid used to count oscillations.
func WithSamples(n int) Option {
	if n < 3 {
		panic(panicSamples)
	}

	return func(o *Options) { o.samples = n }
}

// WithSolverOptions forwards options to every trial solve.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(o *Options) { o.solverOpts = append(o.solverOpts, opts...) }
}

func gatherOptions(opts ...Option) Options {
	o := Options{
		logger:        slog.Default().With("component", "estimate"),
		workers:       runtime.GOMAXPROCS(0),
		alphaMin:      DefaultAlphaMin,
		alphaMax:      DefaultAlphaMax,
		perDecade:     DefaultPointsPerDecade,
		oscThreshold:  DefaultOscillationThreshold,
		chi2Factor:    DefaultChiSquareFactor,
		nMin:          DefaultNMin,
		nMax:          DefaultNMax,
		plateauWindow: DefaultPlateauWindow,
		plateauTol:    DefaultPlateauTolerance,
		samples:       DefaultSamples,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

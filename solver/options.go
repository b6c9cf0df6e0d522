// SPDX-License-Identifier: MIT

package solver

import (
	"log/slog"
	"math"

	"github.com/katalvlaran/pofr/matrix"
)

// DefaultWarnCond is the condition estimate above which a solve attaches a
// NumericalWarning.
const DefaultWarnCond = 1e12

const (
	panicWarnCond = "solver: WithWarnCond: cond must be finite and > 1"
	panicLogger   = "solver: WithLogger: logger must not be nil"
)

// Options is the resolved configuration of a solve.
type Options struct {
	logger   *slog.Logger
	warnCond float64
	matrix   []matrix.Option
}

// Option configures Solve.
type Option func(*Options)

// WithLogger routes solver debug output to l.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicLogger)
	}

	return func(o *Options) { o.logger = l }
}

// WithWarnCond sets the condition threshold of the ill-conditioning warning.
func WithWarnCond(cond float64) Option {
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond <= 1 {
		panic(panicWarnCond)
	}

	return func(o *Options) { o.warnCond = cond }
}

// WithPinvRcond sets the truncation of the pseudo-inverse fallback.
func WithPinvRcond(rcond float64) Option {
	opt := matrix.WithPinvRcond(rcond)

	return func(o *Options) { o.matrix = append(o.matrix, opt) }
}

// WithSingularRcond sets the relative cutoff below which the system is
// reported singular.
func WithSingularRcond(rcond float64) Option {
	opt := matrix.WithSingularRcond(rcond)

	return func(o *Options) { o.matrix = append(o.matrix, opt) }
}

func gatherOptions(opts ...Option) Options {
	o := Options{
		logger:   slog.Default().With("component", "solver"),
		warnCond: DefaultWarnCond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

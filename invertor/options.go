// SPDX-License-Identifier: MIT

package invertor

import (
	"log/slog"

	"github.com/katalvlaran/pofr/diagnostics"
	"github.com/katalvlaran/pofr/estimate"
	"github.com/katalvlaran/pofr/solver"
)

const (
	panicLogger  = "invertor: WithLogger: logger must not be nil"
	panicSamples = "invertor: WithDiagnosticsSamples: n must be >= 3"
)

type options struct {
	logger       *slog.Logger
	solverOpts   []solver.Option
	estimateOpts []estimate.Option
	samples      int
}

// Option configures an Invertor.
type Option func(*options)

// WithLogger routes the invertor's logging, and that of the solves and
// sweeps it runs, to l.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicLogger)
	}

	return func(o *options) { o.logger = l }
}

// WithSolverOptions forwards options to every solve.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(o *options) { o.solverOpts = append(o.solverOpts, opts...) }
}

// WithEstimateOptions forwards options to the α and N sweeps.
func WithEstimateOptions(opts ...estimate.Option) Option {
	return func(o *options) { o.estimateOpts = append(o.estimateOpts, opts...) }
}

// WithDiagnosticsSamples sets the r grid used by Diagnostics.
func WithDiagnosticsSamples(n int) Option {
	if n < 3 {
		panic(panicSamples)
	}

	return func(o *options) { o.samples = n }
}

func gatherOptions(opts ...Option) options {
	o := options{
		logger:  slog.Default().With("component", "invertor"),
		samples: diagnostics.DefaultSamples,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// solverOptions prepends the invertor's logger so that explicit solver
// options still win.
func (o options) solverOptions() []solver.Option {
	return append([]solver.Option{solver.WithLogger(o.logger)}, o.solverOpts...)
}

func (o options) estimateOptions() []estimate.Option {
	opts := []estimate.Option{
		estimate.WithLogger(o.logger),
		estimate.WithSolverOptions(o.solverOptions()...),
	}

	return append(opts, o.estimateOpts...)
}

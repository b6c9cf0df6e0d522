// Package estimate suggests a regularization weight α and a number of basis
// terms N for a measurement by bounded, deterministic sweeps.
//
// Each trial builds and solves its own system from a copy of the caller's
// Config; the Measurement is shared read-only. Trials run concurrently on
// an errgroup bounded by WithWorkers and are reported in sweep order, so
// results do not depend on scheduling.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/design"
	"github.com/katalvlaran/pofr/diagnostics"
	"github.com/katalvlaran/pofr/solver"
)

// ErrNoTrial is returned when every trial of a sweep failed.
var ErrNoTrial = errors.New("estimate: no successful trial")

// Trial is the outcome of one (α, N) solve.
type Trial struct {
	Alpha        float64
	NTerms       int
	Chi2         float64
	Oscillations int
	Rg           float64 // NaN when undefined
	I0           float64
	Err          error // non-nil when the trial failed; other fields are zero
}

// OK reports whether the trial produced a solution.
func (t Trial) OK() bool { return t.Err == nil }

// AlphaGrid returns the geometric sweep from min to max with perDecade
// points per decade. Both bounds are included.
func AlphaGrid(min, max float64, perDecade int) []float64 {
	if !(min > 0) || max < min || perDecade < 1 {
		return nil
	}
	decades := math.Log10(max / min)
	steps := int(math.Round(decades * float64(perDecade)))
	if steps == 0 {
		return []float64{min}
	}
	out := make([]float64, steps+1)
	for i := range out {
		out[i] = min * math.Pow(10, decades*float64(i)/float64(steps))
	}
	out[steps] = max

	return out
}

// trialMeasurement returns the view of m the sweeps solve on.
func trialMeasurement(m *core.Measurement, o Options) *core.Measurement {
	if o.keepSlit {
		return m
	}

	return m.WithoutSlit()
}

// runTrial solves one configuration and extracts the sweep observables.
func runTrial(m *core.Measurement, cfg core.Config, o Options) Trial {
	t := Trial{Alpha: cfg.Alpha, NTerms: cfg.NTerms}
	sys, err := design.Build(m, cfg)
	if err != nil {
		t.Err = err
		return t
	}
	sol, err := solver.Solve(sys, cfg.Alpha, o.solverOpts...)
	if err != nil {
		t.Err = err
		return t
	}
	if t.Oscillations, err = diagnostics.Oscillations(sol, o.samples); err != nil {
		t.Err = err
		return t
	}
	t.Chi2 = sol.Chi2
	t.Rg, _, _ = diagnostics.Rg(sol)
	t.I0, _, _ = diagnostics.I0(sol)

	return t
}

// sweep runs every cfgs[i] concurrently and returns the trials in order.
// Failed trials are logged and kept with their error.
func sweep(ctx context.Context, m *core.Measurement, cfgs []core.Config, o Options) ([]Trial, error) {
	trials := make([]Trial, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range cfgs {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trials[i] = runTrial(m, cfgs[i], o)
			if err := trials[i].Err; err != nil {
				o.logger.Warn("trial failed",
					"alpha", cfgs[i].Alpha, "nterms", cfgs[i].NTerms, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return trials, nil
}

// AlphaReport is the outcome of an α sweep.
type AlphaReport struct {
	Alpha    float64 // selected α
	Trials   []Trial // one per grid point, ascending α
	Fallback bool    // true when no trial met both criteria
	Message  string
	Elapsed  time.Duration
}

// Alpha sweeps α over the geometric grid with cfg's other parameters and
// selects the smallest α whose oscillation count is at most the threshold
// and whose χ² is within the accepted factor of the best χ².
//
// If no trial qualifies, the trial with the fewest oscillations (smallest
// α on ties) is chosen and Fallback is set. Failed trials are logged and
// skipped; ErrNoTrial is returned when all fail. ctx cancellation stops
// scheduling and returns ctx.Err().
func Alpha(ctx context.Context, m *core.Measurement, cfg core.Config, opts ...Option) (*AlphaReport, error) {
	start := time.Now()
	o := gatherOptions(opts...)
	if err := cfg.ValidateFor(m); err != nil {
		return nil, fmt.Errorf("estimate: Alpha: %w", err)
	}

	grid := AlphaGrid(o.alphaMin, o.alphaMax, o.perDecade)
	view := trialMeasurement(m, o)
	cfgs := make([]core.Config, len(grid))
	for i, a := range grid {
		cfgs[i] = cfg
		cfgs[i].Alpha = a
	}
	trials, err := sweep(ctx, view, cfgs, o)
	if err != nil {
		return nil, err
	}

	rep := &AlphaReport{Trials: trials}
	chosen, err := selectAlpha(trials, o)
	if err != nil {
		return nil, fmt.Errorf("estimate: Alpha: %w", err)
	}
	rep.Fallback = chosen.fallback
	rep.Message = chosen.message
	rep.Alpha = trials[chosen.index].Alpha
	rep.Elapsed = time.Since(start)
	o.logger.Debug("alpha estimated", "alpha", rep.Alpha, "fallback", rep.Fallback, "elapsed", rep.Elapsed)

	return rep, nil
}

// NTermsReport is the outcome of a term-count sweep.
type NTermsReport struct {
	NTerms   int     // selected N
	Trials   []Trial // one per N, ascending
	Spread   float64 // largest relative spread of Rg and I(0) over the chosen window
	Fallback bool    // true when no window met the tolerance
	Message  string
	Elapsed  time.Duration
}

// NTerms sweeps N over [NMin, NMax] at cfg.Alpha and selects the smallest N
// whose next PlateauWindow term counts change Rg and I(0) by no more than
// the plateau tolerance (relative spread over the window).
//
// If no window qualifies, the most stable complete window is used and
// Fallback is set; without any complete window the smallest successful N
// is returned. Failed trials are logged and skipped; ErrNoTrial is returned
// when all fail.
func NTerms(ctx context.Context, m *core.Measurement, cfg core.Config, opts ...Option) (*NTermsReport, error) {
	start := time.Now()
	o := gatherOptions(opts...)
	if err := cfg.ValidateFor(m); err != nil {
		return nil, fmt.Errorf("estimate: NTerms: %w", err)
	}

	view := trialMeasurement(m, o)
	cfgs := make([]core.Config, 0, o.nMax-o.nMin+1)
	for n := o.nMin; n <= o.nMax; n++ {
		c := cfg
		c.NTerms = n
		cfgs = append(cfgs, c)
	}
	trials, err := sweep(ctx, view, cfgs, o)
	if err != nil {
		return nil, err
	}

	chosen, err := selectNTerms(trials, o)
	if err != nil {
		return nil, fmt.Errorf("estimate: NTerms: %w", err)
	}
	rep := &NTermsReport{
		Trials:   trials,
		Spread:   chosen.spread,
		Fallback: chosen.fallback,
		Message:  chosen.message,
	}
	rep.NTerms = trials[chosen.index].NTerms
	rep.Elapsed = time.Since(start)
	o.logger.Debug("nterms estimated", "nterms", rep.NTerms, "fallback", rep.Fallback, "elapsed", rep.Elapsed)

	return rep, nil
}

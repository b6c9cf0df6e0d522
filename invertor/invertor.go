// File: invertor.go
// Role: Stateful orchestrator of one P(r) calculation.
// Concurrency:
//   - All fields are guarded by mu. Heavy work (build, solve, sweeps) runs on
//     snapshots taken under the lock and never while holding it.
//   - A solution is published only by a successful solve of the current
//     configuration generation; a failed or cancelled solve leaves the
//     previously published solution readable.

package invertor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/design"
	"github.com/katalvlaran/pofr/diagnostics"
	"github.com/katalvlaran/pofr/estimate"
	"github.com/katalvlaran/pofr/solver"
)

var (
	// ErrNotConfigured is returned by operations that need a measurement
	// before Configure was called. It matches core.ErrConfig.
	ErrNotConfigured = fmt.Errorf("invertor: not configured: %w", core.ErrConfig)

	// ErrBusy is returned by Solve while another solve is in flight.
	ErrBusy = errors.New("invertor: solve already in progress")

	// ErrSuperseded is returned by a solve whose configuration was replaced
	// while it ran; its result is discarded.
	ErrSuperseded = errors.New("invertor: configuration changed during solve")
)

// Invertor holds a measurement, a configuration and the latest solution.
//
// States: Unconfigured → Configured → Solving → Solved | Failed. Configure
// or SetConfig from any state returns to Configured and discards the
// solution. Use Clone to run independent work on a snapshot.
type Invertor struct {
	mu      sync.RWMutex
	state   State
	m       *core.Measurement
	cfg     core.Config
	sol     *core.Solution
	lastErr error
	gen     uint64
	opts    options
}

// New returns an Unconfigured invertor.
func New(opts ...Option) *Invertor {
	return &Invertor{state: Unconfigured, cfg: core.DefaultConfig(), opts: gatherOptions(opts...)}
}

// Configure validates and stores a private copy of m together with cfg.
// On error nothing changes.
func (v *Invertor) Configure(m *core.Measurement, cfg core.Config) error {
	if err := cfg.ValidateFor(m); err != nil {
		return fmt.Errorf("invertor: Configure: %w", err)
	}
	snapshot := m.Clone()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.m = snapshot
	v.reset(cfg)

	return nil
}

// SetConfig replaces the configuration and keeps the measurement.
func (v *Invertor) SetConfig(cfg core.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.m == nil {
		return ErrNotConfigured
	}
	if err := cfg.ValidateFor(v.m); err != nil {
		return fmt.Errorf("invertor: SetConfig: %w", err)
	}
	v.reset(cfg)

	return nil
}

// reset installs cfg and returns to Configured. Caller holds mu.
func (v *Invertor) reset(cfg core.Config) {
	v.cfg = cfg
	v.sol = nil
	v.lastErr = nil
	v.gen++
	v.state = Configured
	v.opts.logger.Debug("configured",
		"points", v.m.Len(), "dmax", cfg.DMax, "nterms", cfg.NTerms, "alpha", cfg.Alpha,
		"background", cfg.BackgroundMode.String())
}

// snapshot returns the measurement and config under a read lock.
func (v *Invertor) snapshot() (*core.Measurement, core.Config, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.m == nil {
		return nil, core.Config{}, ErrNotConfigured
	}

	return v.m, v.cfg, nil
}

// Solve builds and solves the current configuration.
//
// On success the solution is published and the state is Solved. On error
// the state is Failed, LastError records the error and the previously
// published solution (if any) stays readable. If ctx is cancelled the
// state is restored and ctx.Err() is returned.
func (v *Invertor) Solve(ctx context.Context) (*core.Solution, error) {
	v.mu.Lock()
	if v.m == nil {
		v.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if v.state == Solving {
		v.mu.Unlock()
		return nil, ErrBusy
	}
	m, cfg, gen, prev := v.m, v.cfg, v.gen, v.state
	v.state = Solving
	v.mu.Unlock()

	sol, err := v.compute(ctx, m, cfg)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen {
		return nil, ErrSuperseded
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		v.state = prev
		return nil, ctxErr
	}
	if err != nil {
		v.state = Failed
		v.lastErr = err
		v.opts.logger.Warn("solve failed", "err", err)
		return nil, err
	}
	for _, w := range sol.Warnings {
		v.opts.logger.Warn("solve warning", "warning", w)
	}
	v.sol = sol
	v.lastErr = nil
	v.state = Solved

	return sol, nil
}

func (v *Invertor) compute(ctx context.Context, m *core.Measurement, cfg core.Config) (*core.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	sys, err := design.Build(m, cfg)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	sol, err := solver.Solve(sys, cfg.Alpha, v.opts.solverOptions()...)
	if err != nil {
		return nil, err
	}
	sol.Elapsed = time.Since(start)

	return sol, nil
}

// EstimateAlpha runs the α sweep on a snapshot and returns the suggested
// value. The configuration is not modified.
func (v *Invertor) EstimateAlpha(ctx context.Context) (float64, error) {
	m, cfg, err := v.snapshot()
	if err != nil {
		return 0, err
	}
	rep, err := estimate.Alpha(ctx, m, cfg, v.opts.estimateOptions()...)
	if err != nil {
		return 0, err
	}

	return rep.Alpha, nil
}

// EstimateNTerms runs the term-count sweep at the configured α on a
// snapshot and returns the suggested N. The configuration is not modified.
func (v *Invertor) EstimateNTerms(ctx context.Context) (int, error) {
	m, cfg, err := v.snapshot()
	if err != nil {
		return 0, err
	}
	rep, err := estimate.NTerms(ctx, m, cfg, v.opts.estimateOptions()...)
	if err != nil {
		return 0, err
	}

	return rep.NTerms, nil
}

// Estimate is the pair of suggested parameters.
type Estimate struct {
	Alpha  float64
	NTerms int
}

// EstimateParameters estimates α first and then N at that α.
// The configuration is not modified.
func (v *Invertor) EstimateParameters(ctx context.Context) (Estimate, error) {
	m, cfg, err := v.snapshot()
	if err != nil {
		return Estimate{}, err
	}
	opts := v.opts.estimateOptions()
	a, err := estimate.Alpha(ctx, m, cfg, opts...)
	if err != nil {
		return Estimate{}, err
	}
	cfg.Alpha = a.Alpha
	n, err := estimate.NTerms(ctx, m, cfg, opts...)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{Alpha: a.Alpha, NTerms: n.NTerms}, nil
}

// current returns the published solution or core.ErrNoSolution.
func (v *Invertor) current() (*core.Solution, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.sol == nil {
		return nil, core.ErrNoSolution
	}

	return v.sol, nil
}

// Diagnostics computes the scalar diagnostics of the published solution.
func (v *Invertor) Diagnostics() (core.Diagnostics, error) {
	sol, err := v.current()
	if err != nil {
		return core.Diagnostics{}, err
	}

	return diagnostics.Compute(sol, v.opts.samples)
}

// EvaluatePr returns P(r) of the published solution.
func (v *Invertor) EvaluatePr(r float64) (float64, error) {
	sol, err := v.current()
	if err != nil {
		return 0, err
	}

	return diagnostics.Pr(sol, r)
}

// EvaluatePrErr returns the uncertainty of P(r).
func (v *Invertor) EvaluatePrErr(r float64) (float64, error) {
	sol, err := v.current()
	if err != nil {
		return 0, err
	}

	return diagnostics.PrErr(sol, r)
}

// EvaluateIq returns the unsmeared fitted intensity at q, background included.
func (v *Invertor) EvaluateIq(q float64) (float64, error) {
	sol, err := v.current()
	if err != nil {
		return 0, err
	}

	return diagnostics.Iq(sol, q)
}

// EvaluateIqSmeared returns the fitted intensity at q smeared with the
// measurement's slit.
func (v *Invertor) EvaluateIqSmeared(q float64) (float64, error) {
	v.mu.RLock()
	sol, m, cfg := v.sol, v.m, v.cfg
	v.mu.RUnlock()
	if sol == nil {
		return 0, core.ErrNoSolution
	}

	return diagnostics.IqSmeared(sol, q, m.SlitHeight, m.SlitWidth, cfg.SlitPoints)
}

// Solution returns the published solution, or nil. It must not be mutated.
func (v *Invertor) Solution() *core.Solution {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.sol
}

// Config returns the current configuration.
func (v *Invertor) Config() core.Config {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.cfg
}

// Measurement returns a copy of the configured measurement, or nil.
func (v *Invertor) Measurement() *core.Measurement {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.m.Clone()
}

// State returns the lifecycle state.
func (v *Invertor) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.state
}

// LastError returns the error of the last failed solve, or nil.
func (v *Invertor) LastError() error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.lastErr
}

// Clone returns an independent invertor with the same options and a copy
// of the measurement and configuration. The clone has no solution: it is
// Configured, or Unconfigured when v is.
func (v *Invertor) Clone() *Invertor {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c := &Invertor{state: Unconfigured, cfg: v.cfg, opts: v.opts}
	if v.m != nil {
		c.m = v.m.Clone()
		c.state = Configured
	}

	return c
}

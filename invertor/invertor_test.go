package invertor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/invertor"
	"github.com/katalvlaran/pofr/matrix"
	"github.com/katalvlaran/pofr/synth"
)

var sphere = synth.Sphere{Radius: 50, I0: 100}

func sphereMeasurement(t testing.TB, seed uint64) *core.Measurement {
	t.Helper()
	q, err := synth.Grid(0.01, 0.3, 50)
	require.NoError(t, err)
	m, err := synth.Measure(q, sphere.IqAll(q), 0.01, seed)
	require.NoError(t, err)

	return m
}

func sphereConfig() core.Config {
	return core.NewConfig(core.WithDMax(sphere.DMax()), core.WithNTerms(21), core.WithAlpha(1e-4))
}

func TestInvertor_Unconfigured(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	assert.Equal(t, invertor.Unconfigured, inv.State())
	assert.Nil(t, inv.Solution())
	assert.Nil(t, inv.Measurement())

	_, err := inv.Solve(context.Background())
	assert.ErrorIs(t, err, invertor.ErrNotConfigured)
	assert.ErrorIs(t, err, core.ErrConfig)
	_, err = inv.EstimateAlpha(context.Background())
	assert.ErrorIs(t, err, invertor.ErrNotConfigured)
	_, err = inv.Diagnostics()
	assert.ErrorIs(t, err, core.ErrNoSolution)
	_, err = inv.EvaluatePr(10)
	assert.ErrorIs(t, err, core.ErrNoSolution)
	_, err = inv.EvaluateIqSmeared(0.1)
	assert.ErrorIs(t, err, core.ErrNoSolution)
	assert.ErrorIs(t, inv.SetConfig(core.NewConfig()), invertor.ErrNotConfigured)
}

func TestInvertor_ConfigureRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	err := inv.Configure(sphereMeasurement(t, 0), core.Config{DMax: -1, NTerms: 5, SlitPoints: 2})
	require.Error(t, err)
	var ce *core.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "DMax", ce.Field)
	assert.Equal(t, invertor.Unconfigured, inv.State())

	require.NoError(t, inv.Configure(sphereMeasurement(t, 0), sphereConfig()))
	require.Error(t, inv.SetConfig(core.NewConfig(core.WithQRange(0.5, 0.6))))
	assert.Equal(t, sphereConfig(), inv.Config(), "a rejected config leaves the current one")
}

func TestInvertor_SolveLifecycle(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	require.NoError(t, inv.Configure(sphereMeasurement(t, 0), sphereConfig()))
	assert.Equal(t, invertor.Configured, inv.State())

	sol, err := inv.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, invertor.Solved, inv.State())
	assert.Same(t, sol, inv.Solution())
	assert.NoError(t, inv.LastError())

	p, err := inv.EvaluatePr(50)
	require.NoError(t, err)
	assert.InEpsilon(t, sphere.Pr(50), p, 1e-2)

	pe, err := inv.EvaluatePrErr(50)
	require.NoError(t, err)
	assert.Greater(t, pe, 0.0)

	iq, err := inv.EvaluateIq(0.05)
	require.NoError(t, err)
	assert.InEpsilon(t, sphere.Iq(0.05), iq, 1e-2)
	smeared, err := inv.EvaluateIqSmeared(0.05)
	require.NoError(t, err)
	assert.Equal(t, iq, smeared, "no slit means no smearing")

	d, err := inv.Diagnostics()
	require.NoError(t, err)
	assert.InEpsilon(t, sphere.Rg(), d.Rg, 5e-3)
	assert.InEpsilon(t, 100.0, d.I0, 1e-2)
	assert.LessOrEqual(t, d.Oscillations, 2)

	cfg := sphereConfig()
	cfg.NTerms = 15
	require.NoError(t, inv.SetConfig(cfg))
	assert.Equal(t, invertor.Configured, inv.State())
	assert.Nil(t, inv.Solution(), "reconfiguring discards the solution")
}

func TestInvertor_SphereWithDefaults(t *testing.T) {
	t.Parallel()

	// Default α and a fitted background: the roughness penalty on high
	// terms is many orders above the free background, yet the system is
	// well posed.
	inv := invertor.New()
	cfg := core.NewConfig(core.WithDMax(sphere.DMax()), core.WithNTerms(21))
	require.Equal(t, core.BackgroundEstimate, cfg.BackgroundMode)
	require.NoError(t, inv.Configure(sphereMeasurement(t, 0), cfg))

	sol, err := inv.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, invertor.Solved, inv.State())
	assert.True(t, sol.Estimated)
	for _, w := range sol.Warnings {
		assert.ErrorIs(t, w, core.ErrNumericalWarning)
		assert.NotErrorIs(t, w, core.ErrSingularSystem)
	}

	d, err := inv.Diagnostics()
	require.NoError(t, err)
	assert.InEpsilon(t, sphere.Rg(), d.Rg, 1e-3)
	assert.InEpsilon(t, sphere.I0, d.I0, 1e-3)
	assert.InDelta(t, 0.0, d.Background, 0.05)
}

func TestInvertor_FailedSolve(t *testing.T) {
	t.Parallel()

	m := sphereMeasurement(t, 0)
	m.Err[0] = 1e-200 // valid, but 1/σ² overflows
	inv := invertor.New()
	require.NoError(t, inv.Configure(m, sphereConfig()))

	_, err := inv.Solve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrNaNInf)
	assert.Equal(t, invertor.Failed, inv.State())
	assert.Equal(t, err, inv.LastError())
	assert.Nil(t, inv.Solution())

	cfg := sphereConfig()
	cfg.QMin = 0.02 // drops the offending point
	require.NoError(t, inv.SetConfig(cfg))
	_, err = inv.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, invertor.Solved, inv.State())
	assert.NoError(t, inv.LastError())
}

func TestInvertor_CancelledSolveKeepsState(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	require.NoError(t, inv.Configure(sphereMeasurement(t, 0), sphereConfig()))
	sol, err := inv.Solve(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = inv.Solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, invertor.Solved, inv.State())
	assert.Same(t, sol, inv.Solution())
}

func TestInvertor_MeasurementIsPrivateCopy(t *testing.T) {
	t.Parallel()

	m := sphereMeasurement(t, 0)
	inv := invertor.New()
	require.NoError(t, inv.Configure(m, sphereConfig()))
	m.I[0] = -1

	got := inv.Measurement()
	assert.NotEqual(t, -1.0, got.I[0])
	got.I[1] = -1
	assert.NotEqual(t, -1.0, inv.Measurement().I[1])
}

func TestInvertor_Clone(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	assert.Equal(t, invertor.Unconfigured, inv.Clone().State())

	require.NoError(t, inv.Configure(sphereMeasurement(t, 0), sphereConfig()))
	_, err := inv.Solve(context.Background())
	require.NoError(t, err)

	c := inv.Clone()
	assert.Equal(t, invertor.Configured, c.State())
	assert.Nil(t, c.Solution())
	assert.Equal(t, inv.Config(), c.Config())
	assert.Equal(t, inv.Measurement(), c.Measurement())

	cfg := sphereConfig()
	cfg.NTerms = 12
	require.NoError(t, c.SetConfig(cfg))
	_, err = c.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21, inv.Solution().NTerms, "the original is unaffected")
	assert.Equal(t, 12, c.Solution().NTerms)
}

func TestInvertor_EstimateParameters(t *testing.T) {
	t.Parallel()

	inv := invertor.New()
	require.NoError(t, inv.Configure(sphereMeasurement(t, 5), sphereConfig()))
	est, err := inv.EstimateParameters(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, est.Alpha, 1e-6)
	assert.LessOrEqual(t, est.Alpha, 1e2)
	assert.GreaterOrEqual(t, est.NTerms, 10)
	assert.LessOrEqual(t, est.NTerms, 30)
	assert.Equal(t, sphereConfig(), inv.Config(), "estimation does not modify the config")
	assert.Equal(t, invertor.Configured, inv.State())

	cfg := inv.Config()
	cfg.Alpha, cfg.NTerms = est.Alpha, est.NTerms
	require.NoError(t, inv.SetConfig(cfg))
	_, err = inv.Solve(context.Background())
	require.NoError(t, err)
	d, err := inv.Diagnostics()
	require.NoError(t, err)
	assert.LessOrEqual(t, d.Oscillations, 2)
	assert.InEpsilon(t, sphere.Rg(), d.Rg, 1e-2)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	names := map[invertor.State]string{
		invertor.Unconfigured: "unconfigured",
		invertor.Configured:   "configured",
		invertor.Solving:      "solving",
		invertor.Solved:       "solved",
		invertor.Failed:       "failed",
		invertor.State(42):    "unknown",
	}
	for s, want := range names {
		assert.Equal(t, want, s.String())
	}
}

func TestOptions_Panic(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { invertor.WithLogger(nil) })
	assert.Panics(t, func() { invertor.WithDiagnosticsSamples(2) })
}

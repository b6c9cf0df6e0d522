package design_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pofr/basis"
	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/design"
)

func measurement(t *testing.T) *core.Measurement {
	t.Helper()
	q := []float64{0.01, 0.02, 0.05, 0.1, 0.2}
	i := []float64{100, 90, 60, 20, 2}
	e := []float64{1, 0.9, 0.6, 0.2, 0.02}
	m, err := core.NewMeasurement(q, i, e)
	require.NoError(t, err)

	return m
}

func TestBuild_EstimatedBackground(t *testing.T) {
	t.Parallel()

	m := measurement(t)
	cfg := core.NewConfig(core.WithDMax(80), core.WithNTerms(6))
	sys, err := design.Build(m, cfg)
	require.NoError(t, err)

	rows, cols := sys.A.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 7, cols)
	assert.Equal(t, 7, sys.Params())
	assert.Equal(t, 5, sys.Points())
	assert.True(t, sys.HasBackground)
	assert.False(t, sys.Smeared)

	for row, q := range m.Q {
		for k := 1; k <= 6; k++ {
			assert.Equal(t, basis.Transform(80, k, q), sys.A.At(row, k-1))
		}
		assert.Equal(t, 1.0, sys.A.At(row, 6))
	}
	assert.Equal(t, m.I, sys.Y)
	assert.Equal(t, m.Err, sys.Sigma)

	rr, rc := sys.R.Dims()
	assert.Equal(t, 6, rr)
	assert.Equal(t, 7, rc)
	for j := 0; j < rr; j++ {
		assert.Equal(t, 0.0, sys.R.At(j, 6), "background column must not be penalized")
	}
}

func TestBuild_FixedBackgroundAndWindow(t *testing.T) {
	t.Parallel()

	m := measurement(t)
	cfg := core.NewConfig(
		core.WithDMax(80),
		core.WithNTerms(4),
		core.WithFixedBackground(0.5),
		core.WithQRange(0.015, 0.15),
	)
	sys, err := design.Build(m, cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, sys.Index)
	assert.Equal(t, []float64{0.02, 0.05, 0.1}, sys.Q)
	assert.Equal(t, []float64{89.5, 59.5, 19.5}, sys.Y)
	assert.Equal(t, 4, sys.Params())
	assert.Equal(t, 0.5, sys.Background)
	_, cols := sys.A.Dims()
	assert.Equal(t, 4, cols)

	w := sys.Weights()
	assert.InDelta(t, 1/0.81, w[0], 1e-12)
}

func TestBuild_SmearedUsesSlitAverage(t *testing.T) {
	t.Parallel()

	m := measurement(t)
	m.SlitHeight = 0.01
	cfg := core.NewConfig(core.WithDMax(80), core.WithNTerms(3), core.WithSlitPoints(11))
	sys, err := design.Build(m, cfg)
	require.NoError(t, err)

	assert.True(t, sys.Smeared)
	assert.Equal(t, basis.TransformSmeared(80, 2, 0.05, 0.01, 0, 11), sys.A.At(2, 1))
}

func TestBuild_ConfigErrors(t *testing.T) {
	t.Parallel()

	m := measurement(t)
	cases := []struct {
		name  string
		cfg   core.Config
		field string
	}{
		{"zero dmax", core.Config{DMax: 0, NTerms: 3, SlitPoints: 2}, "DMax"},
		{"no terms", core.Config{DMax: 50, NTerms: 0, SlitPoints: 2}, "NTerms"},
		{"empty window", core.NewConfig(core.WithQRange(0.3, 0.4)), "QMin"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := design.Build(m, tc.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfig)
			var ce *core.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestRoughness_QuadraticForm(t *testing.T) {
	t.Parallel()

	const dmax = 60.0
	const n = 3
	r, err := design.Roughness(dmax, n, n)
	require.NoError(t, err)

	for k := 1; k <= n; k++ {
		e := make([]float64, n)
		e[k-1] = 1
		var rc mat.VecDense
		rc.MulVec(r, mat.NewVecDense(n, e))
		got := floats.Dot(rc.RawVector().Data, rc.RawVector().Data)

		want := quad.Fixed(func(x float64) float64 {
			v := dmax * dmax * basis.OrthoSecondDerivative(dmax, k, x*dmax)
			return v * v
		}, 0, 1, 200, nil, 0)
		assert.InEpsilonf(t, want, got, 1e-2, "k=%d", k)
	}
}

func TestRoughness_Invalid(t *testing.T) {
	t.Parallel()

	_, err := design.Roughness(0, 3, 3)
	assert.Error(t, err)
	_, err = design.Roughness(10, 3, 2)
	assert.Error(t, err)
	_, err = design.Roughness(math.NaN(), 3, 3)
	assert.Error(t, err)
}

func TestRoughnessSamples(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, design.RoughnessSamples(3))
	assert.Equal(t, 210, design.RoughnessSamples(21))
}

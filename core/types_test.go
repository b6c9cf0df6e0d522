// SPDX-License-Identifier: MIT
// Package core_test verifies the measurement/config data model: validation,
// q-window selection, defaults and deep-copy behavior.

package core_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pofr/core"
)

func sample(t *testing.T) *core.Measurement {
	t.Helper()
	m, err := core.NewMeasurement(
		[]float64{0.01, 0.02, 0.05, 0.1},
		[]float64{100, 90, 50, 10},
		[]float64{1, 1, 0.5, 0.1},
	)
	require.NoError(t, err)

	return m
}

func TestNewMeasurement_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		q     []float64
		i     []float64
		e     []float64
		field string
	}{
		{"empty", nil, nil, nil, "Measurement"},
		{"short I", []float64{0.1, 0.2}, []float64{1}, []float64{1, 1}, "I"},
		{"short Err", []float64{0.1, 0.2}, []float64{1, 1}, []float64{1}, "Err"},
		{"zero q", []float64{0, 0.2}, []float64{1, 1}, []float64{1, 1}, "Q[0]"},
		{"nan I", []float64{0.1, 0.2}, []float64{1, math.NaN()}, []float64{1, 1}, "I[1]"},
		{"zero sigma", []float64{0.1, 0.2}, []float64{1, 1}, []float64{1, 0}, "Err[1]"},
		{"negative sigma", []float64{0.1, 0.2}, []float64{1, 1}, []float64{-1, 1}, "Err[0]"},
		{"inf sigma", []float64{0.1, 0.2}, []float64{1, 1}, []float64{1, math.Inf(1)}, "Err[1]"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := core.NewMeasurement(tc.q, tc.i, tc.e)
			require.Error(t, err)
			require.ErrorIs(t, err, core.ErrConfig)

			var cerr *core.ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestMeasurement_SlitValidation(t *testing.T) {
	m := sample(t)
	m.SlitWidth = -1
	require.ErrorIs(t, m.Validate(), core.ErrConfig)

	m.SlitWidth = 0.01
	m.SlitHeight = math.NaN()
	require.ErrorIs(t, m.Validate(), core.ErrConfig)

	m.SlitHeight = 0.2
	require.NoError(t, m.Validate())
	assert.True(t, m.Smeared())
	assert.False(t, m.WithoutSlit().Smeared())
	assert.True(t, m.Smeared(), "WithoutSlit must not modify the receiver")
}

func TestMeasurement_QRangeAndWindow(t *testing.T) {
	m := sample(t)

	qmin, qmax := m.QRange()
	assert.Equal(t, 0.01, qmin)
	assert.Equal(t, 0.1, qmax)

	assert.Equal(t, []int{0, 1, 2, 3}, m.Window(0, 0))
	assert.Equal(t, []int{1, 2}, m.Window(0.015, 0.06))
	assert.Equal(t, []int{2, 3}, m.Window(0.05, 0))
	assert.Equal(t, []int{0, 1}, m.Window(0, 0.02))
	assert.Empty(t, m.Window(0.2, 0.3))
}

func TestMeasurement_CloneIsDeep(t *testing.T) {
	m := sample(t)
	m.SlitHeight = 0.3
	c := m.Clone()

	c.Q[0], c.I[0], c.Err[0] = 9, 9, 9
	assert.Equal(t, 0.01, m.Q[0])
	assert.Equal(t, 100.0, m.I[0])
	assert.Equal(t, 1.0, m.Err[0])
	assert.Equal(t, 0.3, c.SlitHeight)

	var nilM *core.Measurement
	assert.Nil(t, nilM.Clone())
}

func TestConfig_DefaultsAndOptions(t *testing.T) {
	def := core.NewConfig()
	assert.Equal(t, core.DefaultNTerms, def.NTerms)
	assert.Equal(t, core.DefaultAlpha, def.Alpha)
	assert.Equal(t, core.DefaultDMax, def.DMax)
	assert.Equal(t, core.BackgroundEstimate, def.BackgroundMode)
	assert.Equal(t, core.DefaultSlitPoints, def.SlitPoints)
	require.NoError(t, def.Validate())

	cfg := core.NewConfig(
		core.WithDMax(100),
		core.WithNTerms(21),
		core.WithAlpha(0),
		core.WithQRange(0.01, 0.3),
		core.WithFixedBackground(0.5),
		core.WithSlitPoints(5),
	)
	assert.Equal(t, 100.0, cfg.DMax)
	assert.Equal(t, 21, cfg.NTerms)
	assert.Equal(t, 0.0, cfg.Alpha)
	assert.Equal(t, 0.01, cfg.QMin)
	assert.Equal(t, 0.3, cfg.QMax)
	assert.Equal(t, core.BackgroundFixed, cfg.BackgroundMode)
	assert.Equal(t, 0.5, cfg.Background)
	assert.Equal(t, 5, cfg.SlitPoints)
	assert.Equal(t, "fixed", cfg.BackgroundMode.String())

	cfg = core.NewConfig(core.WithFixedBackground(1), core.WithEstimatedBackground())
	assert.Equal(t, core.BackgroundEstimate, cfg.BackgroundMode)
	assert.Equal(t, 0.0, cfg.Background)
}

func TestConfig_OptionPanics(t *testing.T) {
	assert.PanicsWithValue(t, "core: WithNTerms: n must be >= 1", func() { core.WithNTerms(0) })
	assert.Panics(t, func() { core.WithDMax(0) })
	assert.Panics(t, func() { core.WithDMax(math.Inf(1)) })
	assert.Panics(t, func() { core.WithAlpha(-1) })
	assert.Panics(t, func() { core.WithQRange(0.3, 0.1) })
	assert.Panics(t, func() { core.WithFixedBackground(math.NaN()) })
	assert.Panics(t, func() { core.WithSlitPoints(1) })
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	base := core.NewConfig()
	cases := []struct {
		name  string
		edit  func(*core.Config)
		field string
	}{
		{"dmax zero", func(c *core.Config) { c.DMax = 0 }, "DMax"},
		{"dmax negative", func(c *core.Config) { c.DMax = -10 }, "DMax"},
		{"nterms zero", func(c *core.Config) { c.NTerms = 0 }, "NTerms"},
		{"alpha negative", func(c *core.Config) { c.Alpha = -1e-3 }, "Alpha"},
		{"alpha nan", func(c *core.Config) { c.Alpha = math.NaN() }, "Alpha"},
		{"qmin negative", func(c *core.Config) { c.QMin = -1 }, "QMin"},
		{"qmax inf", func(c *core.Config) { c.QMax = math.Inf(1) }, "QMax"},
		{"inverted window", func(c *core.Config) { c.QMin, c.QMax = 0.3, 0.1 }, "QMin"},
		{"bad mode", func(c *core.Config) { c.BackgroundMode = 7 }, "BackgroundMode"},
		{"slit points", func(c *core.Config) { c.SlitPoints = 1 }, "SlitPoints"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.edit(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, core.ErrConfig)

			var cerr *core.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestConfig_ValidateFor_EmptyWindow(t *testing.T) {
	m := sample(t)
	cfg := core.NewConfig(core.WithQRange(0.2, 0.3))
	require.ErrorIs(t, cfg.ValidateFor(m), core.ErrConfig)

	cfg = core.NewConfig(core.WithQRange(0.01, 0.05))
	require.NoError(t, cfg.ValidateFor(m))
}

func TestSolution_CloneIsDeep(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 2})
	s := &core.Solution{Coeffs: []float64{1, 2}, Cov: cov, NTerms: 2, DMax: 10}
	c := s.Clone()

	c.Coeffs[0] = 7
	c.Cov.SetSym(0, 0, 42)
	assert.Equal(t, 1.0, s.Coeffs[0])
	assert.Equal(t, 1.0, s.Cov.At(0, 0))
	assert.Equal(t, 0.5, c.Cov.At(1, 0))
	assert.True(t, c.HasCov())

	var nilS *core.Solution
	assert.False(t, nilS.HasCov())
	assert.Nil(t, nilS.Clone())
}

func TestErrorKinds(t *testing.T) {
	sing := &core.SingularSystemError{Dim: 3, Rank: 1, Cond: math.Inf(1)}
	assert.ErrorIs(t, sing, core.ErrSingularSystem)
	assert.ErrorIs(t, sing, core.ErrCalculation)
	assert.NotErrorIs(t, sing, core.ErrConfig)
	assert.Contains(t, sing.Error(), "rank=1")

	warn := &core.NumericalWarning{Op: "solve", Cond: 1e13, Message: "ill-conditioned"}
	assert.ErrorIs(t, warn, core.ErrNumericalWarning)
	assert.NotErrorIs(t, warn, core.ErrCalculation)

	cerr := core.NewConfigError("DMax", -1, "must be > 0")
	assert.ErrorIs(t, cerr, core.ErrConfig)
	assert.Equal(t, "core: invalid DMax=-1: must be > 0", cerr.Error())
}

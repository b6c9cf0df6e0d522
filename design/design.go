// Package design builds the linear system of one P(r) calculation: the
// design matrix A mapping basis coefficients to intensities, the roughness
// operator R penalizing curvature of P(r), and the selected observations.
package design

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pofr/basis"
	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/matrix"
)

const (
	opBuild     = "design: Build"
	opRoughness = "design: Roughness"
)

// minRoughnessSamples is the smallest number of midpoint nodes used to
// sample P''(x).
const minRoughnessSamples = 100

// System is the immutable linear system of one calculation.
type System struct {
	// A is n×P: column k-1 holds Tₖ(q) (or its slit-smeared average), and a
	// trailing constant column is present when HasBackground.
	A *mat.Dense

	// R is N×P with ‖R·c‖² = ∫₀¹ P''(x)² dx, x = r/DMax. The background
	// column is zero.
	R *mat.Dense

	// Y holds the selected intensities, minus a fixed background.
	Y []float64

	// Sigma holds the uncertainties of Y.
	Sigma []float64

	// Q and Index give the selected q values and their positions in the
	// source measurement.
	Q     []float64
	Index []int

	NTerms        int
	DMax          float64
	Background    float64 // subtracted fixed background (0 when estimated)
	HasBackground bool
	Smeared       bool
}

// Points returns the number of selected data points.
func (s *System) Points() int { return len(s.Y) }

// Params returns the number of fitted parameters P.
func (s *System) Params() int {
	if s.HasBackground {
		return s.NTerms + 1
	}

	return s.NTerms
}

// Weights returns 1/σ² for every selected point.
func (s *System) Weights() []float64 {
	w := make([]float64, len(s.Sigma))
	for i, e := range s.Sigma {
		w[i] = 1 / (e * e)
	}

	return w
}

// RoughnessSamples returns the number of midpoint nodes used for n terms.
func RoughnessSamples(n int) int {
	if s := 10 * n; s > minRoughnessSamples {
		return s
	}

	return minRoughnessSamples
}

// Build validates m against cfg and assembles the System.
//
// Errors: *core.ConfigError (wrapped) for an invalid configuration or
// measurement, or a q window that selects no point.
func Build(m *core.Measurement, cfg core.Config) (*System, error) {
	if err := cfg.ValidateFor(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opBuild, err)
	}

	idx := m.Window(cfg.QMin, cfg.QMax)
	n := len(idx)
	estimate := cfg.BackgroundMode == core.BackgroundEstimate
	params := cfg.NTerms
	if estimate {
		params++
	}

	sys := &System{
		A:             mat.NewDense(n, params, nil),
		Y:             make([]float64, n),
		Sigma:         make([]float64, n),
		Q:             make([]float64, n),
		Index:         idx,
		NTerms:        cfg.NTerms,
		DMax:          cfg.DMax,
		HasBackground: estimate,
		Smeared:       m.Smeared(),
	}
	if !estimate {
		sys.Background = cfg.Background
	}

	var k int
	var q float64
	for row, i := range idx {
		q = m.Q[i]
		sys.Q[row] = q
		sys.Y[row] = m.I[i] - sys.Background
		sys.Sigma[row] = m.Err[i]
		for k = 1; k <= cfg.NTerms; k++ {
			if sys.Smeared {
				sys.A.Set(row, k-1, basis.TransformSmeared(cfg.DMax, k, q, m.SlitHeight, m.SlitWidth, cfg.SlitPoints))
			} else {
				sys.A.Set(row, k-1, basis.Transform(cfg.DMax, k, q))
			}
		}
		if estimate {
			sys.A.Set(row, cfg.NTerms, 1)
		}
	}

	r, err := Roughness(cfg.DMax, cfg.NTerms, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opBuild, err)
	}
	sys.R = r

	return sys, nil
}

// Roughness returns the N×params operator R with ‖R·c‖² = ∫₀¹ P''(x)² dx for
// P(x) = Σ cₖ φₖ(x·dmax). Columns beyond N are zero.
//
// The second derivative is sampled at RoughnessSamples(n) midpoints, scaled
// by the quadrature weight, and compressed to N rows by a thin QR.
func Roughness(dmax float64, n, params int) (*mat.Dense, error) {
	if n < 1 || params < n || math.IsNaN(dmax) || dmax <= 0 {
		return nil, fmt.Errorf("%s: %w", opRoughness, matrix.ErrBadShape)
	}

	samples := RoughnessSamples(n)
	h := 1 / float64(samples)
	// d²/dx² = D²·d²/dr², and √h is the midpoint weight.
	scale := dmax * dmax * math.Sqrt(h)
	l := mat.NewDense(samples, n, nil)
	var j, k int
	var r float64
	for j = 0; j < samples; j++ {
		r = (float64(j) + 0.5) * h * dmax
		for k = 1; k <= n; k++ {
			l.Set(j, k-1, scale*basis.OrthoSecondDerivative(dmax, k, r))
		}
	}

	compact, err := matrix.CompressRows(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opRoughness, err)
	}
	if params == n {
		return compact, nil
	}

	out := mat.NewDense(n, params, nil)
	out.Slice(0, n, 0, n).(*mat.Dense).Copy(compact)

	return out, nil
}

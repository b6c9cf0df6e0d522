// Package core defines the data model shared by the P(r) inversion packages:
// the Measurement being inverted, the Config of one calculation, the Solution
// a solve produces and the Diagnostics derived from it.
//
// This file declares the types and their constructors. Validation lives in
// validate.go, cloning in methods_clone.go, options in options.go and the
// error taxonomy in errors.go.
package core

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Measurement is an ordered sequence of (q, I, σI) triples with optional
// slit-smearing dimensions.
//
// A Measurement references the caller's slices; it is treated as read-only
// for the duration of a calculation. Use Clone for an independent snapshot.
type Measurement struct {
	// Q is the scattering vector magnitude of each point (> 0).
	Q []float64

	// I is the measured intensity at Q[i].
	I []float64

	// Err is the one-sigma uncertainty of I[i] (> 0).
	Err []float64

	// SlitHeight and SlitWidth describe the slit used for smearing
	// correction; zero disables smearing along that dimension.
	SlitHeight float64
	SlitWidth  float64
}

// NewMeasurement wraps q, i and err (not copied) and validates them.
func NewMeasurement(q, i, err []float64) (*Measurement, error) {
	m := &Measurement{Q: q, I: i, Err: err}
	if verr := m.Validate(); verr != nil {
		return nil, verr
	}

	return m, nil
}

// Len returns the number of points.
func (m *Measurement) Len() int { return len(m.Q) }

// Smeared reports whether any slit dimension is non-zero.
func (m *Measurement) Smeared() bool { return m.SlitHeight > 0 || m.SlitWidth > 0 }

// QRange returns the smallest and largest q of the measurement.
// Both are zero for an empty measurement.
func (m *Measurement) QRange() (qmin, qmax float64) {
	if len(m.Q) == 0 {
		return 0, 0
	}
	qmin, qmax = m.Q[0], m.Q[0]
	for _, q := range m.Q[1:] {
		if q < qmin {
			qmin = q
		}
		if q > qmax {
			qmax = q
		}
	}

	return qmin, qmax
}

// Window returns the indices of points with qmin ≤ q ≤ qmax, in input order.
// A zero bound is treated as unbounded on that side.
func (m *Measurement) Window(qmin, qmax float64) []int {
	idx := make([]int, 0, len(m.Q))
	for i, q := range m.Q {
		if qmin > 0 && q < qmin {
			continue
		}
		if qmax > 0 && q > qmax {
			continue
		}
		idx = append(idx, i)
	}

	return idx
}

// BackgroundMode selects how the flat background is handled.
type BackgroundMode int

const (
	// BackgroundEstimate fits the background as an extra free constant.
	BackgroundEstimate BackgroundMode = iota

	// BackgroundFixed subtracts Config.Background from every intensity.
	BackgroundFixed
)

// String implements fmt.Stringer.
func (b BackgroundMode) String() string {
	switch b {
	case BackgroundEstimate:
		return "estimate"
	case BackgroundFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Config holds the scalar parameters of one calculation. It is a value type:
// copies never share state.
type Config struct {
	QMin, QMax     float64        // q window used; 0 means unbounded
	DMax           float64        // maximum distance, P(r)=0 beyond it
	NTerms         int            // number of basis terms
	Alpha          float64        // dimensionless regularization weight
	Background     float64        // fixed background (BackgroundFixed only)
	BackgroundMode BackgroundMode // estimate or fixed
	SlitPoints     int            // quadrature points per slit dimension
}

// Solution is the outcome of one successful solve. It is never mutated after
// publication; a new solve supersedes it.
type Solution struct {
	// Coeffs holds the N basis coefficients.
	Coeffs []float64

	// Cov is the covariance of the fitted parameters, (N+1)×(N+1) when the
	// background was estimated (background last), N×N otherwise.
	Cov *mat.SymDense

	NTerms int
	DMax   float64

	// Background is the fitted or fixed background and BackgroundErr its σ
	// (zero for a fixed background).
	Background    float64
	BackgroundErr float64
	Estimated     bool

	// Chi2 is the reduced χ² of the fit over Points data points.
	Chi2   float64
	Points int

	// Lambda is the absolute regularization weight actually applied.
	Lambda float64

	Elapsed  time.Duration
	Warnings []error
}

// HasCov reports whether a covariance estimate is attached.
func (s *Solution) HasCov() bool { return s != nil && s.Cov != nil }

// Diagnostics is the set of scalar quantities derived from one Solution.
type Diagnostics struct {
	Rg, RgErr                 float64
	I0, I0Err                 float64
	Background, BackgroundErr float64
	Chi2                      float64
	Oscillations              int
	PositiveFraction          float64
	PositiveFractionErr       float64

	// PositiveFraction1Sigma is the fraction of the domain where
	// P(r) - σP(r) > 0.
	PositiveFraction1Sigma float64

	Elapsed time.Duration
}

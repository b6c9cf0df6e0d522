// Package synth generates synthetic scattering data with a known P(r) for
// tests, examples and the command-line demo mode.
package synth

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/pofr/core"
)

// DefaultNodes is the Gauss–Legendre node count used by Forward.
const DefaultNodes = 400

// sigmaFloor bounds σ away from zero relative to the largest intensity.
const sigmaFloor = 1e-6

var (
	// ErrGrid is returned by Grid for n < 2 or an unordered range.
	ErrGrid = errors.New("synth: invalid grid")

	// ErrLength is returned when q and intensities differ in length.
	ErrLength = errors.New("synth: length mismatch")
)

// Sphere is a homogeneous sphere of the given radius whose forward
// scattering is I0.
type Sphere struct {
	Radius float64
	I0     float64
}

// DMax returns the largest distance within the sphere.
func (s Sphere) DMax() float64 { return 2 * s.Radius }

// Rg returns the radius of gyration √(3/5)·R.
func (s Sphere) Rg() float64 { return math.Sqrt(0.6) * s.Radius }

// Pr returns the distance distribution normalized so that 4π∫P dr = I0.
func (s Sphere) Pr(r float64) float64 {
	if r <= 0 || r >= s.DMax() {
		return 0
	}
	u := r / s.Radius
	shape := r * r * (1 - 0.75*u + u*u*u/16)

	return 3 * s.I0 * shape / (4 * math.Pi * s.Radius * s.Radius * s.Radius)
}

// Iq returns the scattered intensity I0·[3(sin x − x cos x)/x³]², x = qR.
func (s Sphere) Iq(q float64) float64 {
	x := q * s.Radius
	if math.Abs(x) < 1e-6 {
		return s.I0
	}
	f := 3 * (math.Sin(x) - x*math.Cos(x)) / (x * x * x)

	return s.I0 * f * f
}

// IqAll evaluates Iq on every q.
func (s Sphere) IqAll(q []float64) []float64 {
	out := make([]float64, len(q))
	for i, v := range q {
		out[i] = s.Iq(v)
	}

	return out
}

// Forward computes I(q) = 4π∫₀^dmax P(r)·sin(qr)/(qr) dr for every q by
// fixed Gauss–Legendre quadrature with the given number of nodes
// (DefaultNodes when nodes < 1).
func Forward(pr func(float64) float64, dmax float64, q []float64, nodes int) []float64 {
	if nodes < 1 {
		nodes = DefaultNodes
	}
	out := make([]float64, len(q))
	for i, qi := range q {
		qi := qi
		out[i] = 4 * math.Pi * quad.Fixed(func(r float64) float64 {
			qr := qi * r
			if qr == 0 {
				return pr(r)
			}
			return pr(r) * math.Sin(qr) / qr
		}, 0, dmax, nodes, nil, 0)
	}

	return out
}

// Grid returns n evenly spaced q values from qmin to qmax inclusive.
func Grid(qmin, qmax float64, n int) ([]float64, error) {
	if n < 2 || !(qmin < qmax) || qmin <= 0 {
		return nil, ErrGrid
	}

	return floats.Span(make([]float64, n), qmin, qmax), nil
}

// Measure turns exact intensities into a measurement with σ = relErr·|I|
// (floored relative to the largest intensity) and Gaussian noise of that σ.
// seed 0 gives noiseless intensities; any other seed gives a reproducible
// PCG noise stream.
func Measure(q, iq []float64, relErr float64, seed uint64) (*core.Measurement, error) {
	if len(q) != len(iq) {
		return nil, ErrLength
	}
	if math.IsNaN(relErr) || relErr <= 0 {
		return nil, core.NewConfigError("relErr", relErr, "must be > 0")
	}

	maxI := 0.0
	for _, v := range iq {
		maxI = math.Max(maxI, math.Abs(v))
	}
	floor := relErr * sigmaFloor * maxI

	var noise *distuv.Normal
	if seed != 0 {
		noise = &distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	}

	qs := append([]float64(nil), q...)
	is := make([]float64, len(iq))
	es := make([]float64, len(iq))
	for i, v := range iq {
		es[i] = math.Max(relErr*math.Abs(v), floor)
		is[i] = v
		if noise != nil {
			is[i] += es[i] * noise.Rand()
		}
	}

	return core.NewMeasurement(qs, is, es)
}

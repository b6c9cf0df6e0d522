// SPDX-License-Identifier: MIT
// Package diagnostics derives physical and quality scalars from a solved
// P(r) expansion: radius of gyration, forward intensity, oscillation count
// and positive fraction, each with its propagated uncertainty.
//
// Every function is a pure read of a *core.Solution and is safe to call
// concurrently on a shared solution.
package diagnostics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pofr/basis"
	"github.com/katalvlaran/pofr/core"
)

// DefaultSamples is the number of r samples (endpoints included) used by
// Oscillations and PositiveFraction.
const DefaultSamples = 101

// zeroTol is the fraction of max|P| at or below which a sample counts as zero
// when looking for sign changes.
const zeroTol = 1e-9

// ErrUndefined is returned by Rg when ∫P or ∫r²P is not positive, so that
// Rg has no real value.
var ErrUndefined = errors.New("diagnostics: quantity undefined for this solution")

func checkSolution(sol *core.Solution) error {
	if sol == nil || len(sol.Coeffs) == 0 {
		return core.ErrNoSolution
	}

	return nil
}

// propagate returns √(gᵀ·C·g) over the leading len(g)×len(g) block of the
// covariance, or 0 without a covariance.
func propagate(sol *core.Solution, g []float64) float64 {
	if !sol.HasCov() {
		return 0
	}
	n := len(g)
	if sol.Cov.SymmetricDim() < n {
		return 0
	}
	block := sol.Cov.SliceSym(0, n)
	gv := mat.NewVecDense(n, g)
	v := mat.Inner(gv, block, gv)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}

	return math.Sqrt(v)
}

// Pr evaluates P(r) = Σ cₖ φₖ(r).
func Pr(sol *core.Solution, r float64) (float64, error) {
	if err := checkSolution(sol); err != nil {
		return 0, err
	}

	return pr(sol, r), nil
}

func pr(sol *core.Solution, r float64) float64 {
	var sum float64
	for k, c := range sol.Coeffs {
		sum += c * basis.Ortho(sol.DMax, k+1, r)
	}

	return sum
}

// PrErr returns the one-sigma uncertainty of P(r) from the covariance.
func PrErr(sol *core.Solution, r float64) (float64, error) {
	if err := checkSolution(sol); err != nil {
		return 0, err
	}

	return prErr(sol, r), nil
}

func prErr(sol *core.Solution, r float64) float64 {
	g := make([]float64, sol.NTerms)
	for k := range g {
		g[k] = basis.Ortho(sol.DMax, k+1, r)
	}

	return propagate(sol, g)
}

// Iq evaluates the fitted intensity Σ cₖ Tₖ(q) + background.
func Iq(sol *core.Solution, q float64) (float64, error) {
	if err := checkSolution(sol); err != nil {
		return 0, err
	}
	sum := sol.Background
	for k, c := range sol.Coeffs {
		sum += c * basis.Transform(sol.DMax, k+1, q)
	}

	return sum, nil
}

// IqSmeared evaluates the fitted intensity averaged over a slit.
func IqSmeared(sol *core.Solution, q, height, width float64, npts int) (float64, error) {
	if err := checkSolution(sol); err != nil {
		return 0, err
	}
	sum := sol.Background
	for k, c := range sol.Coeffs {
		sum += c * basis.TransformSmeared(sol.DMax, k+1, q, height, width, npts)
	}

	return sum, nil
}

// I0 returns the forward intensity 4π∫P dr and its uncertainty.
func I0(sol *core.Solution) (i0, sigma float64, err error) {
	if err = checkSolution(sol); err != nil {
		return 0, 0, err
	}
	g := make([]float64, sol.NTerms)
	for k := range g {
		g[k] = 4 * math.Pi * basis.Moment0(sol.DMax, k+1)
	}

	return floats.Dot(g, sol.Coeffs), propagate(sol, g), nil
}

// Rg returns the radius of gyration, Rg² = ∫r²P dr / (2∫P dr), with its
// uncertainty propagated through the gradient with respect to the
// coefficients.
//
// Errors: core.ErrNoSolution; ErrUndefined (Rg is NaN) when either integral
// is not positive.
func Rg(sol *core.Solution) (rg, sigma float64, err error) {
	if err = checkSolution(sol); err != nil {
		return 0, 0, err
	}
	n := sol.NTerms
	m0 := make([]float64, n)
	m2 := make([]float64, n)
	for k := 0; k < n; k++ {
		m0[k] = basis.Moment0(sol.DMax, k+1)
		m2[k] = basis.Moment2(sol.DMax, k+1)
	}
	s0 := floats.Dot(m0, sol.Coeffs)
	s2 := floats.Dot(m2, sol.Coeffs)
	if s0 <= 0 || s2 <= 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("Rg: %w (∫P=%g, ∫r²P=%g)", ErrUndefined, s0, s2)
	}
	rg = math.Sqrt(s2 / (2 * s0))

	// ∂Rg/∂cₖ = (m2ₖ/s0 − s2·m0ₖ/s0²) / (4·Rg)
	g := make([]float64, n)
	for k := range g {
		g[k] = (m2[k]/s0 - s2*m0[k]/(s0*s0)) / (4 * rg)
	}

	return rg, propagate(sol, g), nil
}

// samples returns P and σP on npts evenly spaced r in [0, D], endpoints
// excluded from the returned slices.
func samples(sol *core.Solution, npts int, withErr bool) (p, sp []float64) {
	if npts < 3 {
		npts = 3
	}
	p = make([]float64, 0, npts-2)
	if withErr {
		sp = make([]float64, 0, npts-2)
	}
	step := sol.DMax / float64(npts-1)
	for j := 1; j < npts-1; j++ {
		r := float64(j) * step
		p = append(p, pr(sol, r))
		if withErr {
			sp = append(sp, prErr(sol, r))
		}
	}

	return p, sp
}

// Oscillations counts sign changes of P(r) over npts samples of [0, D]
// (DefaultSamples when npts < 3). The boundary samples, where P is zero by
// construction, are excluded and values with |P| ≤ 1e-9·max|P| are skipped.
func Oscillations(sol *core.Solution, npts int) (int, error) {
	if err := checkSolution(sol); err != nil {
		return 0, err
	}
	if npts < 3 {
		npts = DefaultSamples
	}
	p, _ := samples(sol, npts, false)

	return signChanges(p), nil
}

func signChanges(p []float64) int {
	var maxAbs float64
	for _, v := range p {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	tol := zeroTol * maxAbs
	count, last := 0, 0
	for _, v := range p {
		s := 0
		switch {
		case v > tol:
			s = 1
		case v < -tol:
			s = -1
		}
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			count++
		}
		last = s
	}

	return count
}

// Positive summarizes how much of the sampled P(r) domain is non-negative.
// Samples with |P| ≤ 1e-9·max|P| count as zero, as in Oscillations.
type Positive struct {
	Fraction float64 // share of interior samples with P ≥ 0
	Err      float64 // half the change of Fraction when P is shifted by ±σP
	OneSigma float64 // share of interior samples with P − σP > 0
	Area     float64 // Σ_{P>0} P / Σ|P|, the positive share of the area
}

// PositiveFraction computes the non-negative share of P(r) over npts
// samples (DefaultSamples when npts < 3). Without a covariance, Err is 0
// and OneSigma counts the strictly positive samples.
func PositiveFraction(sol *core.Solution, npts int) (Positive, error) {
	if err := checkSolution(sol); err != nil {
		return Positive{}, err
	}
	if npts < 3 {
		npts = DefaultSamples
	}
	p, sp := samples(sol, npts, true)

	var maxAbs, total, pos float64
	for _, v := range p {
		maxAbs = math.Max(maxAbs, math.Abs(v))
		total += math.Abs(v)
		if v > 0 {
			pos += v
		}
	}
	tol := zeroTol * maxAbs

	up := make([]float64, len(p))
	down := make([]float64, len(p))
	sure := 0
	for j, v := range p {
		up[j] = v + sp[j]
		down[j] = v - sp[j]
		if down[j] > tol {
			sure++
		}
	}

	out := Positive{
		Fraction: domainFraction(p, tol),
		Err:      0.5 * math.Abs(domainFraction(up, tol)-domainFraction(down, tol)),
		OneSigma: float64(sure) / float64(len(p)),
	}
	if total > 0 {
		out.Area = pos / total
	}

	return out, nil
}

// domainFraction is the share of p that is ≥ −tol.
func domainFraction(p []float64, tol float64) float64 {
	n := 0
	for _, v := range p {
		if v >= -tol {
			n++
		}
	}

	return float64(n) / float64(len(p))
}

// Compute evaluates every diagnostic of sol with npts r samples.
// An undefined Rg is reported as NaN rather than failing the whole set.
func Compute(sol *core.Solution, npts int) (core.Diagnostics, error) {
	start := time.Now()
	if err := checkSolution(sol); err != nil {
		return core.Diagnostics{}, err
	}

	d := core.Diagnostics{
		Background:    sol.Background,
		BackgroundErr: sol.BackgroundErr,
		Chi2:          sol.Chi2,
	}
	var err error
	d.Rg, d.RgErr, err = Rg(sol)
	if err != nil && !errors.Is(err, ErrUndefined) {
		return core.Diagnostics{}, err
	}
	if d.I0, d.I0Err, err = I0(sol); err != nil {
		return core.Diagnostics{}, err
	}
	if d.Oscillations, err = Oscillations(sol, npts); err != nil {
		return core.Diagnostics{}, err
	}
	pos, err := PositiveFraction(sol, npts)
	if err != nil {
		return core.Diagnostics{}, err
	}
	d.PositiveFraction = pos.Fraction
	d.PositiveFractionErr = pos.Err
	d.PositiveFraction1Sigma = pos.OneSigma
	d.Elapsed = time.Since(start)

	return d, nil
}

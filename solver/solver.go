// Package solver computes the regularized least-squares coefficients of a
// design.System.
//
// The fit minimizes ‖(Y − A·c)/σ‖² + λ‖R·c‖² through the normal equations
// (AᵀWA + λRᵀR)·c = AᵀWY, W = diag(1/σ²). The dimensionless weight α given by
// the caller is scaled to λ = α·AlphaUnit·tr(AᵀWA)/tr(RᵀR), which makes α
// independent of the intensity units and of the length unit.
package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/design"
	"github.com/katalvlaran/pofr/matrix"
)

const opSolve = "solver: Solve"

// AlphaUnit fixes the reference strength of α: with it, α ≈ 1e-4 smooths a
// 1%-noise measurement without degrading χ².
const AlphaUnit = 1e-6

// ErrNilSystem is returned for a nil *design.System.
var ErrNilSystem = errors.New("solver: nil system")

// Lambda returns the absolute regularization weight for α on sys.
// It is 0 when α is 0 or R carries no penalty.
func Lambda(sys *design.System, alpha float64) (float64, error) {
	if sys == nil {
		return 0, ErrNilSystem
	}
	g, _, err := matrix.WeightedNormal(sys.A, sys.Weights(), sys.Y)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opSolve, err)
	}

	return lambda(g, sys.R, alpha)
}

func lambda(g *mat.SymDense, r *mat.Dense, alpha float64) (float64, error) {
	if alpha == 0 || r == nil {
		return 0, nil
	}
	trG, err := matrix.Trace(g)
	if err != nil {
		return 0, err
	}
	trR := frobeniusSq(r)
	if trR == 0 {
		return 0, nil
	}

	return alpha * AlphaUnit * trG / trR, nil
}

// frobeniusSq returns tr(RᵀR) = Σ rᵢⱼ².
func frobeniusSq(r *mat.Dense) float64 {
	raw := r.RawMatrix()
	var s float64
	var i int
	for i = 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		s += floats.Dot(row, row)
	}

	return s
}

// Solve fits sys with the dimensionless regularization weight alpha.
//
// Behavior:
//   - Every σ must be finite and > 0 and alpha finite and ≥ 0, otherwise a
//     *core.ConfigError is returned before any factorization.
//   - The normal equations are solved by Cholesky. If that fails the
//     truncated SVD pseudo-inverse is used and a *core.NumericalWarning is
//     attached to Solution.Warnings.
//   - A condition estimate above the warning threshold attaches a warning.
//   - A system that is singular even after the fallback yields a
//     *core.SingularSystemError; no partial solution is returned.
//
// Returns a Solution with the coefficients, the parameter covariance
// (the inverse or pseudo-inverse of the normal matrix), the reduced χ²
// Σr²/max(1, n−P), the fitted or fixed background and λ.
func Solve(sys *design.System, alpha float64, opts ...Option) (*core.Solution, error) {
	start := time.Now()
	if sys == nil {
		return nil, ErrNilSystem
	}
	for i, s := range sys.Sigma {
		label := i
		if i < len(sys.Index) {
			label = sys.Index[i]
		}
		if err := core.ValidateSigma(label, s); err != nil {
			return nil, fmt.Errorf("%s: %w", opSolve, err)
		}
	}
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha < 0 {
		return nil, fmt.Errorf("%s: %w", opSolve, core.NewConfigError("Alpha", alpha, "must be finite and >= 0"))
	}
	o := gatherOptions(opts...)

	g, h, err := matrix.WeightedNormal(sys.A, sys.Weights(), sys.Y)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	lam, err := lambda(g, sys.R, alpha)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	if lam > 0 {
		if err = matrix.AddGram(g, sys.R, lam); err != nil {
			return nil, fmt.Errorf("%s: %w", opSolve, err)
		}
	}

	res, err := matrix.SolveSymmetric(g, h.RawVector().Data, o.matrix...)
	if err != nil {
		if se, ok := matrix.IsSingular(err); ok {
			o.logger.Debug("singular normal equations",
				"dim", se.Dim, "rank", se.Rank, "cond", se.Cond, "alpha", alpha)
			return nil, fmt.Errorf("%s: %w", opSolve,
				&core.SingularSystemError{Dim: se.Dim, Rank: se.Rank, Cond: se.Cond})
		}
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}

	var warnings []error
	if res.Method == matrix.MethodSVD {
		warnings = append(warnings, &core.NumericalWarning{
			Op:      "solve",
			Cond:    res.Cond,
			Message: fmt.Sprintf("cholesky failed, used pseudo-inverse (%d directions truncated)", res.Truncated),
		})
		o.logger.Warn("cholesky failed, falling back to pseudo-inverse",
			"cond", res.Cond, "truncated", res.Truncated, "alpha", alpha)
	}
	if res.Cond > o.warnCond {
		warnings = append(warnings, &core.NumericalWarning{
			Op:      "solve",
			Cond:    res.Cond,
			Message: "normal equations are ill-conditioned; covariance is unreliable",
		})
	}

	x := res.X.RawVector().Data
	sol := &core.Solution{
		Coeffs:     append([]float64(nil), x[:sys.NTerms]...),
		Cov:        res.Inv,
		NTerms:     sys.NTerms,
		DMax:       sys.DMax,
		Background: sys.Background,
		Estimated:  sys.HasBackground,
		Chi2:       chi2(sys, res.X),
		Points:     sys.Points(),
		Lambda:     lam,
		Warnings:   warnings,
	}
	if sys.HasBackground {
		sol.Background = x[sys.NTerms]
		if v := res.Inv.At(sys.NTerms, sys.NTerms); v > 0 {
			sol.BackgroundErr = math.Sqrt(v)
		}
	}
	sol.Elapsed = time.Since(start)

	o.logger.Debug("solved",
		"nterms", sys.NTerms, "dmax", sys.DMax, "alpha", alpha, "lambda", lam,
		"method", res.Method.String(), "cond", res.Cond, "chi2", sol.Chi2,
		"elapsed", sol.Elapsed)

	return sol, nil
}

// chi2 returns Σ((Y − A·x)/σ)² / max(1, n − P).
func chi2(sys *design.System, x *mat.VecDense) float64 {
	var fit mat.VecDense
	fit.MulVec(sys.A, x)
	var sum, r float64
	for i, y := range sys.Y {
		r = (y - fit.AtVec(i)) / sys.Sigma[i]
		sum += r * r
	}
	dof := sys.Points() - sys.Params()
	if dof < 1 {
		dof = 1
	}

	return sum / float64(dof)
}

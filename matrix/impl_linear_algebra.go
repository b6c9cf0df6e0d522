// SPDX-License-Identifier: MIT
// Package matrix provides the dense linear-algebra kernels used by the
// inversion: weighted normal equations, Gram accumulation, row compression
// and a symmetric solver with a pseudo-inverse fallback. All kernels sit on
// gonum/mat and perform fail-fast validation.
//
// Notes:
//   - All kernels use central validators and return sentinels wrapped via
//     matrixErrorf with an op tag.
//   - Inputs are never mutated unless documented (AddGram).

package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Operation name constants for unified error wrapping.
const (
	opWeightedNormal  = "WeightedNormal"
	opAddGram         = "AddGram"
	opCompressRows    = "CompressRows"
	opSolveSymmetric  = "SolveSymmetric"
	opPseudoInverse   = "PseudoInverse"
	opSymmetricTrace  = "Trace"
	opConditionNumber = "Cond"
)

// Method names the factorization that produced a SymSolve.
type Method int

const (
	// MethodCholesky is the LLᵀ factorization of a positive definite system.
	MethodCholesky Method = iota
	// MethodSVD is the truncated pseudo-inverse fallback.
	MethodSVD
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodCholesky:
		return "cholesky"
	case MethodSVD:
		return "svd"
	default:
		return "unknown"
	}
}

// SymSolve is the result of SolveSymmetric.
type SymSolve struct {
	X         *mat.VecDense // solution of M·x = b
	Inv       *mat.SymDense // M⁻¹, or the truncated pseudo-inverse
	Method    Method        // factorization used
	Cond      float64       // condition estimate of the equilibrated M
	Rank      int           // numerical rank (n for Cholesky)
	Truncated int           // singular values dropped by the pseudo-inverse
}

// matrixErrorf wraps err with an operation tag, preserving it via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// WeightedNormal forms the weighted normal equations of a least-squares
// problem: G = AᵀWA and h = AᵀWy with W = diag(w).
//
// Implementation:
//   - Stage 1: Validate A (non-nil, finite), y (len = rows) and w (len = rows, > 0).
//   - Stage 2: Scale each row of A and y by √wᵢ into a fresh copy.
//   - Stage 3: G = SymOuterK(1, Awᵀ), h = Awᵀ·yw.
//
// Behavior highlights:
//   - G is symmetric by construction (no post-symmetrization needed).
//   - A, y and w are not mutated.
//
// Inputs:
//   - a: m×n design matrix.
//   - w: m positive weights (1/σ² in a χ² fit).
//   - y: m observations.
//
// Returns:
//   - *mat.SymDense: n×n Gram matrix AᵀWA.
//   - *mat.VecDense: n-vector AᵀWy.
//
// Errors:
//   - ErrNilMatrix, ErrNaNInf (from validators).
//   - ErrDimensionMismatch if len(y) or len(w) differs from rows(A).
//   - ErrNonPositiveWeight for any wᵢ ≤ 0.
//
// Complexity:
//   - Time O(m·n²), Space O(m·n).
func WeightedNormal(a mat.Matrix, w, y []float64) (*mat.SymDense, *mat.VecDense, error) {
	if err := ValidateFinite(a); err != nil {
		return nil, nil, matrixErrorf(opWeightedNormal, err)
	}
	rows, cols := a.Dims()
	if err := ValidateVecLen(y, rows); err != nil {
		return nil, nil, matrixErrorf(opWeightedNormal, err)
	}
	if err := ValidateWeights(w, rows); err != nil {
		return nil, nil, matrixErrorf(opWeightedNormal, err)
	}

	aw := mat.NewDense(rows, cols, nil)
	yw := mat.NewVecDense(rows, nil)
	var i, j int
	var s float64
	for i = 0; i < rows; i++ {
		s = math.Sqrt(w[i])
		for j = 0; j < cols; j++ {
			aw.Set(i, j, s*a.At(i, j))
		}
		yw.SetVec(i, s*y[i])
	}

	g := mat.NewSymDense(cols, nil)
	g.SymOuterK(1, aw.T())
	h := mat.NewVecDense(cols, nil)
	h.MulVec(aw.T(), yw)

	return g, h, nil
}

// AddGram accumulates dst += scale·RᵀR in place.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch when cols(R) ≠ dim(dst),
// ErrNaNInf for a non-finite scale.
// Complexity: O(k·n²) for R of shape k×n.
func AddGram(dst *mat.SymDense, r mat.Matrix, scale float64) error {
	if dst == nil {
		return matrixErrorf(opAddGram, ErrNilMatrix)
	}
	if err := ValidateNotNil(r); err != nil {
		return matrixErrorf(opAddGram, err)
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return matrixErrorf(opAddGram, ErrNaNInf)
	}
	_, cols := r.Dims()
	n := dst.SymmetricDim()
	if cols != n {
		return matrixErrorf(opAddGram, ErrDimensionMismatch)
	}
	if scale == 0 {
		return nil
	}

	var gram mat.SymDense
	gram.SymOuterK(scale, r.T())
	dst.AddSym(dst, &gram)

	return nil
}

// CompressRows returns the n×n upper-triangular R̃ with R̃ᵀR̃ = LᵀL for a
// tall m×n matrix L (m ≥ n). It is the R factor of a thin QR decomposition.
//
// Use it to replace a long sampled operator by a square one with the same
// quadratic form ‖Lc‖² = ‖R̃c‖².
//
// Errors: ErrNilMatrix, ErrNaNInf, ErrBadShape when m < n.
// Complexity: O(m·n²).
func CompressRows(l mat.Matrix) (*mat.Dense, error) {
	if err := ValidateFinite(l); err != nil {
		return nil, matrixErrorf(opCompressRows, err)
	}
	rows, cols := l.Dims()
	if rows < cols {
		return nil, matrixErrorf(opCompressRows, ErrBadShape)
	}

	var qr mat.QR
	qr.Factorize(l)
	var full mat.Dense
	qr.RTo(&full)

	out := mat.NewDense(cols, cols, nil)
	out.Copy(full.Slice(0, cols, 0, cols))

	return out, nil
}

// Trace returns the sum of the diagonal of a symmetric matrix.
func Trace(s mat.Symmetric) (float64, error) {
	if s == nil {
		return 0, matrixErrorf(opSymmetricTrace, ErrNilMatrix)
	}
	n := s.SymmetricDim()
	var t float64
	for i := 0; i < n; i++ {
		t += s.At(i, i)
	}

	return t, nil
}

// Cond returns σmax/σmin of m from its singular values (+Inf when σmin is
// zero or the decomposition fails).
//
// Complexity: O(n³).
func Cond(m mat.Matrix) (float64, error) {
	if err := ValidateFinite(m); err != nil {
		return 0, matrixErrorf(opConditionNumber, err)
	}
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return math.Inf(1), nil
	}
	vals := svd.Values(nil)
	if len(vals) == 0 || vals[len(vals)-1] == 0 {
		return math.Inf(1), nil
	}

	return vals[0] / vals[len(vals)-1], nil
}

// SolveSymmetric solves M·x = b for a symmetric positive (semi)definite M and
// returns the inverse alongside the solution.
//
// Implementation:
//   - Stage 1: Validate M (square, finite) and b (len n, finite).
//   - Stage 2: Jacobi equilibration S = diag(M)^-½ (entries with a
//     non-positive diagonal keep scale 1); work on S·M·S and S·b.
//   - Stage 3: Cholesky factorization; on success solve and invert, reading
//     the condition estimate from the factor.
//   - Stage 4: If the factorization fails or reports an ill-conditioned
//     result (mat.Condition), fall back to PseudoInverse and y = (SMS)⁺Sb.
//   - Stage 5: Undo the scaling: x = S·y, M⁻¹ = S·(SMS)⁻¹·S.
//
// Behavior highlights:
//   - Never returns a silently zero-filled solution: a spectrum with no
//     direction above the singular cutoff is an error.
//   - Cond and Rank describe the equilibrated matrix, so a system whose
//     parameters merely live on different scales is not reported singular.
//   - The caller learns which path ran from SymSolve.Method.
//
// Inputs:
//   - m: n×n symmetric matrix.
//   - b: right-hand side of length n.
//   - opts: WithPinvRcond, WithSingularRcond, WithForceSVD.
//
// Returns:
//   - *SymSolve with X, Inv, Method, Cond, Rank, Truncated.
//
// Errors:
//   - ErrNilMatrix, ErrNaNInf, ErrDimensionMismatch (validation).
//   - *SingularError (matches ErrSingular) from the fallback.
//
// Complexity:
//   - Time O(n³), Space O(n²).
//
// AI-Hints:
//   - Inspect Method == MethodSVD to surface a "fallback used" warning.
func SolveSymmetric(m mat.Symmetric, b []float64, opts ...Option) (*SymSolve, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	if err := ValidateFinite(m); err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	n := m.SymmetricDim()
	if err := ValidateVecLen(b, n); err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, matrixErrorf(opSolveSymmetric, ErrNaNInf)
		}
	}
	o := gatherOptions(opts...)
	d := jacobiScale(m)
	ms := mat.NewSymDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	var i, j int
	for i = 0; i < n; i++ {
		rhs.SetVec(i, d[i]*b[i])
		for j = i; j < n; j++ {
			ms.SetSym(i, j, d[i]*m.At(i, j)*d[j])
		}
	}

	var res *SymSolve
	if !o.forceSVD {
		res, _ = solveCholesky(ms, rhs)
	}
	if res == nil {
		inv, rank, cond, truncated, err := pseudoInverse(ms, o)
		if err != nil {
			return nil, matrixErrorf(opSolveSymmetric, err)
		}
		y := mat.NewVecDense(n, nil)
		y.MulVec(inv, rhs)
		res = &SymSolve{X: y, Inv: inv, Method: MethodSVD, Cond: cond, Rank: rank, Truncated: truncated}
	}
	unscale(res, d)

	return res, nil
}

// jacobiScale returns diag(M)^-½, with 1 wherever the diagonal is not
// strictly positive and finite.
func jacobiScale(m mat.Symmetric) []float64 {
	n := m.SymmetricDim()
	d := make([]float64, n)
	for i := range d {
		v := m.At(i, i)
		if v > 0 && !math.IsInf(v, 1) {
			d[i] = 1 / math.Sqrt(v)
		} else {
			d[i] = 1
		}
	}

	return d
}

// unscale maps a solution of the equilibrated system back in place.
func unscale(res *SymSolve, d []float64) {
	n := len(d)
	var i, j int
	for i = 0; i < n; i++ {
		res.X.SetVec(i, d[i]*res.X.AtVec(i))
		for j = i; j < n; j++ {
			res.Inv.SetSym(i, j, d[i]*res.Inv.At(i, j)*d[j])
		}
	}
}

// solveCholesky attempts the LLᵀ path. ok is false when the matrix is not
// positive definite or gonum flags the result as ill-conditioned.
func solveCholesky(m mat.Symmetric, rhs *mat.VecDense) (*SymSolve, bool) {
	var chol mat.Cholesky
	if !chol.Factorize(m) {
		return nil, false
	}
	n := m.SymmetricDim()
	x := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(x, rhs); err != nil {
		return nil, false
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, false
	}

	return &SymSolve{X: x, Inv: &inv, Method: MethodCholesky, Cond: chol.Cond(), Rank: n}, true
}

// PseudoInverse returns the truncated Moore–Penrose inverse of a symmetric
// matrix together with its numerical rank.
//
// Singular values σᵢ ≤ PinvRcond·σmax are discarded. The matrix is singular
// (error) when σmax is zero or non-finite, or when any σᵢ falls at or below
// SingularRcond·σmax.
//
// Complexity: O(n³).
func PseudoInverse(m mat.Symmetric, opts ...Option) (*mat.SymDense, int, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, 0, matrixErrorf(opPseudoInverse, err)
	}
	if err := ValidateFinite(m); err != nil {
		return nil, 0, matrixErrorf(opPseudoInverse, err)
	}
	inv, rank, _, _, err := pseudoInverse(m, gatherOptions(opts...))
	if err != nil {
		return nil, 0, matrixErrorf(opPseudoInverse, err)
	}

	return inv, rank, nil
}

func pseudoInverse(m mat.Symmetric, o Options) (*mat.SymDense, int, float64, int, error) {
	n := m.SymmetricDim()
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThin) {
		return nil, 0, math.Inf(1), 0, &SingularError{Dim: n, Rank: 0, Cond: math.Inf(1)}
	}
	vals := svd.Values(nil)
	smax := vals[0]
	if smax <= 0 || math.IsNaN(smax) || math.IsInf(smax, 0) {
		return nil, 0, math.Inf(1), 0, &SingularError{Dim: n, Rank: 0, Cond: math.Inf(1)}
	}

	smin := vals[len(vals)-1]
	cond := math.Inf(1)
	if smin > 0 {
		cond = smax / smin
	}
	rank := 0
	for _, s := range vals {
		if s > o.singularRcond*smax {
			rank++
		}
	}
	if rank < n {
		return nil, rank, cond, 0, &SingularError{Dim: n, Rank: rank, Cond: cond}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cut := o.pinvRcond * smax
	kept := make([]int, 0, len(vals))
	for k, s := range vals {
		if s > cut {
			kept = append(kept, k)
		}
	}

	inv := mat.NewSymDense(n, nil)
	var i, j int
	var acc float64
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			acc = 0
			for _, k := range kept {
				// M⁺ = V·Σ⁺·Uᵀ, symmetrized over (i,j) and (j,i).
				acc += 0.5 * (v.At(i, k)*u.At(j, k) + v.At(j, k)*u.At(i, k)) / vals[k]
			}
			inv.SetSym(i, j, acc)
		}
	}

	return inv, rank, cond, n - len(kept), nil
}

// AllClose reports whether |a−b| ≤ atol + rtol·|b| elementwise.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf for a negative or
// non-finite tolerance.
// Complexity: O(r*c).
func AllClose(a, b mat.Matrix, rtol, atol float64) (bool, error) {
	if a == nil || b == nil {
		return false, ErrNilMatrix
	}
	if rtol < 0 || atol < 0 || math.IsNaN(rtol) || math.IsNaN(atol) ||
		math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
		return false, ErrNaNInf
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false, ErrDimensionMismatch
	}
	var i, j int
	var x, y float64
	for i = 0; i < ar; i++ {
		for j = 0; j < ac; j++ {
			x, y = a.At(i, j), b.At(i, j)
			if math.Abs(x-y) > atol+rtol*math.Abs(y) {
				return false, nil
			}
		}
	}

	return true, nil
}

// IsSingular reports whether err carries a singular-system verdict and
// returns its details.
func IsSingular(err error) (*SingularError, bool) {
	var se *SingularError
	if errors.As(err, &se) {
		return se, true
	}

	return nil, false
}

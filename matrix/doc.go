// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra kernels behind the P(r)
// inversion, built on gonum/mat.
//
// What:
//
//   - WeightedNormal forms AᵀWA and AᵀWy for a weighted least-squares fit.
//   - AddGram accumulates a scaled penalty RᵀR into a Gram matrix.
//   - CompressRows reduces a tall sampled operator to a square factor with
//     the same quadratic form (thin QR).
//   - SolveSymmetric solves a symmetric system by Cholesky and falls back to
//     a truncated SVD pseudo-inverse, reporting which path ran.
//   - Trace, Cond, AllClose and PseudoInverse are exposed for callers and tests.
//
// Errors:
//
// All kernels validate their inputs and return sentinels (ErrNilMatrix,
// ErrDimensionMismatch, ErrNonSquare, ErrNaNInf, ErrNonPositiveWeight,
// ErrBadShape, ErrSingular) wrapped with an operation tag:
//
//	res, err := matrix.SolveSymmetric(m, b)
//	if errors.Is(err, matrix.ErrSingular) {
//		se, _ := matrix.IsSingular(err) // rank and condition details
//	}
//
// Numeric policy:
//
// The pseudo-inverse cutoff (WithPinvRcond) and the singular cutoff
// (WithSingularRcond) are functional options with documented defaults.
package matrix

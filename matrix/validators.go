// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for argument checks.
//  - Keep kernels minimal by delegating nil/shape/finiteness checks here.
//  - Return sentinel errors wrapped with the validator tag.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing.

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
//
// Returns ErrNilMatrix if m == nil.
// Complexity: O(1).
func ValidateNotNil(m mat.Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare checks that m is non-nil and square.
//
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: O(1).
func ValidateSquare(m mat.Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateSquare", ErrNilMatrix)
	}
	if r, c := m.Dims(); r != c {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateVecLen ensures the vector is non-nil with exactly n entries.
// Time: O(1). Space: O(1).
func ValidateVecLen(x []float64, n int) error {
	if x == nil {
		return validatorErrorf("ValidateVecLen", ErrNilMatrix)
	}
	if len(x) != n {
		return validatorErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite rejects any NaN or ±Inf entry of m.
//
// Complexity: O(r*c).
func ValidateFinite(m mat.Matrix) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateFinite", err)
	}
	r, c := m.Dims()
	var i, j int
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return validatorErrorf("ValidateFinite", ErrNaNInf)
			}
		}
	}

	return nil
}

// ValidateWeights ensures w has n strictly positive finite entries.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf, ErrNonPositiveWeight.
func ValidateWeights(w []float64, n int) error {
	if err := ValidateVecLen(w, n); err != nil {
		return validatorErrorf("ValidateWeights", err)
	}
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validatorErrorf("ValidateWeights", ErrNaNInf)
		}
		if v <= 0 {
			return validatorErrorf("ValidateWeights", ErrNonPositiveWeight)
		}
	}

	return nil
}

// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. Kernels return these sentinels (optionally wrapped with an
// operation tag) and tests check them via errors.Is. No kernel panics on
// user-triggered error conditions.

package matrix

import (
	"errors"
	"fmt"
)

// Every message is prefixed with "matrix: ..." so that wrapped chains stay
// greppable across logs. Callers match with errors.Is.

var (
	// ErrNilMatrix indicates that a nil matrix or vector argument was used.
	ErrNilMatrix = errors.New("matrix: nil argument")

	// ErrDimensionMismatch indicates incompatible dimensions between operands.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNaNInf signals a NaN or ±Inf where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNonPositiveWeight signals a weight ≤ 0 in a weighted product.
	ErrNonPositiveWeight = errors.New("matrix: weight must be > 0")

	// ErrBadShape is returned when a factorization needs more rows than the
	// input has (e.g. row compression of a short matrix).
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrSingular is returned when the numerical rank of a system is below
	// the configured threshold. Use errors.As with *SingularError for details.
	ErrSingular = errors.New("matrix: singular matrix")
)

// SingularError carries the rank analysis of a system that could not be
// solved. It matches ErrSingular.
type SingularError struct {
	Dim  int     // system dimension
	Rank int     // numerical rank under the threshold in force
	Cond float64 // σmax/σmin estimate (+Inf when σmin == 0)
}

// Error implements error.
func (e *SingularError) Error() string {
	return fmt.Sprintf("matrix: singular matrix: dim=%d rank=%d cond=%g", e.Dim, e.Rank, e.Cond)
}

// Is reports whether target is ErrSingular.
func (e *SingularError) Is(target error) bool { return target == ErrSingular }

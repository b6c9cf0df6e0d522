// File: methods_clone.go
// Role: Snapshots of measurements and solutions.
// Concurrency:
//   - Clones share no backing arrays with the source, so a clone may be handed
//     to another goroutine while the caller keeps using the original.

package core

import "gonum.org/v1/gonum/mat"

// Clone returns a deep copy of the measurement.
//
// Complexity: O(n).
func (m *Measurement) Clone() *Measurement {
	if m == nil {
		return nil
	}

	return &Measurement{
		Q:          append([]float64(nil), m.Q...),
		I:          append([]float64(nil), m.I...),
		Err:        append([]float64(nil), m.Err...),
		SlitHeight: m.SlitHeight,
		SlitWidth:  m.SlitWidth,
	}
}

// WithoutSlit returns a shallow view of m with both slit dimensions zeroed.
// The data slices are shared (read-only by contract).
func (m *Measurement) WithoutSlit() *Measurement {
	if m == nil {
		return nil
	}
	view := *m
	view.SlitHeight, view.SlitWidth = 0, 0

	return &view
}

// Clone returns a deep copy of the solution, including the covariance.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	out := *s
	out.Coeffs = append([]float64(nil), s.Coeffs...)
	out.Warnings = append([]error(nil), s.Warnings...)
	if s.Cov != nil {
		out.Cov = mat.NewSymDense(s.Cov.SymmetricDim(), nil)
		out.Cov.CopySym(s.Cov)
	}

	return &out
}

package basis_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/katalvlaran/pofr/basis"
)

// quadNodes is the Gauss–Legendre order used for reference integrals.
const quadNodes = 400

func relClose(t *testing.T, want, got, tol float64, msg string) {
	t.Helper()
	scale := math.Max(math.Abs(want), 1e-12)
	assert.LessOrEqualf(t, math.Abs(want-got)/scale, tol, "%s: want %g got %g", msg, want, got)
}

func TestOrtho_BoundaryConditions(t *testing.T) {
	t.Parallel()

	for _, dmax := range []float64{1, 37.5, 100, 2500} {
		for k := 1; k <= 40; k++ {
			assert.Equal(t, 0.0, basis.Ortho(dmax, k, 0), "φ_%d(0) D=%g", k, dmax)
			assert.Equal(t, 0.0, basis.Ortho(dmax, k, dmax), "φ_%d(D) D=%g", k, dmax)
			assert.Equal(t, 0.0, basis.Ortho(dmax, k, dmax*1.5), "outside support")
			assert.Equal(t, 0.0, basis.Ortho(dmax, k, -1), "negative r")
			// approaching the boundary from inside tends to zero
			assert.InDelta(t, 0.0, basis.Ortho(dmax, k, dmax*(1-1e-12)), 1e-6*dmax)
		}
	}
}

func TestOrtho_Derivatives(t *testing.T) {
	t.Parallel()

	const dmax, h = 80.0, 1e-4
	for _, k := range []int{1, 3, 8} {
		for _, r := range []float64{5, 20, 41.3, 70} {
			num1 := (basis.Ortho(dmax, k, r+h) - basis.Ortho(dmax, k, r-h)) / (2 * h)
			assert.InDelta(t, num1, basis.OrthoDerivative(dmax, k, r), 1e-5*math.Max(1, math.Abs(num1)))

			num2 := (basis.OrthoDerivative(dmax, k, r+h) - basis.OrthoDerivative(dmax, k, r-h)) / (2 * h)
			assert.InDelta(t, num2, basis.OrthoSecondDerivative(dmax, k, r), 1e-5*math.Max(1, math.Abs(num2)))
		}
	}
}

func TestTransform_MatchesQuadrature(t *testing.T) {
	t.Parallel()

	const dmax = 100.0
	for _, k := range []int{1, 2, 5, 12} {
		for _, q := range []float64{0.003, 0.013, 0.05, 0.1, 0.29} {
			k, q := k, q
			t.Run(fmt.Sprintf("k=%d/q=%g", k, q), func(t *testing.T) {
				ref := quad.Fixed(func(r float64) float64 {
					return 4 * math.Pi * basis.Ortho(dmax, k, r) * math.Sin(q*r) / (q * r)
				}, 0, dmax, quadNodes, nil, 0)
				relClose(t, ref, basis.Transform(dmax, k, q), 1e-6, "transform")
			})
		}
	}
}

func TestTransform_Limits(t *testing.T) {
	t.Parallel()

	const dmax = 60.0
	for _, k := range []int{1, 2, 7} {
		// q → 0
		zero := basis.Transform(dmax, k, 0)
		assert.InDelta(t, 8*dmax*dmax*math.Pow(-1, float64(k+1))/float64(k), zero, 1e-9)
		relClose(t, zero, basis.Transform(dmax, k, 1e-7), 1e-6, "q→0 continuity")

		// removable singularity at qD = kπ
		qs := float64(k) * math.Pi / dmax
		at := basis.Transform(dmax, k, qs)
		assert.InDelta(t, 4*math.Pi*dmax/qs, at, 1e-9*at)
		relClose(t, at, basis.Transform(dmax, k, qs*(1+1e-6)), 1e-4, "singular continuity (+)")
		relClose(t, at, basis.Transform(dmax, k, qs*(1-1e-6)), 1e-4, "singular continuity (-)")
	}
}

func TestTransformSmeared(t *testing.T) {
	t.Parallel()

	const dmax, q = 100.0, 0.05
	for _, k := range []int{1, 4} {
		plain := basis.Transform(dmax, k, q)
		assert.Equal(t, plain, basis.TransformSmeared(dmax, k, q, 0, 0, 21), "no slit ⇒ identity")

		// a tiny slit barely changes the value
		relClose(t, plain, basis.TransformSmeared(dmax, k, q, 1e-6, 1e-6, 21), 1e-4, "tiny slit")

		// height-only averaging equals a mean over sampled heights
		const h, n = 0.02, 5
		var want float64
		for j := 0; j < n; j++ {
			z := h * float64(j) / float64(n-1)
			want += basis.Transform(dmax, k, math.Hypot(q, z))
		}
		want /= n
		assert.InDelta(t, want, basis.TransformSmeared(dmax, k, q, h, 0, n), 1e-9*math.Abs(want))
	}

	// npts below 2 is clamped rather than dividing by zero
	v := basis.TransformSmeared(dmax, 1, q, 0.01, 0.01, 0)
	assert.False(t, math.IsNaN(v))
}

func TestMoments_MatchQuadrature(t *testing.T) {
	t.Parallel()

	for _, dmax := range []float64{10, 100} {
		for _, k := range []int{1, 2, 3, 10} {
			m0 := quad.Fixed(func(r float64) float64 { return basis.Ortho(dmax, k, r) }, 0, dmax, quadNodes, nil, 0)
			m2 := quad.Fixed(func(r float64) float64 { return r * r * basis.Ortho(dmax, k, r) }, 0, dmax, quadNodes, nil, 0)
			relClose(t, m0, basis.Moment0(dmax, k), 1e-8, "moment0")
			relClose(t, m2, basis.Moment2(dmax, k), 1e-8, "moment2")
		}
	}
}

func TestTransform_ZeroIsFourPiMoment0(t *testing.T) {
	for k := 1; k <= 15; k++ {
		require.InDelta(t, 4*math.Pi*basis.Moment0(50, k), basis.Transform(50, k, 0), 1e-6)
	}
}

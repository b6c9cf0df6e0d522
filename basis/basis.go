package basis

import "math"

// singularTol is the relative distance to qD = kπ below which Transform
// switches to its analytic limit.
const singularTol = 1e-9

// zeroQ is the q below which Transform returns its q → 0 limit.
const zeroQ = 1e-12

// sign returns (−1)^(k+1).
func sign(k int) float64 {
	if k%2 == 0 {
		return -1
	}

	return 1
}

// Ortho returns φₖ(r) = 2r·sin(kπr/D) for 0 ≤ r ≤ D and 0 elsewhere.
// Both endpoints evaluate to exactly zero.
func Ortho(dmax float64, k int, r float64) float64 {
	if r <= 0 || r >= dmax {
		return 0
	}

	return 2 * r * math.Sin(float64(k)*math.Pi*r/dmax)
}

// OrthoDerivative returns dφₖ/dr.
func OrthoDerivative(dmax float64, k int, r float64) float64 {
	if r < 0 || r > dmax {
		return 0
	}
	a := float64(k) * math.Pi / dmax

	return 2*math.Sin(a*r) + 2*a*r*math.Cos(a*r)
}

// OrthoSecondDerivative returns d²φₖ/dr² = 4a·cos(ar) − 2a²r·sin(ar), a = kπ/D.
func OrthoSecondDerivative(dmax float64, k int, r float64) float64 {
	if r < 0 || r > dmax {
		return 0
	}
	a := float64(k) * math.Pi / dmax

	return 4*a*math.Cos(a*r) - 2*a*a*r*math.Sin(a*r)
}

// Transform returns Tₖ(q) = 4π∫φₖ(r)·sin(qr)/(qr) dr in closed form.
//
// Limits:
//   - q → 0:     8D²(−1)^(k+1)/k
//   - qD → kπ:   4πD/q
func Transform(dmax float64, k int, q float64) float64 {
	kpi := float64(k) * math.Pi
	if math.Abs(q) < zeroQ {
		return 8 * dmax * dmax * sign(k) / float64(k)
	}
	x := q * dmax
	den := kpi*kpi - x*x
	if math.Abs(den) < singularTol*kpi*kpi {
		return 4 * math.Pi * dmax / q
	}

	return 8 * math.Pi * math.Pi * float64(k) * dmax * sign(k) * math.Sin(x) / (q * den)
}

// TransformSmeared averages Transform over the slit rectangle.
//
// The height is sampled on [0, height] and the width on [−width/2, width/2]
// with npts points per non-zero dimension; a zero dimension contributes a
// single point at 0. Points whose effective q vanishes are skipped. With
// both dimensions zero the result equals Transform(dmax, k, q).
//
// Complexity: O(npts²) transform evaluations.
func TransformSmeared(dmax float64, k int, q, height, width float64, npts int) float64 {
	if npts < 2 {
		npts = 2
	}
	nh, nw := 1, 1
	if height > 0 {
		nh = npts
	}
	if width > 0 {
		nw = npts
	}
	step := float64(npts - 1)

	var (
		sum   float64
		count int
		y, z  float64
		qeff  float64
	)
	for j := 0; j < nh; j++ {
		z = 0
		if height > 0 {
			z = height * float64(j) / step
		}
		for i := 0; i < nw; i++ {
			y = 0
			if width > 0 {
				y = -width/2 + width*float64(i)/step
			}
			qeff = math.Sqrt((q-y)*(q-y) + z*z)
			if qeff <= 0 {
				continue
			}
			sum += Transform(dmax, k, qeff)
			count++
		}
	}
	if count == 0 {
		return Transform(dmax, k, 0)
	}

	return sum / float64(count)
}

// Moment0 returns ∫₀ᴰ φₖ(r) dr = 2D²(−1)^(k+1)/(kπ).
func Moment0(dmax float64, k int) float64 {
	return 2 * dmax * dmax * sign(k) / (float64(k) * math.Pi)
}

// Moment2 returns ∫₀ᴰ r²φₖ(r) dr = 2(−1)^k·(6D/a³ − D³/a), a = kπ/D.
func Moment2(dmax float64, k int) float64 {
	a := float64(k) * math.Pi / dmax

	return -2 * sign(k) * (6*dmax/(a*a*a) - dmax*dmax*dmax/a)
}

// Package basis implements the orthogonal sine basis used to expand the pair
// distance distribution P(r) and its closed-form reciprocal-space transforms.
//
// 🚀 What is in here?
//
//	For a maximum distance D and a 1-based index k the basis function is
//
//	    φₖ(r) = 2r·sin(kπr/D),   0 ≤ r ≤ D,   φₖ = 0 elsewhere
//
//	so that every expansion P(r) = Σ cₖφₖ(r) satisfies P(0) = P(D) = 0
//	analytically. Its scattering transform
//
//	    Tₖ(q) = 4π ∫₀ᴰ φₖ(r)·sin(qr)/(qr) dr
//	          = 8π²kD(−1)^(k+1)·sin(qD) / (q·((kπ)² − (qD)²))
//
//	is evaluated in closed form, including the removable singularity at
//	qD = kπ and the q → 0 limit.
//
// ✨ Key features:
//   - Ortho, OrthoDerivative, OrthoSecondDerivative in real space
//   - Transform and the slit-averaged TransformSmeared in q-space
//   - Moment0 / Moment2: ∫φₖ and ∫r²φₖ in closed form (Rg, I(0))
//
// All functions are pure and allocation-free; none of them hold state.
package basis

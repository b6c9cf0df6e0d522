// Package pofr inverts small-angle scattering curves I(q) into pair
// distance distributions P(r).
//
// What is in the module?
//
//	• basis/        closed-form sine basis, its Fourier transforms and moments
//	• core/         Measurement, Config, Solution, Diagnostics and error kinds
//	• design/       design matrix and roughness operator of one calculation
//	• matrix/       gonum-backed kernels: weighted normal equations, Cholesky
//	                with SVD pseudo-inverse fallback, QR compression
//	• solver/       regularized least squares with covariance and reduced χ²
//	• diagnostics/  P(r), I(q), Rg, I(0), oscillations, positive fraction
//	• estimate/     parallel α and term-count sweeps
//	• invertor/     stateful orchestrator, async tasks and batch runs
//	• synth/        analytic sphere and noisy synthetic measurements
//	• cmd/pofr      command line driver
//
// Quick start:
//
//	inv := invertor.New()
//	err := inv.Configure(m, core.NewConfig(core.WithDMax(100), core.WithNTerms(21)))
//	sol, err := inv.Solve(ctx)
//	d, err := inv.Diagnostics() // d.Rg, d.I0, d.Oscillations, ...
//
// All numerics are deterministic: the same measurement and configuration
// give bit-identical solutions, whatever the number of workers.
package pofr

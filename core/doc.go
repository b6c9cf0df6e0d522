// Package core provides the data model and error taxonomy of the P(r)
// inversion engine.
//
// A calculation takes a Measurement (ordered (q, I, σI) triples with
// optional slit dimensions) and a Config:
//
//	- QMin, QMax      q window used by the calculation (0 = unbounded)
//	- DMax            maximum distance; P(r) = 0 for r ≥ DMax
//	- NTerms          number of basis terms N
//	- Alpha           dimensionless regularization weight α ≥ 0
//	- BackgroundMode  BackgroundEstimate (free constant) or BackgroundFixed
//	- SlitPoints      quadrature density for slit smearing
//
// and produces exactly one Solution (coefficients + covariance) from which
// Diagnostics (Rg, I(0), oscillations, positive fraction, …) are derived.
//
// Configs are values built with NewConfig and functional options:
//
//	cfg := core.NewConfig(
//		core.WithDMax(100),
//		core.WithNTerms(21),
//		core.WithAlpha(1e-4),
//	)
//	if err := cfg.ValidateFor(m); err != nil {
//		// errors.Is(err, core.ErrConfig)
//	}
//
// Errors are classified by kind: ErrConfig, ErrSingularSystem, ErrNoSolution,
// ErrNumericalWarning and the ErrCalculation umbrella. Use errors.Is to match
// them and errors.As to reach *ConfigError, *SingularSystemError or
// *NumericalWarning details.
package core

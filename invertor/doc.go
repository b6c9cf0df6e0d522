// Package invertor orchestrates a P(r) inversion: it owns a measurement and
// a configuration, runs solves and parameter sweeps, and publishes the
// latest solution for diagnostics and evaluation.
//
// Lifecycle:
//
//	Unconfigured --Configure--> Configured --Solve--> Solving --> Solved
//	                                ^                        \--> Failed
//	                                +------ Configure / SetConfig ------+
//
// A failed solve keeps the previously published solution readable, and a
// cancelled solve restores the prior state. Estimation never changes the
// state: EstimateAlpha, EstimateNTerms and EstimateParameters work on a
// snapshot and return suggestions for the caller to apply with SetConfig.
//
// Long-running operations have asynchronous forms returning a *Task:
//
//	task := inv.SolveAsync(ctx)
//	// ...
//	sol, err := task.Wait(ctx)
//
// Clone gives an independent copy for concurrent sweeps, and RunBatch
// solves several data sets in parallel, one Invertor each.
package invertor

// Package dynamo provides the core records shared by every part of the
// vorticity–streamfunction engine.
//
// The package defines the data that flows between the dispatcher, the run
// modes and the numerical methods:
//
//   - [SimulationConfig]: immutable per-run physical and numerical setup
//   - [RunContext]: per-invocation mode tag, persistence flags and callbacks
//   - [SimulationState]: vorticity/streamfunction fields owned by one method
//   - [Diagnostics]: scalar snapshot of a state (max |ω|, energy, enstrophy)
//   - [ConvergenceSample]: one mesh result of a grid-refinement study
//   - [Error]: structured error carrying a stable [Code]
//
// # Example
//
//	cfg := dynamo.SimulationConfig{Nx: 64, Ny: 64, Lx: 10, Ly: 10, Dt: 1e-3, Tfinal: 1}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	steps := cfg.Steps()
//
// # Thread Safety
//
// A SimulationState is owned by exactly one run and is NOT safe for
// concurrent use. Independent simulations may run on a [Pool]; each worker
// owns its own state.
package dynamo

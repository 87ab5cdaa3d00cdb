// Package physics provides the catalog of initial vorticity profiles.
//
// Each profile is a closed-form function of (x, y) and a short coefficient
// vector, sampled on a periodic grid centred on the origin:
//
//   - [LambOseen]: Gaussian core with circulation Γ and core radius r_c
//   - [Rankine]: uniform vorticity patch
//   - [LambDipole]: counter-rotating Bessel dipole
//   - [TaylorGreen]: periodic cellular array
//   - [Turbulence]: random multi-scale field with a peaked spectrum
//   - Gaussian family: [Gaussian], [StretchedGaussian], [EllipticalGaussian],
//     [VortexPair], [MultiGaussian]
//
// Multiple vortices are placed with [Disperse] using one of the
// [PatternSingle], [PatternCircular], [PatternGrid] or [PatternRandom]
// arrangements.
//
//	spec := physics.ICSpec{Kind: physics.LambOseen, Coeffs: []float64{1.0}}
//	omega, err := physics.Evaluate(spec, xs, ys, 10, 10)
package physics

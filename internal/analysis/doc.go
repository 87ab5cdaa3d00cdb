// Package analysis provides post-processing of stored vorticity runs.
//
//   - [EnergySpectrum]: shell-averaged kinetic energy and enstrophy spectra
//     of a periodic vorticity field
//   - [Spectrum.Slope]: log-log slope of E(k) over a wavenumber band
//   - [PowerSpectrum]: one-sided amplitude spectrum of a sampled series
//   - [DominantPeriod]: period of the strongest oscillation of a series
//
// # Inertial Range
//
// Two-dimensional decaying turbulence develops an enstrophy cascade with
// E(k) ~ k^-3:
//
//	spec := analysis.EnergySpectrum(snap.Omega, cfg.Lx, cfg.Ly)
//	slope, _ := spec.Slope(4, 32)
package analysis

// Package fd implements the finite-difference vorticity–streamfunction
// kernel on a doubly periodic Cartesian grid.
//
// One step evaluates
//
//	dω/dt = J(ψ, ω) + ν∇²ω,   ∇²ψ = −ω
//
// where J(ψ, ω) = ψ_x ω_y − ψ_y ω_x. With u = ψ_y and v = −ψ_x the
// Jacobian term equals −u·∇ω. The streamfunction is recovered by an exact
// FFT solve of the five-point Laplacian, J uses Arakawa's nine-point form by
// default, and time integration is delegated to package integrators.
package fd

package fd

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// SolvePoisson returns ψ with ∇²_h ψ = −(ω − mean ω) and zero mean, where
// ∇²_h is the periodic five-point Laplacian. The solve is exact up to
// round-off.
func (g *Grid) SolvePoisson(omega []float64) []float64 {
	mean := floats.Sum(omega) / float64(len(omega))

	rows := make([][]float64, g.Ny)
	for j := range rows {
		rows[j] = make([]float64, g.Nx)
		for i := range rows[j] {
			rows[j][i] = omega[g.idx(j, i)] - mean
		}
	}

	spec := fft.FFT2Real(rows)
	for j := range spec {
		for i := range spec[j] {
			lambda := g.eig[j][i]
			if lambda == 0 {
				spec[j][i] = 0
				continue
			}
			spec[j][i] /= complex(-lambda, 0)
		}
	}

	back := fft.IFFT2(spec)
	psi := make([]float64, g.Size())
	for j := range back {
		for i := range back[j] {
			psi[g.idx(j, i)] = real(back[j][i])
		}
	}
	return psi
}

// PoissonResidual returns max |∇²_h ψ + (ω − mean ω)|.
func (g *Grid) PoissonResidual(psi, omega []float64) float64 {
	lap := g.Laplacian(psi)
	mean := floats.Sum(omega) / float64(len(omega))
	res := 0.0
	for k := range lap {
		res = math.Max(res, math.Abs(lap[k]+omega[k]-mean))
	}
	return res
}

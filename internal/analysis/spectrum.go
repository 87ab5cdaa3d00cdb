package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/vortsim/internal/dynamo"
)

var ErrEmptyBand = errors.New("analysis: fewer than two nonzero shells in band")

// Spectrum is binned by shell index s, covering |k| in [(s-½)Δk, (s+½)Δk).
// Shell 0 holds only the mean mode and is always zero.
type Spectrum struct {
	DK        float64   `json:"dk"`
	K         []float64 `json:"k"`
	Energy    []float64 `json:"energy"`
	Enstrophy []float64 `json:"enstrophy"`
}

// TotalEnergy is ½∫|u|² dA as resolved by the spectral velocity.
func (s Spectrum) TotalEnergy() float64 { return floats.Sum(s.Energy) }

// TotalEnstrophy is ½∫ω² dA without the mean mode.
func (s Spectrum) TotalEnstrophy() float64 { return floats.Sum(s.Enstrophy) }

// EnergySpectrum transforms omega on the periodic box [0,lx)×[0,ly) and
// accumulates E(k) = |ω̂|²/(2|k|²) and Z(k) = |ω̂|²/2, normalized so the
// shells sum to the domain integrals.
func EnergySpectrum(omega *dynamo.Field, lx, ly float64) Spectrum {
	ny, nx := omega.Dims()
	spec := fft.FFT2Real(omega.Rows())

	n := float64(nx * ny)
	area := lx * ly
	norm := area / (2 * n * n)

	kx0, ky0 := 2*math.Pi/lx, 2*math.Pi/ly
	dk := math.Min(kx0, ky0)

	kmax := math.Hypot(kx0*float64(nx/2), ky0*float64(ny/2))
	shells := int(math.Round(kmax/dk)) + 1
	out := Spectrum{
		DK:        dk,
		K:         make([]float64, shells),
		Energy:    make([]float64, shells),
		Enstrophy: make([]float64, shells),
	}
	for s := range out.K {
		out.K[s] = float64(s) * dk
	}

	for j := range spec {
		ky := ky0 * float64(signed(j, ny))
		for i := range spec[j] {
			kx := kx0 * float64(signed(i, nx))
			k2 := kx*kx + ky*ky
			if k2 == 0 {
				continue
			}
			p := cmplx.Abs(spec[j][i])
			p *= p
			s := int(math.Round(math.Sqrt(k2) / dk))
			out.Energy[s] += norm * p / k2
			out.Enstrophy[s] += norm * p
		}
	}
	return out
}

// Slope fits ln E against ln k over shells whose wavenumber lies in
// [kmin, kmax]. Shells with zero energy are skipped.
func (s Spectrum) Slope(kmin, kmax float64) (float64, error) {
	var xs, ys []float64
	for i, k := range s.K {
		if k < kmin || k > kmax || s.Energy[i] <= 0 {
			continue
		}
		xs = append(xs, math.Log(k))
		ys = append(ys, math.Log(s.Energy[i]))
	}
	if len(xs) < 2 {
		return math.NaN(), ErrEmptyBand
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope, nil
}

// PowerSpectrum returns the one-sided amplitude |X_k|/n for k < n/2 after
// removing the mean.
func PowerSpectrum(xs []float64) []float64 {
	n := len(xs)
	if n < 2 {
		return nil
	}
	mean := floats.Sum(xs) / float64(n)
	centered := make([]float64, n)
	for i, x := range xs {
		centered[i] = x - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, n/2)
	for k := range ps {
		ps[k] = cmplx.Abs(coeffs[k]) / float64(n)
	}
	return ps
}

// DominantPeriod returns the period of the strongest nonzero frequency of
// a series sampled every dt. It returns NaN for a flat or too-short series
// or one containing non-finite samples.
func DominantPeriod(xs []float64, dt float64) float64 {
	if !dynamo.State(xs).IsValid() {
		return math.NaN()
	}
	ps := PowerSpectrum(xs)
	if len(ps) < 2 {
		return math.NaN()
	}
	best := floats.MaxIdx(ps[1:]) + 1
	if ps[best] == 0 {
		return math.NaN()
	}
	return float64(len(xs)) * dt / float64(best)
}

func signed(i, n int) int {
	if i > n/2 {
		return i - n
	}
	return i
}

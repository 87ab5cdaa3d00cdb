package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/vortsim/internal/dynamo"
)

func cosField(n int, l float64, mode int) *dynamo.Field {
	f := dynamo.NewField(n, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x := float64(i) * l / float64(n)
			f.Set(j, i, math.Cos(2*math.Pi*float64(mode)*x/l))
		}
	}
	return f
}

func TestEnergySpectrumSingleMode(t *testing.T) {
	l := 2 * math.Pi
	spec := EnergySpectrum(cosField(16, l, 1), l, l)

	require.InDelta(t, 1.0, spec.DK, 1e-12)
	require.InDelta(t, math.Pi*math.Pi, spec.TotalEnergy(), 1e-9)
	require.InDelta(t, math.Pi*math.Pi, spec.TotalEnstrophy(), 1e-9)
	require.InDelta(t, spec.TotalEnergy(), spec.Energy[1], 1e-9)
	require.Zero(t, spec.Energy[0])
}

func TestEnergySpectrumHigherMode(t *testing.T) {
	l := 2 * math.Pi
	spec := EnergySpectrum(cosField(32, l, 3), l, l)

	// E = Z/k² for a single shell
	require.InDelta(t, spec.Enstrophy[3]/9, spec.Energy[3], 1e-9)
	require.InDelta(t, spec.TotalEnergy(), spec.Energy[3], 1e-9)
}

func TestSlope(t *testing.T) {
	spec := Spectrum{DK: 1}
	for k := 0; k < 20; k++ {
		spec.K = append(spec.K, float64(k))
		e := 0.0
		if k > 0 {
			e = math.Pow(float64(k), -3)
		}
		spec.Energy = append(spec.Energy, e)
	}

	slope, err := spec.Slope(2, 16)
	require.NoError(t, err)
	require.InDelta(t, -3.0, slope, 1e-9)

	_, err = spec.Slope(30, 40)
	require.ErrorIs(t, err, ErrEmptyBand)
}

func TestDominantPeriod(t *testing.T) {
	xs := make([]float64, 64)
	for i := range xs {
		xs[i] = 2 + math.Sin(2*math.Pi*float64(i)/16)
	}
	require.InDelta(t, 1.6, DominantPeriod(xs, 0.1), 1e-9)

	flat := []float64{1, 1, 1, 1}
	require.True(t, math.IsNaN(DominantPeriod(flat, 0.1)))

	xs[5] = math.NaN()
	require.True(t, math.IsNaN(DominantPeriod(xs, 0.1)))
}

func TestPowerSpectrumShort(t *testing.T) {
	require.Nil(t, PowerSpectrum([]float64{1}))
}

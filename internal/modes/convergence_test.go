package modes

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/vortsim/internal/convergence"
	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/fd"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
)

func TestConvergenceLambOseen(t *testing.T) {
	for _, workers := range []int{1, 3} {
		res, err := RunConvergence(context.Background(), fd.New(), lambOseen(32, 0.05),
			dynamo.RunContext{Workers: workers},
			ConvergenceOptions{Meshes: []int{64, 16, 32, 32}, QoI: metrics.MaxVorticity})
		require.NoError(t, err)
		require.Equal(t, Done, res.Phase)

		require.Len(t, res.Samples, 3)
		for i, s := range res.Samples {
			require.Equal(t, []int{16, 32, 64}[i], s.N)
			require.InDelta(t, 10/float64(s.N), s.H, 1e-15)
			require.True(t, s.QoI > 0 && !math.IsInf(s.QoI, 0))
			if i > 0 {
				require.Less(t, s.H, res.Samples[i-1].H)
			}
		}
		require.False(t, math.IsNaN(res.Order()) || math.IsInf(res.Order(), 0))
		require.Len(t, res.Pairwise, 2)

		fine, coarse := res.Samples[2], res.Samples[1]
		require.InDelta(t, convergence.Richardson(fine.QoI, coarse.QoI, 2, res.Order()), res.Extrapolated, 1e-12)
	}
}

func TestConvergenceValidation(t *testing.T) {
	tests := []struct {
		name   string
		meshes []int
		qoi    metrics.QoI
	}{
		{"one mesh", []int{32}, metrics.Energy},
		{"duplicates collapse to one", []int{32, 32}, metrics.Energy},
		{"non-positive", []int{0, 16}, metrics.Energy},
		{"bad qoi", []int{16, 32}, "vorticity_flux"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			res, err := RunConvergence(context.Background(), f, lambOseen(8, 0.01), dynamo.RunContext{},
				ConvergenceOptions{Meshes: tt.meshes, QoI: tt.qoi})
			require.ErrorIs(t, err, dynamo.ErrInvalidConfig)
			require.Equal(t, Failed, res.Phase)
			require.True(t, math.IsNaN(res.Order()))
			require.Zero(t, f.inits.Load())
		})
	}
}

func TestConvergenceStubMethodFails(t *testing.T) {
	m, err := method.New(method.Spectral)
	require.NoError(t, err)

	res, err := RunConvergence(context.Background(), m, lambOseen(8, 0.01), dynamo.RunContext{},
		ConvergenceOptions{Meshes: []int{8, 16}})
	require.ErrorIs(t, err, dynamo.ErrNotImplemented)
	require.Equal(t, Failed, res.Phase)
	require.Empty(t, res.Samples)
	require.Len(t, res.Failures, 2)
	require.True(t, math.IsNaN(res.Order()))
}

func TestConvergenceKeepAspect(t *testing.T) {
	cfg := lambOseen(8, 0.01)
	cfg.Ly = 5

	got := meshConfig(cfg, 32, true)
	require.Equal(t, 32, got.Nx)
	require.Equal(t, 16, got.Ny)

	got = meshConfig(cfg, 32, false)
	require.Equal(t, 32, got.Ny)
	require.Equal(t, 8, cfg.Nx, "base config must not change")
}

func TestConvergenceSavesSamples(t *testing.T) {
	store := newMemStore()
	f := newFake()
	res, err := RunConvergence(context.Background(), f, lambOseen(8, 0.01),
		dynamo.RunContext{SaveData: true},
		ConvergenceOptions{RunID: "conv", Meshes: []int{8, 16}, Saver: store})
	// the fake QoI does not depend on h, so the fit is flat
	require.NoError(t, err)
	require.InDelta(t, 0, res.Order(), 1e-12)
	require.Len(t, store.convergence["conv"], 2)
	require.Empty(t, store.runs, "inner runs are not persisted")
}

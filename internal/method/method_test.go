package method

import (
	"errors"
	"testing"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/physics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"FD", FiniteDifference},
		{"Finite Difference", FiniteDifference},
		{"finite_difference", FiniteDifference},
		{"Spectral", Spectral},
		{"fft", Spectral},
		{"pseudo-spectral", Spectral},
		{"FV", FiniteVolume},
		{"finite_volume", FiniteVolume},
		{"Finite Volume", FiniteVolume},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	_, err := Parse("Variable Bathymetry")
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown method: expected ErrInvalidConfig, got %v", err)
	}
}

func TestStubsAlwaysFail(t *testing.T) {
	cfg := dynamo.SimulationConfig{
		Nx: 16, Ny: 16, Lx: 1, Ly: 1, Dt: 0.01, Tfinal: 0.1,
		IC: physics.ICSpec{Kind: physics.Gaussian},
	}
	fdState, err := mustNew(t, FiniteDifference).Initialize(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for _, k := range []Kind{Spectral, FiniteVolume} {
		t.Run(string(k), func(t *testing.T) {
			m := mustNew(t, k)

			st, err := m.Initialize(cfg)
			assertNotImplemented(t, err, string(k), "initialize")
			if st != nil {
				t.Error("initialize returned a state")
			}

			st, err = m.Advance(fdState, cfg)
			assertNotImplemented(t, err, string(k), "advance")
			if st != nil {
				t.Error("advance returned a state")
			}

			_, err = m.Diagnostics(fdState, cfg)
			assertNotImplemented(t, err, string(k), "diagnostics")
		})
	}
}

func TestResolveFiniteDifference(t *testing.T) {
	m, err := Resolve("finite difference")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "fd" {
		t.Errorf("Name() = %q", m.Name())
	}
	if !Implemented(FiniteDifference) || Implemented(Spectral) || Implemented(FiniteVolume) {
		t.Error("Implemented() table wrong")
	}
}

func mustNew(t *testing.T, k Kind) Method {
	t.Helper()
	m, err := New(k)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func assertNotImplemented(t *testing.T, err error, method, op string) {
	t.Helper()
	if !errors.Is(err, dynamo.ErrNotImplemented) {
		t.Fatalf("%s: expected ErrNotImplemented, got %v", op, err)
	}
	var e *dynamo.Error
	if !errors.As(err, &e) {
		t.Fatalf("%s: error is %T", op, err)
	}
	if e.Method != method || e.Code != dynamo.CodeNotImplemented || e.Op != method+"."+op {
		t.Errorf("%s: error context %+v", op, e)
	}
}

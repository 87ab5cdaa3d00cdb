package dynamo

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/vortsim/internal/physics"
)

func validConfig() SimulationConfig {
	return SimulationConfig{
		Nx: 32, Ny: 32, Lx: 10, Ly: 10,
		Dt: 0.001, Tfinal: 0.1, Nu: 1e-4,
		IC: physics.ICSpec{Kind: physics.LambOseen, Coeffs: []float64{1.0}},
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestField(t *testing.T) {
	f := NewField(3, 4)
	rows, cols := f.Dims()
	if rows != 3 || cols != 4 {
		t.Fatalf("Dims = (%d, %d), want (3, 4)", rows, cols)
	}

	f.Set(2, 1, -7)
	if f.At(2, 1) != -7 {
		t.Errorf("At(2,1) = %v", f.At(2, 1))
	}
	if f.MaxAbs() != 7 {
		t.Errorf("MaxAbs = %v, want 7", f.MaxAbs())
	}

	c := f.Clone()
	c.Set(2, 1, 0)
	if f.At(2, 1) != -7 {
		t.Error("Clone shares storage")
	}

	f.Set(0, 0, math.NaN())
	if !math.IsNaN(f.MaxAbs()) {
		t.Error("MaxAbs should propagate NaN")
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		dt, tfinal float64
		want       int
	}{
		{0.001, 0.1, 100},
		{0.1, 1.0, 10},
		{0.3, 1.0, 3},
		{0.4, 1.0, 3},
		{0, 1.0, 0},
		{1e-300, 1.0, MaxSteps},
	}
	for _, tt := range tests {
		cfg := SimulationConfig{Dt: tt.dt, Tfinal: tt.tfinal}
		if got := cfg.Steps(); got != tt.want {
			t.Errorf("Steps(dt=%g, T=%g) = %d, want %d", tt.dt, tt.tfinal, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
	}{
		{"zero dt", func(c *SimulationConfig) { c.Dt = 0 }},
		{"negative dt", func(c *SimulationConfig) { c.Dt = -0.1 }},
		{"zero tfinal", func(c *SimulationConfig) { c.Tfinal = 0 }},
		{"missing nx", func(c *SimulationConfig) { c.Nx = 0 }},
		{"missing ny", func(c *SimulationConfig) { c.Ny = 0 }},
		{"zero lx", func(c *SimulationConfig) { c.Lx = 0 }},
		{"negative nu", func(c *SimulationConfig) { c.Nu = -1 }},
		{"NaN dt", func(c *SimulationConfig) { c.Dt = math.NaN() }},
		{"step overflow", func(c *SimulationConfig) { c.Dt = 1e-300; c.Tfinal = 1 }},
		{"too many steps", func(c *SimulationConfig) { c.Dt = 1; c.Tfinal = 3e9 }},
		{"bad jacobian", func(c *SimulationConfig) { c.Jacobian = "upwind" }},
		{"bad ic", func(c *SimulationConfig) { c.IC.Kind = "hurricane" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if code, _ := CodeOf(err); code != CodeInvalidConfig {
				t.Errorf("code = %q", code)
			}
		})
	}
}

func TestWithParam(t *testing.T) {
	base := validConfig()

	got, err := base.WithParam("nu", 0.5)
	if err != nil || got.Nu != 0.5 {
		t.Fatalf("nu: got %v, err %v", got.Nu, err)
	}
	if base.Nu != 1e-4 {
		t.Error("WithParam mutated the base config")
	}

	got, err = base.WithParam("n", 48)
	if err != nil || got.Nx != 48 || got.Ny != 48 {
		t.Fatalf("n: got %dx%d, err %v", got.Nx, got.Ny, err)
	}

	got, err = base.WithParam("ic.0", 2.5)
	if err != nil || got.IC.Coeff(0) != 2.5 {
		t.Fatalf("ic.0: got %v, err %v", got.IC.Coeffs, err)
	}
	if base.IC.Coeffs[0] != 1.0 {
		t.Error("WithParam shared the coefficient slice")
	}

	got, err = base.WithParam("ext.filter", 3)
	if err != nil || got.Extensions["filter"] != 3 {
		t.Fatalf("ext: got %v, err %v", got.Extensions, err)
	}

	if _, err := base.WithParam("bogus", 1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NotImplemented("spectral", "initialize")
	want := "spectral.initialize: method_not_implemented (method spectral): initialize is not available for this method"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrNotImplemented) || errors.Is(err, ErrBlocked) {
		t.Error("sentinel matching broken")
	}

	blocked := Blocked("fv", "convergence")
	if !errors.Is(blocked, ErrBlocked) {
		t.Error("Blocked should match ErrBlocked")
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 1.5, Step: 150, Wrapped: ErrUnstable}
	expected := "step 150 (t=1.5000): dynamo: simulation unstable (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("SimulationError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrUnstable) {
		t.Error("SimulationError should unwrap")
	}
}

func TestRunContextCanceled(t *testing.T) {
	var rc RunContext
	if rc.Canceled() {
		t.Error("nil channel reported canceled")
	}
	ch := make(chan struct{})
	rc.Cancel = ch
	if rc.Canceled() {
		t.Error("open channel reported canceled")
	}
	close(ch)
	if !rc.Canceled() {
		t.Error("closed channel not reported canceled")
	}
	if rc.Log() == nil {
		t.Error("Log() returned nil")
	}
}

func TestDiagnosticsJSONNonFinite(t *testing.T) {
	in := Diagnostics{Time: 0.5, Step: 5, MaxVorticity: math.NaN(), Energy: math.Inf(1), Enstrophy: 2, CFL: 0.1}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Diagnostics
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsNaN(out.MaxVorticity) || !math.IsNaN(out.Energy) {
		t.Errorf("non-finite values should decode as NaN, got %+v", out)
	}
	if out.Time != 0.5 || out.Step != 5 || out.Enstrophy != 2 || out.CFL != 0.1 {
		t.Errorf("finite values changed: %+v", out)
	}
}

package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/vortsim/internal/dynamo"
)

type oscillator struct{}

func (oscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func integrate(integ Integrator, dt float64, steps int) dynamo.State {
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		x = integ.Step(oscillator{}, x, float64(i)*dt, dt)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	x := integrate(NewRK4(), dt, steps)

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestObservedOrder(t *testing.T) {
	tests := []struct {
		name  string
		integ func() Integrator
	}{
		{"euler", func() Integrator { return NewEuler() }},
		{"rk3", func() Integrator { return NewSSPRK3() }},
		{"rk4", func() Integrator { return NewRK4() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errAt := func(dt float64) float64 {
				steps := int(math.Round(1.0 / dt))
				x := integrate(tt.integ(), dt, steps)
				return math.Hypot(x[0]-math.Cos(1), x[1]+math.Sin(1))
			}
			order := math.Log2(errAt(0.02) / errAt(0.01))
			want := float64(tt.integ().Order())
			if math.Abs(order-want) > 0.25 {
				t.Errorf("observed order %.3f, want %.0f", order, want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, name := range append(Names(), "", "RK4", "ssprk3") {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("leapfrog"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

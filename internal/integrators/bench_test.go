package integrators

import (
	"testing"

	"github.com/san-kum/vortsim/internal/dynamo"
)

func benchmarkIntegrator(b *testing.B, integ Integrator) {
	x := make(dynamo.State, 4096)
	x[0] = 1
	sys := decay{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, 0, 0.01)
	}
}

type decay struct{}

func (decay) Derive(x dynamo.State, t float64) dynamo.State {
	out := make(dynamo.State, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

func BenchmarkEuler(b *testing.B)  { benchmarkIntegrator(b, NewEuler()) }
func BenchmarkSSPRK3(b *testing.B) { benchmarkIntegrator(b, NewSSPRK3()) }
func BenchmarkRK4(b *testing.B)    { benchmarkIntegrator(b, NewRK4()) }

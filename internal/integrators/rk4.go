package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// classical RK4 tableau
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
)

// RK4 is the classical four-stage Runge–Kutta scheme. Stage derivatives are
// copied into owned buffers, so a System may reuse its output slice.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }
func (r *RK4) Order() int   { return 4 }

func (r *RK4) resize(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(sys System, x dynamo.State, t, dt float64) dynamo.State {
	r.resize(len(x))

	for s := range r.k {
		in := x
		if s > 0 {
			floats.AddScaledTo(r.stage, x, rk4Nodes[s]*dt, r.k[s-1])
			in = r.stage
		}
		d := sys.Derive(in, t+rk4Nodes[s]*dt)
		mustLen(x, d)
		copy(r.k[s], d)
	}

	out := x.Clone()
	for s, w := range rk4Weights {
		floats.AddScaled(out, w*dt, r.k[s])
	}
	return out
}

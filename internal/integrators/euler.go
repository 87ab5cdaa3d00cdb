package integrators

import "github.com/san-kum/vortsim/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Order() int   { return 1 }

func (e *Euler) Step(sys System, x dynamo.State, t float64, dt float64) dynamo.State {
	dx := sys.Derive(x, t)
	mustLen(x, dx)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

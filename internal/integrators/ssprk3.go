package integrators

import "github.com/san-kum/vortsim/internal/dynamo"

// SSPRK3 is the three-stage strong-stability-preserving Runge–Kutta scheme
// of Shu and Osher.
type SSPRK3 struct {
	u1, u2 dynamo.State
}

func NewSSPRK3() *SSPRK3 {
	return &SSPRK3{}
}

func (s *SSPRK3) Name() string { return "rk3" }
func (s *SSPRK3) Order() int   { return 3 }

func (s *SSPRK3) Step(sys System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(s.u1) != n {
		s.u1 = make(dynamo.State, n)
		s.u2 = make(dynamo.State, n)
	}

	k := sys.Derive(x, t)
	mustLen(x, k)
	for i := 0; i < n; i++ {
		s.u1[i] = x[i] + dt*k[i]
	}

	k = sys.Derive(s.u1, t+dt)
	for i := 0; i < n; i++ {
		s.u2[i] = 0.75*x[i] + 0.25*(s.u1[i]+dt*k[i])
	}

	k = sys.Derive(s.u2, t+0.5*dt)
	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i]/3 + 2.0/3.0*(s.u2[i]+dt*k[i])
	}
	return result
}

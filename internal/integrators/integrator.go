package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// System is a semi-discrete right-hand side dx/dt = f(x, t).
type System interface {
	Derive(x dynamo.State, t float64) dynamo.State
}

// Integrator advances a System by one fixed step. Implementations keep
// scratch buffers and are not safe for concurrent use.
type Integrator interface {
	Name() string
	Order() int
	Step(sys System, x dynamo.State, t, dt float64) dynamo.State
}

// New returns the integrator registered under name; "" selects RK4.
func New(name string) (Integrator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rk4", "rk":
		return NewRK4(), nil
	case "rk3", "ssprk3", "ssp-rk3":
		return NewSSPRK3(), nil
	case "euler", "forward_euler":
		return NewEuler(), nil
	}
	return nil, dynamo.Invalidf("integrators.new", "unknown integrator %q", name)
}

// Names lists the accepted integrator names.
func Names() []string { return []string{"rk4", "rk3", "euler"} }

func mustLen(x, dx dynamo.State) {
	if len(x) != len(dx) {
		panic(fmt.Sprintf("integrators: derivative length %d, state length %d", len(dx), len(x)))
	}
}

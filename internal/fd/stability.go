package fd

import (
	"github.com/san-kum/vortsim/internal/dynamo"
)

// Explicit-scheme limits used to flag a configuration; dt is never adjusted.
const (
	advectiveLimit = 1.0
	diffusiveLimit = 0.25
)

// Stability summarizes the step-size constraints of a state.
type Stability struct {
	CFL       float64
	Diffusion float64
	Stable    bool
}

// StabilityReport estimates the advective CFL number dt·(|u|/dx + |v|/dy)
// and the diffusion number ν·dt·(1/dx² + 1/dy²) for user judgment.
func StabilityReport(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (Stability, error) {
	setup, err := setupOf(state, cfg)
	if err != nil {
		return Stability{}, err
	}
	g := setup.Grid
	u, v := g.Velocity(state.Psi.Data)

	rep := Stability{
		CFL:       cfg.Dt * (maxAbs(u)/g.Dx + maxAbs(v)/g.Dy),
		Diffusion: cfg.Nu * cfg.Dt * (1/(g.Dx*g.Dx) + 1/(g.Dy*g.Dy)),
	}
	rep.Stable = rep.CFL <= advectiveLimit && rep.Diffusion <= diffusiveLimit
	return rep, nil
}

package fd

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/integrators"
	"github.com/san-kum/vortsim/internal/physics"
)

const Name = "fd"

// Setup is the FD-specific part of a SimulationState.
type Setup struct {
	Grid       *Grid
	Scheme     dynamo.JacobianScheme
	Integrator integrators.Integrator
}

// Solver is the finite-difference implementation of the method contract.
// It is stateless; everything run-specific lives in the SimulationState.
type Solver struct{}

func New() *Solver {
	return &Solver{}
}

func (s *Solver) Name() string { return Name }

func (s *Solver) Initialize(cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := GridFor(cfg)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	values, err := physics.Evaluate(cfg.IC, grid.X, grid.Y, cfg.Lx, cfg.Ly)
	if err != nil {
		return nil, &dynamo.Error{Code: dynamo.CodeInvalidConfig, Op: "fd.initialize", Method: Name, Err: err}
	}

	omega := &dynamo.Field{Nx: cfg.Nx, Ny: cfg.Ny, Data: values}
	psi := &dynamo.Field{Nx: cfg.Nx, Ny: cfg.Ny, Data: grid.SolvePoisson(values)}

	return &dynamo.SimulationState{
		Omega: omega,
		Psi:   psi,
		Setup: &Setup{Grid: grid, Scheme: schemeOf(cfg), Integrator: integ},
	}, nil
}

func (s *Solver) Advance(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	setup, err := setupOf(state, cfg)
	if err != nil {
		return nil, err
	}

	sys := &vorticitySystem{grid: setup.Grid, scheme: setup.Scheme, nu: cfg.Nu}
	next := setup.Integrator.Step(sys, state.Omega.Data, state.T, cfg.Dt)

	step := state.Step + 1
	return &dynamo.SimulationState{
		Omega: &dynamo.Field{Nx: cfg.Nx, Ny: cfg.Ny, Data: next},
		Psi:   &dynamo.Field{Nx: cfg.Nx, Ny: cfg.Ny, Data: setup.Grid.SolvePoisson(next)},
		T:     float64(step) * cfg.Dt,
		Step:  step,
		Setup: setup,
	}, nil
}

func (s *Solver) Diagnostics(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (dynamo.Diagnostics, error) {
	setup, err := setupOf(state, cfg)
	if err != nil {
		return dynamo.Diagnostics{}, err
	}
	g := setup.Grid
	omega, psi := state.Omega.Data, state.Psi.Data

	u, v := g.Velocity(psi)
	ke := g.KineticEnergy(psi)
	z := 0.5 * floats.Dot(omega, omega) * g.CellArea()

	return dynamo.Diagnostics{
		Time:         state.T,
		Step:         state.Step,
		MaxVorticity: maxAbs(omega),
		Energy:       ke,
		Enstrophy:    z,
		CFL:          cfg.Dt * (maxAbs(u)/g.Dx + maxAbs(v)/g.Dy),
	}, nil
}

func schemeOf(cfg dynamo.SimulationConfig) dynamo.JacobianScheme {
	if cfg.Jacobian == "" {
		return dynamo.JacobianArakawa
	}
	return cfg.Jacobian
}

func setupOf(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (*Setup, error) {
	if state == nil || state.Omega == nil || state.Psi == nil {
		return nil, dynamo.Invalidf("fd", "state is not initialized")
	}
	setup, ok := state.Setup.(*Setup)
	if !ok {
		return nil, dynamo.Invalidf("fd", "state was not created by the fd method (setup %T)", state.Setup)
	}
	if rows, cols := state.Omega.Dims(); rows != cfg.Ny || cols != cfg.Nx {
		return nil, dynamo.Invalidf("fd", "state is %dx%d, config is %dx%d", rows, cols, cfg.Ny, cfg.Nx)
	}
	if setup.Grid.Nx != cfg.Nx || setup.Grid.Ny != cfg.Ny {
		return nil, dynamo.Invalidf("fd", "state grid is %dx%d, config is %dx%d", setup.Grid.Ny, setup.Grid.Nx, cfg.Ny, cfg.Nx)
	}
	return setup, nil
}

// vorticitySystem is the semi-discrete right-hand side J(ψ, ω) + ν∇²ω.
type vorticitySystem struct {
	grid   *Grid
	scheme dynamo.JacobianScheme
	nu     float64
}

func (s *vorticitySystem) Derive(omega dynamo.State, _ float64) dynamo.State {
	psi := s.grid.SolvePoisson(omega)
	out := dynamo.State(s.grid.Jacobian(psi, omega, s.scheme))
	if s.nu != 0 {
		lap := s.grid.Laplacian(omega)
		floats.AddScaled(out, s.nu, lap)
	}
	return out
}

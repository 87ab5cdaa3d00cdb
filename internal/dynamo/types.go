package dynamo

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/physics"
)

// State is a flat vector of grid values, the unit the integrators operate on.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Field is an Ny×Nx row-major grid. Row j is the y index, column i the x index.
type Field struct {
	Nx   int   `json:"nx"`
	Ny   int   `json:"ny"`
	Data State `json:"data"`
}

func NewField(ny, nx int) *Field {
	return &Field{Nx: nx, Ny: ny, Data: make(State, nx*ny)}
}

// Dims returns (rows, cols) = (Ny, Nx).
func (f *Field) Dims() (int, int) { return f.Ny, f.Nx }

func (f *Field) At(j, i int) float64     { return f.Data[j*f.Nx+i] }
func (f *Field) Set(j, i int, v float64) { f.Data[j*f.Nx+i] = v }

func (f *Field) Clone() *Field {
	return &Field{Nx: f.Nx, Ny: f.Ny, Data: f.Data.Clone()}
}

// MaxAbs returns max |v| over the grid. NaN propagates.
func (f *Field) MaxAbs() float64 {
	m := 0.0
	for _, v := range f.Data {
		if math.IsNaN(v) {
			return math.NaN()
		}
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// Rows returns a copy of the field as a slice of rows.
func (f *Field) Rows() [][]float64 {
	rows := make([][]float64, f.Ny)
	for j := range rows {
		rows[j] = make([]float64, f.Nx)
		copy(rows[j], f.Data[j*f.Nx:(j+1)*f.Nx])
	}
	return rows
}

// JacobianScheme selects the discretization of the nonlinear advection term.
type JacobianScheme string

const (
	JacobianArakawa JacobianScheme = "arakawa"
	JacobianCentral JacobianScheme = "central"
)

// SimulationConfig is the immutable physical and numerical setup of one run.
type SimulationConfig struct {
	Nx         int                `json:"nx"`
	Ny         int                `json:"ny"`
	Lx         float64            `json:"lx"`
	Ly         float64            `json:"ly"`
	Dt         float64            `json:"dt"`
	Tfinal     float64            `json:"tfinal"`
	Nu         float64            `json:"nu"`
	IC         physics.ICSpec     `json:"ic"`
	Jacobian   JacobianScheme     `json:"jacobian,omitempty"`
	Integrator string             `json:"integrator,omitempty"`
	Extensions map[string]float64 `json:"extensions,omitempty"`
}

// MaxSteps bounds Nt. Validate rejects configurations that would exceed it.
const MaxSteps = math.MaxInt32

// Steps returns Nt = round(Tfinal/Dt), clamped to [0, MaxSteps].
func (c SimulationConfig) Steps() int {
	if c.Dt <= 0 || c.Tfinal <= 0 {
		return 0
	}
	n := math.Round(c.Tfinal / c.Dt)
	if n > MaxSteps || math.IsNaN(n) {
		return MaxSteps
	}
	return int(n)
}

// Spacing returns (dx, dy).
func (c SimulationConfig) Spacing() (float64, float64) {
	return c.Lx / float64(c.Nx), c.Ly / float64(c.Ny)
}

func (c SimulationConfig) Validate() error {
	const op = "config.validate"
	switch {
	case c.Nx <= 0 || c.Ny <= 0:
		return Invalidf(op, "grid dimensions must be positive, got nx=%d ny=%d", c.Nx, c.Ny)
	case !positive(c.Lx) || !positive(c.Ly):
		return Invalidf(op, "domain size must be positive, got lx=%g ly=%g", c.Lx, c.Ly)
	case !positive(c.Dt):
		return Invalidf(op, "dt must be positive, got %g", c.Dt)
	case !positive(c.Tfinal):
		return Invalidf(op, "tfinal must be positive, got %g", c.Tfinal)
	case math.Round(c.Tfinal/c.Dt) > MaxSteps:
		return Invalidf(op, "tfinal/dt = %g exceeds %d steps", c.Tfinal/c.Dt, MaxSteps)
	case c.Nu < 0 || math.IsNaN(c.Nu) || math.IsInf(c.Nu, 0):
		return Invalidf(op, "nu must be finite and non-negative, got %g", c.Nu)
	}
	switch c.Jacobian {
	case "", JacobianArakawa, JacobianCentral:
	default:
		return Invalidf(op, "unknown jacobian scheme %q", c.Jacobian)
	}
	if err := c.IC.Validate(); err != nil {
		return &Error{Code: CodeInvalidConfig, Op: op, Message: "initial condition", Err: err}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Clone returns a deep copy.
func (c SimulationConfig) Clone() SimulationConfig {
	out := c
	out.IC = c.IC.Clone()
	if c.Extensions != nil {
		out.Extensions = make(map[string]float64, len(c.Extensions))
		for k, v := range c.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}

// WithParam clones the config with one named parameter substituted.
//
// Recognized names: nu, dt, tfinal, lx, ly, nx, ny, n (both grid sizes),
// ic.<index> for an initial-condition coefficient, and ext.<key> for a
// per-method extension.
func (c SimulationConfig) WithParam(name string, value float64) (SimulationConfig, error) {
	const op = "config.with_param"
	out := c.Clone()
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "nu", "viscosity":
		out.Nu = value
	case "dt":
		out.Dt = value
	case "tfinal", "t", "time":
		out.Tfinal = value
	case "lx":
		out.Lx = value
	case "ly":
		out.Ly = value
	case "nx":
		out.Nx = int(math.Round(value))
	case "ny":
		out.Ny = int(math.Round(value))
	case "n", "grid":
		out.Nx = int(math.Round(value))
		out.Ny = out.Nx
	default:
		switch {
		case strings.HasPrefix(key, "ic."):
			idx, err := strconv.Atoi(strings.TrimPrefix(key, "ic."))
			if err != nil || idx < 0 {
				return c, Invalidf(op, "bad coefficient index in %q", name)
			}
			out.IC = out.IC.WithCoeff(idx, value)
		case strings.HasPrefix(key, "ext."):
			if out.Extensions == nil {
				out.Extensions = make(map[string]float64)
			}
			out.Extensions[strings.TrimPrefix(key, "ext.")] = value
		default:
			return c, Invalidf(op, "unknown sweep parameter %q", name)
		}
	}
	return out, nil
}

// Mode tags the run mode of an invocation.
type Mode string

const (
	ModeEvolution      Mode = "evolution"
	ModeConvergence    Mode = "convergence"
	ModeParameterSweep Mode = "parameter_sweep"
	ModePlotting       Mode = "plotting"
)

// Progress is delivered to a ProgressFunc after every completed step.
type Progress struct {
	Step        int
	Steps       int
	Time        float64
	Diagnostics Diagnostics
}

// ProgressFunc is invoked synchronously from the stepping loop. It must not
// block or retain the state.
type ProgressFunc func(Progress)

// RunContext carries per-invocation settings. It is not mutated during a run.
type RunContext struct {
	Mode        Mode
	SaveData    bool
	SaveFigures bool
	SaveReports bool
	Progress    ProgressFunc
	Cancel      <-chan struct{}
	Logger      *zap.Logger
	Workers     int
}

// Log returns the configured logger or a no-op one.
func (rc RunContext) Log() *zap.Logger {
	if rc.Logger == nil {
		return zap.NewNop()
	}
	return rc.Logger
}

// Canceled polls the optional cancellation channel without blocking.
func (rc RunContext) Canceled() bool {
	if rc.Cancel == nil {
		return false
	}
	select {
	case <-rc.Cancel:
		return true
	default:
		return false
	}
}

func (rc RunContext) Report(p Progress) {
	if rc.Progress != nil {
		rc.Progress(p)
	}
}

// SimulationState is the mutable state of one run, owned by the active method.
type SimulationState struct {
	Omega *Field
	Psi   *Field
	T     float64
	Step  int
	Setup any
}

// Clone copies both fields. Setup is shared; methods treat it as read-only.
func (s *SimulationState) Clone() *SimulationState {
	return &SimulationState{
		Omega: s.Omega.Clone(),
		Psi:   s.Psi.Clone(),
		T:     s.T,
		Step:  s.Step,
		Setup: s.Setup,
	}
}

// Diagnostics is a scalar snapshot derived from a state without mutating it.
type Diagnostics struct {
	Time         float64 `json:"time"`
	Step         int     `json:"step"`
	MaxVorticity float64 `json:"max_vorticity"`
	Energy       float64 `json:"energy"`
	Enstrophy    float64 `json:"enstrophy"`
	CFL          float64 `json:"cfl"`
}

func (d Diagnostics) IsFinite() bool {
	return State{d.MaxVorticity, d.Energy, d.Enstrophy}.IsValid()
}

// ConvergenceSample is one mesh result of a grid-refinement study.
type ConvergenceSample struct {
	N    int           `json:"n"`
	H    float64       `json:"h"`
	QoI  float64       `json:"qoi"`
	Wall time.Duration `json:"wall"`
}

package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/physics"
)

const (
	DefaultMethod  = "fd"
	DefaultMode    = "evolution"
	DefaultL       = 10.0
	DefaultN       = 128
	DefaultDt      = 0.001
	DefaultTfinal  = 10.0
	DefaultNu      = 1e-4
	DefaultDataDir = "./runs"
)

type Config struct {
	Method      string            `yaml:"method"`
	Mode        string            `yaml:"mode"`
	Grid        GridConfig        `yaml:"grid"`
	Dt          float64           `yaml:"dt"`
	Tfinal      float64           `yaml:"tfinal"`
	Nu          float64           `yaml:"nu"`
	IC          physics.ICSpec    `yaml:"ic"`
	Jacobian    string            `yaml:"jacobian,omitempty"`
	Integrator  string            `yaml:"integrator,omitempty"`
	Snapshots   int               `yaml:"snapshots,omitempty"`
	Convergence ConvergenceConfig `yaml:"convergence,omitempty"`
	Sweep       SweepConfig       `yaml:"sweep,omitempty"`
}

type GridConfig struct {
	Nx int     `yaml:"nx"`
	Ny int     `yaml:"ny"`
	Lx float64 `yaml:"lx"`
	Ly float64 `yaml:"ly"`
}

type ConvergenceConfig struct {
	Meshes     []int  `yaml:"meshes,omitempty"`
	QoI        string `yaml:"qoi,omitempty"`
	KeepAspect bool   `yaml:"keep_aspect,omitempty"`
}

type SweepConfig struct {
	Param  string    `yaml:"param,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
}

// Env holds the settings read from the process environment.
type Env struct {
	DataDir  string `env:"VORTSIM_DATA_DIR" envDefault:"./runs"`
	Workers  int    `env:"VORTSIM_WORKERS" envDefault:"1"`
	LogLevel string `env:"VORTSIM_LOG_LEVEL" envDefault:"info"`
}

func DefaultConfig() *Config {
	return &Config{
		Method:     DefaultMethod,
		Mode:       DefaultMode,
		Grid:       GridConfig{Nx: DefaultN, Ny: DefaultN, Lx: DefaultL, Ly: DefaultL},
		Dt:         DefaultDt,
		Tfinal:     DefaultTfinal,
		Nu:         DefaultNu,
		IC:         physics.ICSpec{Kind: physics.LambOseen, Pattern: physics.PatternSingle, Vortices: 1},
		Jacobian:   string(dynamo.JacobianArakawa),
		Integrator: "rk4",
		Convergence: ConvergenceConfig{
			Meshes: []int{32, 64, 128},
			QoI:    "max_vorticity",
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base; keys absent from the file keep base's
// values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads VORTSIM_* overrides.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.IC = c.IC.Clone()
	out.Convergence.Meshes = append([]int(nil), c.Convergence.Meshes...)
	out.Sweep.Values = append([]float64(nil), c.Sweep.Values...)
	return &out
}

// SetGrid sets both dimensions to n.
func (c *Config) SetGrid(n int) {
	c.Grid.Nx, c.Grid.Ny = n, n
}

// Build resolves names and returns a validated simulation configuration.
// A zero Ny or Ly falls back to Nx or Lx.
func (c *Config) Build() (dynamo.SimulationConfig, error) {
	ic := c.IC.Clone()
	kind, err := physics.ParseKind(string(ic.Kind))
	if err != nil {
		return dynamo.SimulationConfig{}, &dynamo.Error{Code: dynamo.CodeInvalidConfig, Op: "config.build", Err: err}
	}
	ic.Kind = kind
	if ic.Pattern != "" {
		p, err := physics.ParsePattern(string(ic.Pattern))
		if err != nil {
			return dynamo.SimulationConfig{}, &dynamo.Error{Code: dynamo.CodeInvalidConfig, Op: "config.build", Err: err}
		}
		ic.Pattern = p
	}

	g := c.Grid
	if g.Ny == 0 {
		g.Ny = g.Nx
	}
	if g.Ly == 0 {
		g.Ly = g.Lx
	}

	sc := dynamo.SimulationConfig{
		Nx:         g.Nx,
		Ny:         g.Ny,
		Lx:         g.Lx,
		Ly:         g.Ly,
		Dt:         c.Dt,
		Tfinal:     c.Tfinal,
		Nu:         c.Nu,
		IC:         ic,
		Jacobian:   dynamo.JacobianScheme(c.Jacobian),
		Integrator: c.Integrator,
	}
	if err := sc.Validate(); err != nil {
		return dynamo.SimulationConfig{}, err
	}
	return sc, nil
}

// Package method defines the capability contract shared by every numerical
// method and resolves method names to implementations.
//
// The set of variants is closed: finite difference is fully implemented,
// spectral and finite volume are stubs that fail every call with
// [dynamo.ErrNotImplemented] so orchestration never silently falls back to
// another method.
package method

import (
	"fmt"
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/fd"
)

// Method is the capability set of a numerical method. Implementations own
// the SimulationState between calls; Diagnostics must not mutate it.
type Method interface {
	Name() string
	Initialize(cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error)
	Advance(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error)
	Diagnostics(state *dynamo.SimulationState, cfg dynamo.SimulationConfig) (dynamo.Diagnostics, error)
}

// Kind identifies a method variant.
type Kind string

const (
	FiniteDifference Kind = "fd"
	Spectral         Kind = "spectral"
	FiniteVolume     Kind = "fv"
)

var aliases = map[string]Kind{
	"fd":               FiniteDifference,
	"finitedifference": FiniteDifference,
	"finitediff":       FiniteDifference,
	"spectral":         Spectral,
	"fft":              Spectral,
	"pseudospectral":   Spectral,
	"fv":               FiniteVolume,
	"finitevolume":     FiniteVolume,
	"fvm":              FiniteVolume,
}

// Kinds lists every variant in display order.
func Kinds() []Kind { return []Kind{FiniteDifference, Spectral, FiniteVolume} }

func (k Kind) String() string { return string(k) }

// Label is the human-readable method name.
func (k Kind) Label() string {
	switch k {
	case FiniteDifference:
		return "Finite Difference"
	case Spectral:
		return "Spectral"
	case FiniteVolume:
		return "Finite Volume"
	}
	return string(k)
}

// Parse resolves a method name case-insensitively, ignoring separators.
func Parse(name string) (Kind, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return "", dynamo.Invalidf("method.parse", "unknown method %q (want one of fd, spectral, fv)", name)
}

// New returns the capability object for k.
func New(k Kind) (Method, error) {
	switch k {
	case FiniteDifference:
		return fd.New(), nil
	case Spectral, FiniteVolume:
		return &stub{kind: k}, nil
	}
	return nil, dynamo.Invalidf("method.new", "unknown method kind %q", string(k))
}

// Resolve parses name and returns its capability object.
func Resolve(name string) (Method, error) {
	k, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return New(k)
}

// Implemented reports whether k has a working solver.
func Implemented(k Kind) bool { return k == FiniteDifference }

// stub is a method variant without a solver. Every call fails.
type stub struct {
	kind Kind
}

func (s *stub) Name() string { return string(s.kind) }

func (s *stub) Initialize(dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	return nil, dynamo.NotImplemented(s.Name(), "initialize")
}

func (s *stub) Advance(*dynamo.SimulationState, dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	return nil, dynamo.NotImplemented(s.Name(), "advance")
}

func (s *stub) Diagnostics(*dynamo.SimulationState, dynamo.SimulationConfig) (dynamo.Diagnostics, error) {
	return dynamo.Diagnostics{}, dynamo.NotImplemented(s.Name(), "diagnostics")
}

func (s *stub) String() string { return fmt.Sprintf("%s (not implemented)", s.kind.Label()) }

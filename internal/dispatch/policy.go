// Package dispatch resolves a (method, mode) request against the
// compatibility policy and hands it to the matching run mode.
package dispatch

import (
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
)

var modeAliases = map[string]dynamo.Mode{
	"evolution":       dynamo.ModeEvolution,
	"evolve":          dynamo.ModeEvolution,
	"run":             dynamo.ModeEvolution,
	"single":          dynamo.ModeEvolution,
	"convergence":     dynamo.ModeConvergence,
	"converge":        dynamo.ModeConvergence,
	"gridconvergence": dynamo.ModeConvergence,
	"refinement":      dynamo.ModeConvergence,
	"parametersweep":  dynamo.ModeParameterSweep,
	"sweep":           dynamo.ModeParameterSweep,
	"plotting":        dynamo.ModePlotting,
	"plot":            dynamo.ModePlotting,
	"plots":           dynamo.ModePlotting,
	"visualize":       dynamo.ModePlotting,
}

// Modes lists the run modes in display order.
func Modes() []dynamo.Mode {
	return []dynamo.Mode{dynamo.ModeEvolution, dynamo.ModeConvergence, dynamo.ModeParameterSweep, dynamo.ModePlotting}
}

// ParseMode resolves a run-mode name case-insensitively, ignoring separators.
func ParseMode(name string) (dynamo.Mode, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	return "", dynamo.Invalidf("dispatch.parse_mode", "unknown run mode %q", name)
}

// Support classifies a (method, mode) pair.
type Support int

const (
	Blocked Support = iota
	Experimental
	Supported
)

func (s Support) String() string {
	switch s {
	case Supported:
		return "supported"
	case Experimental:
		return "experimental"
	}
	return "blocked"
}

// Policy maps method and mode to a support level. Pairs missing from the
// table are blocked.
type Policy map[method.Kind]map[dynamo.Mode]Support

// DefaultPolicy allows everything for finite difference, lets the stub
// methods through as experimental where a failure is harmless, and blocks
// finite-volume studies outright.
func DefaultPolicy() Policy {
	return Policy{
		method.FiniteDifference: {
			dynamo.ModeEvolution:      Supported,
			dynamo.ModeConvergence:    Supported,
			dynamo.ModeParameterSweep: Supported,
			dynamo.ModePlotting:       Supported,
		},
		method.Spectral: {
			dynamo.ModeEvolution:      Experimental,
			dynamo.ModeConvergence:    Experimental,
			dynamo.ModeParameterSweep: Experimental,
			dynamo.ModePlotting:       Supported,
		},
		method.FiniteVolume: {
			dynamo.ModeEvolution:      Experimental,
			dynamo.ModeConvergence:    Blocked,
			dynamo.ModeParameterSweep: Blocked,
			dynamo.ModePlotting:       Supported,
		},
	}
}

// Check returns the support level of (k, mode).
func (p Policy) Check(k method.Kind, mode dynamo.Mode) Support {
	if mode == dynamo.ModePlotting {
		return Supported
	}
	if byMode, ok := p[k]; ok {
		if s, ok := byMode[mode]; ok {
			return s
		}
	}
	return Blocked
}

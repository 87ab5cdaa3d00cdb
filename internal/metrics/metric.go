// Package metrics reduces a stream of diagnostics records into scalar
// quantities of interest.
package metrics

import (
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// Metric accumulates diagnostics records into a single value.
type Metric interface {
	Name() string
	Observe(d dynamo.Diagnostics)
	Value() float64
	Reset()
}

// QoI names a scalar extracted from an evolution run.
type QoI string

const (
	MaxVorticity QoI = "max_vorticity"
	Energy       QoI = "energy"
	Enstrophy    QoI = "enstrophy"
)

// QoIs lists the supported quantities.
func QoIs() []QoI { return []QoI{MaxVorticity, Energy, Enstrophy} }

// ParseQoI resolves a quantity name. "max_omega" and "vorticity" are accepted
// for MaxVorticity.
func ParseQoI(name string) (QoI, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "max_vorticity", "maxvorticity", "max_omega", "vorticity":
		return MaxVorticity, nil
	case "energy", "kinetic_energy", "ke":
		return Energy, nil
	case "enstrophy":
		return Enstrophy, nil
	}
	return "", dynamo.Invalidf("metrics.qoi", "unknown quantity of interest %q", name)
}

// New returns a fresh Metric computing q.
func (q QoI) New() Metric {
	switch q {
	case Energy:
		return NewFinalEnergy()
	case Enstrophy:
		return NewFinalEnstrophy()
	}
	return NewPeakVorticity()
}

// Extract reduces series to q. An empty series yields NaN.
func Extract(q QoI, series []dynamo.Diagnostics) float64 {
	return Reduce(q.New(), series)
}

// Reduce feeds series through m from a clean state and returns its value.
func Reduce(m Metric, series []dynamo.Diagnostics) float64 {
	m.Reset()
	for _, d := range series {
		m.Observe(d)
	}
	return m.Value()
}

// Set observes several metrics at once.
type Set []Metric

func (s Set) Observe(d dynamo.Diagnostics) {
	for _, m := range s {
		m.Observe(d)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Values returns every metric value keyed by name. A Stability tracker
// also reports its peak CFL number as "max_cfl".
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
		if st, ok := m.(*Stability); ok {
			out["max_cfl"] = st.MaxCFL()
		}
	}
	return out
}

package metrics

import (
	"math"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// Final keeps the last observed value of one diagnostics field.
type Final struct {
	name    string
	pick    func(dynamo.Diagnostics) float64
	last    float64
	samples int
}

func NewFinalEnergy() *Final {
	return &Final{name: string(Energy), pick: func(d dynamo.Diagnostics) float64 { return d.Energy }}
}

func NewFinalEnstrophy() *Final {
	return &Final{name: string(Enstrophy), pick: func(d dynamo.Diagnostics) float64 { return d.Enstrophy }}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(d dynamo.Diagnostics) {
	f.last = f.pick(d)
	f.samples++
}

func (f *Final) Value() float64 {
	if f.samples == 0 {
		return math.NaN()
	}
	return f.last
}

func (f *Final) Reset() {
	f.last = 0
	f.samples = 0
}

// Drift is the largest relative change of a conserved quantity from its
// first observed value.
type Drift struct {
	name     string
	pick     func(dynamo.Diagnostics) float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *Drift {
	return &Drift{name: "energy_drift", pick: func(d dynamo.Diagnostics) float64 { return d.Energy }}
}

func NewEnstrophyDrift() *Drift {
	return &Drift{name: "enstrophy_drift", pick: func(d dynamo.Diagnostics) float64 { return d.Enstrophy }}
}

func (e *Drift) Name() string { return e.name }

func (e *Drift) Observe(d dynamo.Diagnostics) {
	v := e.pick(d)
	if e.samples == 0 {
		e.initial = v
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(v-e.initial) / math.Abs(e.initial)
		if math.IsNaN(drift) {
			e.maxDrift = math.NaN()
			return
		}
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *Drift) Value() float64 { return e.maxDrift }

func (e *Drift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

package metrics

import (
	"math"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// PeakVorticity is the largest max|ω| seen over a run. A non-finite record
// poisons the value so instability is not hidden.
type PeakVorticity struct {
	name    string
	peak    float64
	samples int
}

func NewPeakVorticity() *PeakVorticity {
	return &PeakVorticity{name: string(MaxVorticity)}
}

func (p *PeakVorticity) Name() string { return p.name }

func (p *PeakVorticity) Observe(d dynamo.Diagnostics) {
	v := d.MaxVorticity
	if p.samples == 0 || math.IsNaN(v) || v > p.peak {
		p.peak = v
	}
	p.samples++
}

func (p *PeakVorticity) Value() float64 {
	if p.samples == 0 {
		return math.NaN()
	}
	return p.peak
}

func (p *PeakVorticity) Reset() {
	p.peak = 0
	p.samples = 0
}

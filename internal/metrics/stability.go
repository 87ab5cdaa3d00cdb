package metrics

import (
	"math"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// Stability is the fraction of records that are finite and whose CFL number
// stays at or below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	maxCFL     float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(d dynamo.Diagnostics) {
	s.samples++
	if !d.IsFinite() || d.CFL > s.threshold {
		s.violations++
	}
	if d.CFL > s.maxCFL || math.IsNaN(d.CFL) {
		s.maxCFL = d.CFL
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// MaxCFL is the largest CFL number observed.
func (s *Stability) MaxCFL() float64 { return s.maxCFL }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.maxCFL = 0
}

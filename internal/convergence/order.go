// Package convergence estimates the observed order of accuracy from a
// grid-refinement study.
package convergence

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/vortsim/internal/dynamo"
)

var (
	ErrTooFewSamples = errors.New("convergence: at least two samples are required")
	ErrInvalidSample = errors.New("convergence: sample has non-positive spacing or zero/non-finite quantity")
	ErrDegenerate    = errors.New("convergence: all samples share the same spacing")
)

// Point is one (spacing, quantity) pair.
type Point struct {
	H   float64
	QoI float64
}

// Fit is the least-squares line through (ln h, ln |QoI|). Order is its slope.
type Fit struct {
	Order     float64 `json:"order"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	Samples   int     `json:"samples"`
}

func failed(n int) Fit {
	return Fit{Order: math.NaN(), Intercept: math.NaN(), R2: math.NaN(), Samples: n}
}

// FromSamples converts convergence samples into fit points.
func FromSamples(samples []dynamo.ConvergenceSample) []Point {
	out := make([]Point, len(samples))
	for i, s := range samples {
		out[i] = Point{H: s.H, QoI: s.QoI}
	}
	return out
}

// EstimateOrder fits ln|QoI| = c + p·ln h over all samples. The returned Fit
// has a NaN Order whenever err is non-nil.
func EstimateOrder(samples []Point) (Fit, error) {
	n := len(samples)
	if n < 2 {
		return failed(n), fmt.Errorf("%w (got %d)", ErrTooFewSamples, n)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range samples {
		q := math.Abs(s.QoI)
		if !(s.H > 0) || math.IsInf(s.H, 0) || q == 0 || math.IsNaN(q) || math.IsInf(q, 0) {
			return failed(n), fmt.Errorf("%w: sample %d (h=%g, qoi=%g)", ErrInvalidSample, i, s.H, s.QoI)
		}
		xs[i] = math.Log(s.H)
		ys[i] = math.Log(q)
	}

	if floats.Min(xs) == floats.Max(xs) {
		return failed(n), ErrDegenerate
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	return Fit{Order: beta, Intercept: alpha, R2: r2, Samples: n}, nil
}

// PairwiseOrders returns the observed order between each consecutive pair of
// samples, in input order. Invalid pairs yield NaN.
func PairwiseOrders(samples []Point) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		num := math.Log(math.Abs(a.QoI) / math.Abs(b.QoI))
		den := math.Log(a.H / b.H)
		if den == 0 || !(a.H > 0) || !(b.H > 0) {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = num / den
	}
	return out
}

// Richardson extrapolates two solutions at refinement ratio r = h_coarse/h_fine
// assuming order p.
func Richardson(fine, coarse, ratio, order float64) float64 {
	f := math.Pow(ratio, order)
	if f == 1 {
		return math.NaN()
	}
	return fine + (fine-coarse)/(f-1)
}

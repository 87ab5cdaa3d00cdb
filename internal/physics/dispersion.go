package physics

import (
	"fmt"
	"math"
	"math/rand"
)

// Pattern arranges several vortices in the domain.
type Pattern string

const (
	PatternSingle   Pattern = "single"
	PatternCircular Pattern = "circular"
	PatternGrid     Pattern = "grid"
	PatternRandom   Pattern = "random"
)

const maxPlacementAttempts = 10000

type Point struct {
	X, Y float64
}

func ParsePattern(name string) (Pattern, error) {
	switch normalizeName(name) {
	case "", "single":
		return PatternSingle, nil
	case "circular", "circle", "ring":
		return PatternCircular, nil
	case "grid", "lattice":
		return PatternGrid, nil
	case "random", "scattered":
		return PatternRandom, nil
	}
	return "", fmt.Errorf("unknown dispersion pattern %q", name)
}

// Disperse returns n vortex centres in a lx×ly domain centred on the origin.
// minDist applies to the random pattern only; zero selects max(lx, ly)/10.
func Disperse(n int, pattern Pattern, lx, ly, minDist float64, rng *rand.Rand) []Point {
	if n < 1 {
		n = 1
	}
	if n == 1 || pattern == PatternSingle {
		return []Point{{0, 0}}
	}

	switch pattern {
	case PatternCircular:
		radius := math.Min(lx, ly) / 4
		pts := make([]Point, n)
		for i := range pts {
			theta := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = Point{radius * math.Cos(theta), radius * math.Sin(theta)}
		}
		return pts

	case PatternRandom:
		if minDist <= 0 {
			minDist = math.Max(lx, ly) / 10
		}
		pts := make([]Point, 0, n)
		for len(pts) < n {
			placed := false
			for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
				p := Point{(rng.Float64() - 0.5) * lx * 0.9, (rng.Float64() - 0.5) * ly * 0.9}
				if farEnough(p, pts, minDist) {
					pts = append(pts, p)
					placed = true
					break
				}
			}
			if !placed {
				// domain too crowded for the requested separation
				break
			}
		}
		return pts

	default:
		cols := int(math.Ceil(math.Sqrt(float64(n))))
		rows := (n + cols - 1) / cols
		sx := lx / float64(cols+1)
		sy := ly / float64(rows+1)
		pts := make([]Point, 0, n)
		for r := 0; r < rows && len(pts) < n; r++ {
			for c := 0; c < cols && len(pts) < n; c++ {
				pts = append(pts, Point{float64(c+1)*sx - lx/2, float64(r+1)*sy - ly/2})
			}
		}
		return pts
	}
}

func farEnough(p Point, pts []Point, minDist float64) bool {
	for _, q := range pts {
		if math.Hypot(p.X-q.X, p.Y-q.Y) < minDist {
			return false
		}
	}
	return true
}

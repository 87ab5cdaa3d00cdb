package fd

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// MinGridSize is the smallest grid dimension the periodic stencils accept.
const MinGridSize = 4

// Grid holds the read-only geometry of one resolution.
type Grid struct {
	Nx, Ny int
	Lx, Ly float64
	Dx, Dy float64
	X, Y   []float64

	// eig[j][i] is the five-point Laplacian eigenvalue of Fourier mode (i, j).
	eig [][]float64
}

type gridKey struct {
	nx, ny int
	lx, ly float64
}

// GridCacheSize bounds how many resolutions stay cached between runs. A
// running state keeps its own grid alive after eviction.
const GridCacheSize = 16

var (
	gridMu    sync.Mutex
	gridCache = newGridCache(GridCacheSize)
)

func newGridCache(size int) *lru.Cache[gridKey, *Grid] {
	c, err := lru.New[gridKey, *Grid](size)
	if err != nil {
		panic(err)
	}
	return c
}

// GridFor returns the shared grid for cfg, building it on first use.
func GridFor(cfg dynamo.SimulationConfig) (*Grid, error) {
	if cfg.Nx < MinGridSize || cfg.Ny < MinGridSize {
		return nil, dynamo.Invalidf("fd.grid", "grid must be at least %dx%d, got %dx%d", MinGridSize, MinGridSize, cfg.Nx, cfg.Ny)
	}
	key := gridKey{cfg.Nx, cfg.Ny, cfg.Lx, cfg.Ly}

	gridMu.Lock()
	defer gridMu.Unlock()
	if g, ok := gridCache.Get(key); ok {
		return g, nil
	}
	g := newGrid(cfg.Nx, cfg.Ny, cfg.Lx, cfg.Ly)
	gridCache.Add(key, g)
	return g, nil
}

func newGrid(nx, ny int, lx, ly float64) *Grid {
	g := &Grid{
		Nx: nx, Ny: ny, Lx: lx, Ly: ly,
		Dx: lx / float64(nx),
		Dy: ly / float64(ny),
		X:  make([]float64, nx),
		Y:  make([]float64, ny),
	}
	floats.Span(g.X, -lx/2, lx/2-g.Dx)
	floats.Span(g.Y, -ly/2, ly/2-g.Dy)

	g.eig = make([][]float64, ny)
	for j := range g.eig {
		g.eig[j] = make([]float64, nx)
		ey := (2*math.Cos(2*math.Pi*float64(j)/float64(ny)) - 2) / (g.Dy * g.Dy)
		for i := range g.eig[j] {
			ex := (2*math.Cos(2*math.Pi*float64(i)/float64(nx)) - 2) / (g.Dx * g.Dx)
			g.eig[j][i] = ex + ey
		}
	}
	return g
}

func (g *Grid) Size() int { return g.Nx * g.Ny }

// CellArea is dx·dy.
func (g *Grid) CellArea() float64 { return g.Dx * g.Dy }

func (g *Grid) idx(j, i int) int { return j*g.Nx + i }

func (g *Grid) up(j int) int    { return (j + 1) % g.Ny }
func (g *Grid) down(j int) int  { return (j - 1 + g.Ny) % g.Ny }
func (g *Grid) right(i int) int { return (i + 1) % g.Nx }
func (g *Grid) left(i int) int  { return (i - 1 + g.Nx) % g.Nx }

// rows runs fn over the grid rows, in parallel for large grids.
func (g *Grid) rows(fn func(j int)) {
	dynamo.ParallelFor(g.Ny, 32, func(start, end int) {
		for j := start; j < end; j++ {
			fn(j)
		}
	})
}

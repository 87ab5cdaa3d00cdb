package modes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/convergence"
	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
)

// ConvergenceOptions describes a grid-refinement study.
type ConvergenceOptions struct {
	RunID  string
	Meshes []int
	QoI    metrics.QoI

	// KeepAspect scales Ny by Ly/Lx instead of using a square grid.
	KeepAspect bool

	// Saver stores the sample table when RunContext.SaveData is set.
	Saver Saver
}

// MeshFailure records a mesh whose simulation did not complete.
type MeshFailure struct {
	N   int   `json:"n"`
	Err error `json:"-"`
}

// ConvergenceResult holds the successful samples in ascending N order and
// the fitted order. Order is NaN when fewer than two meshes succeeded.
type ConvergenceResult struct {
	Lifecycle

	RunID    string                     `json:"run_id"`
	Method   string                     `json:"method"`
	QoI      metrics.QoI                `json:"qoi"`
	Samples  []dynamo.ConvergenceSample `json:"samples"`
	Failures []MeshFailure              `json:"failures,omitempty"`
	Fit      convergence.Fit            `json:"fit"`
	Pairwise []float64                  `json:"pairwise"`

	// Extrapolated is the Richardson estimate of the QoI from the two
	// finest meshes at the fitted order. NaN when the fit failed.
	Extrapolated float64 `json:"extrapolated"`
	Wall     time.Duration              `json:"wall"`
}

// Order is the fitted observed order of accuracy.
func (r *ConvergenceResult) Order() float64 { return r.Fit.Order }

// RunConvergence runs one evolution per mesh size and fits the order of the
// chosen quantity against grid spacing. Meshes run on rc.Workers goroutines;
// a failing mesh leaves the others intact.
func RunConvergence(ctx context.Context, m method.Method, cfg dynamo.SimulationConfig, rc dynamo.RunContext, opts ConvergenceOptions) (*ConvergenceResult, error) {
	const op = "convergence"
	start := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := rc.Log().With(zap.String("mode", string(dynamo.ModeConvergence)), zap.String("run_id", runID))
	res := &ConvergenceResult{Lifecycle: newLifecycle(log), RunID: runID, Fit: convergence.Fit{Order: math.NaN()}}

	if m == nil {
		return res, res.fail(dynamo.Invalidf(op, "no method supplied"))
	}
	res.Method = m.Name()

	q := opts.QoI
	if q == "" {
		q = metrics.MaxVorticity
	}
	if _, err := metrics.ParseQoI(string(q)); err != nil {
		return res, res.fail(err)
	}
	res.QoI = q

	meshes, err := normalizeMeshes(opts.Meshes)
	if err != nil {
		return res, res.fail(err)
	}
	configs := make([]dynamo.SimulationConfig, len(meshes))
	for i, n := range meshes {
		configs[i] = meshConfig(cfg, n, opts.KeepAspect)
		if err := configs[i].Validate(); err != nil {
			return res, res.fail(err)
		}
	}

	res.enter(Running)
	log.Info("convergence study started", zap.Ints("meshes", meshes), zap.String("qoi", string(q)), zap.Int("workers", rc.Workers))

	samples := make([]dynamo.ConvergenceSample, len(meshes))
	inner := childContext(rc)
	errs := dynamo.NewPool(rc.Workers).Run(ctx, len(meshes), func(ctx context.Context, i int) error {
		sub := inner
		sub.Logger = log.With(zap.Int("mesh", meshes[i]))
		ev, err := RunEvolution(ctx, m, configs[i], sub, EvolutionOptions{
			RunID:   fmt.Sprintf("%s-n%d", runID, meshes[i]),
			Metrics: metrics.Set{},
		})
		if err != nil {
			return err
		}
		samples[i] = dynamo.ConvergenceSample{
			N:    meshes[i],
			H:    configs[i].Lx / float64(meshes[i]),
			QoI:  metrics.Extract(q, ev.Series),
			Wall: ev.Wall,
		}
		return nil
	})

	res.enter(Reducing)
	for i, err := range errs {
		if err != nil {
			res.Failures = append(res.Failures, MeshFailure{N: meshes[i], Err: err})
			continue
		}
		res.Samples = append(res.Samples, samples[i])
	}

	pts := convergence.FromSamples(res.Samples)
	res.Pairwise = convergence.PairwiseOrders(pts)
	fit, fitErr := convergence.EstimateOrder(pts)
	res.Fit = fit
	res.Extrapolated = extrapolate(res.Samples, fit, fitErr)
	res.Wall = time.Since(start)

	if len(res.Failures) > 0 {
		joined := make([]error, 0, len(res.Failures)+1)
		for _, f := range res.Failures {
			joined = append(joined, fmt.Errorf("mesh %d: %w", f.N, f.Err))
		}
		if fitErr != nil {
			joined = append(joined, fitErr)
		}
		return res, res.fail(errors.Join(joined...))
	}
	if fitErr != nil {
		return res, res.fail(fitErr)
	}

	if rc.SaveData && opts.Saver != nil {
		if err := opts.Saver.SaveConvergence(res.RunID, res.Samples); err != nil {
			return res, res.fail(fmt.Errorf("save convergence %s: %w", res.RunID, err))
		}
	}

	res.enter(Done)
	log.Info("convergence study finished",
		zap.Float64("order", res.Fit.Order),
		zap.Float64("r2", res.Fit.R2),
		zap.Duration("wall", res.Wall))
	return res, nil
}

func extrapolate(samples []dynamo.ConvergenceSample, fit convergence.Fit, fitErr error) float64 {
	n := len(samples)
	if fitErr != nil || n < 2 {
		return math.NaN()
	}
	fine, coarse := samples[n-1], samples[n-2]
	return convergence.Richardson(fine.QoI, coarse.QoI, coarse.H/fine.H, fit.Order)
}

// normalizeMeshes sorts ascending and drops duplicates. At least two distinct
// positive sizes are required.
func normalizeMeshes(in []int) ([]int, error) {
	const op = "convergence.validate"
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if n <= 0 {
			return nil, dynamo.Invalidf(op, "mesh sizes must be positive, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) < 2 {
		return nil, dynamo.Invalidf(op, "at least two distinct mesh sizes are required, got %v", in)
	}
	sort.Ints(out)
	return out, nil
}

func meshConfig(base dynamo.SimulationConfig, n int, keepAspect bool) dynamo.SimulationConfig {
	cfg := base.Clone()
	cfg.Nx, cfg.Ny = n, n
	if keepAspect && base.Lx > 0 {
		cfg.Ny = int(math.Max(1, math.Round(float64(n)*base.Ly/base.Lx)))
	}
	return cfg
}

// childContext strips the settings that belong to the outer study. Inner runs
// never persist on their own, and per-step progress is only forwarded when
// the study runs on the caller's goroutine.
func childContext(rc dynamo.RunContext) dynamo.RunContext {
	sub := rc
	sub.SaveData = false
	sub.SaveFigures = false
	sub.SaveReports = false
	if rc.Workers > 1 {
		sub.Progress = nil
	}
	return sub
}

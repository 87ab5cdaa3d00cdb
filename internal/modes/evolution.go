package modes

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
)

// Saver persists finished runs.
type Saver interface {
	Save(rec *dynamo.RunRecord) error
	SaveConvergence(runID string, samples []dynamo.ConvergenceSample) error
}

// EvolutionOptions tunes a single evolution run.
type EvolutionOptions struct {
	// RunID overrides the generated identifier.
	RunID string

	// SnapshotTimes lists the simulation times at which full fields are kept.
	// Each time maps to the nearest step; duplicates collapse.
	SnapshotTimes []float64

	// AbortOnNonFinite stops the run at the first NaN or Inf diagnostic.
	// By default non-finite values propagate into the series.
	AbortOnNonFinite bool

	// Metrics are fed every diagnostics record. Nil selects DefaultMetrics.
	Metrics metrics.Set

	// Saver stores the run when RunContext.SaveData is set.
	Saver Saver
}

// DefaultMetrics is the reduction set attached to an evolution result.
func DefaultMetrics() metrics.Set {
	return metrics.Set{
		metrics.NewPeakVorticity(),
		metrics.NewEnergyDrift(),
		metrics.NewEnstrophyDrift(),
		metrics.NewStability(1.0),
	}
}

// EvolutionResult is the outcome of one run. On failure it holds everything
// recorded up to the failing step.
type EvolutionResult struct {
	Lifecycle

	RunID     string                  `json:"run_id"`
	Method    string                  `json:"method"`
	Config    dynamo.SimulationConfig `json:"config"`
	Steps     int                     `json:"steps"`
	FinalTime float64                 `json:"final_time"`
	Final     dynamo.Diagnostics      `json:"final"`
	Metrics   map[string]float64      `json:"metrics"`
	Wall      time.Duration           `json:"wall"`

	Series    []dynamo.Diagnostics `json:"-"`
	Snapshots []dynamo.Snapshot    `json:"-"`
}

// Record converts the result into its persisted form.
func (r *EvolutionResult) Record() *dynamo.RunRecord {
	return &dynamo.RunRecord{
		RunID:     r.RunID,
		Mode:      dynamo.ModeEvolution,
		Method:    r.Method,
		Config:    r.Config,
		Final:     r.Final,
		Wall:      r.Wall,
		CreatedAt: time.Now(),
		Series:    r.Series,
		Snapshots: r.Snapshots,
	}
}

// RunEvolution drives m from t=0 to cfg.Tfinal, recording diagnostics at
// t=0 and after every step. Cancellation is polled once per step through ctx
// and rc.Cancel; a step in progress is never interrupted.
func RunEvolution(ctx context.Context, m method.Method, cfg dynamo.SimulationConfig, rc dynamo.RunContext, opts EvolutionOptions) (*EvolutionResult, error) {
	const op = "evolution"
	start := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := rc.Log().With(zap.String("mode", string(dynamo.ModeEvolution)), zap.String("run_id", runID))
	res := &EvolutionResult{Lifecycle: newLifecycle(log), RunID: runID, Config: cfg}

	if m == nil {
		return res, res.fail(dynamo.Invalidf(op, "no method supplied"))
	}
	res.Method = m.Name()
	log = log.With(zap.String("method", res.Method))

	if err := cfg.Validate(); err != nil {
		return res, res.fail(err)
	}
	steps := cfg.Steps()
	plan, err := planSnapshots(opts.SnapshotTimes, cfg.Dt, steps)
	if err != nil {
		return res, res.fail(err)
	}
	res.Steps = steps

	res.enter(Running)
	log.Info("evolution started",
		zap.Int("nx", cfg.Nx), zap.Int("ny", cfg.Ny),
		zap.Float64("dt", cfg.Dt), zap.Float64("tfinal", cfg.Tfinal),
		zap.Int("steps", steps))

	set := opts.Metrics
	if set == nil {
		set = DefaultMetrics()
	}
	set.Reset()

	res.Series = make([]dynamo.Diagnostics, 0, steps+1)
	record := func(st *dynamo.SimulationState) error {
		d, err := m.Diagnostics(st, cfg)
		if err != nil {
			return err
		}
		res.Series = append(res.Series, d)
		set.Observe(d)
		if plan[st.Step] {
			res.Snapshots = append(res.Snapshots, dynamo.Snapshot{
				Time:  st.T,
				Step:  st.Step,
				Omega: st.Omega.Clone(),
				Psi:   st.Psi.Clone(),
			})
		}
		if opts.AbortOnNonFinite && !d.IsFinite() {
			return &dynamo.Error{
				Code:    dynamo.CodeNumericalInstability,
				Op:      op,
				Method:  res.Method,
				Message: "non-finite diagnostics",
				Err:     &dynamo.SimulationError{Step: st.Step, Time: st.T, Wrapped: dynamo.ErrUnstable},
			}
		}
		return nil
	}

	state, err := m.Initialize(cfg)
	if err != nil {
		return res, res.fail(err)
	}
	if err := record(state); err != nil {
		return res, res.fail(err)
	}

	for step := 1; step <= steps; step++ {
		if err := canceled(ctx, rc, op); err != nil {
			res.Wall = time.Since(start)
			return res, res.fail(err)
		}

		nextState, err := m.Advance(state, cfg)
		if err != nil {
			return res, res.fail(&dynamo.SimulationError{Step: step, Time: state.T, Wrapped: err})
		}
		state = nextState

		if err := record(state); err != nil {
			return res, res.fail(err)
		}
		rc.Report(dynamo.Progress{Step: step, Steps: steps, Time: state.T, Diagnostics: res.Series[len(res.Series)-1]})
	}

	res.enter(Reducing)
	res.FinalTime = state.T
	res.Final = res.Series[len(res.Series)-1]
	res.Metrics = set.Values()
	res.Wall = time.Since(start)

	if rc.SaveData && opts.Saver != nil {
		if err := opts.Saver.Save(res.Record()); err != nil {
			return res, res.fail(fmt.Errorf("save run %s: %w", res.RunID, err))
		}
	}

	res.enter(Done)
	log.Info("evolution finished",
		zap.Float64("t", res.FinalTime),
		zap.Float64("max_vorticity", res.Final.MaxVorticity),
		zap.Float64("energy", res.Final.Energy),
		zap.Duration("wall", res.Wall))
	return res, nil
}

func canceled(ctx context.Context, rc dynamo.RunContext, op string) error {
	if err := ctx.Err(); err != nil {
		return &dynamo.Error{Code: dynamo.CodeCanceled, Op: op, Message: "run canceled", Err: err}
	}
	if rc.Canceled() {
		return &dynamo.Error{Code: dynamo.CodeCanceled, Op: op, Message: "run canceled"}
	}
	return nil
}

// planSnapshots maps requested times to step indices by nearest step,
// clamped to [0, steps].
func planSnapshots(times []float64, dt float64, steps int) (map[int]bool, error) {
	plan := make(map[int]bool, len(times))
	for _, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, dynamo.Invalidf("evolution.snapshots", "snapshot time must be finite, got %g", t)
		}
		k := math.Min(math.Max(math.Round(t/dt), 0), float64(steps))
		plan[int(k)] = true
	}
	return plan, nil
}

// SnapshotSteps returns the distinct steps planSnapshots would select, sorted.
func SnapshotSteps(times []float64, dt float64, steps int) ([]int, error) {
	plan, err := planSnapshots(times, dt, steps)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(plan))
	for k := range plan {
		out = append(out, k)
	}
	sort.Ints(out)
	return out, nil
}

// EvenlySpaced returns n snapshot times spread over [0, tfinal], both ends
// included when n > 1.
func EvenlySpaced(tfinal float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{tfinal}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = tfinal * float64(i) / float64(n-1)
	}
	return out
}

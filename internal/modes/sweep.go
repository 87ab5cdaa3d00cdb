package modes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
)

// SweepOptions names the swept parameter and its values. Param accepts any
// name understood by SimulationConfig.WithParam.
type SweepOptions struct {
	RunID  string
	Param  string
	Values []float64

	// Saver stores every successful entry as its own run when
	// RunContext.SaveData is set.
	Saver Saver
}

// SweepEntry is the outcome for one parameter value.
type SweepEntry struct {
	Value        float64            `json:"value"`
	RunID        string             `json:"run_id"`
	Final        dynamo.Diagnostics `json:"final"`
	MaxVorticity float64            `json:"max_vorticity"`
	EnergyDrift  float64            `json:"energy_drift"`
	Wall         time.Duration      `json:"wall"`
	Err          error              `json:"-"`
}

// SweepResult lists entries in the order the values were given.
type SweepResult struct {
	Lifecycle

	RunID   string        `json:"run_id"`
	Method  string        `json:"method"`
	Param   string        `json:"param"`
	Entries []SweepEntry  `json:"entries"`
	Wall    time.Duration `json:"wall"`
}

// Failed returns the entries whose run did not complete.
func (r *SweepResult) Failed() []SweepEntry {
	var out []SweepEntry
	for _, e := range r.Entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// RunSweep clones cfg once per value with the parameter substituted and runs
// an evolution for each. Entry i always belongs to Values[i], whether the
// runs execute sequentially or on rc.Workers goroutines.
func RunSweep(ctx context.Context, m method.Method, cfg dynamo.SimulationConfig, rc dynamo.RunContext, opts SweepOptions) (*SweepResult, error) {
	const op = "sweep"
	start := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := rc.Log().With(zap.String("mode", string(dynamo.ModeParameterSweep)), zap.String("run_id", runID))
	res := &SweepResult{Lifecycle: newLifecycle(log), RunID: runID, Param: opts.Param}

	if m == nil {
		return res, res.fail(dynamo.Invalidf(op, "no method supplied"))
	}
	res.Method = m.Name()

	if len(opts.Values) == 0 {
		return res, res.fail(dynamo.Invalidf(op, "no values to sweep over"))
	}
	configs := make([]dynamo.SimulationConfig, len(opts.Values))
	for i, v := range opts.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return res, res.fail(dynamo.Invalidf(op, "sweep value %d is not finite", i))
		}
		c, err := cfg.WithParam(opts.Param, v)
		if err != nil {
			return res, res.fail(err)
		}
		if err := c.Validate(); err != nil {
			return res, res.fail(fmt.Errorf("%s=%g: %w", opts.Param, v, err))
		}
		configs[i] = c
	}

	res.enter(Running)
	log.Info("parameter sweep started", zap.String("param", opts.Param), zap.Float64s("values", opts.Values), zap.Int("workers", rc.Workers))

	res.Entries = make([]SweepEntry, len(opts.Values))
	for i, v := range opts.Values {
		res.Entries[i] = SweepEntry{Value: v, RunID: fmt.Sprintf("%s-%d", runID, i)}
	}

	inner := childContext(rc)
	var saver Saver
	if rc.SaveData {
		saver = opts.Saver
	}
	errs := dynamo.NewPool(rc.Workers).Run(ctx, len(configs), func(ctx context.Context, i int) error {
		sub := inner
		sub.SaveData = saver != nil
		sub.Logger = log.With(zap.Float64(opts.Param, opts.Values[i]))
		ev, err := RunEvolution(ctx, m, configs[i], sub, EvolutionOptions{
			RunID: res.Entries[i].RunID,
			Saver: saver,
		})
		if ev != nil {
			res.Entries[i].Wall = ev.Wall
		}
		if err != nil {
			return err
		}
		res.Entries[i].Final = ev.Final
		res.Entries[i].MaxVorticity = ev.Metrics[string(metrics.MaxVorticity)]
		res.Entries[i].EnergyDrift = ev.Metrics["energy_drift"]
		return nil
	})

	res.enter(Reducing)
	var failed []error
	for i, err := range errs {
		if err != nil {
			res.Entries[i].Err = err
			failed = append(failed, fmt.Errorf("%s=%g: %w", opts.Param, opts.Values[i], err))
		}
	}
	res.Wall = time.Since(start)

	if len(failed) > 0 {
		return res, res.fail(errors.Join(failed...))
	}

	res.enter(Done)
	log.Info("parameter sweep finished", zap.Int("entries", len(res.Entries)), zap.Duration("wall", res.Wall))
	return res, nil
}

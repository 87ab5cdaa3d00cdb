package dispatch

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/modes"
)

// Store persists finished runs and loads them back for plotting.
type Store interface {
	modes.Saver
	modes.Loader
}

// Request is one user invocation. Only the options block matching Mode is
// consulted. RunID names the run to load when plotting and overrides the
// generated identifier otherwise.
type Request struct {
	Method     string
	Mode       string
	Config     dynamo.SimulationConfig
	RunContext dynamo.RunContext
	RunID      string

	Evolution   modes.EvolutionOptions
	Convergence modes.ConvergenceOptions
	Sweep       modes.SweepOptions
}

// Outcome carries the resolved pair and the result of the mode that ran.
type Outcome struct {
	Method       method.Kind
	Mode         dynamo.Mode
	Support      Support
	Experimental bool

	Evolution   *modes.EvolutionResult
	Convergence *modes.ConvergenceResult
	Sweep       *modes.SweepResult
	Plot        *modes.PlotResult
}

// Phase reports the terminal phase of whichever mode ran.
func (o *Outcome) Phase() modes.Phase {
	switch {
	case o.Evolution != nil:
		return o.Evolution.Phase
	case o.Convergence != nil:
		return o.Convergence.Phase
	case o.Sweep != nil:
		return o.Sweep.Phase
	case o.Plot != nil:
		return o.Plot.Phase
	}
	return ""
}

// Dispatcher routes requests to run modes.
type Dispatcher struct {
	// Policy defaults to DefaultPolicy when nil.
	Policy Policy

	// Store backs persistence and plotting. Optional.
	Store Store

	Logger *zap.Logger

	// OnExperimental is called before an experimental pair runs.
	OnExperimental func(k method.Kind, mode dynamo.Mode)
}

// New returns a dispatcher with the default policy.
func New(store Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{Policy: DefaultPolicy(), Store: store, Logger: logger}
}

func (d *Dispatcher) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Resolve parses the request names and checks the policy. Blocked pairs
// return a compatibility error; nothing is executed.
func (d *Dispatcher) Resolve(methodName, modeName string) (method.Kind, dynamo.Mode, Support, error) {
	mode, err := ParseMode(modeName)
	if err != nil {
		return "", "", Blocked, err
	}

	var kind method.Kind
	if mode == dynamo.ModePlotting && methodName == "" {
		kind = method.FiniteDifference
	} else if kind, err = method.Parse(methodName); err != nil {
		return "", mode, Blocked, err
	}

	policy := d.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	support := policy.Check(kind, mode)
	if support == Blocked {
		return kind, mode, support, dynamo.Blocked(string(kind), string(mode))
	}
	return kind, mode, support, nil
}

// Dispatch resolves req and runs it to completion. The mode result is
// returned in the Outcome even when err is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (out *Outcome, err error) {
	ctx, span := otel.Tracer("vortsim/dispatch").Start(ctx, "dispatch.Dispatch",
		trace.WithAttributes(
			attribute.String("method", req.Method),
			attribute.String("mode", req.Mode),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch failed")
		}
		span.End()
	}()

	kind, mode, support, err := d.Resolve(req.Method, req.Mode)
	out = &Outcome{Method: kind, Mode: mode, Support: support}
	if err != nil {
		return out, err
	}
	span.SetAttributes(attribute.String("support", support.String()))

	log := d.log().With(zap.String("method", string(kind)), zap.String("mode", string(mode)))
	if support == Experimental {
		out.Experimental = true
		log.Warn("method is experimental for this mode; results may be unavailable")
		if d.OnExperimental != nil {
			d.OnExperimental(kind, mode)
		}
	}

	rc := req.RunContext
	rc.Mode = mode
	if rc.Logger == nil {
		rc.Logger = d.Logger
	}

	if mode == dynamo.ModePlotting {
		var loader modes.Loader
		if d.Store != nil {
			loader = d.Store
		}
		out.Plot, err = modes.RunPlotting(ctx, loader, req.RunID, rc)
		return out, err
	}

	m, err := method.New(kind)
	if err != nil {
		return out, err
	}
	log.Debug("dispatching", zap.Int("nx", req.Config.Nx), zap.Int("ny", req.Config.Ny))

	switch mode {
	case dynamo.ModeEvolution:
		opts := req.Evolution
		if opts.RunID == "" {
			opts.RunID = req.RunID
		}
		if opts.Saver == nil && d.Store != nil {
			opts.Saver = d.Store
		}
		out.Evolution, err = modes.RunEvolution(ctx, m, req.Config, rc, opts)
	case dynamo.ModeConvergence:
		opts := req.Convergence
		if opts.RunID == "" {
			opts.RunID = req.RunID
		}
		if opts.Saver == nil && d.Store != nil {
			opts.Saver = d.Store
		}
		out.Convergence, err = modes.RunConvergence(ctx, m, req.Config, rc, opts)
	case dynamo.ModeParameterSweep:
		opts := req.Sweep
		if opts.RunID == "" {
			opts.RunID = req.RunID
		}
		if opts.Saver == nil && d.Store != nil {
			opts.Saver = d.Store
		}
		out.Sweep, err = modes.RunSweep(ctx, m, req.Config, rc, opts)
	default:
		err = fmt.Errorf("dispatch: no runner for mode %q", mode)
	}
	return out, err
}

package modes

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// Loader locates a stored run by identifier.
type Loader interface {
	Load(runID string) (*dynamo.RunRecord, error)
}

// PlotResult carries a loaded run for the rendering layer.
type PlotResult struct {
	Lifecycle

	Record *dynamo.RunRecord `json:"record"`
}

// RunPlotting resolves runID through loader. No solver is involved.
func RunPlotting(ctx context.Context, loader Loader, runID string, rc dynamo.RunContext) (*PlotResult, error) {
	const op = "plotting"
	log := rc.Log().With(zap.String("mode", string(dynamo.ModePlotting)), zap.String("run_id", runID))
	res := &PlotResult{Lifecycle: newLifecycle(log)}

	switch {
	case loader == nil:
		return res, res.fail(dynamo.Invalidf(op, "no run store configured"))
	case strings.TrimSpace(runID) == "":
		return res, res.fail(dynamo.Invalidf(op, "run id is required"))
	}

	res.enter(Running)
	if err := canceled(ctx, rc, op); err != nil {
		return res, res.fail(err)
	}
	rec, err := loader.Load(runID)
	if err != nil {
		return res, res.fail(err)
	}

	res.enter(Reducing)
	res.Record = rec
	res.enter(Done)
	log.Debug("run loaded", zap.Int("records", len(rec.Series)), zap.Int("snapshots", len(rec.Snapshots)))
	return res, nil
}

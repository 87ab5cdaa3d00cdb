package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/vortsim/internal/analysis"
	"github.com/san-kum/vortsim/internal/config"
	"github.com/san-kum/vortsim/internal/dispatch"
	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/export"
	"github.com/san-kum/vortsim/internal/fd"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
	"github.com/san-kum/vortsim/internal/modes"
	"github.com/san-kum/vortsim/internal/storage"
	"github.com/san-kum/vortsim/internal/tui"
)

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.Build()
	if err != nil {
		return err
	}

	n := cfg.Snapshots
	if cmd.Flags().Changed("snapshot") {
		n = snapshots
	}

	req := dispatch.Request{
		Method:     cfg.Method,
		Mode:       string(dynamo.ModeEvolution),
		Config:     sc,
		RunContext: runContext(!noSave),
		Evolution: modes.EvolutionOptions{
			SnapshotTimes:    modes.EvenlySpaced(sc.Tfinal, n),
			AbortOnNonFinite: abortNaN,
		},
	}
	req.RunContext.Mode = dynamo.ModeEvolution

	d := newDispatcher()
	var out *dispatch.Outcome
	if live {
		// keep the log out of the alt screen
		d.Logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
		req.RunContext.Logger = d.Logger
		title := fmt.Sprintf("%s  %s  %dx%d", cfg.Method, sc.IC.Kind, sc.Nx, sc.Ny)
		err = tui.RunLive(title, func(report dynamo.ProgressFunc, cancel <-chan struct{}) error {
			req.RunContext.Progress = report
			req.RunContext.Cancel = cancel
			var derr error
			out, derr = d.Dispatch(cmd.Context(), req)
			return derr
		})
	} else {
		out, err = d.Dispatch(cmd.Context(), req)
	}
	if out != nil && out.Evolution != nil {
		printEvolution(out.Evolution)
	}
	return err
}

func printEvolution(r *modes.EvolutionResult) {
	fmt.Println(tui.Title("evolution ") + tui.Dim(r.RunID))
	fmt.Println(tui.Rule(48))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "phase\t%s\n", phaseLabel(r.Phase))
	fmt.Fprintf(w, "steps\t%d\n", r.Steps)
	fmt.Fprintf(w, "time\t%.4f\n", r.FinalTime)
	fmt.Fprintf(w, "max |ω|\t%.6g\n", r.Final.MaxVorticity)
	fmt.Fprintf(w, "energy\t%.6g\n", r.Final.Energy)
	fmt.Fprintf(w, "enstrophy\t%.6g\n", r.Final.Enstrophy)
	fmt.Fprintf(w, "cfl\t%.4f\n", r.Final.CFL)
	for _, name := range sortedKeys(r.Metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, r.Metrics[name])
	}
	fmt.Fprintf(w, "snapshots\t%d\n", len(r.Snapshots))
	fmt.Fprintf(w, "wall\t%v\n", r.Wall.Round(time.Millisecond))
	w.Flush()
}

func runConvergence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.Build()
	if err != nil {
		return err
	}

	opts := modes.ConvergenceOptions{
		Meshes:     cfg.Convergence.Meshes,
		KeepAspect: cfg.Convergence.KeepAspect || keepAspect,
	}
	if cmd.Flags().Changed("meshes") {
		opts.Meshes = meshes
	}
	name := cfg.Convergence.QoI
	if qoi != "" {
		name = qoi
	}
	if opts.QoI, err = metrics.ParseQoI(name); err != nil {
		return err
	}

	rc := runContext(!noSave)
	rc.Mode = dynamo.ModeConvergence
	out, err := newDispatcher().Dispatch(cmd.Context(), dispatch.Request{
		Method:      cfg.Method,
		Mode:        string(dynamo.ModeConvergence),
		Config:      sc,
		RunContext:  rc,
		Convergence: opts,
	})
	if out != nil && out.Convergence != nil {
		printConvergence(out.Convergence)
	}
	return err
}

func printConvergence(r *modes.ConvergenceResult) {
	fmt.Println(tui.Title("convergence ") + tui.Dim(r.RunID))
	fmt.Println(tui.Rule(48))
	printSamples(string(r.QoI), r.Samples)

	for _, f := range r.Failures {
		fmt.Println(tui.Bad(fmt.Sprintf("n=%d failed: %v", f.N, f.Err)))
	}

	fmt.Println()
	if math.IsNaN(r.Order()) {
		fmt.Println(tui.Warn("observed order: undetermined"))
	} else {
		fmt.Printf("observed order: %s  (r² %.4f, %d meshes)\n",
			tui.Value(fmt.Sprintf("%.3f", r.Order())), r.Fit.R2, r.Fit.Samples)
	}
	if !math.IsNaN(r.Extrapolated) {
		fmt.Printf("richardson %s: %.8g\n", r.QoI, r.Extrapolated)
	}
	if len(r.Pairwise) > 0 {
		parts := make([]string, len(r.Pairwise))
		for i, p := range r.Pairwise {
			parts[i] = fmt.Sprintf("%.3f", p)
		}
		fmt.Println(tui.Dim("pairwise: " + strings.Join(parts, ", ")))
	}
	fmt.Printf("phase %s, wall %v\n", phaseLabel(r.Phase), r.Wall.Round(time.Millisecond))
}

func printSamples(label string, samples []dynamo.ConvergenceSample) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "N\tH\t%s\tWALL\n", strings.ToUpper(label))
	for _, s := range samples {
		fmt.Fprintf(w, "%d\t%.5g\t%.8g\t%v\n", s.N, s.H, s.QoI, s.Wall.Round(time.Millisecond))
	}
	w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.Build()
	if err != nil {
		return err
	}

	opts := modes.SweepOptions{Param: cfg.Sweep.Param, Values: cfg.Sweep.Values}
	if sweepParam != "" {
		opts.Param = sweepParam
	}
	if cmd.Flags().Changed("values") {
		opts.Values = sweepValues
	}

	rc := runContext(!noSave)
	rc.Mode = dynamo.ModeParameterSweep
	out, err := newDispatcher().Dispatch(cmd.Context(), dispatch.Request{
		Method:     cfg.Method,
		Mode:       string(dynamo.ModeParameterSweep),
		Config:     sc,
		RunContext: rc,
		Sweep:      opts,
	})
	if out != nil && out.Sweep != nil {
		printSweep(out.Sweep)
	}
	return err
}

func printSweep(r *modes.SweepResult) {
	fmt.Println(tui.Title("sweep ") + tui.Dim(r.RunID))
	fmt.Println(tui.Rule(48))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMAX |ω|\tENERGY\tDRIFT\tWALL\tRUN\n", strings.ToUpper(r.Param))
	for _, e := range r.Entries {
		if e.Err != nil {
			fmt.Fprintf(w, "%g\t%s\t\t\t\t\n", e.Value, tui.Bad(e.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%g\t%.6g\t%.6g\t%.3g\t%v\t%s\n",
			e.Value, e.MaxVorticity, e.Final.Energy, e.EnergyDrift, e.Wall.Round(time.Millisecond), e.RunID)
	}
	w.Flush()
	fmt.Printf("phase %s, wall %v\n", phaseLabel(r.Phase), r.Wall.Round(time.Millisecond))
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	d := dispatch.New(st, logger)
	out, err := d.Dispatch(cmd.Context(), dispatch.Request{
		Mode:       string(dynamo.ModePlotting),
		RunID:      args[0],
		RunContext: runContext(false),
	})
	if err != nil {
		return err
	}
	rec := out.Plot.Record

	fmt.Println(tui.Title(rec.RunID) + tui.Dim(fmt.Sprintf("  %s  %s  %dx%d", rec.Method, rec.Mode, rec.Config.Nx, rec.Config.Ny)))
	fmt.Println()

	if rec.Mode == dynamo.ModeConvergence {
		samples, err := st.LoadConvergence(rec.RunID)
		if err != nil {
			return err
		}
		printSamples("qoi", samples)
		return nil
	}

	if len(rec.Series) == 0 {
		fmt.Println("no diagnostics recorded")
		return nil
	}

	plots := []struct {
		caption string
		q       metrics.QoI
	}{
		{"max |ω| vs time", metrics.MaxVorticity},
		{"energy vs time", metrics.Energy},
		{"enstrophy vs time", metrics.Enstrophy},
	}
	for _, p := range plots {
		data := finite(seriesOf(p.q, rec.Series))
		if len(data) == 0 {
			fmt.Println(tui.Warn(p.caption + ": no finite values"))
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if p := analysis.DominantPeriod(seriesOf(metrics.MaxVorticity, rec.Series), rec.Config.Dt); !math.IsNaN(p) {
		fmt.Printf("dominant max |ω| period: %s\n\n", tui.Value(fmt.Sprintf("%.4g", p)))
	}

	if len(rec.Snapshots) == 0 {
		return nil
	}
	idx := plotSnapshot
	if idx < 0 || idx >= len(rec.Snapshots) {
		idx = len(rec.Snapshots) - 1
	}
	snap := rec.Snapshots[idx]
	fmt.Printf("ω at t=%.4f (step %d)\n", snap.Time, snap.Step)
	fmt.Println(tui.Heatmap(snap.Omega, 64, 32))

	if showSpectrum {
		fmt.Println()
		printSpectrum(analysis.EnergySpectrum(snap.Omega, rec.Config.Lx, rec.Config.Ly))
	}
	return nil
}

func printSpectrum(spec analysis.Spectrum) {
	var logE []float64
	for _, e := range spec.Energy[1:] {
		if e > 0 {
			logE = append(logE, math.Log10(e))
		}
	}
	if len(logE) < 2 {
		fmt.Println(tui.Warn("energy spectrum: no resolved shells"))
		return
	}
	fmt.Println(asciigraph.Plot(logE,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("log10 E(k) by shell"),
	))

	kmax := spec.K[len(spec.K)-1]
	if slope, err := spec.Slope(4*spec.DK, kmax/2); err == nil {
		fmt.Printf("spectral slope %s over [%.3g, %.3g]\n", tui.Value(fmt.Sprintf("%.2f", slope)), 4*spec.DK, kmax/2)
	}
	fmt.Printf("spectral energy %.6g, enstrophy %.6g\n", spec.TotalEnergy(), spec.TotalEnstrophy())
}

func seriesOf(q metrics.QoI, series []dynamo.Diagnostics) []float64 {
	out := make([]float64, len(series))
	for i, d := range series {
		switch q {
		case metrics.Energy:
			out[i] = d.Energy
		case metrics.Enstrophy:
			out[i] = d.Enstrophy
		default:
			out[i] = d.MaxVorticity
		}
	}
	return out
}

// finite drops NaN and Inf, which asciigraph cannot scale.
func finite(xs []float64) []float64 {
	out := xs[:0:0]
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tMETHOD\tCREATED\tGRID\tIC\tTFINAL\tWALL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d\t%s\t%g\t%v\n",
			run.RunID,
			run.Mode,
			run.Method,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Config.Nx, run.Config.Ny,
			run.Config.IC.Kind,
			run.Config.Tfinal,
			run.Wall.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if strings.EqualFold(exportFormat, "svg") {
		rec, err := st.Load(args[0])
		if err != nil {
			return err
		}
		svg, err := export.RunSVG(rec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, svg); err != nil {
			return err
		}
	} else if err := st.Export(out, args[0], exportFormat); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "exported %s to %s\n", args[0], exportOut)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tMODE\tGRID\tIC\tDT\tTFINAL")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\t%g\t%g\n",
			name, c.Method, c.Mode, c.Grid.Nx, c.Grid.Ny, c.IC.Kind, c.Dt, c.Tfinal)
	}
	return w.Flush()
}

func listMethods(cmd *cobra.Command, args []string) error {
	policy := dispatch.DefaultPolicy()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"METHOD"}
	for _, m := range dispatch.Modes() {
		header = append(header, strings.ToUpper(string(m)))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, k := range method.Kinds() {
		row := []string{fmt.Sprintf("%s (%s)", k, k.Label())}
		for _, m := range dispatch.Modes() {
			row = append(row, policy.Check(k, m).String())
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func checkStability(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.Build()
	if err != nil {
		return err
	}

	solver := fd.New()
	state, err := solver.Initialize(sc)
	if err != nil {
		return err
	}
	rep, err := fd.StabilityReport(state, sc)
	if err != nil {
		return err
	}

	dx, dy := sc.Spacing()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "grid\t%dx%d  (dx=%.4g, dy=%.4g)\n", sc.Nx, sc.Ny, dx, dy)
	fmt.Fprintf(w, "steps\t%d\n", sc.Steps())
	fmt.Fprintf(w, "cfl\t%.4f\n", rep.CFL)
	fmt.Fprintf(w, "diffusion\t%.4g\n", rep.Diffusion)
	w.Flush()

	if rep.Stable {
		fmt.Println(tui.Good("stable"))
	} else {
		fmt.Println(tui.Warn("unstable: reduce dt or refine less"))
	}
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	const steps = 20
	sizes := []int{32, 64, 128, 256}

	fmt.Printf("benchmarking %s\n\n", method.FiniteDifference.Label())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		c := config.DefaultConfig()
		c.SetGrid(n)
		c.Tfinal = float64(steps) * c.Dt
		sc, err := c.Build()
		if err != nil {
			return err
		}

		solver := fd.New()
		state, err := solver.Initialize(sc)
		if err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < steps; i++ {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if state, err = solver.Advance(state, sc); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.0f\n",
			n, n, steps, elapsed.Round(time.Microsecond), float64(steps)/elapsed.Seconds())
	}

	return w.Flush()
}

func phaseLabel(p modes.Phase) string {
	if p == modes.Done {
		return tui.Good(string(p))
	}
	return tui.Bad(string(p))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

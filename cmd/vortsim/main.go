package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/vortsim/internal/config"
	"github.com/san-kum/vortsim/internal/dispatch"
	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/integrators"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/metrics"
	"github.com/san-kum/vortsim/internal/physics"
	"github.com/san-kum/vortsim/internal/storage"
	"github.com/san-kum/vortsim/internal/tui"
)

var (
	dataDir    string
	verbose    bool
	logLevel   string
	configFile string
	preset     string
	workers    int

	methodName string
	nx, ny     int
	lx, ly     float64
	dt         float64
	tfinal     float64
	nu         float64
	icName     string
	coeffs     []float64
	pattern    string
	vortices   int
	seed       int64
	jacobian   string
	integrator string

	snapshots int
	live      bool
	noSave    bool
	abortNaN  bool

	meshes     []int
	qoi        string
	keepAspect bool

	sweepParam  string
	sweepValues []float64

	plotSnapshot int
	showSpectrum bool
	exportFormat string
	exportOut    string

	logger *zap.Logger
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "vortsim",
		Short:         "2d vorticity-streamfunction simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", env.Workers, "parallel simulations for convergence and sweep runs")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a single evolution",
		Args:  cobra.NoArgs,
		RunE:  runEvolution,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&snapshots, "snapshot", 0, "number of evenly spaced field snapshots to keep")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live progress monitor")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	runCmd.Flags().BoolVar(&abortNaN, "abort-on-nan", false, "stop at the first non-finite diagnostic")

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "grid-convergence study",
		Args:  cobra.NoArgs,
		RunE:  runConvergence,
	}
	addSimFlags(convergeCmd)
	convergeCmd.Flags().IntSliceVar(&meshes, "meshes", nil, "mesh sizes (default from config)")
	convergeCmd.Flags().StringVar(&qoi, "qoi", "", "quantity of interest ("+strings.Join(qoiNames(), ", ")+")")
	convergeCmd.Flags().BoolVar(&keepAspect, "keep-aspect", false, "scale ny by ly/lx")
	convergeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the sample table")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "parameter sweep",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to vary (nu, dt, tfinal, lx, ly, nx, ny, n, ic.<i>)")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", nil, "parameter values")
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the individual runs")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotSnapshot, "snapshot", -1, "snapshot index to draw (default last)")
	plotCmd.Flags().BoolVar(&showSpectrum, "spectrum", false, "plot the energy spectrum of the drawn snapshot")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json, csv or svg")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "show method and mode compatibility",
		Args:  cobra.NoArgs,
		RunE:  listMethods,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "report stability numbers of a configuration",
		Args:  cobra.NoArgs,
		RunE:  checkStability,
	}
	addSimFlags(checkCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the finite-difference solver",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}

	rootCmd.AddCommand(runCmd, convergeCmd, sweepCmd, plotCmd, listCmd, exportCmd, presetsCmd, methodsCmd, checkCmd, benchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, tui.Bad("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&methodName, "method", config.DefaultMethod, "numerical method (fd, spectral, fv)")
	f.IntVar(&nx, "nx", config.DefaultN, "grid points in x")
	f.IntVar(&ny, "ny", config.DefaultN, "grid points in y (default nx)")
	f.Float64Var(&lx, "lx", config.DefaultL, "domain length in x")
	f.Float64Var(&ly, "ly", config.DefaultL, "domain length in y (default lx)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&tfinal, "time", config.DefaultTfinal, "final time")
	f.Float64Var(&nu, "nu", config.DefaultNu, "kinematic viscosity")
	f.StringVar(&icName, "ic", string(physics.LambOseen), "initial condition")
	f.Float64SliceVar(&coeffs, "coeff", nil, "initial-condition coefficients")
	f.StringVar(&pattern, "pattern", "", "vortex placement: single, circular, grid, random")
	f.IntVar(&vortices, "vortices", 0, "number of vortices")
	f.Int64Var(&seed, "seed", 0, "random seed for turbulence and random placement")
	f.StringVar(&jacobian, "jacobian", string(dynamo.JacobianArakawa), "advection scheme (arakawa, central)")
	f.StringVar(&integrator, "integrator", "rk4", "time integrator ("+strings.Join(integrators.Names(), ", ")+")")
}

func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

// loadConfig layers the default, the preset, the config file and finally
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		c, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = methodName
	}
	if f.Changed("nx") {
		cfg.Grid.Nx = nx
		if !f.Changed("ny") {
			cfg.Grid.Ny = nx
		}
	}
	if f.Changed("ny") {
		cfg.Grid.Ny = ny
	}
	if f.Changed("lx") {
		cfg.Grid.Lx = lx
		if !f.Changed("ly") {
			cfg.Grid.Ly = lx
		}
	}
	if f.Changed("ly") {
		cfg.Grid.Ly = ly
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Tfinal = tfinal
	}
	if f.Changed("nu") {
		cfg.Nu = nu
	}
	if f.Changed("ic") {
		cfg.IC = physics.ICSpec{Kind: physics.Kind(icName)}
	}
	if f.Changed("coeff") {
		cfg.IC.Coeffs = append([]float64(nil), coeffs...)
	}
	if f.Changed("pattern") {
		cfg.IC.Pattern = physics.Pattern(pattern)
	}
	if f.Changed("vortices") {
		cfg.IC.Vortices = vortices
	}
	if f.Changed("seed") {
		cfg.IC.Seed = seed
	}
	if f.Changed("jacobian") {
		cfg.Jacobian = jacobian
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func newDispatcher() *dispatch.Dispatcher {
	st := storage.New(dataDir)
	d := dispatch.New(st, logger)
	d.OnExperimental = func(k method.Kind, mode dynamo.Mode) {
		fmt.Fprintln(os.Stderr, tui.Warn(fmt.Sprintf("warning: %s is experimental for %s runs", k.Label(), mode)))
	}
	return d
}

func runContext(save bool) dynamo.RunContext {
	return dynamo.RunContext{SaveData: save, Logger: logger, Workers: workers}
}

func qoiNames() []string {
	var names []string
	for _, q := range metrics.QoIs() {
		names = append(names, string(q))
	}
	return names
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidlab/internal/automation"
	"github.com/san-kum/fluidlab/internal/config"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/metrics"
	"github.com/san-kum/fluidlab/internal/render"
	"github.com/san-kum/fluidlab/internal/runner"
	"github.com/san-kum/fluidlab/internal/storage"
	"github.com/san-kum/fluidlab/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	// Simulation overrides
	gridN        int
	dt           float64
	velDiss      float64
	dyeDiss      float64
	vortStrength float64
	iters        int
	steps        int
	seed         int64
	// Config file
	configFile string
	// Preset name
	preset string
	// Output
	gifPath    string
	liveGIF    string
	jsonPath   string
	csvOut     string
	pngOut     string
	noSave     bool
	logEvery   int
	benchSteps int
	// Rendering
	field    string
	cmapName string
	pixels   int
	// Sweeps
	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepNum   int
	workers    int
	// Monte Carlo
	trials  int
	perturb float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fluidlab",
		Short:        "2D incompressible flow lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fluidlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store its diagnostics",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&gifPath, "gif", "", "record the dye field to this GIF")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "export stats and metrics as JSON (- for stdout)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&logEvery, "log-every", 50, "progress log interval in steps (debug level)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live terminal visualization",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&liveGIF, "gif", "fluid.gif", "where G saves recordings")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-step stats as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&csvOut, "output", "o", "-", "output file (- for stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per parameter value in parallel",
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", fluid.ParamVortStrength, "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 12, "last value")
	sweepCmd.Flags().IntVar(&sweepNum, "num", 7, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario from YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run perturbed copies of the initial splats",
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.05, "perturbation amplitude")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark Step across grid sizes",
		RunE:  benchGrid,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 20, "steps per grid size")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "walk through projection, confinement and dissipation",
		RunE:  runDemo,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "run a simulation and render one field to PNG",
		RunE:  renderField,
	}
	addSimFlags(renderCmd)
	renderCmd.Flags().StringVar(&field, "field", "dye", "field (dye, u, v, vorticity, divergence, velocity_mag)")
	renderCmd.Flags().StringVar(&cmapName, "colormap", "", "colormap (default depends on field)")
	renderCmd.Flags().IntVar(&pixels, "scale", 4, "pixels per cell")
	renderCmd.Flags().StringVarP(&pngOut, "output", "o", "field.png", "output PNG")

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd,
		sweepCmd, scenarioCmd, monteCarloCmd, benchCmd, demoCmd, renderCmd)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&gridN, "n", fluid.DefaultN, "grid size")
	cmd.Flags().Float64Var(&dt, "dt", fluid.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&velDiss, "vel-diss", fluid.DefaultVelDiss, "velocity dissipation")
	cmd.Flags().Float64Var(&dyeDiss, "dye-diss", fluid.DefaultDyeDiss, "dye dissipation")
	cmd.Flags().Float64Var(&vortStrength, "vort", fluid.DefaultVortStrength, "vorticity confinement strength")
	cmd.Flags().IntVar(&iters, "iters", fluid.DefaultIters, "Jacobi pressure iterations")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// baseConfig picks the starting configuration: the named preset, else the
// default preset, replaced wholesale by a config file when one is given.
func baseConfig(presetName, path string) (*config.Config, error) {
	name := presetName
	if name == "" {
		name = config.DefaultPreset
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if loaded.Name == "" {
			loaded.Name = cfg.Name
		}
		cfg = loaded
	}
	return cfg, nil
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := baseConfig(preset, configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("n") {
		cfg.N = gridN
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("vel-diss") {
		cfg.VelDiss = velDiss
	}
	if cmd.Flags().Changed("dye-diss") {
		cfg.DyeDiss = dyeDiss
	}
	if cmd.Flags().Changed("vort") {
		cfg.VortStrength = vortStrength
	}
	if cmd.Flags().Changed("iters") {
		cfg.Iters = iters
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splats(cfgs []config.SplatConfig) []fluid.Splat {
	out := make([]fluid.Splat, len(cfgs))
	for i, c := range cfgs {
		out[i] = c.Splat()
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	sim, err := cfg.NewSimulation()
	if err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithLogEvery(logEvery),
		runner.WithEmitters(splats(cfg.Emitters)...),
		runner.WithMetrics(metrics.Standard()...),
	}

	var rec *render.Recorder
	if gifPath != "" {
		rec, err = render.NewRecorder(sim, render.RecorderOptions{Field: "dye", Pixels: 2, Every: 2})
		if err != nil {
			return err
		}
		opts = append(opts, runner.WithObserver(rec))
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, runErr := runner.New(sim, opts...).Run(ctx, cfg.Steps)
	if result == nil {
		return runErr
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result, runErr)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		logger.Info("run saved", "id", runID, "dir", dataDir)
	}

	if rec != nil && rec.Len() > 0 {
		if err := rec.Save(gifPath); err != nil {
			return fmt.Errorf("save gif: %w", err)
		}
		logger.Info("gif saved", "path", gifPath, "frames", rec.Len())
	}

	if jsonPath != "" {
		data := storage.NewExportData(cfg, result, sim.DivergenceHistory())
		if err := storage.ExportJSON(jsonPath, data); err != nil {
			return err
		}
	}

	if jsonPath != "-" {
		printSummary(result)
	}
	return runErr
}

func printSummary(result *runner.Result) {
	final := result.Final()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(w, "elapsed\t%v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "divergence_l2\t%.6e\n", final.DivergenceL2)
	fmt.Fprintf(w, "max_velocity\t%.4f\n", final.MaxVelocity)
	fmt.Fprintf(w, "cfl_estimate\t%.4f\n", final.CFLEstimate)
	fmt.Fprintf(w, "max_dye\t%.4f\n", final.MaxDye)
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "%s\t%.4f\n", name, result.Metrics[name])
	}
	w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sim, err := fluid.New(cfg.N, cfg.Params())
	if err != nil {
		return err
	}

	return viz.Run(sim, viz.Options{
		Seed:     cfg.Seed,
		Splats:   splats(cfg.Splats),
		Emitters: splats(cfg.Emitters),
		GIFPath:  liveGIF,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tDT\tVEL_DISS\tDYE_DISS\tVORT\tITERS\tSTEPS\tSPLATS\tEMITTERS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.1f\t%d\t%d\t%d\t%d\n",
			name, p.N, p.Dt, p.VelDiss, p.DyeDiss, p.VortStrength, p.Iters, p.Steps,
			len(p.Splats), len(p.Emitters))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tTIME\tN\tSTEPS\tDT\tITERS\tPEAK |U|\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "stopped"
		}
		var n, it int
		var rdt float64
		if run.Config != nil {
			n, it, rdt = run.Config.N, run.Config.Iters, run.Config.Dt
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3f\t%d\t%.3f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			n,
			run.StepsTaken,
			rdt,
			it,
			run.Metrics["peak_velocity"],
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	stats, err := st.LoadStats(runID)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d\n", meta.StepsTaken)
	if meta.Error != "" {
		fmt.Printf("stopped: %s\n", meta.Error)
	}
	fmt.Println()

	series := []struct {
		caption string
		value   func(fluid.Stats) float64
	}{
		{"divergence L2 after projection", func(s fluid.Stats) float64 { return s.DivergenceL2 }},
		{"max |u|", func(s fluid.Stats) float64 { return s.MaxVelocity }},
		{"CFL estimate", func(s fluid.Stats) float64 { return s.CFLEstimate }},
		{"max dye", func(s fluid.Stats) float64 { return s.MaxDye }},
	}

	for _, sr := range series {
		data := make([]float64, len(stats))
		for i, s := range stats {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	stats, err := st.LoadStats(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, storage.ExportData{
		Config:     meta.Config,
		StepsTaken: meta.StepsTaken,
		Stats:      stats,
		Metrics:    meta.Metrics,
	})
}

func exportCSV(cmd *cobra.Command, args []string) error {
	stats, err := storage.New(dataDir).LoadStats(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(csvOut, stats)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, cancel := signalContext()
	defer cancel()

	values := automation.Linspace(sweepFrom, sweepTo, sweepNum)
	start := time.Now()
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		Values:    values,
		Workers:   workers,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("sweep finished", "param", sweepParam, "runs", len(results), "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tDIV_L2\tMAX |U|\tPEAK |U|\tDYE_RETENTION\tSTABLE\n", strings.ToUpper(sweepParam))
	finals := make([]float64, len(results))
	for i, r := range results {
		finals[i] = r.Final.MaxVelocity
		fmt.Fprintf(w, "%.4g\t%d\t%.3e\t%.4f\t%.4f\t%.3f\t%v\n",
			r.ParamValue, r.StepsTaken, r.Final.DivergenceL2, r.Final.MaxVelocity,
			r.Metrics["peak_velocity"], r.Metrics["dye_retention"], !r.Unstable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(finals) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(finals, asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption("final max |u| vs "+sweepParam)))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, cancel := signalContext()
	defer cancel()

	results, runErr := automation.RunScenario(ctx, scenario, logger)

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tID\tSTEPS\tDIV_L2\tPEAK |U|")
	for _, r := range results {
		id := "-"
		if st != nil {
			id, err = st.Save(r.Config, r.Result, nil)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3e\t%.4f\n",
			r.Name, id, r.Result.StepsTaken, r.Result.Final().DivergenceL2, r.Result.Metrics["peak_velocity"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Splats) == 0 {
		return errors.New("montecarlo needs a config or preset with initial splats")
	}
	logger := newLogger()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         cfg.Seed,
		Workers:      workers,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tDIV_L2\tMAX |U|\tMAX DYE\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.3e\t%.4f\t%.4f\t%v\n",
			r.TrialID, r.Final.DivergenceL2, r.Final.MaxVelocity, r.Final.MaxDye, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func benchGrid(cmd *cobra.Command, args []string) error {
	sizes := []int{32, 64, 128, 256}

	fmt.Printf("benchmarking Step, %d steps per size\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tSTEPS\tTIME\tSTEPS/SEC\tCELLS/SEC")

	for _, n := range sizes {
		sim, err := fluid.New(n, fluid.DefaultParams())
		if err != nil {
			return err
		}
		if err := sim.AddSplat(fluid.Splat{X: 0.5, Y: 0.5, Dye: 1, Fx: 0.5, Fy: 0.2, Radius: 0.08}); err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			if err := sim.Step(); err != nil && !errors.Is(err, fluid.ErrUnstable) {
				return err
			}
		}
		elapsed := time.Since(start)

		stepsPerSec := float64(benchSteps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.1f\t%.3g\n",
			n, benchSteps, elapsed.Round(time.Microsecond), stepsPerSec, stepsPerSec*float64(n*n))
	}

	return w.Flush()
}

func renderField(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	sim, err := cfg.NewSimulation()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	r := runner.New(sim, runner.WithLogger(logger), runner.WithEmitters(splats(cfg.Emitters)...))
	if _, err := r.Run(ctx, cfg.Steps); err != nil {
		return err
	}

	f, ok := sim.Fields().Named()[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	style := render.StyleFor(field)
	name := cmapName
	if name == "" {
		name = style.Colormap
	}
	cm, err := render.GetColormap(name)
	if err != nil {
		return err
	}

	if err := render.SavePNG(pngOut, render.Frame(f, cm, style.Scale, pixels)); err != nil {
		return err
	}
	logger.Info("frame saved", "path", pngOut, "field", field, "colormap", name, "step", sim.StepCount())
	return nil
}

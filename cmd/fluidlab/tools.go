package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/fluidlab/internal/analysis"
	"github.com/san-kum/fluidlab/internal/automation"
	"github.com/san-kum/fluidlab/internal/export"
	"github.com/san-kum/fluidlab/internal/optim"
	"github.com/san-kum/fluidlab/internal/render"
	"github.com/san-kum/fluidlab/internal/runner"
	"github.com/san-kum/fluidlab/internal/storage"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	// Tuning
	tuneRanges   []string
	tuneMetric   string
	tuneMaximize bool
	// Analysis
	seriesName string
	svgOut     string
	// Quiver
	quiverOut    string
	quiverStride int
	quiverCmap   string
	cellSize     float64
)

func toolCommands() []*cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search parameters to minimize a run metric",
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneRanges, "range", nil, "parameter range as name=from:to:num (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "mean_divergence", "metric to optimize")
	tuneCmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "maximize instead of minimize")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectral and decay analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&seriesName, "series", "", "analyze one series (default all)")
	analyzeCmd.Flags().StringVar(&svgOut, "svg", "", "plot the analyzed series to this SVG")

	quiverCmd := &cobra.Command{
		Use:   "quiver",
		Short: "run a simulation and plot the velocity field as SVG arrows",
		RunE:  runQuiver,
	}
	addSimFlags(quiverCmd)
	quiverCmd.Flags().StringVarP(&quiverOut, "output", "o", "velocity.svg", "output SVG")
	quiverCmd.Flags().IntVar(&quiverStride, "stride", 4, "cells between arrows")
	quiverCmd.Flags().Float64Var(&cellSize, "cell", 6, "pixels per cell")
	quiverCmd.Flags().StringVar(&quiverCmap, "colormap", "viridis", "arrow colormap")

	return []*cobra.Command{tuneCmd, analyzeCmd, quiverCmd}
}

// parseRange reads name=from:to:num.
func parseRange(s string) (string, []float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("range %q: expected name=from:to:num", s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("range %q: expected from:to:num", s)
	}
	from, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("range %q: %w", s, err)
	}
	to, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("range %q: %w", s, err)
	}
	num, err := strconv.Atoi(parts[2])
	if err != nil || num < 1 {
		return "", nil, fmt.Errorf("range %q: num must be a positive integer", s)
	}
	return strings.TrimSpace(name), automation.Linspace(from, to, num), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(tuneRanges) == 0 {
		return fmt.Errorf("tune needs at least one --range")
	}

	var names []string
	var ranges [][]float64
	for _, r := range tuneRanges {
		name, values, err := parseRange(r)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if tuneMaximize {
		gs.Maximize()
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, tried, err := gs.Search(ctx, cfg, tuneMetric, newLogger())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, c := range tried {
		for _, n := range names {
			fmt.Fprintf(w, "%.4g\t", c.Params[n])
		}
		fmt.Fprintf(w, "%.6g\n", c.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", tuneMetric, best.Value)
	for _, k := range sortedKeys(best.Params) {
		fmt.Printf(" %s=%.4g", k, best.Params[k])
	}
	fmt.Printf(" (%d of %d candidates stable)\n", len(tried), gridSize(ranges))
	return nil
}

func gridSize(ranges [][]float64) int {
	n := 1
	for _, r := range ranges {
		n *= len(r)
	}
	return n
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	stats, err := storage.New(dataDir).LoadStats(args[0])
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("no data to analyze")
	}

	names := analysis.SeriesNames()
	if seriesName != "" {
		names = []string{seriesName}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMEAN\tDECAY RATE\tPERIOD (STEPS)")
	for _, name := range names {
		data, err := analysis.Lookup(stats, name)
		if err != nil {
			return err
		}
		decay := "-"
		if rate, err := analysis.DecayRate(data); err == nil {
			decay = fmt.Sprintf("%.4g", rate)
		}
		period := "-"
		if p, bin, err := analysis.DominantPeriod(data); err == nil && bin > 0 {
			period = fmt.Sprintf("%.1f", p)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%s\t%s\n", name, stat.Mean(data, nil), decay, period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if svgOut != "" {
		data := analysis.Series(stats, names[0])
		svg := export.SeriesSVG(data, 640, 240, "#ffb000")
		if svg == "" {
			return fmt.Errorf("series %s has too few finite samples to plot", names[0])
		}
		if err := export.WriteFile(svgOut, svg); err != nil {
			return err
		}
		fmt.Printf("\nplotted %s to %s\n", names[0], svgOut)
	}
	return nil
}

func runQuiver(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cm, err := render.GetColormap(quiverCmap)
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

	svg, err := export.QuiverSVG(sim.U(), sim.V(), export.QuiverOptions{
		Stride:   quiverStride,
		CellSize: cellSize,
		Colormap: cm,
	})
	if err != nil {
		return err
	}
	if err := export.WriteFile(quiverOut, svg); err != nil {
		return err
	}
	logger.Info("quiver saved", "path", quiverOut, "step", sim.StepCount())
	return nil
}

package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"runtime"

	"github.com/san-kum/fluidlab/internal/config"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/metrics"
	"github.com/san-kum/fluidlab/internal/runner"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Runs        []ScenarioStep `yaml:"runs"`
}

// ScenarioStep is one run: a preset (or the defaults) plus overrides
type ScenarioStep struct {
	Preset   string               `yaml:"preset"`
	Steps    int                  `yaml:"steps"`
	Params   map[string]float64   `yaml:"params"`
	Splats   []config.SplatConfig `yaml:"splats"`
	Emitters []config.SplatConfig `yaml:"emitters"`
	SaveAs   string               `yaml:"save_as"`
}

// StepResult pairs a finished run with the config that produced it
type StepResult struct {
	Name   string
	Config *config.Config
	Result *runner.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %q has no runs", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step's preset and overrides into a run config
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	for k, v := range s.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	cfg.Splats = append(cfg.Splats, s.Splats...)
	cfg.Emitters = append(cfg.Emitters, s.Emitters...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunConfig builds a simulation from cfg and runs it with the standard
// metrics.
func RunConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner.Result, error) {
	s, err := cfg.NewSimulation()
	if err != nil {
		return nil, err
	}
	emitters := make([]fluid.Splat, len(cfg.Emitters))
	for i, e := range cfg.Emitters {
		emitters[i] = e.Splat()
	}
	r := runner.New(s,
		runner.WithLogger(logger),
		runner.WithEmitters(emitters...),
		runner.WithMetrics(metrics.Standard()...))
	return r.Run(ctx, cfg.Steps)
}

// RunScenario executes all runs in order. It stops at the first failing run
// and returns the runs completed so far.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Runs))

	for i, step := range scenario.Runs {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s_%d", scenario.Name, i+1)
		}
		cfg.Name = name

		logger.Info("scenario run", "scenario", scenario.Name, "run", i+1, "of", len(scenario.Runs), "name", name)

		result, err := RunConfig(ctx, cfg, logger)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs one simulation per value of a single parameter
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	Values    []float64
	Steps     int
	Workers   int
}

// Linspace returns num evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{lo}
	}
	out := make([]float64, num)
	step := (hi - lo) / float64(num-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[num-1] = hi
	return out
}

// SweepResult holds one point of a parameter sweep
type SweepResult struct {
	ParamValue float64
	Final      fluid.Stats
	Metrics    map[string]float64
	StepsTaken int
	Unstable   bool
}

// RunSweep executes the sweep concurrently. Each worker owns its own
// Simulation; results come back in value order. Instability is recorded
// per point rather than failing the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if len(sweep.Values) == 0 {
		return nil, errors.New("sweep has no values")
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	cfgs := make([]*config.Config, len(sweep.Values))
	for i, v := range sweep.Values {
		cfg := base.Clone()
		if sweep.Steps > 0 {
			cfg.Steps = sweep.Steps
		}
		if err := cfg.Set(sweep.ParamName, v); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		cfgs[i] = cfg
	}

	workers := sweep.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SweepResult, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := RunConfig(ctx, cfg, logger.With("param", sweep.ParamName, "value", sweep.Values[i]))
			unstable := errors.Is(err, fluid.ErrUnstable)
			if err != nil && !unstable {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, sweep.Values[i], err)
			}
			results[i] = SweepResult{
				ParamValue: sweep.Values[i],
				Final:      res.Final(),
				Metrics:    res.Metrics,
				StepsTaken: res.StepsTaken,
				Unstable:   unstable,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig jitters the position and force of every initial splat
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
}

// MonteCarloResult holds the outcome of one perturbed trial
type MonteCarloResult struct {
	TrialID int
	Splats  []config.SplatConfig
	Final   fluid.Stats
	Stable  bool
}

// RunMonteCarlo executes perturbed trials concurrently. Perturbations are
// drawn up front from one seeded source so trials are reproducible.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	if mc.NumTrials <= 0 {
		return nil, errors.New("monte carlo needs at least one trial")
	}
	base := mc.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	cfgs := make([]*config.Config, mc.NumTrials)
	for t := range cfgs {
		cfg := base.Clone()
		for i := range cfg.Splats {
			sp := &cfg.Splats[i]
			sp.X = clamp01(sp.X + (rng.Float64()-0.5)*2*mc.Perturbation)
			sp.Y = clamp01(sp.Y + (rng.Float64()-0.5)*2*mc.Perturbation)
			sp.Fx += (rng.Float64() - 0.5) * 2 * mc.Perturbation
			sp.Fy += (rng.Float64() - 0.5) * 2 * mc.Perturbation
		}
		cfgs[t] = cfg
	}

	workers := mc.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]MonteCarloResult, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for t, cfg := range cfgs {
		g.Go(func() error {
			res, err := RunConfig(ctx, cfg, logger.With("trial", t))
			stable := err == nil
			if err != nil && !errors.Is(err, fluid.ErrUnstable) {
				return fmt.Errorf("trial %d: %w", t, err)
			}
			results[t] = MonteCarloResult{
				TrialID: t,
				Splats:  cfg.Splats,
				Final:   res.Final(),
				Stable:  stable,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

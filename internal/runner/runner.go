package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/metrics"
)

var ErrNegativeSteps = errors.New("runner: steps must be non-negative")

type Observer interface {
	OnStep(step int, s fluid.Stats)
}

type ObserverFunc func(step int, s fluid.Stats)

func (f ObserverFunc) OnStep(step int, s fluid.Stats) { f(step, s) }

type Result struct {
	Stats      []fluid.Stats      `json:"-"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// Final returns the stats of the last completed step.
func (r *Result) Final() fluid.Stats {
	if len(r.Stats) == 0 {
		return fluid.Stats{}
	}
	return r.Stats[len(r.Stats)-1]
}

type Runner struct {
	sim       *fluid.Simulation
	emitters  []fluid.Splat
	metrics   []metrics.Metric
	observers []Observer
	logger    *slog.Logger
	logEvery  int
}

type Option func(*Runner)

func WithEmitters(splats ...fluid.Splat) Option {
	return func(r *Runner) { r.emitters = append(r.emitters, splats...) }
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(r *Runner) { r.metrics = append(r.metrics, ms...) }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLogEvery sets the progress log interval in steps. Zero disables
// progress lines.
func WithLogEvery(n int) Option {
	return func(r *Runner) { r.logEvery = n }
}

func New(sim *fluid.Simulation, opts ...Option) *Runner {
	r := &Runner{
		sim:       sim,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }

func (r *Runner) Simulation() *fluid.Simulation { return r.sim }

// Run advances the simulation by up to steps steps. On cancellation or
// instability the partial result is returned together with the error.
func (r *Runner) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNegativeSteps, steps)
	}

	result := &Result{
		Stats:   make([]fluid.Stats, 0, steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	start := time.Now()
	r.logger.Info("run started",
		"n", r.sim.N(),
		"steps", steps,
		"dt", r.sim.Params().Dt,
		"iters", r.sim.Params().Iters,
		"emitters", len(r.emitters))

	err := r.loop(ctx, steps, result)

	result.Elapsed = time.Since(start)
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if err != nil {
		r.logger.Warn("run stopped",
			"steps_taken", result.StepsTaken,
			"elapsed", result.Elapsed,
			"err", err)
		return result, err
	}

	r.logger.Info("run finished",
		"steps_taken", result.StepsTaken,
		"elapsed", result.Elapsed,
		"divergence_l2", result.Final().DivergenceL2)
	return result, nil
}

func (r *Runner) loop(ctx context.Context, steps int, result *Result) error {
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, sp := range r.emitters {
			if err := r.sim.AddSplat(sp); err != nil {
				return fmt.Errorf("emitter: %w", err)
			}
		}

		stepErr := r.sim.Step()

		st := r.sim.Stats()
		result.Stats = append(result.Stats, st)
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(st)
		}
		for _, obs := range r.observers {
			obs.OnStep(st.Step, st)
		}

		if stepErr != nil {
			return stepErr
		}

		if r.logEvery > 0 && (i+1)%r.logEvery == 0 {
			r.logger.Debug("progress",
				"step", st.Step,
				"divergence_l2", st.DivergenceL2,
				"max_velocity", st.MaxVelocity,
				"cfl", st.CFLEstimate,
				"max_dye", st.MaxDye)
		}
	}
	return nil
}

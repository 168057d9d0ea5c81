package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/fluidlab/internal/automation"
	"github.com/san-kum/fluidlab/internal/config"
)

var ErrNoCandidate = errors.New("optim: no run completed")

// GridSearch evaluates every combination of parameter values and keeps the
// one that minimizes a run metric. Runs that fail, including unstable ones,
// are skipped.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize flips the objective.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

type Candidate struct {
	Params map[string]float64
	Value  float64
}

func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string, logger *slog.Logger) (Candidate, []Candidate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	best := Candidate{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	var tried []Candidate

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.Set(k, v); err != nil {
				return err
			}
		}

		result, err := automation.RunConfig(ctx, cfg, logger)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Debug("candidate skipped", "params", params, "err", err)
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metricName)
		}
		c := Candidate{Params: params, Value: val}
		tried = append(tried, c)
		if (g.maximize && val > best.Value) || (!g.maximize && val < best.Value) {
			best = c
		}
		return nil
	})
	if err != nil {
		return Candidate{}, tried, err
	}
	if best.Params == nil {
		return Candidate{}, tried, ErrNoCandidate
	}
	return best, tried, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, eval); err != nil {
			return err
		}
	}
	return nil
}

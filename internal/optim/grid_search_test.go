package optim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/fluidlab/internal/config"
	"github.com/san-kum/fluidlab/internal/fluid"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.N = 20
	cfg.Steps = 6
	cfg.Splats = []config.SplatConfig{{X: 0.5, Y: 0.5, Dye: 1, Fx: 0.5, Radius: 0.1}}
	return cfg
}

func TestGridSearch(t *testing.T) {
	g, err := NewGridSearch(
		[]string{fluid.ParamVelDiss, fluid.ParamVortStrength},
		[][]float64{{0.01, 0.5}, {0, 4}},
	)
	if err != nil {
		t.Fatal(err)
	}

	best, tried, err := g.Search(context.Background(), baseConfig(), "peak_velocity", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(tried) != 4 {
		t.Errorf("expected 4 candidates, got %d", len(tried))
	}
	for _, c := range tried {
		if c.Value < best.Value {
			t.Errorf("candidate %v beats best %v", c, best)
		}
	}
	if best.Params[fluid.ParamVelDiss] != 0.5 {
		t.Errorf("strongest velocity dissipation should minimize peak velocity, got %v", best.Params)
	}

	g.Maximize()
	worst, _, err := g.Search(context.Background(), baseConfig(), "peak_velocity", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if worst.Value < best.Value {
		t.Errorf("maximum %g below minimum %g", worst.Value, best.Value)
	}
}

func TestGridSearch_Errors(t *testing.T) {
	if _, err := NewGridSearch([]string{"dt"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}

	g, _ := NewGridSearch([]string{"dt"}, [][]float64{{0.05}})
	if _, _, err := g.Search(context.Background(), baseConfig(), "nope", quietLogger()); err == nil {
		t.Error("expected error for unknown metric")
	}

	g, _ = NewGridSearch([]string{"viscosity"}, [][]float64{{1}})
	if _, _, err := g.Search(context.Background(), baseConfig(), "peak_velocity", quietLogger()); !errors.Is(err, fluid.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _ = NewGridSearch([]string{"dt"}, [][]float64{{0.05, 0.1}})
	if _, _, err := g.Search(ctx, baseConfig(), "peak_velocity", quietLogger()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fluidlab/internal/fluid"
)

func TestPeakVelocity(t *testing.T) {
	m := NewPeakVelocity()
	for _, v := range []float64{0.2, 1.5, 0.7} {
		m.Observe(fluid.Stats{MaxVelocity: v})
	}
	if m.Value() != 1.5 {
		t.Errorf("expected peak 1.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestMeanDivergence(t *testing.T) {
	m := NewMeanDivergence()
	if m.Value() != 0 {
		t.Error("expected zero with no samples")
	}

	m.Observe(fluid.Stats{DivergenceL2: 0.1})
	m.Observe(fluid.Stats{DivergenceL2: 0.3})
	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected mean 0.2, got %f", m.Value())
	}
}

func TestCFLStability(t *testing.T) {
	m := NewCFLStability(1.0)
	if m.Value() != 1.0 {
		t.Error("expected 1.0 with no samples")
	}

	for _, c := range []float64{0.5, 1.0, 2.0, math.NaN()} {
		m.Observe(fluid.Stats{CFLEstimate: c})
	}
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestDyeRetention(t *testing.T) {
	m := NewDyeRetention()
	m.Observe(fluid.Stats{MaxDye: 0})
	m.Observe(fluid.Stats{MaxDye: 2})
	m.Observe(fluid.Stats{MaxDye: 1})

	if m.Value() != 0.5 {
		t.Errorf("expected retention 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStandard(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 metrics, got %d", len(seen))
	}
}

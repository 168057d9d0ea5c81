package analysis

import (
	"fmt"

	"github.com/san-kum/fluidlab/internal/fluid"
)

var seriesNames = []string{"divergence_l2", "max_velocity", "cfl_estimate", "max_dye"}

func SeriesNames() []string {
	return append([]string(nil), seriesNames...)
}

// Series returns the named column of stats, or nil for an unknown name.
func Series(stats []fluid.Stats, name string) []float64 {
	var pick func(fluid.Stats) float64
	switch name {
	case "divergence_l2":
		pick = func(s fluid.Stats) float64 { return s.DivergenceL2 }
	case "max_velocity":
		pick = func(s fluid.Stats) float64 { return s.MaxVelocity }
	case "cfl_estimate":
		pick = func(s fluid.Stats) float64 { return s.CFLEstimate }
	case "max_dye":
		pick = func(s fluid.Stats) float64 { return s.MaxDye }
	default:
		return nil
	}
	out := make([]float64, len(stats))
	for i, s := range stats {
		out[i] = pick(s)
	}
	return out
}

// Lookup is Series with an error for unknown names.
func Lookup(stats []fluid.Stats, name string) ([]float64, error) {
	s := Series(stats, name)
	if s == nil {
		return nil, fmt.Errorf("unknown series %q (have %v)", name, seriesNames)
	}
	return s, nil
}

package metrics

import "github.com/san-kum/fluidlab/internal/fluid"

// DefaultCFLThreshold is the usual stability bound for semi-Lagrangian
// transport measured in cells per step.
const DefaultCFLThreshold = 1.0

type Metric interface {
	Name() string
	Observe(s fluid.Stats)
	Value() float64
	Reset()
}

// Standard returns the metrics recorded for every run.
func Standard() []Metric {
	return []Metric{
		NewPeakVelocity(),
		NewMeanDivergence(),
		NewCFLStability(DefaultCFLThreshold),
		NewDyeRetention(),
	}
}

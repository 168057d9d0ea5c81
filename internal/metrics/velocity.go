package metrics

import (
	"math"

	"github.com/san-kum/fluidlab/internal/fluid"
)

type PeakVelocity struct {
	name string
	peak float64
}

func NewPeakVelocity() *PeakVelocity {
	return &PeakVelocity{name: "peak_velocity"}
}

func (p *PeakVelocity) Name() string { return p.name }

func (p *PeakVelocity) Observe(s fluid.Stats) {
	p.peak = math.Max(p.peak, s.MaxVelocity)
}

func (p *PeakVelocity) Value() float64 { return p.peak }

func (p *PeakVelocity) Reset() { p.peak = 0 }

// CFLStability is the fraction of observed steps whose CFL estimate stayed
// at or below the threshold.
type CFLStability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewCFLStability(threshold float64) *CFLStability {
	return &CFLStability{
		name:      "cfl_stability",
		threshold: threshold,
	}
}

func (c *CFLStability) Name() string {
	return c.name
}

func (c *CFLStability) Observe(s fluid.Stats) {
	c.samples++
	if !(s.CFLEstimate <= c.threshold) {
		c.violations++
	}
}

func (c *CFLStability) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *CFLStability) Reset() {
	c.violations = 0
	c.samples = 0
}

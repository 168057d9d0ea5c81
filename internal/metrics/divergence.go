package metrics

import "github.com/san-kum/fluidlab/internal/fluid"

type MeanDivergence struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDivergence() *MeanDivergence {
	return &MeanDivergence{name: "mean_divergence"}
}

func (m *MeanDivergence) Name() string { return m.name }

func (m *MeanDivergence) Observe(s fluid.Stats) {
	m.sum += s.DivergenceL2
	m.samples++
}

func (m *MeanDivergence) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDivergence) Reset() {
	m.sum = 0
	m.samples = 0
}

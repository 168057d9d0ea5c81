package metrics

import "github.com/san-kum/fluidlab/internal/fluid"

// DyeRetention compares the last observed dye maximum against the first
// non-zero one. Emitters can push it above 1.
type DyeRetention struct {
	name    string
	initial float64
	current float64
}

func NewDyeRetention() *DyeRetention {
	return &DyeRetention{name: "dye_retention"}
}

func (d *DyeRetention) Name() string { return d.name }

func (d *DyeRetention) Observe(s fluid.Stats) {
	if d.initial == 0 {
		d.initial = s.MaxDye
	}
	d.current = s.MaxDye
}

func (d *DyeRetention) Value() float64 {
	if d.initial == 0 {
		return 0
	}
	return d.current / d.initial
}

func (d *DyeRetention) Reset() {
	d.initial = 0
	d.current = 0
}

package fluid

import (
	"fmt"
	"sort"
)

// Reference parameter values.
const (
	DefaultN            = 128
	DefaultDt           = 0.08
	DefaultVelDiss      = 0.08
	DefaultDyeDiss      = 0.12
	DefaultVortStrength = 6.0
)

// Params holds the mutable solver parameters. N is fixed at construction
// and is not part of Params.
type Params struct {
	Dt           float64 `yaml:"dt" json:"dt"`
	VelDiss      float64 `yaml:"vel_diss" json:"vel_diss"`
	DyeDiss      float64 `yaml:"dye_diss" json:"dye_diss"`
	VortStrength float64 `yaml:"vort_strength" json:"vort_strength"`
	Iters        int     `yaml:"iters" json:"iters"`
}

// Parameter names accepted by SetParam and returned by GetParams.
const (
	ParamDt           = "dt"
	ParamVelDiss      = "vel_diss"
	ParamDyeDiss      = "dye_diss"
	ParamVortStrength = "vort_strength"
	ParamIters        = "iters"
)

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		Dt:           DefaultDt,
		VelDiss:      DefaultVelDiss,
		DyeDiss:      DefaultDyeDiss,
		VortStrength: DefaultVortStrength,
		Iters:        DefaultIters,
	}
}

// Validate rejects values the solver cannot run with.
func (p Params) Validate() error {
	if err := checkDt(p.Dt); err != nil {
		return err
	}
	if err := checkNonNegative(ParamVelDiss, p.VelDiss); err != nil {
		return err
	}
	if err := checkNonNegative(ParamDyeDiss, p.DyeDiss); err != nil {
		return err
	}
	if err := checkNonNegative(ParamVortStrength, p.VortStrength); err != nil {
		return err
	}
	return checkIters(p.Iters)
}

func checkDt(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("dt must be positive, got %g: %w", dt, ErrParameterBounds)
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if !(v >= 0) {
		return fmt.Errorf("%s must be non-negative, got %g: %w", name, v, ErrParameterBounds)
	}
	return nil
}

func checkIters(iters int) error {
	if iters < 0 {
		return fmt.Errorf("iters must be non-negative, got %d: %w", iters, ErrParameterBounds)
	}
	return nil
}

// Map returns the parameters keyed by their names.
func (p Params) Map() map[string]float64 {
	return map[string]float64{
		ParamDt:           p.Dt,
		ParamVelDiss:      p.VelDiss,
		ParamDyeDiss:      p.DyeDiss,
		ParamVortStrength: p.VortStrength,
		ParamIters:        float64(p.Iters),
	}
}

// With returns a copy of p with the named parameter replaced. The copy is
// not validated.
func (p Params) With(name string, value float64) (Params, error) {
	switch name {
	case ParamDt:
		p.Dt = value
	case ParamVelDiss:
		p.VelDiss = value
	case ParamDyeDiss:
		p.DyeDiss = value
	case ParamVortStrength:
		p.VortStrength = value
	case ParamIters:
		if value != float64(int(value)) {
			return p, fmt.Errorf("iters must be an integer, got %g: %w", value, ErrParameterBounds)
		}
		p.Iters = int(value)
	default:
		return p, fmt.Errorf("%q: %w", name, ErrUnknownParam)
	}
	return p, nil
}

// ParamNames lists the recognized parameter names in sorted order.
func ParamNames() []string {
	names := make([]string, 0, 5)
	for k := range DefaultParams().Map() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Package fluid implements a dense-grid 2D incompressible flow solver:
// semi-Lagrangian advection, Jacobi pressure projection and vorticity
// confinement, orchestrated by Simulation.
package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// HistoryCapacity bounds the divergence history; the oldest entry is
// dropped on overflow.
const HistoryCapacity = 100

// Fields is a snapshot of the simulation's grids. Dye, U and V alias the
// simulation's storage; the derived grids are freshly computed.
type Fields struct {
	Dye         *mat.Dense
	U           *mat.Dense
	V           *mat.Dense
	Vorticity   *mat.Dense
	Divergence  *mat.Dense
	VelocityMag *mat.Dense
}

// Named returns the fields keyed dye, u, v, vorticity, divergence and
// velocity_mag.
func (f Fields) Named() map[string]*mat.Dense {
	return map[string]*mat.Dense{
		"dye":          f.Dye,
		"u":            f.U,
		"v":            f.V,
		"vorticity":    f.Vorticity,
		"divergence":   f.Divergence,
		"velocity_mag": f.VelocityMag,
	}
}

// Stats are per-step diagnostics derived from the current state.
type Stats struct {
	Step         int     `json:"step" yaml:"step"`
	DivergenceL2 float64 `json:"divergence_l2" yaml:"divergence_l2"`
	MaxVelocity  float64 `json:"max_velocity" yaml:"max_velocity"`
	CFLEstimate  float64 `json:"cfl_estimate" yaml:"cfl_estimate"`
	MaxDye       float64 `json:"max_dye" yaml:"max_dye"`
}

// Simulation owns the velocity and dye grids of one 2D incompressible flow
// and advances them with Step. It is not safe for concurrent use; callers
// driving it from several goroutines must serialize access.
type Simulation struct {
	n      int
	params Params

	u, v, dye *mat.Dense

	// scratch
	uNext, vNext, dyeNext *mat.Dense
	div                   *mat.Dense
	proj                  *projector

	stepCount int
	history   []float64
}

// New creates an n×n simulation at rest.
func New(n int, p Params) (*Simulation, error) {
	if n < 3 {
		return nil, fmt.Errorf("n=%d: %w", n, ErrGridSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		n:       n,
		params:  p,
		u:       NewGrid(n),
		v:       NewGrid(n),
		dye:     NewGrid(n),
		uNext:   NewGrid(n),
		vNext:   NewGrid(n),
		dyeNext: NewGrid(n),
		div:     NewGrid(n),
		proj:    newProjector(n),
		history: make([]float64, 0, HistoryCapacity),
	}, nil
}

func (s *Simulation) N() int         { return s.n }
func (s *Simulation) Params() Params { return s.params }
func (s *Simulation) StepCount() int { return s.stepCount }

// U, V and Dye return the live grids. Writes through them are visible to
// the next Step.
func (s *Simulation) U() *mat.Dense   { return s.u }
func (s *Simulation) V() *mat.Dense   { return s.v }
func (s *Simulation) Dye() *mat.Dense { return s.dye }

// DivergenceHistory returns a copy of the post-projection divergence norms,
// oldest first.
func (s *Simulation) DivergenceHistory() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)
	return out
}

// SetParams replaces all parameters after validating them.
func (s *Simulation) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}

func (s *Simulation) SetDt(dt float64) error {
	if err := checkDt(dt); err != nil {
		return err
	}
	s.params.Dt = dt
	return nil
}

func (s *Simulation) SetVelDiss(d float64) error {
	if err := checkNonNegative(ParamVelDiss, d); err != nil {
		return err
	}
	s.params.VelDiss = d
	return nil
}

func (s *Simulation) SetDyeDiss(d float64) error {
	if err := checkNonNegative(ParamDyeDiss, d); err != nil {
		return err
	}
	s.params.DyeDiss = d
	return nil
}

func (s *Simulation) SetVortStrength(strength float64) error {
	if err := checkNonNegative(ParamVortStrength, strength); err != nil {
		return err
	}
	s.params.VortStrength = strength
	return nil
}

func (s *Simulation) SetIters(iters int) error {
	if err := checkIters(iters); err != nil {
		return err
	}
	s.params.Iters = iters
	return nil
}

// SetParam updates one parameter by name. Unknown names are rejected with
// ErrUnknownParam and leave the parameters unchanged.
func (s *Simulation) SetParam(name string, value float64) error {
	p, err := s.params.With(name, value)
	if err != nil {
		return err
	}
	return s.SetParams(p)
}

// GetParams returns the parameters keyed by name.
func (s *Simulation) GetParams() map[string]float64 {
	return s.params.Map()
}

// AddSplat injects dye and/or velocity. A negative radius is rejected.
func (s *Simulation) AddSplat(sp Splat) error {
	if !(sp.Radius >= 0) {
		return fmt.Errorf("radius must be non-negative, got %g: %w", sp.Radius, ErrParameterBounds)
	}
	if sp.Dye != 0 {
		SplatScalar(s.dye, sp.X, sp.Y, sp.Radius, sp.Dye)
	}
	if sp.Fx != 0 || sp.Fy != 0 {
		SplatVector(s.u, s.v, sp.X, sp.Y, sp.Radius, sp.Fx, sp.Fy)
	}
	return nil
}

// Step advances the simulation by one dt: self-advect velocity, apply
// vorticity confinement, project, then advect dye through the projected
// velocity. The step always completes; if projection raised the divergence
// norm an *InstabilityError is returned afterwards.
func (s *Simulation) Step() error {
	p := s.params

	AdvectVector(s.uNext, s.vNext, s.u, s.v, p.Dt, p.VelDiss)
	s.u.Copy(s.uNext)
	s.v.Copy(s.vNext)

	VorticityConfinement(s.u, s.v, p.VortStrength, p.Dt)

	DivergenceInto(s.div, s.u, s.v)
	pre := L2(s.div)

	s.proj.project(s.u, s.v, p.Iters)

	DivergenceInto(s.div, s.u, s.v)
	post := L2(s.div)
	s.record(post)

	AdvectScalar(s.dyeNext, s.dye, s.u, s.v, p.Dt, p.DyeDiss)
	s.dye.Copy(s.dyeNext)

	s.stepCount++

	if math.IsNaN(post) || post > pre+divergenceSlack {
		return &InstabilityError{Step: s.stepCount, Pre: pre, Post: post}
	}
	return nil
}

func (s *Simulation) record(div float64) {
	if len(s.history) == HistoryCapacity {
		copy(s.history, s.history[1:])
		s.history = s.history[:HistoryCapacity-1]
	}
	s.history = append(s.history, div)
}

// Reset zeroes all grids, the step counter and the history. Parameters are
// kept.
func (s *Simulation) Reset() {
	s.u.Zero()
	s.v.Zero()
	s.dye.Zero()
	s.stepCount = 0
	s.history = s.history[:0]
}

// ClearDye zeroes the dye grid only.
func (s *Simulation) ClearDye() {
	s.dye.Zero()
}

// Fields recomputes the derived grids on every call.
func (s *Simulation) Fields() Fields {
	return Fields{
		Dye:         s.dye,
		U:           s.u,
		V:           s.v,
		Vorticity:   VorticityMagnitude(s.u, s.v),
		Divergence:  Divergence(s.u, s.v),
		VelocityMag: VelocityMagnitude(s.u, s.v),
	}
}

// Stats derives the current diagnostics.
func (s *Simulation) Stats() Stats {
	maxVel := Max(VelocityMagnitude(s.u, s.v))
	st := Stats{
		Step:        s.stepCount,
		MaxVelocity: maxVel,
		CFLEstimate: maxVel * s.params.Dt,
		MaxDye:      Max(s.dye),
	}
	if len(s.history) > 0 {
		st.DivergenceL2 = s.history[len(s.history)-1]
	}
	return st
}

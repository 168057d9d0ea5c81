package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/fluidlab/internal/fluid"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSteps  = 400
	DefaultPreset = "default"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Name         string        `yaml:"name,omitempty" json:"name,omitempty"`
	N            int           `yaml:"n" json:"n"`
	Dt           float64       `yaml:"dt" json:"dt"`
	VelDiss      float64       `yaml:"vel_diss" json:"vel_diss"`
	DyeDiss      float64       `yaml:"dye_diss" json:"dye_diss"`
	VortStrength float64       `yaml:"vort_strength" json:"vort_strength"`
	Iters        int           `yaml:"iters" json:"iters"`
	Steps        int           `yaml:"steps" json:"steps"`
	Seed         int64         `yaml:"seed" json:"seed"`
	Splats       []SplatConfig `yaml:"splats,omitempty" json:"splats,omitempty"`
	Emitters     []SplatConfig `yaml:"emitters,omitempty" json:"emitters,omitempty"`
}

// SplatConfig is a splat in normalized coordinates. A zero radius in a
// config file means the default splat radius.
type SplatConfig struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Dye    float64 `yaml:"dye,omitempty" json:"dye,omitempty"`
	Fx     float64 `yaml:"fx,omitempty" json:"fx,omitempty"`
	Fy     float64 `yaml:"fy,omitempty" json:"fy,omitempty"`
	Radius float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
}

func (s SplatConfig) Splat() fluid.Splat {
	r := s.Radius
	if r == 0 {
		r = fluid.DefaultSplatRadius
	}
	return fluid.Splat{X: s.X, Y: s.Y, Dye: s.Dye, Fx: s.Fx, Fy: s.Fy, Radius: r}
}

func DefaultConfig() *Config {
	p := fluid.DefaultParams()
	return &Config{
		N:            fluid.DefaultN,
		Dt:           p.Dt,
		VelDiss:      p.VelDiss,
		DyeDiss:      p.DyeDiss,
		VortStrength: p.VortStrength,
		Iters:        p.Iters,
		Steps:        DefaultSteps,
		Seed:         42,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Params() fluid.Params {
	return fluid.Params{
		Dt:           c.Dt,
		VelDiss:      c.VelDiss,
		DyeDiss:      c.DyeDiss,
		VortStrength: c.VortStrength,
		Iters:        c.Iters,
	}
}

func (c *Config) Validate() error {
	if c.N < 3 {
		return fmt.Errorf("%w: n=%d: %w", ErrInvalidConfig, c.N, fluid.ErrGridSize)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i, s := range append(append([]SplatConfig{}, c.Splats...), c.Emitters...) {
		if s.Radius < 0 {
			return fmt.Errorf("%w: splat %d: radius %g: %w", ErrInvalidConfig, i, s.Radius, fluid.ErrParameterBounds)
		}
	}
	return nil
}

// Set applies a named override. Besides the solver parameters it accepts
// n, steps and seed.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "n":
		c.N = int(value)
		return nil
	case "steps":
		c.Steps = int(value)
		return nil
	case "seed":
		c.Seed = int64(value)
		return nil
	}
	p, err := c.Params().With(name, value)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.Dt, c.VelDiss, c.DyeDiss, c.VortStrength, c.Iters = p.Dt, p.VelDiss, p.DyeDiss, p.VortStrength, p.Iters
	return nil
}

func (c *Config) Clone() *Config {
	out := *c
	out.Splats = append([]SplatConfig(nil), c.Splats...)
	out.Emitters = append([]SplatConfig(nil), c.Emitters...)
	return &out
}

// NewSimulation builds a simulation from c and applies the initial splats.
func (c *Config) NewSimulation() (*fluid.Simulation, error) {
	s, err := fluid.New(c.N, c.Params())
	if err != nil {
		return nil, err
	}
	for i, sp := range c.Splats {
		if err := s.AddSplat(sp.Splat()); err != nil {
			return nil, fmt.Errorf("splat %d: %w", i, err)
		}
	}
	return s, nil
}

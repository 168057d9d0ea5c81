package config

import "sort"

var Presets = map[string]*Config{
	"default": {
		N: 128, Dt: 0.08, VelDiss: 0.08, DyeDiss: 0.12, VortStrength: 6, Iters: 60, Steps: 400, Seed: 42,
		Splats: []SplatConfig{
			{X: 0.5, Y: 0.5, Dye: 1, Fx: 0.8, Fy: 0.3, Radius: 0.05},
		},
	},
	"vortex_ring": {
		N: 128, Dt: 0.08, VelDiss: 0.05, DyeDiss: 0.08, VortStrength: 10, Iters: 80, Steps: 500, Seed: 42,
		Splats: []SplatConfig{
			{X: 0.5, Y: 0.42, Dye: 1, Fx: 1.2, Radius: 0.06},
			{X: 0.5, Y: 0.58, Dye: 1, Fx: -1.2, Radius: 0.06},
		},
	},
	"opposing_jets": {
		N: 96, Dt: 0.08, VelDiss: 0.08, DyeDiss: 0.12, VortStrength: 6, Iters: 60, Steps: 400, Seed: 42,
		Emitters: []SplatConfig{
			{X: 0.15, Y: 0.5, Dye: 0.4, Fx: 0.6, Radius: 0.04},
			{X: 0.85, Y: 0.5, Dye: 0.4, Fx: -0.6, Radius: 0.04},
		},
	},
	"smoke_plume": {
		N: 128, Dt: 0.06, VelDiss: 0.02, DyeDiss: 0.05, VortStrength: 4, Iters: 60, Steps: 600, Seed: 42,
		Emitters: []SplatConfig{
			{X: 0.5, Y: 0.9, Dye: 0.3, Fy: -0.5, Radius: 0.04},
		},
	},
	"calm": {
		N: 64, Dt: 0.05, VelDiss: 0.3, DyeDiss: 0.2, VortStrength: 0, Iters: 40, Steps: 200, Seed: 42,
		Splats: []SplatConfig{
			{X: 0.5, Y: 0.5, Dye: 1, Radius: 0.1},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	out.Name = name
	return out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

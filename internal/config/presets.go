package config

import (
	"sort"

	"github.com/san-kum/vortsim/internal/physics"
)

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

var Presets = map[string]*Config{
	"quick_test": preset(func(c *Config) {
		c.SetGrid(64)
		c.Tfinal = 1.0
	}),
	"standard": preset(func(c *Config) {
		c.IC.Pattern = physics.PatternGrid
		c.IC.Vortices = 4
	}),
	"high_resolution": preset(func(c *Config) {
		c.Method = "spectral"
		c.SetGrid(256)
		c.IC.Pattern = physics.PatternCircular
		c.IC.Vortices = 6
	}),
	"convergence_study": preset(func(c *Config) {
		c.Mode = "convergence"
		c.IC = physics.ICSpec{Kind: physics.TaylorGreen}
		c.Tfinal = 1.0
		c.Dt = 0.0001
		c.Convergence.Meshes = []int{32, 64, 128}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

import "sort"

// Preset is a named, ready-to-run configuration.
type Preset struct {
	Description string
	build       func(*Config)
}

func bentKnees() []float64 { return []float64{0, 0, -20, 40, -20, 0} }

var Presets = map[string]Preset{
	"practice": {
		Description: "left leg steps to 10..60 degrees from zero, right leg holds zero",
		build: func(c *Config) {
			c.Targets.Left = &LegTarget{Degrees: []float64{10, 20, 30, 40, 50, 60}}
		},
	},
	"stand": {
		Description: "both legs straighten from a bent-knee stance",
		build: func(c *Config) {
			c.Initial = StanceConfig{Left: bentKnees(), Right: bentKnees()}
			c.Targets.Left = &LegTarget{Degrees: make([]float64, 6)}
			c.Targets.Right = &LegTarget{Degrees: make([]float64, 6)}
		},
	},
	"crouch": {
		Description: "both feet lowered to 0.80 m below the base, solved through IK",
		build: func(c *Config) {
			c.Targets.Left = &LegTarget{Pose: &PoseTarget{Y: 0.105, Z: -0.80, Guess: bentKnees()}}
			c.Targets.Right = &LegTarget{Pose: &PoseTarget{Y: -0.105, Z: -0.80, Guess: bentKnees()}}
		},
	},
	"step": {
		Description: "left foot moves 10 cm forward through IK while the right leg holds a crouch",
		build: func(c *Config) {
			c.Initial = StanceConfig{Left: bentKnees(), Right: bentKnees()}
			c.Targets.Left = &LegTarget{Pose: &PoseTarget{X: 0.10, Y: 0.105, Z: -0.85, Guess: bentKnees()}}
			c.Targets.Right = &LegTarget{Degrees: bentKnees()}
			c.Sim.Duration = 3
		},
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.build(cfg)
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

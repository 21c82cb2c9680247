package config

import "sort"

var Presets = map[string]*Config{
	// Mars with its two moons, all starting at rest on the x-axis.
	"mars": {
		Name: "mars", GravitationalConstant: DefaultG, TimeStep: 0.1, Iterations: 1000,
		Workers: 1, Integrator: DefaultIntegrator, Bootstrap: "net", Center: "Mars",
		Bodies: []BodyConfig{
			{ID: "Mars", Mass: 6.4185e23},
			{ID: "Phobos", Mass: 1.06e16, Position: [2]float64{9.3773e6, 0}},
			{ID: "Deimos", Mass: 1.80e15, Position: [2]float64{23.463e6, 0}},
		},
	},
	"phobos": {
		Name: "phobos", GravitationalConstant: DefaultG, TimeStep: 0.1, Iterations: 1000,
		Workers: 1, Integrator: DefaultIntegrator, Bootstrap: "net",
		Bodies: []BodyConfig{
			{ID: "A", Mass: 6.4185e23},
			{ID: "B", Mass: 1.06e16, Position: [2]float64{9.3773e6, 0}},
		},
	},
	"solar": {
		Name: "solar", GravitationalConstant: DefaultG, TimeStep: 0.01, Iterations: 5000,
		Workers: 1, Integrator: DefaultIntegrator, Bootstrap: "center", Center: "Sun", PinCenter: true,
		Bodies: []BodyConfig{
			{ID: "Sun", Mass: 1e14},
			{ID: "Mercury", Mass: 1e7, Position: [2]float64{15, 0}},
			{ID: "Venus", Mass: 1e9, Position: [2]float64{20, 0}},
			{ID: "Earth", Mass: 1.23e9, Position: [2]float64{30, 0}},
			{ID: "Mars", Mass: 1e7, Position: [2]float64{45, 0}},
			{ID: "Jupiter", Mass: 5e9, Position: [2]float64{80, 0}},
			{ID: "Neptune", Mass: 2e9, Position: [2]float64{105, 0}},
			{ID: "Saturn", Mass: 4e9, Position: [2]float64{125, 0}},
			{ID: "Uranus", Mass: 1.5e9, Position: [2]float64{140, 0}},
		},
	},
	"binary": {
		Name: "binary", GravitationalConstant: 1.0, TimeStep: 0.001, Iterations: 10000,
		Workers: 1, Integrator: DefaultIntegrator, Bootstrap: "net",
		Bodies: []BodyConfig{
			{ID: "left", Mass: 1, Position: [2]float64{-1, 0}, Velocity: [2]float64{0, -0.5}},
			{ID: "right", Mass: 1, Position: [2]float64{1, 0}, Velocity: [2]float64{0, 0.5}},
		},
	},
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

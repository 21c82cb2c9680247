package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/sim"
)

const (
	DefaultG          = 6.67408e-11
	DefaultTimeStep   = 0.1
	DefaultIterations = 1000
	DefaultWorkers    = 1
	DefaultIntegrator = "euler_cromer"
)

type Config struct {
	Name                  string       `yaml:"name"`
	GravitationalConstant float64      `yaml:"gravitational_constant"`
	TimeStep              float64      `yaml:"time_step"`
	Iterations            int          `yaml:"iterations"`
	Workers               int          `yaml:"workers"`
	Integrator            string       `yaml:"integrator"`
	Bootstrap             string       `yaml:"bootstrap"`
	Center                string       `yaml:"center,omitempty"`
	PinCenter             bool         `yaml:"pin_center,omitempty"`
	Bodies                []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	ID       string     `yaml:"id"`
	Mass     float64    `yaml:"mass"`
	Position [2]float64 `yaml:"position,flow"`
	Velocity [2]float64 `yaml:"velocity,flow"`
}

func (b BodyConfig) Pos() dynamo.Vector2 { return dynamo.Vector2{X: b.Position[0], Y: b.Position[1]} }
func (b BodyConfig) Vel() dynamo.Vector2 { return dynamo.Vector2{X: b.Velocity[0], Y: b.Velocity[1]} }

func DefaultConfig() *Config {
	return &Config{
		Name:                  "custom",
		GravitationalConstant: DefaultG,
		TimeStep:              DefaultTimeStep,
		Iterations:            DefaultIterations,
		Workers:               DefaultWorkers,
		Integrator:            DefaultIntegrator,
		Bootstrap:             string(sim.BootstrapNet),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		G:          c.GravitationalConstant,
		Dt:         c.TimeStep,
		Iterations: c.Iterations,
		Workers:    c.Workers,
		Bootstrap:  sim.Bootstrap(c.Bootstrap),
		Center:     c.Center,
		PinCenter:  c.PinCenter,
	}
}

// Validate rejects every malformed setup before a simulation is built,
// including bodies that share an initial position.
func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if len(c.Bodies) == 0 {
		return dynamo.Configf("no bodies defined")
	}

	seen := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.ID == "" {
			return dynamo.Configf("body %d has no id", i)
		}
		if seen[b.ID] {
			return dynamo.Configf("duplicate body id %q", b.ID)
		}
		seen[b.ID] = true

		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return dynamo.Configf("body %q: mass must be positive and finite, got %g", b.ID, b.Mass)
		}
		if !b.Pos().IsFinite() || !b.Vel().IsFinite() {
			return dynamo.Configf("body %q: position and velocity must be finite", b.ID)
		}

		for _, other := range c.Bodies[:i] {
			if other.Pos().Equal(b.Pos()) {
				return dynamo.Configf("bodies %q and %q share initial position %v", other.ID, b.ID, b.Pos())
			}
		}
	}

	if c.Center != "" && !seen[c.Center] {
		return dynamo.Configf("center body %q is not defined", c.Center)
	}
	return nil
}

func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	copy(out.Bodies, c.Bodies)
	return &out
}

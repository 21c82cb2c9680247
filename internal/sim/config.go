package sim

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Bootstrap selects how a body at rest gets its one-time initial velocity.
type Bootstrap string

const (
	// BootstrapNet sums the circular-velocity heuristic over every other body.
	BootstrapNet Bootstrap = "net"
	// BootstrapCenter uses only the center body; the center itself stays at rest.
	BootstrapCenter Bootstrap = "center"
)

// Config is fixed at construction.
type Config struct {
	G          float64
	Dt         float64
	Iterations int
	// Workers bounds the goroutines of the compute phase; <= 1 runs inline.
	Workers   int
	Bootstrap Bootstrap
	Center    string
	PinCenter bool
}

func DefaultConfig() Config {
	return Config{
		G:          6.67408e-11,
		Dt:         0.1,
		Iterations: 1000,
		Workers:    1,
		Bootstrap:  BootstrapNet,
	}
}

func (c Config) Validate() error {
	if !(c.G > 0) || math.IsInf(c.G, 0) {
		return dynamo.Configf("gravitational constant must be positive and finite, got %g", c.G)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return dynamo.Configf("time step must be positive and finite, got %g", c.Dt)
	}
	if c.Iterations <= 0 {
		return dynamo.Configf("iteration count must be positive, got %d", c.Iterations)
	}
	if c.Workers < 0 {
		return dynamo.Configf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Bootstrap {
	case "", BootstrapNet:
	case BootstrapCenter:
		if c.Center == "" {
			return dynamo.Configf("bootstrap %q needs a center body", c.Bootstrap)
		}
	default:
		return dynamo.Configf("unknown bootstrap mode %q", c.Bootstrap)
	}
	if c.PinCenter && c.Center == "" {
		return dynamo.Configf("pin_center needs a center body")
	}
	return nil
}

package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	simulation *sim.Simulation
	trace      *metrics.EnergyTrace
	metrics    []metrics.Metric
}

type Result struct {
	Steps            int
	Elapsed          time.Duration
	MinKineticEnergy float64
	Energy           metrics.EnergySummary
	Metrics          map[string]float64
	Final            []dynamo.Body
	Trace            *metrics.EnergyTrace
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
	}
}

// Build validates cfg and returns a simulation with every body registered.
func Build(cfg *config.Config, registry *Registry, opts ...sim.Option) (*sim.Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	opts = append([]sim.Option{sim.WithIntegrator(integ)}, opts...)
	s, err := sim.New(cfg.SimConfig(), opts...)
	if err != nil {
		return nil, err
	}

	for _, b := range cfg.Bodies {
		if err := s.RegisterBody(b.ID, b.Mass, b.Pos(), b.Vel()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Setup builds the simulation and attaches the energy trace, the default
// metrics and any extra observers, in that order.
func (e *Experiment) Setup(observers ...dynamo.Observer) error {
	s, err := Build(e.cfg, e.registry)
	if err != nil {
		return err
	}

	e.simulation = s
	e.trace = metrics.NewEnergyTrace()
	e.metrics = e.registry.DefaultMetrics(s)

	s.AddObserver(e.trace)
	for _, m := range e.metrics {
		s.AddObserver(m)
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	return nil
}

// Run executes the full iteration budget. The partial result is returned
// alongside any error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulation == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	runErr := e.simulation.RunAll(ctx)

	result := &Result{
		Steps:            e.simulation.Steps(),
		Elapsed:          time.Since(start),
		MinKineticEnergy: e.simulation.MinKineticEnergy(),
		Energy:           e.trace.Summary(),
		Metrics:          make(map[string]float64),
		Final:            e.simulation.Bodies(),
		Trace:            e.trace,
	}
	result.Metrics[e.trace.Name()] = e.trace.Value()
	result.Metrics["kinetic_energy_period"] = metrics.DominantPeriod(e.trace.Values, e.cfg.TimeStep)
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

// Simulation returns the underlying simulation for adding observers.
func (e *Experiment) Simulation() *sim.Simulation {
	return e.simulation
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

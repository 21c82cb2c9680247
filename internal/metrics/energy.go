package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/sim"
)

// Metric is a step observer that reduces a run to one number.
type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}

// EnergyTrace records the total kinetic energy of every step.
type EnergyTrace struct {
	name   string
	Steps  []int
	Times  []float64
	Values []float64
}

func NewEnergyTrace() *EnergyTrace {
	return &EnergyTrace{name: "kinetic_energy_mean"}
}

func (e *EnergyTrace) Name() string { return e.name }

func (e *EnergyTrace) OnStep(r dynamo.StepResult) error {
	e.Steps = append(e.Steps, r.Step)
	e.Times = append(e.Times, r.Time)
	e.Values = append(e.Values, r.TotalKineticEnergy)
	return nil
}

func (e *EnergyTrace) Value() float64 {
	if len(e.Values) == 0 {
		return 0
	}
	return stat.Mean(e.Values, nil)
}

func (e *EnergyTrace) Reset() {
	e.Steps = e.Steps[:0]
	e.Times = e.Times[:0]
	e.Values = e.Values[:0]
}

type EnergySummary struct {
	Samples int     `json:"samples" yaml:"samples"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Mean    float64 `json:"mean" yaml:"mean"`
	StdDev  float64 `json:"stddev" yaml:"stddev"`
	Final   float64 `json:"final" yaml:"final"`
}

func (e *EnergyTrace) Summary() EnergySummary {
	n := len(e.Values)
	if n == 0 {
		return EnergySummary{}
	}
	s := EnergySummary{
		Samples: n,
		Min:     floats.Min(e.Values),
		Max:     floats.Max(e.Values),
		Final:   e.Values[n-1],
	}
	if n == 1 {
		s.Mean = e.Values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(e.Values, nil)
	return s
}

// DiagnosticsSource exposes the committed state of a simulation.
type DiagnosticsSource interface {
	Diagnostics() (sim.Diagnostics, error)
}

// EnergyDrift tracks the largest relative change of total (kinetic plus
// potential) energy relative to the first observed step.
type EnergyDrift struct {
	name          string
	src           DiagnosticsSource
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(src DiagnosticsSource) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		src:  src,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(r dynamo.StepResult) error {
	d, err := e.src.Diagnostics()
	if err != nil {
		return err
	}

	if e.samples == 0 {
		e.initialEnergy = d.Total
	}

	e.currentEnergy = d.Total
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(d.Total-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
	return nil
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change in magnitude of total linear
// momentum relative to the first observed step.
type MomentumDrift struct {
	name     string
	src      DiagnosticsSource
	initial  dynamo.Vector2
	maxDrift float64
	samples  int
}

func NewMomentumDrift(src DiagnosticsSource) *MomentumDrift {
	return &MomentumDrift{
		name: "momentum_drift",
		src:  src,
	}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) OnStep(r dynamo.StepResult) error {
	d, err := m.src.Diagnostics()
	if err != nil {
		return err
	}
	if m.samples == 0 {
		m.initial = d.Momentum
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, d.Momentum.Sub(m.initial).Magnitude())
	return nil
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vector2{}
	m.maxDrift = 0
	m.samples = 0
}

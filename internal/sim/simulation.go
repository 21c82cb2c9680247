package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/physics"
)

type Phase int

const (
	Uninitialized Phase = iota
	Ready
	Stepping
	Finished
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Staged is the next state of one body, produced by the compute phase and
// written by the commit phase.
type Staged struct {
	ID       string
	Velocity dynamo.Vector2
	Position dynamo.Vector2
}

type Option func(*Simulation)

func WithIntegrator(i dynamo.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// Simulation owns a fixed roster of bodies and advances them in lockstep.
// It is not safe for concurrent use.
type Simulation struct {
	cfg        Config
	gravity    *physics.Gravity
	integrator dynamo.Integrator
	observers  []dynamo.Observer

	bodies []dynamo.Body
	index  map[string]int

	phase Phase
	steps int
	minKE float64
}

func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Bootstrap == "" {
		cfg.Bootstrap = BootstrapNet
	}

	s := &Simulation{
		cfg:        cfg,
		gravity:    physics.NewGravity(cfg.G),
		integrator: integrators.NewEulerCromer(),
		observers:  make([]dynamo.Observer, 0),
		index:      make(map[string]int),
		phase:      Uninitialized,
		minKE:      math.Inf(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulation) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// RegisterBody adds a body to the roster. Registration closes once the first
// step has run.
func (s *Simulation) RegisterBody(id string, mass float64, position, velocity dynamo.Vector2) error {
	if s.phase > Ready {
		return dynamo.Configf("cannot register %q: roster is fixed once stepping begins", id)
	}
	if id == "" {
		return dynamo.Configf("body id must not be empty")
	}
	if _, ok := s.index[id]; ok {
		return dynamo.Configf("duplicate body id %q", id)
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return dynamo.Configf("body %q: mass must be positive and finite, got %g", id, mass)
	}
	if !position.IsFinite() || !velocity.IsFinite() {
		return dynamo.Configf("body %q: position and velocity must be finite", id)
	}

	s.index[id] = len(s.bodies)
	s.bodies = append(s.bodies, dynamo.Body{
		ID:       id,
		Mass:     mass,
		Position: position,
		Velocity: velocity,
	})
	s.phase = Ready
	return nil
}

// Step advances every body by one time step: all next states are computed
// from the same snapshot, then committed together. On error no body is
// modified.
func (s *Simulation) Step() (dynamo.StepResult, error) {
	switch s.phase {
	case Uninitialized:
		return dynamo.StepResult{}, dynamo.Configf("no bodies registered")
	case Finished:
		return dynamo.StepResult{}, dynamo.ErrFinished
	case Ready:
		if s.cfg.Center != "" {
			if _, ok := s.index[s.cfg.Center]; !ok {
				return dynamo.StepResult{}, dynamo.Configf("center body %q is not registered", s.cfg.Center)
			}
		}
	}

	next, err := s.compute()
	if err != nil {
		return dynamo.StepResult{}, err
	}

	result, err := s.commit(next)
	if err != nil {
		return dynamo.StepResult{}, err
	}

	for _, obs := range s.observers {
		if err := obs.OnStep(result); err != nil {
			return result, &dynamo.StepError{Step: result.Step, Wrapped: fmt.Errorf("observer: %w", err)}
		}
	}

	return result, nil
}

// Run calls Step exactly n times. The context is checked between steps only.
func (s *Simulation) Run(ctx context.Context, n int) error {
	if n < 0 || n > s.Remaining() {
		return fmt.Errorf("%w: requested %d, remaining %d", dynamo.ErrIterationBudget, n, s.Remaining())
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return err
		}
	}

	return nil
}

// RunAll runs the remaining iteration budget.
func (s *Simulation) RunAll(ctx context.Context) error {
	return s.Run(ctx, s.Remaining())
}

func (s *Simulation) compute() ([]Staged, error) {
	snapshot := s.bodies
	next := make([]Staged, len(snapshot))
	step := s.steps + 1

	// A step always completes, so the compute phase ignores cancellation.
	err := dynamo.ParallelFor(context.Background(), len(snapshot), s.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			st, err := s.advance(snapshot[i], snapshot)
			if err != nil {
				return &dynamo.StepError{Step: step, Body: snapshot[i].ID, Wrapped: err}
			}
			next[i] = st
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return next, nil
}

func (s *Simulation) advance(b dynamo.Body, bodies []dynamo.Body) (Staged, error) {
	if s.cfg.PinCenter && b.ID == s.cfg.Center {
		return Staged{ID: b.ID, Position: b.Position}, nil
	}

	vel := b.Velocity
	if vel.IsZero() {
		v, err := s.bootstrap(b, bodies)
		if err != nil {
			return Staged{}, err
		}
		vel = v
	}

	acc, err := s.gravity.NetAcceleration(b, bodies)
	if err != nil {
		return Staged{}, err
	}

	nextVel, nextPos := s.integrator.Advance(b.Position, vel, acc, s.cfg.Dt)
	return Staged{ID: b.ID, Velocity: nextVel, Position: nextPos}, nil
}

func (s *Simulation) bootstrap(b dynamo.Body, bodies []dynamo.Body) (dynamo.Vector2, error) {
	if s.cfg.Bootstrap != BootstrapCenter {
		return s.gravity.NetCircularVelocity(b, bodies)
	}
	if b.ID == s.cfg.Center {
		return dynamo.Vector2{}, nil
	}
	return s.gravity.CircularVelocity(b, bodies[s.index[s.cfg.Center]])
}

// commit validates every staged state before writing any of them.
func (s *Simulation) commit(next []Staged) (dynamo.StepResult, error) {
	step := s.steps + 1

	if len(next) != len(s.bodies) {
		return dynamo.StepResult{}, fmt.Errorf("commit: %d staged states for %d bodies", len(next), len(s.bodies))
	}

	total := 0.0
	for i, st := range next {
		b := s.bodies[i]
		if st.ID != b.ID {
			return dynamo.StepResult{}, fmt.Errorf("commit: staged state %q out of order, expected %q", st.ID, b.ID)
		}
		if !st.Velocity.IsFinite() || !st.Position.IsFinite() {
			return dynamo.StepResult{}, &dynamo.StepError{Step: step, Body: b.ID, Wrapped: dynamo.ErrNumericInstability}
		}
		total += dynamo.Body{Mass: b.Mass, Velocity: st.Velocity}.KineticEnergy()
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return dynamo.StepResult{}, &dynamo.StepError{Step: step, Wrapped: dynamo.ErrNumericInstability}
	}

	positions := make(map[string]dynamo.Vector2, len(next))
	for i, st := range next {
		s.bodies[i].Velocity = st.Velocity
		s.bodies[i].Position = st.Position
		positions[st.ID] = st.Position
	}

	s.steps = step
	s.minKE = math.Min(s.minKE, total)
	if s.steps >= s.cfg.Iterations {
		s.phase = Finished
	} else {
		s.phase = Stepping
	}

	return dynamo.StepResult{
		Step:               step,
		Time:               float64(step) * s.cfg.Dt,
		Positions:          positions,
		TotalKineticEnergy: total,
	}, nil
}

func (s *Simulation) Config() Config { return s.cfg }
func (s *Simulation) Phase() Phase   { return s.phase }
func (s *Simulation) Steps() int     { return s.steps }

func (s *Simulation) Remaining() int { return s.cfg.Iterations - s.steps }

// MinKineticEnergy is the smallest total kinetic energy committed so far,
// +Inf before the first step.
func (s *Simulation) MinKineticEnergy() float64 { return s.minKE }

// Bodies returns a copy of the roster in registration order.
func (s *Simulation) Bodies() []dynamo.Body {
	out := make([]dynamo.Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s *Simulation) Body(id string) (dynamo.Body, bool) {
	i, ok := s.index[id]
	if !ok {
		return dynamo.Body{}, false
	}
	return s.bodies[i], true
}

func (s *Simulation) IDs() []string {
	ids := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		ids[i] = b.ID
	}
	return ids
}

package dynamo

import (
	"fmt"
	"math"
)

// Vector2 is an immutable 2D vector. Every operation returns a new value.
type Vector2 struct {
	X float64
	Y float64
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector2) Scale(k float64) Vector2 {
	return Vector2{X: v.X * k, Y: v.Y * k}
}

func (v Vector2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Unit returns v scaled to length 1. The zero vector is returned unchanged,
// so callers must not assume the result has unit length.
func (v Vector2) Unit() Vector2 {
	m := v.Magnitude()
	if m == 0 {
		return v
	}
	return Vector2{X: v.X / m, Y: v.Y / m}
}

// IsZero reports whether both components are exactly zero.
func (v Vector2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Equal compares components exactly, without tolerance.
func (v Vector2) Equal(o Vector2) bool {
	return v.X == o.X && v.Y == o.Y
}

func (v Vector2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Body is the physical state of one point mass.
type Body struct {
	ID       string
	Mass     float64
	Position Vector2
	Velocity Vector2
}

func (b Body) KineticEnergy() float64 {
	v := b.Velocity.Magnitude()
	return 0.5 * b.Mass * v * v
}

// Integrator advances a single body over one time step.
type Integrator interface {
	Advance(position, velocity, acceleration Vector2, dt float64) (nextVelocity, nextPosition Vector2)
}

// StepResult is the data a completed step exposes to consumers.
type StepResult struct {
	Step               int
	Time               float64
	Positions          map[string]Vector2
	TotalKineticEnergy float64
}

// Observer consumes step results. A returned error aborts the run.
type Observer interface {
	OnStep(r StepResult) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(r StepResult) error

func (f ObserverFunc) OnStep(r StepResult) error { return f(r) }

// Package dynamo provides the core primitives of the orbital integrator.
//
// The package defines the value types and interfaces shared by the
// physics, integrator and simulation packages:
//
//   - [Vector2]: immutable 2D vector
//   - [Body]: physical state of one point mass
//   - [Integrator]: advances one body over one time step
//   - [StepResult]: what a completed step exposes to consumers
//   - [Observer]: consumer of step results
//
// # Example
//
//	s, _ := sim.New(sim.Config{G: 6.67408e-11, Dt: 0.1, Iterations: 1000})
//	_ = s.RegisterBody("Mars", 6.4185e23, dynamo.Vector2{}, dynamo.Vector2{})
//	_ = s.RegisterBody("Phobos", 1.06e16, dynamo.Vector2{X: 9.3773e6}, dynamo.Vector2{})
//	err := s.RunAll(ctx)
//
// # Errors
//
// Failures are reported through the sentinels [ErrConfiguration],
// [ErrDegenerateGeometry] and [ErrNumericInstability]; use errors.Is to
// classify them. None of them is recoverable by retrying the same step.
package dynamo

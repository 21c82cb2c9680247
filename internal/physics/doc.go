// Package physics provides the gravitational force model.
//
// [Gravity] computes net properties of one body relative to the rest of the
// system, using straightforward O(n^2) pairwise sums:
//
//   - [Gravity.NetAcceleration]: sum of -G*m*r/|r|^3 over other bodies
//   - [Gravity.NetCircularVelocity]: circular-speed bootstrap for bodies at rest
//   - [Gravity.PotentialEnergy], [Momentum], [AngularMomentum]: diagnostics
//
// # Bootstrap heuristic
//
// The circular-velocity estimate puts the whole speed sqrt(G*m/r) on the
// y-axis. It is only meaningful for bodies placed on the x-axis of the
// dominant mass:
//
//	g := physics.NewGravity(6.67408e-11)
//	v0, err := g.NetCircularVelocity(phobos, bodies)
package physics

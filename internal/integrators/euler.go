package integrators

import "github.com/san-kum/orbsim/internal/dynamo"

// EulerCromer is semi-implicit Euler: velocity is advanced first and the new
// velocity advances the position.
type EulerCromer struct{}

func NewEulerCromer() *EulerCromer {
	return &EulerCromer{}
}

func (e *EulerCromer) Advance(position, velocity, acceleration dynamo.Vector2, dt float64) (dynamo.Vector2, dynamo.Vector2) {
	nextVelocity := velocity.Add(acceleration.Scale(dt))
	nextPosition := position.Add(nextVelocity.Scale(dt))
	return nextVelocity, nextPosition
}

package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Gravity computes pairwise Newtonian influences on a body from the rest of
// the system. Sums iterate bodies in slice order so results are reproducible.
type Gravity struct {
	G float64
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

// NetAcceleration returns the vector sum of the accelerations every other
// body exerts on body. Each term points from body toward the other mass.
func (g *Gravity) NetAcceleration(body dynamo.Body, bodies []dynamo.Body) (dynamo.Vector2, error) {
	var net dynamo.Vector2
	for i := range bodies {
		other := &bodies[i]
		if other.ID == body.ID {
			continue
		}

		r := body.Position.Sub(other.Position)
		d := r.Magnitude()
		if d == 0 {
			return dynamo.Vector2{}, coincident(body.ID, other.ID)
		}

		net = net.Add(r.Scale(-g.G * other.Mass / (d * d * d)))
	}
	return net, nil
}

// NetCircularVelocity sums sqrt(G*m/r) over every other body, all of it on
// the y-axis. It is a bootstrap heuristic for bodies starting at rest on the
// x-axis of a dominant mass, not a general circular-orbit solver.
func (g *Gravity) NetCircularVelocity(body dynamo.Body, bodies []dynamo.Body) (dynamo.Vector2, error) {
	var net dynamo.Vector2
	for i := range bodies {
		other := &bodies[i]
		if other.ID == body.ID {
			continue
		}

		v, err := g.CircularVelocity(body, *other)
		if err != nil {
			return dynamo.Vector2{}, err
		}
		net = net.Add(v)
	}
	return net, nil
}

// CircularVelocity is the single-body form of NetCircularVelocity.
func (g *Gravity) CircularVelocity(body, center dynamo.Body) (dynamo.Vector2, error) {
	d := body.Position.Sub(center.Position).Magnitude()
	if d == 0 {
		return dynamo.Vector2{}, coincident(body.ID, center.ID)
	}
	return dynamo.Vector2{Y: math.Sqrt(g.G * center.Mass / d)}, nil
}

// PotentialEnergy returns -sum G*m_i*m_j/r_ij over all unordered pairs.
func (g *Gravity) PotentialEnergy(bodies []dynamo.Body) (float64, error) {
	pe := 0.0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			d := bodies[j].Position.Sub(bodies[i].Position).Magnitude()
			if d == 0 {
				return 0, coincident(bodies[i].ID, bodies[j].ID)
			}
			pe -= g.G * bodies[i].Mass * bodies[j].Mass / d
		}
	}
	return pe, nil
}

func Momentum(bodies []dynamo.Body) dynamo.Vector2 {
	var p dynamo.Vector2
	for _, b := range bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// AngularMomentum returns the z-component of sum m*(r x v) about the origin.
func AngularMomentum(bodies []dynamo.Body) float64 {
	L := 0.0
	for _, b := range bodies {
		L += b.Mass * (b.Position.X*b.Velocity.Y - b.Position.Y*b.Velocity.X)
	}
	return L
}

func KineticEnergy(bodies []dynamo.Body) float64 {
	ke := 0.0
	for _, b := range bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

func coincident(a, b string) error {
	return fmt.Errorf("%w: %q and %q share a position", dynamo.ErrDegenerateGeometry, a, b)
}

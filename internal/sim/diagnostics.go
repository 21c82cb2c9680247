package sim

import (
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
)

// Diagnostics describes the committed state of the system.
type Diagnostics struct {
	Kinetic         float64
	Potential       float64
	Total           float64
	Momentum        dynamo.Vector2
	AngularMomentum float64
}

func (s *Simulation) Diagnostics() (Diagnostics, error) {
	pe, err := s.gravity.PotentialEnergy(s.bodies)
	if err != nil {
		return Diagnostics{}, err
	}
	ke := physics.KineticEnergy(s.bodies)
	return Diagnostics{
		Kinetic:         ke,
		Potential:       pe,
		Total:           ke + pe,
		Momentum:        physics.Momentum(s.bodies),
		AngularMomentum: physics.AngularMomentum(s.bodies),
	}, nil
}

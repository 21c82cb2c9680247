package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/physics"
)

const (
	marsMass   = 6.4185e23
	phobosMass = 1.06e16
	phobosR    = 9.3773e6
	deimosMass = 1.80e15
	deimosR    = 23.463e6
)

func newSim(cfg Config, opts ...Option) *Simulation {
	s, err := New(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func marsPhobos(cfg Config) *Simulation {
	s := newSim(cfg)
	Expect(s.RegisterBody("A", marsMass, dynamo.Vector2{}, dynamo.Vector2{})).To(Succeed())
	Expect(s.RegisterBody("B", phobosMass, dynamo.Vector2{X: phobosR}, dynamo.Vector2{})).To(Succeed())
	return s
}

func marsSystem(cfg Config) *Simulation {
	s := marsPhobos(cfg)
	Expect(s.RegisterBody("C", deimosMass, dynamo.Vector2{X: deimosR}, dynamo.Vector2{})).To(Succeed())
	return s
}

func collect(s *Simulation, n int) []dynamo.StepResult {
	results := make([]dynamo.StepResult, 0, n)
	s.AddObserver(dynamo.ObserverFunc(func(r dynamo.StepResult) error {
		results = append(results, r)
		return nil
	}))
	Expect(s.Run(context.Background(), n)).To(Succeed())
	return results
}

var _ = Describe("Simulation", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid constructor settings",
			func(mutate func(*Config)) {
				mutate(&cfg)
				_, err := New(cfg)
				Expect(err).To(MatchError(dynamo.ErrConfiguration))
			},
			Entry("zero G", func(c *Config) { c.G = 0 }),
			Entry("negative G", func(c *Config) { c.G = -1 }),
			Entry("NaN G", func(c *Config) { c.G = math.NaN() }),
			Entry("zero dt", func(c *Config) { c.Dt = 0 }),
			Entry("negative dt", func(c *Config) { c.Dt = -0.1 }),
			Entry("infinite dt", func(c *Config) { c.Dt = math.Inf(1) }),
			Entry("zero iterations", func(c *Config) { c.Iterations = 0 }),
			Entry("negative workers", func(c *Config) { c.Workers = -2 }),
			Entry("unknown bootstrap", func(c *Config) { c.Bootstrap = "spiral" }),
			Entry("center bootstrap without center", func(c *Config) { c.Bootstrap = BootstrapCenter }),
			Entry("pin without center", func(c *Config) { c.PinCenter = true }),
		)

		DescribeTable("rejects a duplicate id regardless of other fields",
			func(mass float64, pos, vel dynamo.Vector2) {
				s := marsPhobos(cfg)
				err := s.RegisterBody("B", mass, pos, vel)
				Expect(err).To(MatchError(dynamo.ErrConfiguration))
				Expect(s.Bodies()).To(HaveLen(2))
			},
			Entry("identical fields", phobosMass, dynamo.Vector2{X: phobosR}, dynamo.Vector2{}),
			Entry("different mass", 1.0, dynamo.Vector2{X: phobosR}, dynamo.Vector2{}),
			Entry("different position", phobosMass, dynamo.Vector2{X: 1, Y: 2}, dynamo.Vector2{}),
			Entry("different velocity", phobosMass, dynamo.Vector2{X: phobosR}, dynamo.Vector2{Y: 3}),
			Entry("invalid mass too", -1.0, dynamo.Vector2{}, dynamo.Vector2{}),
		)

		DescribeTable("rejects invalid bodies",
			func(id string, mass float64, pos dynamo.Vector2) {
				s := newSim(cfg)
				Expect(s.RegisterBody(id, mass, pos, dynamo.Vector2{})).To(MatchError(dynamo.ErrConfiguration))
				Expect(s.Phase()).To(Equal(Uninitialized))
			},
			Entry("zero mass", "A", 0.0, dynamo.Vector2{}),
			Entry("negative mass", "A", -5.0, dynamo.Vector2{}),
			Entry("NaN mass", "A", math.NaN(), dynamo.Vector2{}),
			Entry("infinite mass", "A", math.Inf(1), dynamo.Vector2{}),
			Entry("empty id", "", 1.0, dynamo.Vector2{}),
			Entry("non-finite position", "A", 1.0, dynamo.Vector2{X: math.NaN()}),
		)

		It("fails to step with no bodies", func() {
			s := newSim(cfg)
			_, err := s.Step()
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("fixes the roster once stepping begins", func() {
			s := marsPhobos(cfg)
			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.RegisterBody("C", 1, dynamo.Vector2{X: 5}, dynamo.Vector2{})).To(MatchError(dynamo.ErrConfiguration))
		})

		It("requires the center body to be registered before stepping", func() {
			cfg.Center = "Mars"
			cfg.PinCenter = true
			s := marsPhobos(cfg)
			_, err := s.Step()
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
			Expect(s.Steps()).To(BeZero())
		})
	})

	Describe("state machine", func() {
		It("moves from uninitialized through ready and stepping to finished", func() {
			cfg.Iterations = 2
			s := newSim(cfg)
			Expect(s.Phase()).To(Equal(Uninitialized))

			Expect(s.RegisterBody("A", marsMass, dynamo.Vector2{}, dynamo.Vector2{})).To(Succeed())
			Expect(s.Phase()).To(Equal(Ready))
			Expect(s.RegisterBody("B", phobosMass, dynamo.Vector2{X: phobosR}, dynamo.Vector2{})).To(Succeed())

			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(Stepping))

			_, err = s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(Finished))
			Expect(s.Remaining()).To(BeZero())

			_, err = s.Step()
			Expect(err).To(MatchError(dynamo.ErrFinished))
			Expect(s.Steps()).To(Equal(2))
		})
	})

	Describe("first step of the Mars-Phobos system", func() {
		var (
			s      *Simulation
			result dynamo.StepResult
			vc     float64
		)

		BeforeEach(func() {
			s = marsPhobos(cfg)
			var err error
			result, err = s.Step()
			Expect(err).NotTo(HaveOccurred())
			vc = math.Sqrt(cfg.G * marsMass / phobosR)
		})

		It("seeds the satellite with the circular velocity along y", func() {
			b, ok := s.Body("B")
			Expect(ok).To(BeTrue())
			Expect(b.Velocity.Y).To(BeNumerically("~", vc, 1e-9*vc))
			Expect(b.Velocity.Y / 1e3).To(BeNumerically("~", 2.136, 1e-2))

			aB := cfg.G * marsMass / (phobosR * phobosR)
			Expect(b.Velocity.X).To(BeNumerically("~", -aB*cfg.Dt, 1e-12))
			Expect(b.Velocity.Magnitude()).To(BeNumerically("~", vc, 1e-3))
		})

		It("advances the position with the new velocity", func() {
			b, _ := s.Body("B")
			Expect(b.Position.X).To(BeNumerically("~", phobosR, 1e-1))
			Expect(b.Position.Y).To(BeNumerically("~", vc*cfg.Dt, 1e-9))
			Expect(result.Positions["B"]).To(Equal(b.Position))
		})

		It("pulls the central mass slightly toward the satellite", func() {
			a, _ := s.Body("A")
			aA := cfg.G * phobosMass / (phobosR * phobosR)
			Expect(a.Velocity.X).To(BeNumerically("~", aA*cfg.Dt, 1e-18))
			Expect(a.Position.X).To(BeNumerically(">", 0))
			Expect(a.Position.Magnitude()).To(BeNumerically("<", 0.1))
		})

		It("reports every body and the total kinetic energy", func() {
			Expect(result.Step).To(Equal(1))
			Expect(result.Time).To(BeNumerically("~", cfg.Dt, 1e-15))
			Expect(result.Positions).To(HaveLen(2))
			Expect(result.Positions).To(HaveKey("A"))
			Expect(result.Positions).To(HaveKey("B"))

			expected := 0.0
			for _, b := range s.Bodies() {
				expected += b.KineticEnergy()
			}
			Expect(result.TotalKineticEnergy).To(Equal(expected))
			Expect(s.MinKineticEnergy()).To(Equal(expected))
		})
	})

	Describe("two-phase step", func() {
		It("computes every body against the pre-step snapshot", func() {
			s := marsSystem(cfg)
			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())

			before := s.Bodies()
			g := physics.NewGravity(cfg.G)
			integ := integrators.NewEulerCromer()
			expected := make([]dynamo.Body, len(before))
			for i, b := range before {
				acc, err := g.NetAcceleration(b, before)
				Expect(err).NotTo(HaveOccurred())
				v, x := integ.Advance(b.Position, b.Velocity, acc, cfg.Dt)
				expected[i] = dynamo.Body{ID: b.ID, Mass: b.Mass, Position: x, Velocity: v}
			}

			_, err = s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Bodies()).To(Equal(expected))
		})

		It("applies the bootstrap only while a body is at rest", func() {
			s := marsPhobos(cfg)
			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())
			b1, _ := s.Body("B")

			_, err = s.Step()
			Expect(err).NotTo(HaveOccurred())
			b2, _ := s.Body("B")

			vc := math.Sqrt(cfg.G * marsMass / phobosR)
			Expect(b2.Velocity.Y).To(BeNumerically("<", b1.Velocity.Y+1e-6))
			Expect(b2.Velocity.Y).To(BeNumerically("~", vc, 1e-3))
			Expect(b2.Velocity.Y).NotTo(BeNumerically("~", 2*vc, 1))
		})

		It("is independent of the worker count", func() {
			serial := collect(marsSystem(cfg), 50)

			cfg.Workers = 3
			parallel := collect(marsSystem(cfg), 50)
			Expect(parallel).To(Equal(serial))
		})

		It("rejects non-finite staged states without writing any body", func() {
			s := marsPhobos(cfg)
			before := s.Bodies()
			next := []Staged{
				{ID: "A", Position: dynamo.Vector2{X: 1}},
				{ID: "B", Position: dynamo.Vector2{X: math.Inf(1)}},
			}

			_, err := s.commit(next)
			Expect(err).To(MatchError(dynamo.ErrNumericInstability))

			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Body).To(Equal("B"))
			Expect(s.Bodies()).To(Equal(before))
			Expect(s.Steps()).To(BeZero())
		})

		It("rejects staged states that do not match the roster", func() {
			s := marsPhobos(cfg)
			_, err := s.commit([]Staged{{ID: "A"}})
			Expect(err).To(HaveOccurred())
			_, err = s.commit([]Staged{{ID: "B"}, {ID: "A"}})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("failures", func() {
		It("raises degenerate geometry for coincident bodies on the first step", func() {
			s := newSim(cfg)
			Expect(s.RegisterBody("A", 1, dynamo.Vector2{X: 3, Y: 4}, dynamo.Vector2{})).To(Succeed())
			Expect(s.RegisterBody("B", 2, dynamo.Vector2{X: 3, Y: 4}, dynamo.Vector2{})).To(Succeed())

			calls := 0
			s.AddObserver(dynamo.ObserverFunc(func(dynamo.StepResult) error {
				calls++
				return nil
			}))

			result, err := s.Step()
			Expect(err).To(MatchError(dynamo.ErrDegenerateGeometry))
			Expect(result.Positions).To(BeNil())
			Expect(calls).To(BeZero())
			Expect(s.Steps()).To(BeZero())

			Expect(s.Run(context.Background(), 3)).To(MatchError(dynamo.ErrDegenerateGeometry))
		})

		It("surfaces numeric blow-up instead of propagating it", func() {
			cfg.G = 1e308
			s := newSim(cfg)
			Expect(s.RegisterBody("A", 1e308, dynamo.Vector2{}, dynamo.Vector2{})).To(Succeed())
			Expect(s.RegisterBody("B", 1e308, dynamo.Vector2{X: 1}, dynamo.Vector2{})).To(Succeed())
			before := s.Bodies()

			_, err := s.Step()
			Expect(err).To(MatchError(dynamo.ErrNumericInstability))
			Expect(s.Bodies()).To(Equal(before))
			Expect(math.IsInf(s.MinKineticEnergy(), 1)).To(BeTrue())
		})

		It("aborts the run when an observer fails", func() {
			s := marsPhobos(cfg)
			boom := errors.New("display closed")
			s.AddObserver(dynamo.ObserverFunc(func(r dynamo.StepResult) error {
				if r.Step == 3 {
					return boom
				}
				return nil
			}))

			err := s.Run(context.Background(), 10)
			Expect(err).To(MatchError(boom))
			Expect(s.Steps()).To(Equal(3))
		})
	})

	Describe("Run", func() {
		It("steps exactly n times and notifies observers in order", func() {
			s := marsPhobos(cfg)
			results := collect(s, 25)
			Expect(results).To(HaveLen(25))
			for i, r := range results {
				Expect(r.Step).To(Equal(i + 1))
			}
			Expect(s.Steps()).To(Equal(25))
			Expect(s.Remaining()).To(Equal(cfg.Iterations - 25))
		})

		It("rejects requests beyond the remaining budget", func() {
			cfg.Iterations = 5
			s := marsPhobos(cfg)
			Expect(s.Run(context.Background(), 6)).To(MatchError(dynamo.ErrIterationBudget))
			Expect(s.Run(context.Background(), -1)).To(MatchError(dynamo.ErrIterationBudget))
			Expect(s.Steps()).To(BeZero())

			Expect(s.RunAll(context.Background())).To(Succeed())
			Expect(s.Phase()).To(Equal(Finished))
			Expect(s.Run(context.Background(), 0)).To(Succeed())
		})

		It("stops between steps when the context is canceled", func() {
			s := marsPhobos(cfg)
			ctx, cancel := context.WithCancel(context.Background())
			s.AddObserver(dynamo.ObserverFunc(func(r dynamo.StepResult) error {
				if r.Step == 4 {
					cancel()
				}
				return nil
			}))

			err := s.Run(ctx, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(s.Steps()).To(Equal(4))
		})

		It("is deterministic across runs", func() {
			first := collect(marsSystem(cfg), 100)
			second := collect(marsSystem(cfg), 100)
			Expect(second).To(Equal(first))
		})
	})

	Describe("kinetic energy bookkeeping", func() {
		It("tracks the minimum total kinetic energy observed", func() {
			s := marsSystem(cfg)
			Expect(math.IsInf(s.MinKineticEnergy(), 1)).To(BeTrue())

			lowest := math.Inf(1)
			prevMin := s.MinKineticEnergy()
			s.AddObserver(dynamo.ObserverFunc(func(r dynamo.StepResult) error {
				Expect(r.TotalKineticEnergy).To(BeNumerically(">=", 0))
				lowest = math.Min(lowest, r.TotalKineticEnergy)
				Expect(s.MinKineticEnergy()).To(Equal(lowest))
				Expect(s.MinKineticEnergy()).To(BeNumerically("<=", prevMin))
				prevMin = s.MinKineticEnergy()
				return nil
			}))
			Expect(s.Run(context.Background(), 200)).To(Succeed())
		})

		It("matches the diagnostics of the committed state", func() {
			s := marsPhobos(cfg)
			r, err := s.Step()
			Expect(err).NotTo(HaveOccurred())

			d, err := s.Diagnostics()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Kinetic).To(BeNumerically("~", r.TotalKineticEnergy, 1e-9*r.TotalKineticEnergy))
			Expect(d.Potential).To(BeNumerically("<", 0))
			Expect(d.Total).To(Equal(d.Kinetic + d.Potential))
		})
	})

	Describe("center options", func() {
		It("keeps a pinned center body still", func() {
			cfg.Center = "A"
			cfg.PinCenter = true
			s := marsPhobos(cfg)
			Expect(s.Run(context.Background(), 20)).To(Succeed())

			a, _ := s.Body("A")
			Expect(a.Position.IsZero()).To(BeTrue())
			Expect(a.Velocity.IsZero()).To(BeTrue())
		})

		It("seeds only from the center body in center bootstrap mode", func() {
			cfg.Center = "A"
			cfg.Bootstrap = BootstrapCenter
			s := marsSystem(cfg)
			_, err := s.Step()
			Expect(err).NotTo(HaveOccurred())

			a, _ := s.Body("A")
			Expect(a.Velocity.Y).To(BeZero())

			c, _ := s.Body("C")
			vc := math.Sqrt(cfg.G * marsMass / deimosR)
			Expect(c.Velocity.Y).To(BeNumerically("~", vc, 1e-9*vc))
		})
	})
})

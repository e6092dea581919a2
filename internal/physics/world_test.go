package physics_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physbox/internal/physics"
)

const dt = 1.0 / 60

func newFloor() *physics.Body {
	return physics.NewBody(physics.BodyOptions{
		Mass:       0,
		Shape:      &physics.Plane{},
		Quaternion: mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0}),
	})
}

func newSphere(r float64, pos mgl64.Vec3) *physics.Body {
	return physics.NewBody(physics.BodyOptions{Mass: 1, Shape: &physics.Sphere{Radius: r}, Position: pos})
}

func newBox(half mgl64.Vec3, pos mgl64.Vec3) *physics.Body {
	return physics.NewBody(physics.BodyOptions{Mass: 1, Shape: &physics.Box{HalfExtents: half}, Position: pos})
}

func run(w *physics.World, steps int) {
	for i := 0; i < steps; i++ {
		w.StepFixed(dt)
	}
}

var _ = Describe("World", func() {
	var (
		world *physics.World
		floor *physics.Body
	)

	BeforeEach(func() {
		var err error
		world, err = physics.NewWorld(physics.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		floor = newFloor()
		world.AddBody(floor)
	})

	It("rejects an unknown broadphase", func() {
		cfg := physics.DefaultConfig()
		cfg.Broadphase = "octree"
		_, err := physics.NewWorld(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("points the rotated floor normal up", func() {
		n := (&physics.Plane{}).Normal(floor.Quaternion)
		Expect(n.Y()).To(BeNumerically("~", 1, 1e-9))
	})

	Describe("Step", func() {
		It("carries the remainder of the accumulator modulo the fixed step", func() {
			Expect(world.Step(dt, 0.01, 3)).To(Equal(0))
			Expect(world.Step(dt, 0.01, 3)).To(Equal(1))
		})

		It("caps sub-steps and drops the surplus", func() {
			Expect(world.Step(dt, 0.075, 3)).To(Equal(3))
			Expect(world.Step(dt, 0.01, 3)).To(Equal(1))
		})

		It("advances time by the fixed step per internal step", func() {
			world.Step(dt, 2*dt+dt/2, 3)
			Expect(world.Time()).To(BeNumerically("~", 2*dt, 1e-12))
			Expect(world.StepCount()).To(Equal(uint64(2)))
		})

		It("ignores non-positive deltas", func() {
			Expect(world.Step(dt, -1, 3)).To(Equal(0))
			Expect(world.Time()).To(Equal(0.0))
		})
	})

	Describe("resting contact", func() {
		It("lands a sphere on the floor without tunnelling", func() {
			s := newSphere(0.5, mgl64.Vec3{0, 3, 0})
			world.AddBody(s)

			minY := math.Inf(1)
			for i := 0; i < 600; i++ {
				world.StepFixed(dt)
				minY = math.Min(minY, s.Position.Y())
			}
			Expect(minY).To(BeNumerically(">", 0))
			Expect(s.Position.Y()).To(BeNumerically("~", 0.5, 0.05))
			Expect(floor.Position).To(Equal(mgl64.Vec3{}))
		})

		It("settles a box flat on the floor", func() {
			b := newBox(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{2, 5, 2})
			world.AddBody(b)
			run(world, 600)

			Expect(b.Position.Y()).To(BeNumerically("~", 0.5, 0.05))
			Expect(b.Position.Y()).To(BeNumerically("<=", 5))
		})

		It("rests a sphere on top of a box", func() {
			b := physics.NewBody(physics.BodyOptions{
				Mass:     0,
				Shape:    &physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
				Position: mgl64.Vec3{0, 0.5, 0},
			})
			s := newSphere(0.5, mgl64.Vec3{0, 3, 0})
			world.AddBody(b)
			world.AddBody(s)
			run(world, 600)

			Expect(s.Position.Y()).To(BeNumerically("~", 1.5, 0.1))
		})

		It("puts a resting body to sleep and zeroes its velocity", func() {
			s := newSphere(0.5, mgl64.Vec3{0, 0.6, 0})
			world.AddBody(s)
			run(world, 300)

			Expect(s.IsSleeping()).To(BeTrue())
			Expect(s.Velocity).To(Equal(mgl64.Vec3{}))
		})

		It("keeps bodies awake when sleeping is disabled", func() {
			cfg := physics.DefaultConfig()
			cfg.AllowSleep = false
			w, err := physics.NewWorld(cfg)
			Expect(err).NotTo(HaveOccurred())
			w.AddBody(newFloor())
			s := newSphere(0.5, mgl64.Vec3{0, 0.6, 0})
			w.AddBody(s)
			run(w, 300)

			Expect(s.SleepState()).To(Equal(physics.Awake))
		})

		It("wakes a sleeping body when a moving one strikes it", func() {
			low := newSphere(0.5, mgl64.Vec3{0, 0.5, 0})
			world.AddBody(low)
			run(world, 200)
			Expect(low.IsSleeping()).To(BeTrue())

			high := newSphere(0.5, mgl64.Vec3{0.2, 3, 0})
			world.AddBody(high)
			woke := false
			for i := 0; i < 120 && !woke; i++ {
				world.StepFixed(dt)
				woke = !low.IsSleeping()
			}
			Expect(woke).To(BeTrue())
		})
	})

	Describe("stacking", func() {
		unit := mgl64.Vec3{0.5, 0.5, 0.5}

		tower := func(n int) []*physics.Body {
			boxes := make([]*physics.Body, n)
			for i := range boxes {
				boxes[i] = newBox(unit, mgl64.Vec3{0, 0.5 + float64(i), 0})
				world.AddBody(boxes[i])
			}
			return boxes
		}

		DescribeTable("holds a resting tower in place",
			func(n int) {
				boxes := tower(n)
				for i := 0; i < 600; i++ {
					world.Step(dt, dt, 3)
				}

				for i, b := range boxes {
					Expect(math.Abs(b.Position.X())).To(BeNumerically("<", 0.05), "box %d x", i)
					Expect(math.Abs(b.Position.Z())).To(BeNumerically("<", 0.05), "box %d z", i)
					Expect(b.Position.Y()).To(BeNumerically("~", 0.5+float64(i), 0.03), "box %d y", i)
					Expect(b.IsSleeping()).To(BeTrue(), "box %d asleep", i)
				}
			},
			Entry("two boxes", 2),
			Entry("three boxes", 3),
			Entry("four boxes", 4),
		)

		It("holds a tower with the naive broadphase", func() {
			cfg := physics.DefaultConfig()
			cfg.Broadphase = "naive"
			w, err := physics.NewWorld(cfg)
			Expect(err).NotTo(HaveOccurred())
			w.AddBody(newFloor())
			var boxes []*physics.Body
			for i := 0; i < 3; i++ {
				b := newBox(unit, mgl64.Vec3{0, 0.5 + float64(i), 0})
				w.AddBody(b)
				boxes = append(boxes, b)
			}
			run(w, 600)

			top := boxes[2]
			Expect(math.Hypot(top.Position.X(), top.Position.Z())).To(BeNumerically("<", 0.05))
			Expect(top.Position.Y()).To(BeNumerically("~", 2.5, 0.03))
		})

		It("keeps an offset box that lands on another one", func() {
			low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
			high := newBox(unit, mgl64.Vec3{0.2, 1.6, 0.1})
			world.AddBody(low)
			world.AddBody(high)

			minY := math.Inf(1)
			for i := 0; i < 600; i++ {
				world.StepFixed(dt)
				minY = math.Min(minY, high.Position.Y())
			}

			Expect(minY).To(BeNumerically(">=", 1.45))
			Expect(high.Position.Y()).To(BeNumerically(">=", 1.48))
			Expect(math.Abs(high.Position.X() - 0.2)).To(BeNumerically("<", 0.1))
			Expect(math.Abs(high.Position.Z() - 0.1)).To(BeNumerically("<", 0.1))
			Expect(math.Hypot(low.Position.X(), low.Position.Z())).To(BeNumerically("<", 0.05))
			Expect(high.IsSleeping()).To(BeTrue())
		})

		It("keeps a turned box that lands on another one", func() {
			low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
			high := physics.NewBody(physics.BodyOptions{
				Mass:       1,
				Shape:      &physics.Box{HalfExtents: unit},
				Position:   mgl64.Vec3{0, 2, 0},
				Quaternion: mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 1, 0}),
			})
			world.AddBody(low)
			world.AddBody(high)
			run(world, 600)

			Expect(high.Position.Y()).To(BeNumerically(">=", 1.48))
			Expect(math.Hypot(high.Position.X(), high.Position.Z())).To(BeNumerically("<", 0.3))
			Expect(high.IsSleeping()).To(BeTrue())
		})

		It("rests a sphere on a dynamic box", func() {
			low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
			s := newSphere(0.5, mgl64.Vec3{0, 1.5, 0})
			world.AddBody(low)
			world.AddBody(s)
			run(world, 600)

			Expect(s.Position.Y()).To(BeNumerically("~", 1.5, 0.02))
			Expect(math.Hypot(s.Position.X(), s.Position.Z())).To(BeNumerically("<", 0.02))
			Expect(low.Position.Y()).To(BeNumerically("~", 0.5, 0.02))
		})

		It("catches a sphere dropped onto a dynamic box", func() {
			low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
			s := newSphere(0.5, mgl64.Vec3{0, 3, 0})
			world.AddBody(low)
			world.AddBody(s)
			run(world, 600)

			Expect(s.Position.Y()).To(BeNumerically(">=", 1.48))
			Expect(math.Hypot(s.Position.X(), s.Position.Z())).To(BeNumerically("<", 0.1))
		})
	})

	Describe("collide events", func() {
		var (
			cfg physics.Config
			s   *physics.Body
		)

		BeforeEach(func() {
			cfg = physics.DefaultConfig()
			cfg.DefaultContactMaterial.Restitution = 0
			var err error
			world, err = physics.NewWorld(cfg)
			Expect(err).NotTo(HaveOccurred())
			floor = newFloor()
			world.AddBody(floor)
			s = newSphere(0.5, mgl64.Vec3{0, 1.5, 0})
			world.AddBody(s)
		})

		It("fires once when a pair starts touching", func() {
			var events []physics.CollideEvent
			var impact float64
			world.OnCollide(s, func(ev physics.CollideEvent) {
				events = append(events, ev)
				impact = math.Abs(ev.Contact.ImpactVelocityAlongNormal())
			})
			run(world, 180)

			Expect(events).To(HaveLen(1))
			Expect(events[0].Target).To(BeIdenticalTo(s))
			Expect(events[0].Body).To(BeIdenticalTo(floor))
			Expect(impact).To(BeNumerically(">", 3))
		})

		It("notifies both bodies of the pair", func() {
			var floorHits int
			world.OnCollide(floor, func(ev physics.CollideEvent) {
				Expect(ev.Body).To(BeIdenticalTo(s))
				floorHits++
			})
			run(world, 120)
			Expect(floorHits).To(Equal(1))
		})

		It("stops delivering after Off", func() {
			calls := 0
			sub := world.OnCollide(s, func(physics.CollideEvent) { calls++ })
			Expect(world.Off(sub)).To(BeTrue())
			Expect(world.Off(sub)).To(BeFalse())
			run(world, 120)
			Expect(calls).To(Equal(0))
		})

		It("drops handlers of removed bodies", func() {
			calls := 0
			world.OnCollide(s, func(physics.CollideEvent) { calls++ })
			Expect(world.HandlerCount(s)).To(Equal(1))

			Expect(world.RemoveBody(s)).To(BeTrue())
			Expect(world.Contains(s)).To(BeFalse())
			Expect(world.HandlerCount(s)).To(Equal(0))
			Expect(world.RemoveBody(s)).To(BeFalse())

			run(world, 120)
			Expect(calls).To(Equal(0))
			Expect(s.Position.Y()).To(Equal(1.5))
		})
	})

	It("keeps insertion order after removal", func() {
		a := newSphere(0.1, mgl64.Vec3{0, 1, 0})
		b := newSphere(0.1, mgl64.Vec3{1, 1, 0})
		c := newSphere(0.1, mgl64.Vec3{2, 1, 0})
		world.AddBody(a)
		world.AddBody(b)
		world.AddBody(c)
		world.RemoveBody(b)

		Expect(world.Bodies()).To(Equal([]*physics.Body{floor, a, c}))
		Expect(world.NumBodies()).To(Equal(3))
	})

	It("uses a registered contact material for its material pair", func() {
		ice := physics.NewMaterial("ice")
		world.AddContactMaterial(physics.ContactMaterial{A: ice, B: ice, Friction: 0, Restitution: 0})
		floor.Material = ice

		s := physics.NewBody(physics.BodyOptions{
			Mass: 1, Shape: &physics.Sphere{Radius: 0.5}, Position: mgl64.Vec3{0, 1.5, 0}, Material: ice,
		})
		world.AddBody(s)
		maxAfter := 0.0
		landed := false
		world.OnCollide(s, func(physics.CollideEvent) { landed = true })
		for i := 0; i < 120; i++ {
			world.StepFixed(dt)
			if landed {
				maxAfter = math.Max(maxAfter, s.Position.Y())
			}
		}
		Expect(landed).To(BeTrue())
		Expect(maxAfter).To(BeNumerically("<", 0.6))
	})
})

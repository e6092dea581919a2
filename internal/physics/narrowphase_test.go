package physics_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physbox/internal/physics"
)

var _ = Describe("Contact", func() {
	It("measures closing speed along the normal", func() {
		a := newSphere(0.5, mgl64.Vec3{0, 0, 0})
		b := newSphere(0.5, mgl64.Vec3{1, 0, 0})
		a.Velocity = mgl64.Vec3{2, 0, 0}
		b.Velocity = mgl64.Vec3{-1, 0, 0}

		c := &physics.Contact{
			BodyA: a, BodyB: b,
			Normal: mgl64.Vec3{1, 0, 0},
			PointA: mgl64.Vec3{0.5, 0, 0},
			PointB: mgl64.Vec3{0.5, 0, 0},
		}
		Expect(c.ImpactVelocityAlongNormal()).To(BeNumerically("~", 3, 1e-12))
		Expect(c.Other(a)).To(BeIdenticalTo(b))
		Expect(c.Other(b)).To(BeIdenticalTo(a))
	})

	It("includes spin in the surface velocity", func() {
		b := newSphere(1, mgl64.Vec3{})
		b.AngularVelocity = mgl64.Vec3{0, 0, 1}
		v := b.VelocityAtWorldPoint(mgl64.Vec3{1, 0, 0})
		Expect(v.Y()).To(BeNumerically("~", 1, 1e-12))
	})
})

var _ = Describe("Box", func() {
	It("grows its bounds when rotated", func() {
		box := &physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
		flat := box.AABB(mgl64.Vec3{}, mgl64.QuatIdent())
		turned := box.AABB(mgl64.Vec3{}, mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}))

		Expect(flat.Max.X()).To(BeNumerically("~", 0.5, 1e-12))
		Expect(turned.Max.X()).To(BeNumerically(">", 0.5))
		Expect(turned.Max.Y()).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("has the solid box inertia", func() {
		box := &physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
		i := box.Inertia(12)
		Expect(i.X()).To(BeNumerically("~", 2, 1e-12))
	})
})

var _ = Describe("Body", func() {
	It("treats zero mass as static", func() {
		b := physics.NewBody(physics.BodyOptions{Mass: 0, Shape: &physics.Sphere{Radius: 1}})
		Expect(b.IsStatic()).To(BeTrue())
		b.ApplyImpulse(mgl64.Vec3{1, 0, 0}, b.Position)
		Expect(b.Velocity).To(Equal(mgl64.Vec3{}))
	})

	It("defaults to the identity orientation", func() {
		b := newSphere(1, mgl64.Vec3{})
		Expect(b.Quaternion).To(Equal(mgl64.QuatIdent()))
	})

	It("accepts degenerate dimensions without producing NaN", func() {
		w, err := physics.NewWorld(physics.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		w.AddBody(newFloor())
		flat := newBox(mgl64.Vec3{0, -0.5, 0.5}, mgl64.Vec3{0, 2, 0})
		w.AddBody(flat)
		run(w, 120)

		for i := 0; i < 3; i++ {
			Expect(math.IsNaN(flat.Position[i])).To(BeFalse())
		}
	})

	It("wakes when pushed", func() {
		b := newSphere(1, mgl64.Vec3{})
		b.Sleep()
		Expect(b.SleepState()).To(Equal(physics.Sleeping))
		b.ApplyImpulse(mgl64.Vec3{0, 1, 0}, b.Position)
		Expect(b.SleepState()).To(Equal(physics.Awake))
		Expect(b.Velocity.Y()).To(BeNumerically("~", 1, 1e-12))
	})
})

var _ = Describe("box against box", func() {
	unit := mgl64.Vec3{0.5, 0.5, 0.5}

	centroid := func(cs []physics.Contact) mgl64.Vec3 {
		var sum mgl64.Vec3
		for _, c := range cs {
			sum = sum.Add(c.PointA)
		}
		return sum.Mul(1 / float64(len(cs)))
	}

	It("clips a flat face contact to the four shared corners", func() {
		low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
		high := newBox(unit, mgl64.Vec3{0, 1.49, 0})

		cs := physics.Collide(low, high)
		Expect(cs).To(HaveLen(4))
		for _, c := range cs {
			Expect(c.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9)).To(BeTrue())
			Expect(c.Depth).To(BeNumerically("~", 0.01, 1e-9))
			Expect(c.PointA.Y()).To(BeNumerically("~", 1, 1e-9))
			Expect(c.PointB.Y()).To(BeNumerically("~", 0.99, 1e-9))
		}
		mid := centroid(cs)
		Expect(mid.X()).To(BeNumerically("~", 0, 1e-9))
		Expect(mid.Z()).To(BeNumerically("~", 0, 1e-9))
	})

	It("orients the manifold from the first body to the second", func() {
		low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
		high := newBox(unit, mgl64.Vec3{0, 1.49, 0})

		cs := physics.Collide(high, low)
		Expect(cs).To(HaveLen(4))
		for _, c := range cs {
			Expect(c.BodyA).To(BeIdenticalTo(high))
			Expect(c.Normal.Y()).To(BeNumerically("~", -1, 1e-9))
			Expect(c.PointA.Y()).To(BeNumerically("~", 0.99, 1e-9))
			Expect(c.PointB.Y()).To(BeNumerically("~", 1, 1e-9))
		}
	})

	It("keeps the overlap region of an offset face", func() {
		low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
		high := newBox(unit, mgl64.Vec3{0.3, 1.49, 0})

		cs := physics.Collide(low, high)
		Expect(cs).To(HaveLen(4))
		for _, c := range cs {
			Expect(c.PointA.X()).To(BeNumerically(">=", -0.2-1e-9))
			Expect(c.PointA.X()).To(BeNumerically("<=", 0.5+1e-9))
		}
		Expect(centroid(cs).X()).To(BeNumerically("~", 0.15, 1e-9))
	})

	It("returns an octagon for a face turned by 45 degrees", func() {
		low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
		high := physics.NewBody(physics.BodyOptions{
			Mass:       1,
			Shape:      &physics.Box{HalfExtents: unit},
			Position:   mgl64.Vec3{0, 1.49, 0},
			Quaternion: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0}),
		})

		cs := physics.Collide(low, high)
		Expect(cs).To(HaveLen(8))
		mid := centroid(cs)
		Expect(mid.X()).To(BeNumerically("~", 0, 1e-9))
		Expect(mid.Z()).To(BeNumerically("~", 0, 1e-9))
	})

	It("uses a single point for crossed edges", func() {
		half := math.Sqrt2 / 2
		a := physics.NewBody(physics.BodyOptions{
			Mass:       1,
			Shape:      &physics.Box{HalfExtents: unit},
			Quaternion: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
		})
		b := physics.NewBody(physics.BodyOptions{
			Mass:       1,
			Shape:      &physics.Box{HalfExtents: unit},
			Position:   mgl64.Vec3{0, 2*half - 0.01, 0},
			Quaternion: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0}),
		})

		cs := physics.Collide(a, b)
		Expect(cs).To(HaveLen(1))
		Expect(cs[0].Normal.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9)).To(BeTrue())
		Expect(cs[0].Depth).To(BeNumerically("~", 0.01, 1e-9))
		Expect(cs[0].PointA.ApproxEqualThreshold(mgl64.Vec3{0, half, 0}, 1e-9)).To(BeTrue())
	})

	It("reports nothing for separated boxes", func() {
		low := newBox(unit, mgl64.Vec3{0, 0.5, 0})
		high := newBox(unit, mgl64.Vec3{0, 1.6, 0})
		Expect(physics.Collide(low, high)).To(BeEmpty())
	})
})

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	baumgarte        = 0.2
	penetrationSlop  = 0.005
	restitutionFloor = 1.0
)

type contactConstraint struct {
	a, b   *Body
	rA, rB mgl64.Vec3
	n      mgl64.Vec3
	t      [2]mgl64.Vec3

	massN  float64
	massT  [2]float64
	target float64

	friction float64
	lambdaN  float64
	lambdaT  [2]float64
}

// solver is a sequential impulse solver over non-penetration and
// friction constraints.
type solver struct {
	iterations  int
	constraints []contactConstraint
}

func (s *solver) reset() {
	s.constraints = s.constraints[:0]
}

func (s *solver) add(c *Contact, mat ContactMaterial, dt float64) {
	cc := contactConstraint{
		a:        c.BodyA,
		b:        c.BodyB,
		rA:       c.PointA.Sub(c.BodyA.Position),
		rB:       c.PointB.Sub(c.BodyB.Position),
		n:        c.Normal,
		friction: mat.Friction,
	}
	cc.t[0], cc.t[1] = tangents(cc.n)

	cc.massN = effectiveMass(cc.a, cc.b, cc.rA, cc.rB, cc.n)
	for i := 0; i < 2; i++ {
		cc.massT[i] = effectiveMass(cc.a, cc.b, cc.rA, cc.rB, cc.t[i])
	}

	vn := cc.relativeVelocity().Dot(cc.n)
	if vn < -restitutionFloor {
		cc.target = -mat.Restitution * vn
	}
	if bias := baumgarte / dt * math.Max(c.Depth-penetrationSlop, 0); bias > cc.target {
		cc.target = bias
	}
	s.constraints = append(s.constraints, cc)
}

func (s *solver) solve() {
	for it := 0; it < s.iterations; it++ {
		for i := range s.constraints {
			s.constraints[i].solveFriction()
			s.constraints[i].solveNormal()
		}
	}
}

// relativeVelocity of B with respect to A at the contact.
func (c *contactConstraint) relativeVelocity() mgl64.Vec3 {
	va := c.a.Velocity.Add(c.a.AngularVelocity.Cross(c.rA))
	vb := c.b.Velocity.Add(c.b.AngularVelocity.Cross(c.rB))
	return vb.Sub(va)
}

func (c *contactConstraint) solveNormal() {
	if c.massN == 0 {
		return
	}
	vn := c.relativeVelocity().Dot(c.n)
	delta := c.massN * (c.target - vn)
	prev := c.lambdaN
	c.lambdaN = math.Max(prev+delta, 0)
	c.apply(c.n.Mul(c.lambdaN - prev))
}

func (c *contactConstraint) solveFriction() {
	limit := c.friction * c.lambdaN
	for i := 0; i < 2; i++ {
		if c.massT[i] == 0 {
			continue
		}
		vt := c.relativeVelocity().Dot(c.t[i])
		delta := -c.massT[i] * vt
		prev := c.lambdaT[i]
		c.lambdaT[i] = mgl64.Clamp(prev+delta, -limit, limit)
		c.apply(c.t[i].Mul(c.lambdaT[i] - prev))
	}
}

func (c *contactConstraint) apply(p mgl64.Vec3) {
	c.a.applyImpulse(p.Mul(-1), c.rA)
	c.b.applyImpulse(p, c.rB)
}

func effectiveMass(a, b *Body, rA, rB, dir mgl64.Vec3) float64 {
	k := a.solveInvMass() + b.solveInvMass()
	k += dir.Dot(a.invInertiaWorld(rA.Cross(dir)).Cross(rA))
	k += dir.Dot(b.invInertiaWorld(rB.Cross(dir)).Cross(rB))
	if k <= 0 {
		return 0
	}
	return 1 / k
}

func tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	t1 := n.Cross(ref).Normalize()
	return t1, n.Cross(t1)
}

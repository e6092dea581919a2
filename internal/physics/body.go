package physics

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyType int

const (
	BodyDynamic BodyType = iota
	BodyStatic
)

type SleepState int

const (
	Awake SleepState = iota
	Sleepy
	Sleeping
)

func (s SleepState) String() string {
	switch s {
	case Awake:
		return "awake"
	case Sleepy:
		return "sleepy"
	case Sleeping:
		return "sleeping"
	}
	return "unknown"
}

var bodyIDs atomic.Uint64

const defaultDamping = 0.01

// Body is a rigid body with a single collision shape. A mass of zero makes
// the body static.
type Body struct {
	ID    uint64
	Type  BodyType
	Shape Shape

	Position        mgl64.Vec3
	Quaternion      mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	// Material overrides the world's default contact material when set on
	// both bodies of a contact.
	Material *Material

	// Fraction of velocity lost per second.
	LinearDamping  float64
	AngularDamping float64

	mass          float64
	invMass       float64
	invInertia    mgl64.Vec3
	force, torque mgl64.Vec3

	sleepState     SleepState
	timeLastSleepy float64
}

type BodyOptions struct {
	Mass       float64
	Shape      Shape
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Material   *Material
}

func NewBody(opts BodyOptions) *Body {
	q := opts.Quaternion
	if q == (mgl64.Quat{}) {
		q = mgl64.QuatIdent()
	}
	b := &Body{
		ID:         bodyIDs.Add(1),
		Shape:      opts.Shape,
		Position:   opts.Position,
		Quaternion: q,
		Material:   opts.Material,

		LinearDamping:  defaultDamping,
		AngularDamping: defaultDamping,
	}
	b.SetMass(opts.Mass)
	return b
}

// SetMass updates mass, type and inverse inertia.
func (b *Body) SetMass(mass float64) {
	b.mass = mass
	if mass <= 0 {
		b.Type = BodyStatic
		b.invMass = 0
		b.invInertia = mgl64.Vec3{}
		return
	}
	b.Type = BodyDynamic
	b.invMass = 1 / mass
	var inertia mgl64.Vec3
	if b.Shape != nil {
		inertia = b.Shape.Inertia(mass)
	}
	for i := 0; i < 3; i++ {
		if inertia[i] > 0 {
			b.invInertia[i] = 1 / inertia[i]
		} else {
			b.invInertia[i] = 0
		}
	}
}

func (b *Body) Mass() float64 { return b.mass }

func (b *Body) SleepState() SleepState { return b.sleepState }

func (b *Body) IsStatic() bool { return b.Type == BodyStatic }

func (b *Body) IsSleeping() bool { return b.sleepState == Sleeping }

// WakeUp returns a sleeping or sleepy body to the awake state.
func (b *Body) WakeUp() {
	b.sleepState = Awake
}

// Sleep zeroes the body's motion and excludes it from integration until
// it is woken.
func (b *Body) Sleep() {
	b.sleepState = Sleeping
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// ApplyForce accumulates a world-space force applied at a world point; it
// is consumed by the next step.
func (b *Body) ApplyForce(force, worldPoint mgl64.Vec3) {
	if b.Type != BodyDynamic {
		return
	}
	if b.sleepState == Sleeping {
		b.WakeUp()
	}
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(worldPoint.Sub(b.Position).Cross(force))
}

// ApplyImpulse changes velocity immediately.
func (b *Body) ApplyImpulse(impulse, worldPoint mgl64.Vec3) {
	if b.Type != BodyDynamic {
		return
	}
	if b.sleepState == Sleeping {
		b.WakeUp()
	}
	b.applyImpulse(impulse, worldPoint.Sub(b.Position))
}

// VelocityAtWorldPoint returns the linear velocity of the material point
// at p.
func (b *Body) VelocityAtWorldPoint(p mgl64.Vec3) mgl64.Vec3 {
	r := p.Sub(b.Position)
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

func (b *Body) KineticEnergy() float64 {
	if b.Type != BodyDynamic {
		return 0
	}
	e := 0.5 * b.mass * b.Velocity.LenSqr()
	local := b.Quaternion.Conjugate().Rotate(b.AngularVelocity)
	for i := 0; i < 3; i++ {
		if b.invInertia[i] > 0 {
			e += 0.5 * local[i] * local[i] / b.invInertia[i]
		}
	}
	return e
}

func (b *Body) AABB() AABB {
	return b.Shape.AABB(b.Position, b.Quaternion)
}

// solveInvMass is zero for static and sleeping bodies.
func (b *Body) solveInvMass() float64 {
	if b.Type != BodyDynamic || b.sleepState == Sleeping {
		return 0
	}
	return b.invMass
}

// invInertiaWorld applies the world-space inverse inertia tensor to v.
func (b *Body) invInertiaWorld(v mgl64.Vec3) mgl64.Vec3 {
	if b.Type != BodyDynamic || b.sleepState == Sleeping {
		return mgl64.Vec3{}
	}
	local := b.Quaternion.Conjugate().Rotate(v)
	local = mgl64.Vec3{local[0] * b.invInertia[0], local[1] * b.invInertia[1], local[2] * b.invInertia[2]}
	return b.Quaternion.Rotate(local)
}

func (b *Body) applyImpulse(p, r mgl64.Vec3) {
	inv := b.solveInvMass()
	if inv == 0 {
		return
	}
	b.Velocity = b.Velocity.Add(p.Mul(inv))
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld(r.Cross(p)))
}

func (b *Body) damp(dt float64) {
	b.Velocity = b.Velocity.Mul(math.Pow(1-b.LinearDamping, dt))
	b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-b.AngularDamping, dt))
}

func (b *Body) integrate(dt float64) {
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	w := b.AngularVelocity
	if w.LenSqr() == 0 {
		return
	}
	spin := mgl64.Quat{W: 0, V: w}.Mul(b.Quaternion).Scale(0.5 * dt)
	b.Quaternion = b.Quaternion.Add(spin).Normalize()
}

func (b *Body) sleepTick(now, speedLimit, timeLimit float64) {
	speedSq := b.Velocity.LenSqr() + b.AngularVelocity.LenSqr()
	limitSq := speedLimit * speedLimit
	switch {
	case b.sleepState == Awake && speedSq < limitSq:
		b.sleepState = Sleepy
		b.timeLastSleepy = now
	case b.sleepState == Sleepy && speedSq > limitSq:
		b.WakeUp()
	case b.sleepState == Sleepy && now-b.timeLastSleepy > timeLimit:
		b.Sleep()
	}
}

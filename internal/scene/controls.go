package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OrbitControls orbits a camera around its target. With damping enabled,
// rotation input decays over several updates instead of applying at once.
type OrbitControls struct {
	Camera        *PerspectiveCamera
	EnableDamping bool
	DampingFactor float64
	MinDistance   float64
	MaxDistance   float64

	theta, phi, radius float64
	dTheta, dPhi       float64
	scale              float64
}

const phiEps = 1e-6

func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	o := &OrbitControls{
		Camera:        cam,
		DampingFactor: 0.05,
		MaxDistance:   math.Inf(1),
		scale:         1,
	}
	o.sync()
	return o
}

// sync reads the spherical coordinates back from the camera position.
func (o *OrbitControls) sync() {
	off := o.Camera.Position.Sub(o.Camera.Target)
	o.radius = off.Len()
	if o.radius == 0 {
		o.theta, o.phi = 0, math.Pi/2
		return
	}
	o.theta = math.Atan2(off[0], off[2])
	o.phi = math.Acos(mgl64.Clamp(off[1]/o.radius, -1, 1))
}

// Rotate queues an orbit by the given azimuth and polar angles in radians.
func (o *OrbitControls) Rotate(azimuth, polar float64) {
	o.dTheta -= azimuth
	o.dPhi -= polar
}

// Dolly moves the camera towards the target for factor > 1 and away for
// factor < 1.
func (o *OrbitControls) Dolly(factor float64) {
	if factor > 0 {
		o.scale /= factor
	}
}

func (o *OrbitControls) Pan(delta mgl64.Vec3) {
	o.Camera.Target = o.Camera.Target.Add(delta)
	o.Camera.Position = o.Camera.Position.Add(delta)
}

// Update applies pending input to the camera. It reports whether the
// camera moved.
func (o *OrbitControls) Update() bool {
	before := o.Camera.Position

	if o.EnableDamping {
		o.theta += o.dTheta * o.DampingFactor
		o.phi += o.dPhi * o.DampingFactor
	} else {
		o.theta += o.dTheta
		o.phi += o.dPhi
	}
	o.phi = mgl64.Clamp(o.phi, phiEps, math.Pi-phiEps)
	o.radius = mgl64.Clamp(o.radius*o.scale, o.MinDistance, o.MaxDistance)

	sinPhi := math.Sin(o.phi)
	off := mgl64.Vec3{
		o.radius * sinPhi * math.Sin(o.theta),
		o.radius * math.Cos(o.phi),
		o.radius * sinPhi * math.Cos(o.theta),
	}
	o.Camera.Position = o.Camera.Target.Add(off)

	if o.EnableDamping {
		o.dTheta *= 1 - o.DampingFactor
		o.dPhi *= 1 - o.DampingFactor
	} else {
		o.dTheta, o.dPhi = 0, 0
	}
	o.scale = 1

	return o.Camera.Position.Sub(before).LenSqr() > 1e-12
}

func (o *OrbitControls) Distance() float64 { return o.radius }

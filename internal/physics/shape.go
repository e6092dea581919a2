package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapePlane
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapePlane:
		return "plane"
	}
	return "unknown"
}

// Shape is the collision geometry attached to a body, in body-local space.
type Shape interface {
	Kind() ShapeKind
	// Inertia returns the principal moments of inertia for the given mass.
	Inertia(mass float64) mgl64.Vec3
	// AABB returns world-space bounds for the shape at the given transform.
	AABB(pos mgl64.Vec3, rot mgl64.Quat) AABB
}

type Sphere struct {
	Radius float64
}

func (s *Sphere) Kind() ShapeKind { return ShapeSphere }

func (s *Sphere) Inertia(mass float64) mgl64.Vec3 {
	i := 2.0 / 5.0 * mass * s.Radius * s.Radius
	return mgl64.Vec3{i, i, i}
}

func (s *Sphere) AABB(pos mgl64.Vec3, _ mgl64.Quat) AABB {
	r := math.Abs(s.Radius)
	ext := mgl64.Vec3{r, r, r}
	return AABB{Min: pos.Sub(ext), Max: pos.Add(ext)}
}

type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Kind() ShapeKind { return ShapeBox }

func (b *Box) Inertia(mass float64) mgl64.Vec3 {
	x, y, z := 2*b.HalfExtents[0], 2*b.HalfExtents[1], 2*b.HalfExtents[2]
	return mgl64.Vec3{
		mass / 12 * (y*y + z*z),
		mass / 12 * (x*x + z*z),
		mass / 12 * (x*x + y*y),
	}
}

func (b *Box) AABB(pos mgl64.Vec3, rot mgl64.Quat) AABB {
	var ext mgl64.Vec3
	for i, axis := range b.axes(rot) {
		h := math.Abs(b.HalfExtents[i])
		for j := 0; j < 3; j++ {
			ext[j] += math.Abs(axis[j]) * h
		}
	}
	return AABB{Min: pos.Sub(ext), Max: pos.Add(ext)}
}

// axes returns the box's local X, Y and Z axes in world space.
func (b *Box) axes(rot mgl64.Quat) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		rot.Rotate(mgl64.Vec3{1, 0, 0}),
		rot.Rotate(mgl64.Vec3{0, 1, 0}),
		rot.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

// vertices returns the eight corners of the box in world space.
func (b *Box) vertices(pos mgl64.Vec3, rot mgl64.Quat) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	h := b.HalfExtents
	for i := 0; i < 8; i++ {
		local := mgl64.Vec3{h[0], h[1], h[2]}
		if i&1 != 0 {
			local[0] = -local[0]
		}
		if i&2 != 0 {
			local[1] = -local[1]
		}
		if i&4 != 0 {
			local[2] = -local[2]
		}
		out[i] = pos.Add(rot.Rotate(local))
	}
	return out
}

// Plane is an infinite half-space whose surface passes through the body
// position. Its outward normal is the body's local +Z axis.
type Plane struct{}

func (p *Plane) Kind() ShapeKind { return ShapePlane }

func (p *Plane) Inertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

func (p *Plane) AABB(mgl64.Vec3, mgl64.Quat) AABB {
	inf := math.Inf(1)
	return AABB{Min: mgl64.Vec3{-inf, -inf, -inf}, Max: mgl64.Vec3{inf, inf, inf}}
}

// Normal returns the plane's outward normal for the given body rotation.
func (p *Plane) Normal(rot mgl64.Quat) mgl64.Vec3 {
	return rot.Rotate(mgl64.Vec3{0, 0, 1})
}

type AABB struct {
	Min, Max mgl64.Vec3
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type PerspectiveCamera struct {
	Fov    float64 // vertical, degrees
	Aspect float64
	Near   float64
	Far    float64

	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
}

func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl64.Vec3{0, 1, 0},
	}
}

func (c *PerspectiveCamera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Project maps a world point to normalized device coordinates in [-1, 1].
// ok is false for points outside the near and far planes.
func (c *PerspectiveCamera) Project(p mgl64.Vec3) (x, y float64, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[2] < -1 || ndc[2] > 1 {
		return 0, 0, false
	}
	return ndc[0], ndc[1], true
}

// Viewport tracks the output size and keeps the camera aspect in step.
type Viewport struct {
	Width, Height int
	PixelRatio    float64
	Camera        *PerspectiveCamera
}

const maxPixelRatio = 2

func NewViewport(cam *PerspectiveCamera, width, height int, devicePixelRatio float64) *Viewport {
	v := &Viewport{Camera: cam}
	v.Resize(width, height, devicePixelRatio)
	return v
}

// Resize applies a new output size. The pixel ratio is capped at 2.
func (v *Viewport) Resize(width, height int, devicePixelRatio float64) {
	v.Width, v.Height = width, height
	v.PixelRatio = math.Min(devicePixelRatio, maxPixelRatio)
	if v.Camera != nil && height > 0 {
		v.Camera.Aspect = float64(width) / float64(height)
	}
}

// BufferSize is the drawing buffer size in device pixels.
func (v *Viewport) BufferSize() (int, int) {
	return int(float64(v.Width) * v.PixelRatio), int(float64(v.Height) * v.PixelRatio)
}

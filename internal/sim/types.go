package sim

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var ErrUnknownShape = errors.New("unknown shape")

type Shape string

const (
	ShapeSphere Shape = "sphere"
	ShapeBox    Shape = "box"
)

// Dimensions are the spawn parameters: Radius for spheres, Width, Height
// and Depth for boxes.
type Dimensions struct {
	Radius               float64
	Width, Height, Depth float64
}

// Degenerate reports whether any dimension used by shape is not positive.
func (d Dimensions) Degenerate(shape Shape) bool {
	if shape == ShapeSphere {
		return d.Radius <= 0
	}
	return d.Width <= 0 || d.Height <= 0 || d.Depth <= 0
}

type ObjectState struct {
	ID         uuid.UUID
	Shape      Shape
	Dimensions Dimensions
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Velocity   mgl64.Vec3
	Sleeping   bool
}

// Frame describes the scene after one tick.
type Frame struct {
	Index    uint64
	Time     float64
	Dt       float64
	SubSteps int
	Objects  []ObjectState
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// Summary is the outcome of a headless run.
type Summary struct {
	Seed     int64
	Frames   int
	Time     float64
	Objects  int
	Sleeping int
	Metrics  map[string]float64
}

package scene

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

type Geometry int

const (
	GeometrySphere Geometry = iota
	GeometryBox
	GeometryPlane
)

func (g Geometry) String() string {
	switch g {
	case GeometrySphere:
		return "sphere"
	case GeometryBox:
		return "box"
	case GeometryPlane:
		return "plane"
	}
	return "unknown"
}

// Material describes how a mesh surface is shaded. Meshes of the same kind
// share one Material.
type Material struct {
	Color           colorful.Color
	Metalness       float64
	Roughness       float64
	EnvMap          *CubeTexture
	EnvMapIntensity float64
}

// NewMaterial parses a #rrggbb color; an invalid color falls back to white.
func NewMaterial(hex string, metalness, roughness, envIntensity float64) *Material {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	return &Material{Color: c, Metalness: metalness, Roughness: roughness, EnvMapIntensity: envIntensity}
}

var meshIDs atomic.Uint64

// Mesh is a renderable node. Geometry is unit sized: a sphere of radius 1,
// a 1x1x1 box or a 1x1 plane in its local XY plane, stretched by Scale.
type Mesh struct {
	ID       uint64
	Geometry Geometry
	Material *Material

	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3

	CastShadow    bool
	ReceiveShadow bool
}

func NewMesh(g Geometry, m *Material) *Mesh {
	return &Mesh{
		ID:         meshIDs.Add(1),
		Geometry:   g,
		Material:   m,
		Quaternion: mgl64.QuatIdent(),
		Scale:      mgl64.Vec3{1, 1, 1},
	}
}

// Matrix returns the local-to-world transform.
func (m *Mesh) Matrix() mgl64.Mat4 {
	t := mgl64.Translate3D(m.Position[0], m.Position[1], m.Position[2])
	s := mgl64.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
	return t.Mul4(m.Quaternion.Mat4()).Mul4(s)
}

// AxisAngle returns the orientation as a unit axis and an angle in radians.
// The identity rotation reports the Y axis.
func (m *Mesh) AxisAngle() (mgl64.Vec3, float64) {
	q := m.Quaternion.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	s := q.V.Len()
	if s < 1e-9 {
		return mgl64.Vec3{0, 1, 0}, 0
	}
	return q.V.Mul(1 / s), 2 * math.Atan2(s, q.W)
}

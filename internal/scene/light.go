package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

type Light interface {
	LightColor() colorful.Color
	LightIntensity() float64
}

type AmbientLight struct {
	Color     colorful.Color
	Intensity float64
}

func (l *AmbientLight) LightColor() colorful.Color { return l.Color }
func (l *AmbientLight) LightIntensity() float64    { return l.Intensity }

// ShadowCamera is the orthographic volume a directional light renders its
// shadow map from.
type ShadowCamera struct {
	Near, Far                float64
	Left, Right, Top, Bottom float64
}

type DirectionalLight struct {
	Color      colorful.Color
	Intensity  float64
	Position   mgl64.Vec3
	Target     mgl64.Vec3
	CastShadow bool
	MapSize    int
	Shadow     ShadowCamera
}

func (l *DirectionalLight) LightColor() colorful.Color { return l.Color }
func (l *DirectionalLight) LightIntensity() float64    { return l.Intensity }

// Direction is the unit vector the light travels along.
func (l *DirectionalLight) Direction() mgl64.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.LenSqr() == 0 {
		return mgl64.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// ShadowPoint projects p onto the plane y = height along the light
// direction. ok is false when the light does not reach the plane.
func (l *DirectionalLight) ShadowPoint(p mgl64.Vec3, height float64) (mgl64.Vec3, bool) {
	d := l.Direction()
	if d[1] >= 0 {
		return mgl64.Vec3{}, false
	}
	t := (height - p[1]) / d[1]
	return p.Add(d.Mul(t)), true
}

// InShadowVolume reports whether p lies inside the shadow camera's box.
func (l *DirectionalLight) InShadowVolume(p mgl64.Vec3) bool {
	fwd := l.Direction()
	right := fwd.Cross(mgl64.Vec3{0, 1, 0})
	if right.LenSqr() < 1e-12 {
		right = mgl64.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(fwd)

	rel := p.Sub(l.Position)
	z := rel.Dot(fwd)
	x := rel.Dot(right)
	y := rel.Dot(up)
	s := l.Shadow
	return z >= s.Near && z <= s.Far && x >= s.Left && x <= s.Right && y >= s.Bottom && y <= s.Top
}

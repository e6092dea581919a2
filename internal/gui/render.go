package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/physbox/internal/scene"
)

// planeFix turns raylib's XZ plane mesh into the scene's XY unit plane.
var planeFix = mgl64.HomogRotate3DX(math.Pi / 2)

// Render implements scene.Renderer.
func (a *App) Render(s *scene.Scene, cam *scene.PerspectiveCamera) {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rc := toCamera(cam)
	rl.BeginMode3D(rc)
	if a.skybox != nil {
		a.skybox.draw(rc.Position)
	}
	for _, m := range s.Meshes() {
		if m.Geometry == scene.GeometryPlane {
			a.drawMesh(s, m)
		}
	}
	a.drawShadows(s)
	for _, m := range s.Meshes() {
		if m.Geometry != scene.GeometryPlane {
			a.drawMesh(s, m)
		}
	}
	rl.EndMode3D()

	a.drawHUD()
	rl.EndDrawing()
}

func (a *App) drawMesh(s *scene.Scene, m *scene.Mesh) {
	mesh, ok := a.models[m.Geometry]
	if !ok {
		return
	}
	xf := m.Matrix()
	if m.Geometry == scene.GeometryPlane {
		xf = xf.Mul4(planeFix)
	}
	if albedo := a.material.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = shade(s, m)
	}
	rl.DrawMesh(mesh, a.material, toMatrix(xf))
}

// shade lights the material color with the ambient light plus the
// directional light falling on the mesh's local up axis.
func shade(s *scene.Scene, m *scene.Mesh) rl.Color {
	base := colorful.Color{R: 1, G: 1, B: 1}
	env := 0.0
	if m.Material != nil {
		base = m.Material.Color
		if m.Material.EnvMap != nil {
			env = 0.15 * m.Material.EnvMapIntensity * (1 - m.Material.Roughness)
		}
	}
	up := m.Quaternion.Rotate(mgl64.Vec3{0, 1, 0})
	if m.Geometry == scene.GeometryPlane {
		up = m.Quaternion.Rotate(mgl64.Vec3{0, 0, 1})
	}
	sun := &s.Directional
	diffuse := math.Max(0, up.Dot(sun.Direction().Mul(-1)))
	k := s.Ambient.Intensity + sun.Intensity*diffuse + env
	c := colorful.Color{R: base.R * k, G: base.G * k, B: base.B * k}.Clamped()
	r, g, b := c.RGB255()
	return rl.NewColor(r, g, b, 255)
}

// drawShadows draws a dark disc on the floor under every shadow-casting
// mesh that the light's shadow camera covers.
func (a *App) drawShadows(s *scene.Scene) {
	sun := &s.Directional
	if !sun.CastShadow {
		return
	}
	for _, m := range s.Meshes() {
		if !m.CastShadow || !sun.InShadowVolume(m.Position) {
			continue
		}
		p, ok := sun.ShadowPoint(m.Position, 0.002)
		if !ok {
			continue
		}
		r := math.Max(math.Abs(m.Scale.X()), math.Abs(m.Scale.Z()))
		if m.Geometry == scene.GeometryBox {
			r *= 0.6
		}
		rl.DrawCircle3D(toVector3(p), float32(r), rl.NewVector3(1, 0, 0), 90, ColShadow)
	}
}

func toVector3(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v[0]), float32(v[1]), float32(v[2]))
}

// toMatrix converts a column-major mgl64 matrix to raylib's layout, which
// is also column-major.
func toMatrix(m mgl64.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: float32(m[0]), M1: float32(m[1]), M2: float32(m[2]), M3: float32(m[3]),
		M4: float32(m[4]), M5: float32(m[5]), M6: float32(m[6]), M7: float32(m[7]),
		M8: float32(m[8]), M9: float32(m[9]), M10: float32(m[10]), M11: float32(m[11]),
		M12: float32(m[12]), M13: float32(m[13]), M14: float32(m[14]), M15: float32(m[15]),
	}
}

func toCamera(c *scene.PerspectiveCamera) rl.Camera3D {
	return rl.Camera3D{
		Position:   toVector3(c.Position),
		Target:     toVector3(c.Target),
		Up:         toVector3(c.Up),
		Fovy:       float32(c.Fov),
		Projection: rl.CameraPerspective,
	}
}

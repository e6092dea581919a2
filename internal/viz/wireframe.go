package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/physbox/internal/scene"
)

type Edge struct {
	Start, End mgl64.Vec3
}

var (
	unitBox = [8]mgl64.Vec3{
		{-.5, -.5, -.5}, {.5, -.5, -.5}, {.5, .5, -.5}, {-.5, .5, -.5},
		{-.5, -.5, .5}, {.5, -.5, .5}, {.5, .5, .5}, {-.5, .5, .5},
	}
	boxEdges = [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
)

const circleSegments = 16

// MeshEdges returns the world-space wireframe of m: twelve edges for a box,
// three great circles for a sphere and a grid for a plane.
func MeshEdges(m *scene.Mesh) []Edge {
	mat := m.Matrix()
	xf := func(p mgl64.Vec3) mgl64.Vec3 { return mgl64.TransformCoordinate(p, mat) }

	var out []Edge
	switch m.Geometry {
	case scene.GeometryBox:
		for _, e := range boxEdges {
			out = append(out, Edge{xf(unitBox[e[0]]), xf(unitBox[e[1]])})
		}
	case scene.GeometrySphere:
		for axis := 0; axis < 3; axis++ {
			prev := xf(circlePoint(axis, 0))
			for i := 1; i <= circleSegments; i++ {
				p := xf(circlePoint(axis, 2*math.Pi*float64(i)/circleSegments))
				out = append(out, Edge{prev, p})
				prev = p
			}
		}
	case scene.GeometryPlane:
		const lines = 10
		for i := 0; i <= lines; i++ {
			t := -0.5 + float64(i)/lines
			out = append(out,
				Edge{xf(mgl64.Vec3{t, -.5, 0}), xf(mgl64.Vec3{t, .5, 0})},
				Edge{xf(mgl64.Vec3{-.5, t, 0}), xf(mgl64.Vec3{.5, t, 0})},
			)
		}
	}
	return out
}

func circlePoint(axis int, a float64) mgl64.Vec3 {
	s, c := math.Sin(a), math.Cos(a)
	switch axis {
	case 0:
		return mgl64.Vec3{0, c, s}
	case 1:
		return mgl64.Vec3{c, 0, s}
	}
	return mgl64.Vec3{c, s, 0}
}

// CanvasRenderer implements scene.Renderer by projecting wireframes and
// blob shadows onto a Braille canvas.
type CanvasRenderer struct {
	Canvas *Canvas

	renders int
}

func NewCanvasRenderer(w, h int) *CanvasRenderer {
	return &CanvasRenderer{Canvas: NewCanvas(w, h)}
}

func (r *CanvasRenderer) Renders() int { return r.renders }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

func (r *CanvasRenderer) Render(s *scene.Scene, cam *scene.PerspectiveCamera) {
	r.renders++
	c := r.Canvas
	c.Clear()
	dw, dh := c.Dots()

	toDots := func(p mgl64.Vec3) (int, int, bool) {
		x, y, ok := cam.Project(p)
		if !ok {
			return 0, 0, false
		}
		return int((x + 1) / 2 * float64(dw)), int((1 - y) / 2 * float64(dh)), true
	}

	sun := &s.Directional
	var proj []projectedEdge
	for _, m := range s.Meshes() {
		if m.CastShadow && sun.CastShadow {
			if p, ok := sun.ShadowPoint(m.Position, 0); ok {
				if x, y, ok := toDots(p); ok {
					c.FillCircle(x, y, 1)
				}
			}
		}
		for _, e := range MeshEdges(m) {
			x1, y1, ok1 := toDots(e.Start)
			x2, y2, ok2 := toDots(e.End)
			if !ok1 || !ok2 {
				continue
			}
			mid := e.Start.Add(e.End).Mul(0.5)
			proj = append(proj, projectedEdge{x1, y1, x2, y2, mid.Sub(cam.Position).LenSqr()})
		}
	}

	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}

package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/physbox/internal/config"
	"github.com/san-kum/physbox/internal/scene"
)

const frameDt = 1.0 / 60

func newTestSim(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(config.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	return s
}

type countingVoice struct{ plays int }

func (v *countingVoice) SetVolume(float64) {}
func (v *countingVoice) Rewind()           {}
func (v *countingVoice) Play()             { v.plays++ }

type syncCheckRenderer struct {
	t       *testing.T
	reg     *Registry
	renders int
}

func (r *syncCheckRenderer) Render(_ *scene.Scene, _ *scene.PerspectiveCamera) {
	r.renders++
	r.reg.Each(func(o *TrackedObject) {
		if o.Mesh.Position != o.Body.Position || o.Mesh.Quaternion != o.Body.Quaternion {
			r.t.Errorf("mesh %d not synced before render", o.Mesh.ID)
		}
	})
}

type frameCounter struct{ n int }

func (c *frameCounter) Name() string    { return "frames" }
func (c *frameCounter) Observe(Frame)   { c.n++ }
func (c *frameCounter) Value() float64  { return float64(c.n) }
func (c *frameCounter) Reset()          { c.n = 0 }
func (c *frameCounter) OnFrame(f Frame) {}

func TestSpawnGrowsRegistry(t *testing.T) {
	s := newTestSim(t)

	sphere := s.SpawnSphere(0.5, mgl64.Vec3{0, 3, 0})
	if s.Registry().Len() != 1 {
		t.Fatalf("expected 1 object, got %d", s.Registry().Len())
	}
	box := s.SpawnBox(1, 2, 3, mgl64.Vec3{2, 5, 2})
	if s.Registry().Len() != 2 {
		t.Fatalf("expected 2 objects, got %d", s.Registry().Len())
	}

	for _, o := range []*TrackedObject{sphere, box} {
		if !s.Scene().Contains(o.Mesh) {
			t.Errorf("%s mesh not in scene", o.Shape)
		}
		if !s.World().Contains(o.Body) {
			t.Errorf("%s body not in world", o.Shape)
		}
		if s.World().HandlerCount(o.Body) != 1 {
			t.Errorf("%s should have one collide handler", o.Shape)
		}
		if !o.Mesh.CastShadow {
			t.Errorf("%s mesh should cast shadows", o.Shape)
		}
		if o.Body.Mass() != 1 {
			t.Errorf("%s body mass should be 1, got %f", o.Shape, o.Body.Mass())
		}
		if o.Mesh.Position != o.Body.Position {
			t.Errorf("%s mesh should start at the body position", o.Shape)
		}
	}

	if box.Mesh.Scale != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("unexpected box scale %v", box.Mesh.Scale)
	}
	if sphere.Mesh.Scale != (mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Errorf("unexpected sphere scale %v", sphere.Mesh.Scale)
	}
	if got, ok := s.Registry().Find(box.ID); !ok || got != box {
		t.Error("registry lookup by id failed")
	}
}

func TestReset(t *testing.T) {
	s := newTestSim(t)
	floorBody, floorMesh := s.Floor()

	var spawned []*TrackedObject
	for i := 0; i < 5; i++ {
		if i%2 == 0 {
			spawned = append(spawned, s.SpawnRandomSphere())
		} else {
			spawned = append(spawned, s.SpawnRandomBox())
		}
	}
	for i := 0; i < 30; i++ {
		s.Tick(frameDt)
	}

	s.Reset()
	if s.Registry().Len() != 0 {
		t.Fatalf("expected empty registry, got %d", s.Registry().Len())
	}
	for _, o := range spawned {
		if s.Scene().Contains(o.Mesh) {
			t.Error("mesh survived reset")
		}
		if s.World().Contains(o.Body) {
			t.Error("body survived reset")
		}
		if s.World().HandlerCount(o.Body) != 0 {
			t.Error("handler survived reset")
		}
		if s.World().Off(o.Subscription()) {
			t.Error("subscription should already be gone")
		}
	}
	if !s.World().Contains(floorBody) || !s.Scene().Contains(floorMesh) {
		t.Error("reset must keep the floor")
	}
	if s.World().NumBodies() != 1 || s.Scene().Len() != 1 {
		t.Errorf("expected only the floor left, got %d bodies %d meshes", s.World().NumBodies(), s.Scene().Len())
	}

	s.Reset()
	if s.Registry().Len() != 0 {
		t.Error("reset on empty registry should be a no-op")
	}

	s.SpawnSphere(0.5, mgl64.Vec3{0, 3, 0})
	if s.Registry().Len() != 1 {
		t.Errorf("expected 1 object after respawn, got %d", s.Registry().Len())
	}
}

func TestTickSyncsExactly(t *testing.T) {
	s := newTestSim(t)
	r := &syncCheckRenderer{t: t, reg: s.Registry()}
	s.SetRenderer(r)
	if err := s.SpawnStartup(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 120; i++ {
		f := s.Tick(frameDt)
		s.Registry().Each(func(o *TrackedObject) {
			if o.Mesh.Position != o.Body.Position {
				t.Fatalf("frame %d: position not copied", i)
			}
			if o.Mesh.Quaternion != o.Body.Quaternion {
				t.Fatalf("frame %d: orientation not copied", i)
			}
		})
		if len(f.Objects) != 2 {
			t.Fatalf("frame %d: expected 2 object states, got %d", i, len(f.Objects))
		}
		if f.Objects[0].Position != s.Registry().Objects()[0].Mesh.Position {
			t.Fatalf("frame %d: snapshot differs from mesh", i)
		}
	}
	if r.renders != 120 {
		t.Errorf("expected one render per tick, got %d", r.renders)
	}
}

func TestStartupScenarioSettles(t *testing.T) {
	s := newTestSim(t)
	if err := s.SpawnStartup(); err != nil {
		t.Fatal(err)
	}
	objs := s.Registry().Objects()
	if len(objs) != 2 || objs[0].Shape != ShapeBox || objs[1].Shape != ShapeSphere {
		t.Fatalf("unexpected startup objects %v", objs)
	}
	spawnY := []float64{5, 3}

	clock := &ManualClock{}
	loop := NewLoop(s, clock)
	minY := []float64{math.Inf(1), math.Inf(1)}
	for i := 0; i < 600; i++ {
		clock.Advance(frameDt)
		loop.Step()
		for j, o := range objs {
			minY[j] = math.Min(minY[j], o.Body.Position.Y())
		}
	}

	for j, o := range objs {
		y := o.Body.Position.Y()
		if minY[j] < 0 {
			t.Errorf("%s fell through the floor (min y %f)", o.Shape, minY[j])
		}
		if y < 0 || y > spawnY[j] {
			t.Errorf("%s rest height %f outside [0, %f]", o.Shape, y, spawnY[j])
		}
		if math.Abs(y-0.5) > 0.1 {
			t.Errorf("%s should rest at about 0.5, got %f", o.Shape, y)
		}
	}
}

func TestRandomSpawnRanges(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < 50; i++ {
		o := s.SpawnRandomSphere()
		if o.Dimensions.Radius < 0 || o.Dimensions.Radius >= 0.5 {
			t.Errorf("radius %f out of range", o.Dimensions.Radius)
		}
		checkDrop(t, o.Body.Position)

		b := s.SpawnRandomBox()
		for _, d := range []float64{b.Dimensions.Width, b.Dimensions.Height, b.Dimensions.Depth} {
			if d < 0 || d >= 1 {
				t.Errorf("box dimension %f out of range", d)
			}
		}
		checkDrop(t, b.Body.Position)
	}
}

func checkDrop(t *testing.T, p mgl64.Vec3) {
	t.Helper()
	if p.Y() != 3 {
		t.Errorf("expected drop height 3, got %f", p.Y())
	}
	if p.X() < -1.5 || p.X() >= 1.5 || p.Z() < -1.5 || p.Z() >= 1.5 {
		t.Errorf("lateral position %v out of range", p)
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a := newTestSim(t)
	b := newTestSim(t)
	for i := 0; i < 5; i++ {
		pa := a.SpawnRandomBox().Body.Position
		pb := b.SpawnRandomBox().Body.Position
		if pa != pb {
			t.Fatalf("spawn %d differs: %v vs %v", i, pa, pb)
		}
	}
}

func TestSpawnNamed(t *testing.T) {
	s := newTestSim(t)
	if _, err := s.SpawnNamed("sphere"); err != nil {
		t.Fatalf("spawn sphere: %v", err)
	}
	if _, err := s.SpawnNamed("box"); err != nil {
		t.Fatalf("spawn box: %v", err)
	}
	if _, err := s.SpawnNamed("torus"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("expected ErrUnknownShape, got %v", err)
	}
	if _, err := s.Spawn(config.ObjectConfig{Shape: "cone"}); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("expected ErrUnknownShape, got %v", err)
	}
	if s.Registry().Len() != 2 {
		t.Errorf("expected 2 objects, got %d", s.Registry().Len())
	}
}

func TestDegenerateDimensionsPassThrough(t *testing.T) {
	s := newTestSim(t)
	s.SpawnBox(0, -1, 1, mgl64.Vec3{0, 2, 0})
	s.SpawnSphere(0, mgl64.Vec3{1, 2, 0})
	if s.Registry().Len() != 2 {
		t.Fatalf("degenerate spawns should still be tracked, got %d", s.Registry().Len())
	}
	for i := 0; i < 60; i++ {
		s.Tick(frameDt)
	}
	s.Registry().Each(func(o *TrackedObject) {
		for i := 0; i < 3; i++ {
			if math.IsNaN(o.Mesh.Position[i]) {
				t.Errorf("%s mesh position became NaN", o.Shape)
			}
		}
	})
}

func TestCollisionPlaysSound(t *testing.T) {
	v := &countingVoice{}
	s := newTestSim(t, WithVoice(v))
	s.SpawnSphere(0.5, mgl64.Vec3{0, 3, 0})
	for i := 0; i < 120; i++ {
		s.Tick(frameDt)
	}
	if v.plays == 0 {
		t.Error("landing from 3m should play the hit sound")
	}
	if s.Sound().Triggers() != v.plays {
		t.Errorf("trigger count %d does not match plays %d", s.Sound().Triggers(), v.plays)
	}
}

func TestAudioDisabledIsSilent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = false
	v := &countingVoice{}
	s, err := New(cfg, WithVoice(v))
	if err != nil {
		t.Fatal(err)
	}
	s.SpawnSphere(0.5, mgl64.Vec3{0, 3, 0})
	for i := 0; i < 120; i++ {
		s.Tick(frameDt)
	}
	if v.plays != 0 {
		t.Errorf("disabled audio should not play, got %d", v.plays)
	}
}

func TestMetricsObserveEveryTick(t *testing.T) {
	s := newTestSim(t)
	c := &frameCounter{}
	s.AddMetric(c)
	s.AddObserver(c)
	for i := 0; i < 10; i++ {
		s.Tick(frameDt)
	}
	if got := s.Metrics()["frames"]; got != 10 {
		t.Errorf("expected 10 observed frames, got %f", got)
	}
	if s.FrameIndex() != 10 {
		t.Errorf("expected frame index 10, got %d", s.FrameIndex())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.World.FixedStep = 0
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFloorFacesUp(t *testing.T) {
	s := newTestSim(t)
	body, mesh := s.Floor()
	if !body.IsStatic() {
		t.Error("floor should be static")
	}
	up := mesh.Quaternion.Rotate(mgl64.Vec3{0, 0, 1})
	if math.Abs(up.Y()-1) > 1e-9 {
		t.Errorf("floor normal should point up, got %v", up)
	}
	if !mesh.ReceiveShadow {
		t.Error("floor should receive shadows")
	}
}

func TestRunHeadless(t *testing.T) {
	s := newTestSim(t)
	sum, err := RunHeadless(context.Background(), s, 120, frameDt, 4)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Objects != 6 || sum.Frames != 120 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.Time <= 0 {
		t.Error("world time should advance")
	}

	if _, err := RunHeadless(context.Background(), newTestSim(t), 0, frameDt, 0); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(config.DefaultConfig(), 3, 10, func() []Metric { return []Metric{&frameCounter{}} })
	results, err := e.Run(context.Background(), 30, frameDt, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != int64(10+i) {
			t.Errorf("run %d: expected seed %d, got %d", i, 10+i, r.Seed)
		}
		if r.Objects != 3 {
			t.Errorf("run %d: expected 3 objects, got %d", i, r.Objects)
		}
		if r.Metrics["frames"] != 30 {
			t.Errorf("run %d: expected 30 frames observed, got %f", i, r.Metrics["frames"])
		}
	}
}

package sim

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/physbox/internal/audio"
	"github.com/san-kum/physbox/internal/config"
	"github.com/san-kum/physbox/internal/physics"
	"github.com/san-kum/physbox/internal/scene"
)

// Simulator owns the physics world, the scene and the registry of objects
// that tie them together. All methods must be called from one goroutine;
// Loop.Post marshals work from others.
type Simulator struct {
	cfg *config.Config
	log *log.Logger
	rng *rand.Rand

	world    *physics.World
	scene    *scene.Scene
	camera   *scene.PerspectiveCamera
	controls *scene.OrbitControls
	viewport *scene.Viewport
	renderer scene.Renderer
	registry Registry
	catalog  *Catalog
	voice    audio.Voice
	sound    *audio.HitSound

	floorBody *physics.Body
	floorMesh *scene.Mesh

	sphereMaterial *scene.Material
	boxMaterial    *scene.Material
	objectPhysMat  *physics.Material

	metrics   []Metric
	observers []Observer
	frame     uint64
}

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option { return func(s *Simulator) { s.log = l } }

func WithRenderer(r scene.Renderer) Option { return func(s *Simulator) { s.renderer = r } }

// WithVoice sets the voice collisions play through.
func WithVoice(v audio.Voice) Option { return func(s *Simulator) { s.voice = v } }

// WithRand replaces the seeded source used for random spawns and volumes.
func WithRand(r *rand.Rand) Option { return func(s *Simulator) { s.rng = r } }

func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:     cfg,
		log:     log.New(io.Discard),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		scene:   scene.New(),
		catalog: NewCatalog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.voice == nil || !cfg.Audio.Enabled {
		s.voice = audio.NopVoice{}
	}
	s.sound = audio.NewHitSound(s.voice, cfg.Audio.Threshold, s.rng.Float64)

	world, err := physics.NewWorld(worldConfig(cfg))
	if err != nil {
		return nil, err
	}
	s.world = world

	s.buildFloor()
	s.buildLights()
	s.buildCamera()

	obj := cfg.ObjectMaterial
	s.sphereMaterial = scene.NewMaterial(obj.Color, obj.Metalness, obj.Roughness, obj.EnvMapIntensity)
	s.boxMaterial = scene.NewMaterial(obj.Color, obj.Metalness, obj.Roughness, obj.EnvMapIntensity)
	if cfg.EnvironmentMap != "" {
		s.scene.Environment = scene.NewCubeTexture(cfg.EnvironmentMap, ".png")
		s.sphereMaterial.EnvMap = s.scene.Environment
		s.boxMaterial.EnvMap = s.scene.Environment
		s.floorMesh.Material.EnvMap = s.scene.Environment
	}

	s.log.Debug("simulator ready", "broadphase", cfg.World.Broadphase, "sleep", cfg.World.AllowSleep, "seed", cfg.Seed)
	return s, nil
}

func worldConfig(cfg *config.Config) physics.Config {
	w := cfg.World
	return physics.Config{
		Gravity:         mgl64.Vec3(w.Gravity),
		Broadphase:      w.Broadphase,
		AllowSleep:      w.AllowSleep,
		Iterations:      w.Iterations,
		SleepSpeedLimit: w.SleepSpeedLimit,
		SleepTimeLimit:  w.SleepTimeLimit,
		DefaultContactMaterial: physics.ContactMaterial{
			Friction:    cfg.ContactMaterial.Friction,
			Restitution: cfg.ContactMaterial.Restitution,
		},
	}
}

// buildFloor adds the static ground plane. The plane's +Z normal is
// turned to +Y.
func (s *Simulator) buildFloor() {
	down := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})

	s.floorBody = physics.NewBody(physics.BodyOptions{
		Mass:       0,
		Shape:      &physics.Plane{},
		Quaternion: down,
	})
	if m := s.cfg.Materials; m.Enabled {
		floorMat := physics.NewMaterial(m.Floor)
		s.objectPhysMat = physics.NewMaterial(m.Objects)
		s.floorBody.Material = floorMat
		s.world.AddContactMaterial(physics.ContactMaterial{
			A:           floorMat,
			B:           s.objectPhysMat,
			Friction:    s.cfg.ContactMaterial.Friction,
			Restitution: s.cfg.ContactMaterial.Restitution,
		})
	}
	s.world.AddBody(s.floorBody)

	f := s.cfg.Floor
	s.floorMesh = scene.NewMesh(scene.GeometryPlane,
		scene.NewMaterial(f.Surface.Color, f.Surface.Metalness, f.Surface.Roughness, f.Surface.EnvMapIntensity))
	s.floorMesh.Scale = mgl64.Vec3{f.Size, f.Size, 1}
	s.floorMesh.Quaternion = down
	s.floorMesh.ReceiveShadow = true
	s.scene.Add(s.floorMesh)
}

func (s *Simulator) buildLights() {
	l := s.cfg.Lights
	white := colorful.Color{R: 1, G: 1, B: 1}
	s.scene.Ambient = scene.AmbientLight{Color: white, Intensity: l.AmbientIntensity}
	e := l.ShadowExtent
	s.scene.Directional = scene.DirectionalLight{
		Color:      white,
		Intensity:  l.DirectionalIntensity,
		Position:   mgl64.Vec3(l.DirectionalPosition),
		CastShadow: true,
		MapSize:    l.ShadowMapSize,
		Shadow:     scene.ShadowCamera{Near: 0.5, Far: l.ShadowFar, Left: -e, Right: e, Top: e, Bottom: -e},
	}
}

func (s *Simulator) buildCamera() {
	c := s.cfg.Camera
	w := s.cfg.Window
	s.camera = scene.NewPerspectiveCamera(c.Fov, 1, c.Near, c.Far)
	s.camera.Position = mgl64.Vec3(c.Position)
	s.viewport = scene.NewViewport(s.camera, w.Width, w.Height, 1)
	s.controls = scene.NewOrbitControls(s.camera)
	s.controls.EnableDamping = true
	if c.Damping > 0 {
		s.controls.DampingFactor = c.Damping
	}
}

func (s *Simulator) Config() *config.Config           { return s.cfg }
func (s *Simulator) Logger() *log.Logger              { return s.log }
func (s *Simulator) World() *physics.World            { return s.world }
func (s *Simulator) Scene() *scene.Scene              { return s.scene }
func (s *Simulator) Camera() *scene.PerspectiveCamera { return s.camera }
func (s *Simulator) Controls() *scene.OrbitControls   { return s.controls }
func (s *Simulator) Viewport() *scene.Viewport        { return s.viewport }
func (s *Simulator) Registry() *Registry              { return &s.registry }
func (s *Simulator) Sound() *audio.HitSound           { return s.sound }
func (s *Simulator) FrameIndex() uint64               { return s.frame }

func (s *Simulator) Floor() (*physics.Body, *scene.Mesh) { return s.floorBody, s.floorMesh }

func (s *Simulator) SetRenderer(r scene.Renderer) { s.renderer = r }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// SpawnSphere adds a unit-mass sphere. Non-positive radii are passed
// through.
func (s *Simulator) SpawnSphere(radius float64, pos mgl64.Vec3) *TrackedObject {
	dims := Dimensions{Radius: radius}
	mesh := scene.NewMesh(scene.GeometrySphere, s.sphereMaterial)
	mesh.Scale = mgl64.Vec3{radius, radius, radius}
	body := physics.NewBody(physics.BodyOptions{
		Mass:     1,
		Shape:    &physics.Sphere{Radius: radius},
		Position: pos,
		Material: s.objectPhysMat,
	})
	return s.track(ShapeSphere, dims, mesh, body)
}

// SpawnBox adds a unit-mass box with the given full extents. Non-positive
// dimensions are passed through.
func (s *Simulator) SpawnBox(width, height, depth float64, pos mgl64.Vec3) *TrackedObject {
	dims := Dimensions{Width: width, Height: height, Depth: depth}
	mesh := scene.NewMesh(scene.GeometryBox, s.boxMaterial)
	mesh.Scale = mgl64.Vec3{width, height, depth}
	body := physics.NewBody(physics.BodyOptions{
		Mass:     1,
		Shape:    &physics.Box{HalfExtents: mgl64.Vec3{width * 0.5, height * 0.5, depth * 0.5}},
		Position: pos,
		Material: s.objectPhysMat,
	})
	return s.track(ShapeBox, dims, mesh, body)
}

func (s *Simulator) track(shape Shape, dims Dimensions, mesh *scene.Mesh, body *physics.Body) *TrackedObject {
	if dims.Degenerate(shape) {
		s.log.Warn("degenerate dimensions", "shape", shape, "dims", fmt.Sprintf("%+v", dims))
	}

	mesh.Position = body.Position
	mesh.CastShadow = true
	s.scene.Add(mesh)

	obj := &TrackedObject{
		ID:         uuid.New(),
		Shape:      shape,
		Dimensions: dims,
		Mesh:       mesh,
		Body:       body,
	}
	obj.sub = s.world.OnCollide(body, s.sound.OnCollide)
	s.world.AddBody(body)
	s.registry.add(obj)

	s.log.Debug("spawned", "shape", shape, "id", obj.ID, "pos", body.Position, "objects", s.registry.Len())
	return obj
}

// SpawnRandomSphere spawns a sphere with a random radius above a random
// point near the origin.
func (s *Simulator) SpawnRandomSphere() *TrackedObject {
	sp := s.cfg.Spawn
	radius := s.rng.Float64() * sp.MaxRadius
	return s.SpawnSphere(radius, s.randomDrop())
}

// SpawnRandomBox spawns a box with random dimensions above a random point
// near the origin.
func (s *Simulator) SpawnRandomBox() *TrackedObject {
	sp := s.cfg.Spawn
	w := s.rng.Float64() * sp.MaxSize
	h := s.rng.Float64() * sp.MaxSize
	d := s.rng.Float64() * sp.MaxSize
	return s.SpawnBox(w, h, d, s.randomDrop())
}

func (s *Simulator) randomDrop() mgl64.Vec3 {
	sp := s.cfg.Spawn
	x := (s.rng.Float64() - 0.5) * sp.Spread
	z := (s.rng.Float64() - 0.5) * sp.Spread
	return mgl64.Vec3{x, sp.Height, z}
}

// Spawn creates an object from its config description.
func (s *Simulator) Spawn(obj config.ObjectConfig) (*TrackedObject, error) {
	return s.catalog.Spawn(s, obj)
}

// SpawnNamed runs the random spawn registered under name.
func (s *Simulator) SpawnNamed(name string) (*TrackedObject, error) {
	return s.catalog.SpawnRandom(s, name)
}

// SpawnStartup spawns the configured startup objects in order.
func (s *Simulator) SpawnStartup() error {
	for i, obj := range s.cfg.Startup {
		if _, err := s.Spawn(obj); err != nil {
			return fmt.Errorf("startup object %d: %w", i, err)
		}
	}
	return nil
}

// Reset removes every tracked object from the world and the scene, then
// empties the registry. Calling it on an empty registry does nothing.
func (s *Simulator) Reset() {
	objs := s.registry.drain()
	if len(objs) == 0 {
		return
	}
	for _, o := range objs {
		s.world.Off(o.sub)
		s.world.RemoveBody(o.Body)
		s.scene.Remove(o.Mesh)
	}
	s.log.Info("reset", "removed", len(objs))
}

// Tick advances physics by dt seconds of real time, copies every body
// transform onto its mesh, updates the camera and renders once.
func (s *Simulator) Tick(dt float64) Frame {
	w := s.cfg.World
	n := s.world.Step(w.FixedStep, dt, w.MaxSubSteps)

	s.sync()
	s.controls.Update()
	if s.renderer != nil {
		s.renderer.Render(s.scene, s.camera)
	}

	s.frame++
	f := s.snapshot(dt, n)
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnFrame(f)
	}
	return f
}

// sync copies each body transform onto its mesh. The values are copied
// unmodified.
func (s *Simulator) sync() {
	s.registry.Each(func(o *TrackedObject) {
		o.Mesh.Position = o.Body.Position
		o.Mesh.Quaternion = o.Body.Quaternion
	})
}

// Snapshot describes the current state without stepping.
func (s *Simulator) Snapshot() Frame {
	return s.snapshot(0, 0)
}

func (s *Simulator) snapshot(dt float64, subSteps int) Frame {
	f := Frame{
		Index:    s.frame,
		Time:     s.world.Time(),
		Dt:       dt,
		SubSteps: subSteps,
		Objects:  make([]ObjectState, 0, s.registry.Len()),
	}
	s.registry.Each(func(o *TrackedObject) {
		f.Objects = append(f.Objects, o.State())
	})
	return f
}

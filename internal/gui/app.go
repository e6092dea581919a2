package gui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/physbox/internal/audio"
	"github.com/san-kum/physbox/internal/config"
	"github.com/san-kum/physbox/internal/scene"
	"github.com/san-kum/physbox/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColPanel   = rl.NewColor(30, 30, 30, 200)
	ColHover   = rl.NewColor(60, 60, 60, 220)
	ColText    = rl.NewColor(200, 200, 200, 255)
	ColTextDim = rl.NewColor(110, 110, 110, 255)
	ColShadow  = rl.NewColor(0, 0, 0, 90)
)

type button struct {
	label  string
	key    string
	bounds rl.Rectangle
	action func(*sim.Simulator)
}

// App is the windowed front end. It renders the scene for the simulator
// and serves as the loop's clock.
type App struct {
	cfg  *config.Config
	log  *log.Logger
	sim  *sim.Simulator
	loop *sim.Loop

	buttons  []button
	skybox   *skybox
	models   map[scene.Geometry]rl.Mesh
	material rl.Material
	voice    audio.Voice
	closers  []func()
	dragging bool
}

// Run opens the window, spawns the startup objects and blocks until the
// window is closed.
func Run(cfg *config.Config, logger *log.Logger) error {
	flags := uint32(rl.FlagWindowResizable | rl.FlagMsaa4xHint | rl.FlagWindowHighdpi)
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), cfg.Window.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Window.FPS))
	rl.SetExitKey(0)

	a := &App{cfg: cfg, log: logger}
	defer a.close()
	a.voice = a.openVoice()

	s, err := sim.New(cfg, sim.WithLogger(logger), sim.WithRenderer(a), sim.WithVoice(a.voice))
	if err != nil {
		return err
	}
	a.sim = s
	a.loop = sim.NewLoop(s, a)
	a.load()
	a.layoutButtons()
	a.resize()

	if err := s.SpawnStartup(); err != nil {
		return err
	}

	for !rl.WindowShouldClose() {
		a.handleInput()
		a.loop.Step()
	}
	a.loop.Stop()
	return nil
}

// Elapsed implements sim.Clock with the window's timer.
func (a *App) Elapsed() float64 { return rl.GetTime() }

func (a *App) openVoice() audio.Voice {
	ac := a.cfg.Audio
	if !ac.Enabled {
		return audio.NopVoice{}
	}
	switch ac.Backend {
	case "portaudio":
		v := audio.NewPortAudioVoice()
		if err := v.Start(); err != nil {
			a.log.Error("portaudio unavailable", "err", err)
			return audio.NopVoice{}
		}
		a.closers = append(a.closers, func() { v.Close() })
		return v
	default:
		rl.InitAudioDevice()
		a.closers = append(a.closers, rl.CloseAudioDevice)
		v, err := LoadSoundVoice(ac.Sound)
		if err != nil {
			a.log.Error("hit sound unavailable", "err", err)
			return audio.NopVoice{}
		}
		a.closers = append(a.closers, v.Unload)
		return v
	}
}

func (a *App) load() {
	a.models = map[scene.Geometry]rl.Mesh{
		scene.GeometrySphere: rl.GenMeshSphere(1, 24, 24),
		scene.GeometryBox:    rl.GenMeshCube(1, 1, 1),
		scene.GeometryPlane:  rl.GenMeshPlane(1, 1, 1, 1),
	}
	a.material = rl.LoadMaterialDefault()

	if env := a.sim.Scene().Environment; env != nil {
		sb, err := loadSkybox(env)
		if err != nil {
			a.log.Error("environment map unavailable", "dir", env.Dir, "err", err)
		} else {
			a.skybox = sb
			a.closers = append(a.closers, sb.unload)
		}
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *App) layoutButtons() {
	a.buttons = []button{
		{label: "createSphere", key: "1", action: func(s *sim.Simulator) { s.SpawnRandomSphere() }},
		{label: "createBoxes", key: "2", action: func(s *sim.Simulator) { s.SpawnRandomBox() }},
		{label: "reset", key: "R", action: (*sim.Simulator).Reset},
	}
	w := int(rl.GetScreenWidth())
	for i := range a.buttons {
		a.buttons[i].bounds = rl.NewRectangle(float32(w-190), float32(20+i*40), 170, 32)
	}
}

func (a *App) resize() {
	w, h := int(rl.GetScreenWidth()), int(rl.GetScreenHeight())
	dpr := float64(rl.GetWindowScaleDPI().X)
	if dpr <= 0 {
		dpr = 1
	}
	a.sim.Viewport().Resize(w, h, dpr)
	a.layoutButtons()
	a.log.Debug("resized", "width", w, "height", h, "dpr", a.sim.Viewport().PixelRatio)
}

func (a *App) handleInput() {
	if rl.IsWindowResized() {
		a.resize()
	}

	switch {
	case rl.IsKeyPressed(rl.KeyOne):
		a.loop.Post(a.buttons[0].action)
	case rl.IsKeyPressed(rl.KeyTwo):
		a.loop.Post(a.buttons[1].action)
	case rl.IsKeyPressed(rl.KeyR):
		a.loop.Post(a.buttons[2].action)
	}

	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		a.dragging = true
		for _, b := range a.buttons {
			if rl.CheckCollisionPointRec(mouse, b.bounds) {
				a.loop.Post(b.action)
				a.dragging = false
			}
		}
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		a.dragging = false
	}

	controls := a.sim.Controls()
	if a.dragging {
		d := rl.GetMouseDelta()
		h := float64(rl.GetScreenHeight())
		if h > 0 {
			controls.Rotate(2*math.Pi*float64(d.X)/h, 2*math.Pi*float64(d.Y)/h)
		}
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		controls.Dolly(math.Pow(0.95, -float64(wheel)))
	}
}

func (a *App) drawHUD() {
	rl.DrawText("physbox", 20, 20, 24, ColText)
	s := a.sim
	rl.DrawText(fmt.Sprintf("objects %d   hits %d   %d fps", s.Registry().Len(), s.Sound().Triggers(), rl.GetFPS()), 20, 52, 16, ColTextDim)

	mouse := rl.GetMousePosition()
	for _, b := range a.buttons {
		col := ColPanel
		if rl.CheckCollisionPointRec(mouse, b.bounds) {
			col = ColHover
		}
		rl.DrawRectangleRec(b.bounds, col)
		rl.DrawText(fmt.Sprintf("[%s] %s", b.key, b.label), int32(b.bounds.X)+10, int32(b.bounds.Y)+8, 16, ColText)
	}
}

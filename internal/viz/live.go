package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/physbox/internal/metrics"
	"github.com/san-kum/physbox/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 300
	orbitStep       = 0.15
)

type TickMsg time.Time

// Model drives a sim.Loop from Bubble Tea ticks. The loop's simulator
// renders into the model's canvas.
type Model struct {
	loop     *sim.Loop
	renderer *CanvasRenderer
	theme    Theme
	running  bool
	frame    sim.Frame
	heights  []float64
	fps      int
}

// NewModel installs a CanvasRenderer on the loop's simulator.
func NewModel(loop *sim.Loop, fps int) Model {
	if fps <= 0 {
		fps = 60
	}
	r := NewCanvasRenderer(canvasWidth, canvasHeight)
	s := loop.Simulator()
	s.SetRenderer(r)
	s.Viewport().Resize(canvasWidth*2, canvasHeight*4, 1)
	return Model{
		loop:     loop,
		renderer: r,
		theme:    Themes[0],
		running:  true,
		frame:    s.Snapshot(),
		fps:      fps,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.loop.Simulator()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.loop.Stop()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			m.loop.Post(func(s *sim.Simulator) { s.SpawnRandomSphere() })
		case "b":
			m.loop.Post(func(s *sim.Simulator) { s.SpawnRandomBox() })
		case "r":
			m.loop.Post((*sim.Simulator).Reset)
			m.heights = m.heights[:0]
		case "left", "h":
			s.Controls().Rotate(-orbitStep, 0)
		case "right", "l":
			s.Controls().Rotate(orbitStep, 0)
		case "up", "k":
			s.Controls().Rotate(0, -orbitStep)
		case "down", "j":
			s.Controls().Rotate(0, orbitStep)
		case "+", "=":
			s.Controls().Dolly(1.1)
		case "-", "_":
			s.Controls().Dolly(1 / 1.1)
		case "t":
			m.theme = NextTheme(m.theme.Name)
		}
	case TickMsg:
		if m.running {
			m.frame = m.loop.Step()
			m.heights = append(m.heights, metrics.Height(m.frame))
			if len(m.heights) > historyCapacity {
				m.heights = m.heights[len(m.heights)-historyCapacity:]
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	canvas := lipgloss.NewStyle().Foreground(m.theme.Canvas).Render(m.renderer.Canvas.String())
	canvasView := canvasStyle.Render(canvas)

	var b strings.Builder
	b.WriteString(GradientText("PHYSBOX", m.theme.Primary, m.theme.Secondary) + "\n\n")
	if m.running {
		b.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	} else {
		b.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("mean height"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	sleeping := 0
	for _, o := range m.frame.Objects {
		if o.Sleeping {
			sleeping++
		}
	}
	b.WriteString(row("Time", fmt.Sprintf("%.2fs", m.frame.Time)))
	b.WriteString(row("Frame", fmt.Sprintf("%d", m.frame.Index)))
	b.WriteString(row("Objects", fmt.Sprintf("%d", len(m.frame.Objects))))
	b.WriteString(row("Sub-steps", fmt.Sprintf("%d", m.frame.SubSteps)))
	b.WriteString(row("Hits", fmt.Sprintf("%d", m.loop.Simulator().Sound().Triggers())))
	if n := len(m.frame.Objects); n > 0 {
		b.WriteString(labelStyle.Render("Asleep") + ProgressBar(float64(sleeping)/float64(n), 16) + "\n")
	}
	b.WriteString(helpStyle.Render("─────────────────────\nS:Sphere B:Box R:Reset\nSP:Pause ←→↑↓:Orbit +/-:Zoom\nT:Theme  Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// Run starts the terminal program and blocks until the user quits.
func Run(loop *sim.Loop, fps int) error {
	_, err := tea.NewProgram(NewModel(loop, fps), tea.WithAltScreen()).Run()
	return err
}

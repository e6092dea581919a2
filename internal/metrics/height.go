package metrics

import "github.com/san-kum/physbox/internal/sim"

// MeanHeight is the mean y of the objects in the latest frame.
type MeanHeight struct {
	name  string
	value float64
}

func NewMeanHeight() *MeanHeight {
	return &MeanHeight{name: "mean_height"}
}

func (m *MeanHeight) Name() string { return m.name }

func (m *MeanHeight) Observe(f sim.Frame) {
	m.value = Height(f)
}

func (m *MeanHeight) Value() float64 { return m.value }

func (m *MeanHeight) Reset() { m.value = 0 }

// Height returns the mean y of the frame's objects, or 0 for an empty
// frame.
func Height(f sim.Frame) float64 {
	if len(f.Objects) == 0 {
		return 0
	}
	var sum float64
	for _, o := range f.Objects {
		sum += o.Position.Y()
	}
	return sum / float64(len(f.Objects))
}

// Impacts counts hit-sound triggers since the last reset. count is usually
// the simulator's HitSound.Triggers.
type Impacts struct {
	name  string
	count func() int
	base  int
}

func NewImpacts(count func() int) *Impacts {
	return &Impacts{name: "impacts", count: count, base: count()}
}

func (i *Impacts) Name() string { return i.name }

func (i *Impacts) Observe(sim.Frame) {}

func (i *Impacts) Value() float64 { return float64(i.count() - i.base) }

func (i *Impacts) Reset() { i.base = i.count() }

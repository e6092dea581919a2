package metrics

import (
	"github.com/san-kum/physbox/internal/sim"
)

// kinetic is the linear kinetic energy of the frame's objects. Spawned
// objects all have unit mass.
func kinetic(f sim.Frame) float64 {
	var e float64
	for _, o := range f.Objects {
		e += 0.5 * o.Velocity.LenSqr()
	}
	return e
}

// KineticEnergy averages the total linear kinetic energy over observed
// frames.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	e.total += kinetic(f)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// RestTime is the world time after which kinetic energy stayed below a
// threshold. It is -1 while the scene is still moving.
type RestTime struct {
	name      string
	threshold float64
	restingAt float64
	resting   bool
}

func NewRestTime(threshold float64) *RestTime {
	return &RestTime{
		name:      "rest_time",
		threshold: threshold,
	}
}

func (r *RestTime) Name() string { return r.name }

func (r *RestTime) Observe(f sim.Frame) {
	if kinetic(f) >= r.threshold {
		r.resting = false
		return
	}
	if !r.resting {
		r.resting = true
		r.restingAt = f.Time
	}
}

func (r *RestTime) Value() float64 {
	if !r.resting {
		return -1
	}
	return r.restingAt
}

func (r *RestTime) Reset() {
	r.resting = false
	r.restingAt = 0
}

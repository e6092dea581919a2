package metrics

import (
	"math"

	"github.com/san-kum/physbox/internal/sim"
)

// Containment is the fraction of frames in which every object stayed above
// the floor and within a lateral radius of the origin.
type Containment struct {
	name       string
	radius     float64
	tolerance  float64
	violations int
	samples    int
}

func NewContainment(radius float64) *Containment {
	return &Containment{
		name:      "containment",
		radius:    radius,
		tolerance: 0.05,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(f sim.Frame) {
	c.samples++
	for _, o := range f.Objects {
		p := o.Position
		if p.Y() < -c.tolerance || math.Hypot(p.X(), p.Z()) > c.radius {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

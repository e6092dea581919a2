package metrics

import "github.com/san-kum/physbox/internal/sim"

// SleepingFraction is the share of objects asleep in the latest frame.
type SleepingFraction struct {
	name     string
	sleeping int
	total    int
}

func NewSleepingFraction() *SleepingFraction {
	return &SleepingFraction{name: "sleeping"}
}

func (s *SleepingFraction) Name() string { return s.name }

func (s *SleepingFraction) Observe(f sim.Frame) {
	s.sleeping = 0
	s.total = len(f.Objects)
	for _, o := range f.Objects {
		if o.Sleeping {
			s.sleeping++
		}
	}
}

func (s *SleepingFraction) Value() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.sleeping) / float64(s.total)
}

func (s *SleepingFraction) Reset() {
	s.sleeping = 0
	s.total = 0
}

// Default returns the metrics recorded for every headless run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewRestTime(1e-3),
		NewContainment(10),
		NewMeanHeight(),
		NewSleepingFraction(),
	}
}

// Attach adds the default metrics plus an impact counter to s.
func Attach(s *sim.Simulator) {
	for _, m := range Default() {
		s.AddMetric(m)
	}
	s.AddMetric(NewImpacts(s.Sound().Triggers))
}

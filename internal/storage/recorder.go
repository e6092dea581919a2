package storage

import "github.com/san-kum/physbox/internal/sim"

// Recorder collects object states from every stride-th frame. It
// implements sim.Observer.
type Recorder struct {
	stride uint64
	rows   []Row
}

func NewRecorder(stride int) *Recorder {
	if stride < 1 {
		stride = 1
	}
	return &Recorder{stride: uint64(stride)}
}

func (r *Recorder) OnFrame(f sim.Frame) {
	if f.Index%r.stride != 0 {
		return
	}
	for _, o := range f.Objects {
		r.rows = append(r.rows, Row{Frame: f.Index, Time: f.Time, State: o, Sleeping: o.Sleeping})
	}
}

func (r *Recorder) Rows() []Row { return r.rows }

func (r *Recorder) Reset() { r.rows = nil }

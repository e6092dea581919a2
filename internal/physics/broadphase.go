package physics

import (
	"fmt"
	"math"
	"sort"
)

// Broadphase prunes body pairs that cannot be touching before the
// narrowphase runs exact tests.
type Broadphase interface {
	Name() string
	Pairs(bodies []*Body) [][2]*Body
}

// NewBroadphase returns the broadphase registered under name.
func NewBroadphase(name string) (Broadphase, error) {
	switch name {
	case "", "sap":
		return &SAPBroadphase{AutoDetectAxis: true}, nil
	case "naive":
		return NaiveBroadphase{}, nil
	}
	return nil, fmt.Errorf("unknown broadphase: %s", name)
}

// needsTest reports whether a pair can collide at all: two bodies that are
// each static or asleep never generate contacts.
func needsTest(a, b *Body) bool {
	inactiveA := a.Type == BodyStatic || a.sleepState == Sleeping
	inactiveB := b.Type == BodyStatic || b.sleepState == Sleeping
	return !(inactiveA && inactiveB)
}

// NaiveBroadphase tests every pair against its bounding boxes.
type NaiveBroadphase struct{}

func (NaiveBroadphase) Name() string { return "naive" }

func (NaiveBroadphase) Pairs(bodies []*Body) [][2]*Body {
	var pairs [][2]*Body
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			if !needsTest(a, b) {
				continue
			}
			if a.AABB().Overlaps(b.AABB()) {
				pairs = append(pairs, [2]*Body{a, b})
			}
		}
	}
	return pairs
}

// SAPBroadphase sorts bodies along one axis and sweeps for overlapping
// intervals. With AutoDetectAxis the axis of greatest positional variance
// is chosen every step.
type SAPBroadphase struct {
	Axis           int
	AutoDetectAxis bool

	entries []sapEntry
}

type sapEntry struct {
	body *Body
	box  AABB
}

func (s *SAPBroadphase) Name() string { return "sap" }

func (s *SAPBroadphase) Pairs(bodies []*Body) [][2]*Body {
	if s.AutoDetectAxis {
		s.Axis = varianceAxis(bodies)
	}
	axis := s.Axis

	s.entries = s.entries[:0]
	for _, b := range bodies {
		s.entries = append(s.entries, sapEntry{body: b, box: b.AABB()})
	}
	// Stable keeps insertion order for equal keys so pair order is
	// deterministic.
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].box.Min[axis] < s.entries[j].box.Min[axis]
	})

	var pairs [][2]*Body
	for i := 0; i < len(s.entries); i++ {
		ei := s.entries[i]
		for j := i + 1; j < len(s.entries); j++ {
			ej := s.entries[j]
			if ej.box.Min[axis] > ei.box.Max[axis] {
				break
			}
			if !needsTest(ei.body, ej.body) || !ei.box.Overlaps(ej.box) {
				continue
			}
			pairs = append(pairs, [2]*Body{ei.body, ej.body})
		}
	}
	return pairs
}

// varianceAxis ignores planes, whose infinite bounds carry no position.
func varianceAxis(bodies []*Body) int {
	var sum, sumSq [3]float64
	n := 0
	for _, b := range bodies {
		if b.Shape == nil || b.Shape.Kind() == ShapePlane {
			continue
		}
		for i := 0; i < 3; i++ {
			sum[i] += b.Position[i]
			sumSq[i] += b.Position[i] * b.Position[i]
		}
		n++
	}
	if n == 0 {
		return 0
	}
	best, bestVar := 0, math.Inf(-1)
	for i := 0; i < 3; i++ {
		mean := sum[i] / float64(n)
		v := sumSq[i]/float64(n) - mean*mean
		if v > bestVar {
			best, bestVar = i, v
		}
	}
	return best
}

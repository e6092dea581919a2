package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	Gravity         mgl64.Vec3
	Broadphase      string
	AllowSleep      bool
	Iterations      int
	SleepSpeedLimit float64
	SleepTimeLimit  float64

	DefaultContactMaterial ContactMaterial
}

func DefaultConfig() Config {
	return Config{
		Gravity:         mgl64.Vec3{0, -9.82, 0},
		Broadphase:      "sap",
		AllowSleep:      true,
		Iterations:      10,
		SleepSpeedLimit: 0.1,
		SleepTimeLimit:  1,
		DefaultContactMaterial: ContactMaterial{
			Friction:    0.1,
			Restitution: 0.7,
		},
	}
}

type pairKey struct {
	lo, hi uint64
}

func keyOf(a, b *Body) pairKey {
	if a.ID < b.ID {
		return pairKey{a.ID, b.ID}
	}
	return pairKey{b.ID, a.ID}
}

// World owns a set of bodies and advances them in fixed internal steps.
// It is not safe for concurrent use.
type World struct {
	cfg        Config
	broadphase Broadphase
	solver     solver
	events     *eventBus

	bodies   []*Body
	index    map[uint64]int
	contacts map[materialPair]ContactMaterial

	matrix     map[pairKey]bool
	prevMatrix map[pairKey]bool

	accumulator float64
	time        float64
	stepCount   uint64
}

func NewWorld(cfg Config) (*World, error) {
	bp, err := NewBroadphase(cfg.Broadphase)
	if err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 10
	}
	return &World{
		cfg:        cfg,
		broadphase: bp,
		solver:     solver{iterations: cfg.Iterations},
		events:     newEventBus(),
		index:      make(map[uint64]int),
		contacts:   make(map[materialPair]ContactMaterial),
		matrix:     make(map[pairKey]bool),
		prevMatrix: make(map[pairKey]bool),
	}, nil
}

func (w *World) Config() Config         { return w.cfg }
func (w *World) Broadphase() Broadphase { return w.broadphase }

// Time is the simulated time in seconds.
func (w *World) Time() float64 { return w.time }

// StepCount is the number of internal steps taken.
func (w *World) StepCount() uint64 { return w.stepCount }

// AddBody adds b to the world. Adding a body twice is a no-op.
func (w *World) AddBody(b *Body) {
	if _, ok := w.index[b.ID]; ok {
		return
	}
	w.index[b.ID] = len(w.bodies)
	w.bodies = append(w.bodies, b)
}

// RemoveBody removes b along with its collide handlers and contact history.
// It reports whether b was present.
func (w *World) RemoveBody(b *Body) bool {
	i, ok := w.index[b.ID]
	if !ok {
		return false
	}
	w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
	delete(w.index, b.ID)
	for j := i; j < len(w.bodies); j++ {
		w.index[w.bodies[j].ID] = j
	}

	w.events.drop(b.ID)
	for k := range w.prevMatrix {
		if k.lo == b.ID || k.hi == b.ID {
			delete(w.prevMatrix, k)
		}
	}
	for k := range w.matrix {
		if k.lo == b.ID || k.hi == b.ID {
			delete(w.matrix, k)
		}
	}
	return true
}

func (w *World) Contains(b *Body) bool {
	_, ok := w.index[b.ID]
	return ok
}

// Bodies returns the bodies in insertion order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

func (w *World) NumBodies() int { return len(w.bodies) }

func (w *World) AddContactMaterial(cm ContactMaterial) {
	w.contacts[materialPair{cm.A, cm.B}] = cm
}

func (w *World) contactMaterial(a, b *Body) ContactMaterial {
	if a.Material != nil && b.Material != nil {
		if cm, ok := w.contacts[materialPair{a.Material, b.Material}]; ok {
			return cm
		}
		if cm, ok := w.contacts[materialPair{b.Material, a.Material}]; ok {
			return cm
		}
	}
	return w.cfg.DefaultContactMaterial
}

// OnCollide registers fn for collide events targeting b.
func (w *World) OnCollide(b *Body, fn CollideHandler) Subscription {
	return w.events.on(b.ID, fn)
}

// Off removes a handler. It reports whether the handler was registered.
func (w *World) Off(sub Subscription) bool {
	return w.events.off(sub)
}

func (w *World) HandlerCount(b *Body) int {
	return w.events.count(b.ID)
}

// Step advances the world by delta seconds of real time using internal
// steps of size fixed, taking at most maxSubSteps of them. Time left over
// is carried to the next call, modulo fixed. It returns the number of
// internal steps taken.
func (w *World) Step(fixed, delta float64, maxSubSteps int) int {
	if fixed <= 0 {
		return 0
	}
	if delta > 0 {
		w.accumulator += delta
	}
	n := 0
	for w.accumulator >= fixed && n < maxSubSteps {
		w.internalStep(fixed)
		w.accumulator -= fixed
		n++
	}
	w.accumulator = math.Mod(w.accumulator, fixed)
	return n
}

// StepFixed runs exactly one internal step of dt.
func (w *World) StepFixed(dt float64) {
	if dt <= 0 {
		return
	}
	w.internalStep(dt)
}

func (w *World) internalStep(dt float64) {
	for _, b := range w.bodies {
		if b.Type != BodyDynamic || b.sleepState == Sleeping {
			continue
		}
		acc := w.cfg.Gravity.Add(b.force.Mul(b.invMass))
		b.Velocity = b.Velocity.Add(acc.Mul(dt))
		b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld(b.torque).Mul(dt))
		b.force = mgl64.Vec3{}
		b.torque = mgl64.Vec3{}
	}

	w.matrix = make(map[pairKey]bool, len(w.prevMatrix))
	w.solver.reset()

	var found [][]Contact
	for _, pair := range w.broadphase.Pairs(w.bodies) {
		if cs := collide(pair[0], pair[1]); len(cs) > 0 {
			found = append(found, cs)
		}
	}

	limitSq := w.cfg.SleepSpeedLimit * w.cfg.SleepSpeedLimit
	var wake []*Body
	for _, cs := range found {
		a, b := cs[0].BodyA, cs[0].BodyB
		if !w.cfg.AllowSleep {
			break
		}
		if shouldWake(a, b, limitSq) {
			wake = append(wake, a)
		}
		if shouldWake(b, a, limitSq) {
			wake = append(wake, b)
		}
	}
	for _, b := range wake {
		b.WakeUp()
	}

	for _, cs := range found {
		first := &cs[0]
		a, b := first.BodyA, first.BodyB
		key := keyOf(a, b)
		w.matrix[key] = true
		if !w.prevMatrix[key] {
			w.events.dispatch(CollideEvent{Target: a, Body: b, Contact: first})
			w.events.dispatch(CollideEvent{Target: b, Body: a, Contact: first})
		}

		mat := w.contactMaterial(a, b)
		for i := range cs {
			w.solver.add(&cs[i], mat, dt)
		}
	}

	w.solver.solve()

	for _, b := range w.bodies {
		if b.Type != BodyDynamic || b.sleepState == Sleeping {
			continue
		}
		b.damp(dt)
		b.integrate(dt)
	}

	w.prevMatrix = w.matrix
	w.time += dt
	w.stepCount++

	if w.cfg.AllowSleep {
		for _, b := range w.bodies {
			if b.Type == BodyDynamic && b.sleepState != Sleeping {
				b.sleepTick(w.time, w.cfg.SleepSpeedLimit, w.cfg.SleepTimeLimit)
			}
		}
	}
}

// shouldWake reports whether a sleeping body is being pushed by a moving
// dynamic one.
func shouldWake(sleeper, other *Body, limitSq float64) bool {
	if sleeper.Type != BodyDynamic || sleeper.sleepState != Sleeping {
		return false
	}
	if other.Type != BodyDynamic || other.sleepState != Awake {
		return false
	}
	speedSq := other.Velocity.LenSqr() + other.AngularVelocity.LenSqr()
	return speedSq >= 2*limitSq
}

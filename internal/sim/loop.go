package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Clock reports seconds elapsed since it started.
type Clock interface {
	Elapsed() float64
}

type wallClock struct{ start time.Time }

func NewWallClock() Clock { return &wallClock{start: time.Now()} }

func (c *wallClock) Elapsed() float64 { return time.Since(c.start).Seconds() }

// ManualClock only moves when advanced; headless runs and tests use it.
type ManualClock struct {
	mu sync.Mutex
	t  float64
}

func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	c.t += d
	c.mu.Unlock()
}

func (c *ManualClock) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

type FrameHook func(Frame)

const commandBuffer = 64

// Loop drives a Simulator one tick per iteration. The delta handed to
// Tick is the clock time since the previous iteration; the first
// iteration measures from zero.
type Loop struct {
	sim   *Simulator
	clock Clock

	// Interval paces Run; zero runs iterations back to back.
	Interval time.Duration

	prev    float64
	stopped atomic.Bool
	cmds    chan func(*Simulator)
	hooks   []FrameHook
}

func NewLoop(s *Simulator, clock Clock) *Loop {
	if clock == nil {
		clock = NewWallClock()
	}
	return &Loop{
		sim:   s,
		clock: clock,
		cmds:  make(chan func(*Simulator), commandBuffer),
	}
}

func (l *Loop) Simulator() *Simulator { return l.sim }

// OnFrame registers h to run after every tick. Register hooks before Run.
func (l *Loop) OnFrame(h FrameHook) { l.hooks = append(l.hooks, h) }

// Post queues fn to run on the loop goroutine before the next tick. It
// reports false when the loop is stopped or the queue is full.
func (l *Loop) Post(fn func(*Simulator)) bool {
	if l.stopped.Load() {
		return false
	}
	select {
	case l.cmds <- fn:
		return true
	default:
		return false
	}
}

// Stop makes Run return after the current iteration.
func (l *Loop) Stop() { l.stopped.Store(true) }

func (l *Loop) Stopped() bool { return l.stopped.Load() }

// Step runs one iteration: measure the delta, apply posted commands, tick
// and notify hooks.
func (l *Loop) Step() Frame {
	now := l.clock.Elapsed()
	delta := now - l.prev
	l.prev = now

	l.drain()
	f := l.sim.Tick(delta)
	for _, h := range l.hooks {
		h(f)
	}
	return f
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.cmds:
			fn(l.sim)
		default:
			return
		}
	}
}

// Run iterates until Stop is called or ctx is done. It returns ctx.Err()
// on cancellation and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if l.Interval > 0 {
		t := time.NewTicker(l.Interval)
		defer t.Stop()
		tick = t.C
	}

	for !l.stopped.Load() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		l.Step()
	}
	return nil
}

package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestLoopDeltaFromClock(t *testing.T) {
	s := newTestSim(t)
	clock := &ManualClock{}
	loop := NewLoop(s, clock)

	clock.Advance(0.06)
	f := loop.Step()
	if f.Dt != 0.06 {
		t.Errorf("expected dt 0.06, got %f", f.Dt)
	}
	if f.SubSteps != 3 {
		t.Errorf("expected sub-steps capped at 3, got %d", f.SubSteps)
	}

	f = loop.Step()
	if f.Dt != 0 {
		t.Errorf("expected zero dt without clock movement, got %f", f.Dt)
	}
	if f.SubSteps != 0 {
		t.Errorf("expected no sub-steps, got %d", f.SubSteps)
	}
}

func TestLoopFirstDeltaStartsAtZero(t *testing.T) {
	s := newTestSim(t)
	clock := &ManualClock{}
	clock.Advance(0.5)
	loop := NewLoop(s, clock)

	f := loop.Step()
	if f.Dt != 0.5 {
		t.Errorf("expected first dt measured from zero, got %f", f.Dt)
	}
	if f.SubSteps != 3 {
		t.Errorf("expected catch-up capped at 3 sub-steps, got %d", f.SubSteps)
	}

	clock.Advance(0.25)
	if f = loop.Step(); f.Dt != 0.25 {
		t.Errorf("expected dt 0.25 after the first frame, got %f", f.Dt)
	}
}

func TestLoopPostRunsBeforeTick(t *testing.T) {
	s := newTestSim(t)
	loop := NewLoop(s, &ManualClock{})

	ok := loop.Post(func(s *Simulator) { s.SpawnSphere(0.5, mgl64.Vec3{0, 3, 0}) })
	if !ok {
		t.Fatal("post should succeed")
	}
	if s.Registry().Len() != 0 {
		t.Fatal("posted command should not run before the next step")
	}
	f := loop.Step()
	if len(f.Objects) != 1 {
		t.Errorf("expected spawned object in frame, got %d", len(f.Objects))
	}
}

func TestLoopStop(t *testing.T) {
	s := newTestSim(t)
	clock := &ManualClock{}
	loop := NewLoop(s, clock)

	frames := 0
	loop.OnFrame(func(Frame) {
		frames++
		clock.Advance(frameDt)
		if frames == 10 {
			loop.Stop()
		}
	})

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if frames != 10 {
		t.Errorf("expected 10 frames, got %d", frames)
	}
	if !loop.Stopped() {
		t.Error("loop should report stopped")
	}
	if loop.Post(func(*Simulator) {}) {
		t.Error("post after stop should fail")
	}
}

func TestLoopContextCancel(t *testing.T) {
	loop := NewLoop(newTestSim(t), &ManualClock{})
	ctx, cancel := context.WithCancel(context.Background())
	loop.OnFrame(func(f Frame) {
		if f.Index == 3 {
			cancel()
		}
	})
	err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoopPostQueueFull(t *testing.T) {
	loop := NewLoop(newTestSim(t), &ManualClock{})
	for i := 0; i < commandBuffer; i++ {
		if !loop.Post(func(*Simulator) {}) {
			t.Fatalf("post %d should fit", i)
		}
	}
	if loop.Post(func(*Simulator) {}) {
		t.Error("post beyond the buffer should fail")
	}
	loop.Step()
	if !loop.Post(func(*Simulator) {}) {
		t.Error("queue should drain on step")
	}
}

package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/physbox/internal/config"
)

// RunHeadless spawns the startup objects plus extra random ones, then
// ticks frames times with a fixed dt on a manual clock.
func RunHeadless(ctx context.Context, s *Simulator, frames int, dt float64, extra int) (*Summary, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %g", dt)
	}
	if err := s.SpawnStartup(); err != nil {
		return nil, err
	}
	for i := 0; i < extra; i++ {
		if i%2 == 0 {
			s.SpawnRandomSphere()
		} else {
			s.SpawnRandomBox()
		}
	}

	clock := &ManualClock{}
	loop := NewLoop(s, clock)
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		clock.Advance(dt)
		loop.Step()
	}

	sum := &Summary{
		Seed:    s.cfg.Seed,
		Frames:  frames,
		Time:    s.world.Time(),
		Objects: s.registry.Len(),
		Metrics: s.Metrics(),
	}
	s.registry.Each(func(o *TrackedObject) {
		if o.Body.IsSleeping() {
			sum.Sleeping++
		}
	})
	return sum, nil
}

// Ensemble runs the same headless scenario under consecutive seeds in
// parallel.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	metrics   func() []Metric
}

// NewEnsemble builds fresh metrics per run from newMetrics, which may be
// nil.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, frames int, dt float64, extra int) ([]*Summary, error) {
	results := make([]*Summary, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := *e.cfg
			cfgCopy.Startup = append([]config.ObjectConfig(nil), e.cfg.Startup...)
			cfgCopy.Seed = e.seedStart + int64(idx)

			s, err := New(&cfgCopy)
			if err != nil {
				return err
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			sum, err := RunHeadless(ctx, s, frames, dt, extra)
			if err != nil {
				return fmt.Errorf("run %d: %w", idx, err)
			}
			results[idx] = sum
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

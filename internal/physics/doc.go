// Package physics is a small rigid-body world for spheres, boxes and
// static planes.
//
// A [World] is advanced with a fixed internal step. [World.Step] feeds
// real elapsed time into an accumulator and runs as many internal steps as
// fit, bounded by a sub-step limit:
//
//	w, _ := physics.NewWorld(physics.DefaultConfig())
//	w.AddBody(physics.NewBody(physics.BodyOptions{
//	    Mass:     1,
//	    Shape:    &physics.Sphere{Radius: 0.5},
//	    Position: mgl64.Vec3{0, 3, 0},
//	}))
//	w.Step(1.0/60, delta, 3)
//
// Each internal step runs a broadphase ([SAPBroadphase] or
// [NaiveBroadphase]), exact contact generation, a sequential impulse solver
// with restitution and Coulomb friction, and semi-implicit integration.
// Bodies that stay slow for long enough fall asleep and are skipped until
// something moving touches them.
//
// # Events
//
// [World.OnCollide] registers a handler keyed by body. Handlers run
// synchronously inside the step, once per pair when the two bodies start
// touching.
package physics

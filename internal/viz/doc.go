// Package viz draws the scene in a terminal.
//
// [CanvasRenderer] implements scene.Renderer on a Braille [Canvas], so the
// simulator renders into it the same way it renders into a window. [Model]
// is a Bubble Tea program that drives a sim.Loop and shows the canvas next
// to a stats panel.
//
// # Key Bindings
//
//	S     - Spawn a random sphere
//	B     - Spawn a random box
//	R     - Remove every object
//	Space - Pause/Resume
//	←→↑↓  - Orbit the camera
//	+/-   - Dolly in/out
//	T     - Cycle color themes
//	Q     - Quit
package viz

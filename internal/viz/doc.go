// Package viz provides the terminal viewer for a running fluid simulation.
//
// The viewer is a Bubble Tea program that draws the selected field with
// half-block characters and shows live diagnostics next to it.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	S       - Single step while paused
//	R       - Reset and reseed
//	C       - Clear dye
//	1-4     - Dye / Vorticity / Divergence / Velocity view
//	V       - Inject a random vortex splat
//	Tab     - Select parameter
//	Up/Down - Tune selected parameter
//	G       - Toggle GIF recording of the current view
//	T       - Cycle panel themes
//	?       - Show help overlay
//	Q       - Quit
package viz

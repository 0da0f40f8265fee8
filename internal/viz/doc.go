// Package viz draws a soft body in the terminal.
//
// Rendering goes through a braille [Canvas] (2x4 dots per cell) and a
// perspective [Camera]. [Model] is a Bubble Tea program that steps a
// simulator every tick; [Launcher] picks a preset scene first.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	R      - Reset body and parameters
//	+/-    - Stiffness
//	[/]    - Deformation
//	Arrows - Rotate camera
//	Z/z    - Zoom
//	O      - Show goal positions
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Help overlay
package viz

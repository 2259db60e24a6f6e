// Package viz draws the biped in the terminal.
//
// [Model] is a Bubble Tea live view that steps an experiment frame by frame,
// renders both legs on a braille [Canvas] through an orbiting [Camera], and
// lets the user retune gains or push joints while it runs. [Picker] chooses
// a preset before opening the live view. [Plot] and [PlotMany] wrap
// asciigraph for the CLI's trajectory and residual plots.
//
// # Key Bindings
//
//	Space      pause / resume
//	R          reset
//	Tab        select joint
//	Up/Down    retune kp
//	Left/Right push the selected joint
//	[ ]        replay recent frames
//	?          help
package viz

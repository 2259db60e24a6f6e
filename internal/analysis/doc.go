// Package analysis characterizes recorded joint trajectories.
//
//   - [Spectrum], [DominantFrequency]: ringing of a joint around its target
//   - [AnalyzeStep]: rise time, overshoot and settling of a step response
//   - [JointPortrait], [PhasePortraitToASCII]: angle/velocity phase plot
//
// All functions work on data already recorded by a simulation run:
//
//	angles := storage.Column(states, robot.AngleIndex(robot.LKnee))
//	f := analysis.DominantFrequency(angles, dt)
package analysis

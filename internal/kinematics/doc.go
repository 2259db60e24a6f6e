// Package kinematics implements the rigid-body kinematics of a six-joint leg.
//
// The leg is a serial chain of revolute joints described by a constant [Chain]
// table of {axis, offset} pairs. From that table the package builds:
//
//   - [Transform]: 4x4 homogeneous transforms for each joint and the fixed offsets
//   - [Chain.Forward]: the composed base-to-foot transform
//   - [Chain.Jacobian]: the 6x6 geometric Jacobian in the base frame
//   - [RotationVector]: the axis-angle (log map) of a rotation error
//
// All functions are pure. A [JointVector] is a fixed-size array, so a chain is
// always evaluated with exactly [NumJoints] angles.
//
// # Example
//
//	chain := kinematics.DefaultChain()
//	q := kinematics.FromDegrees(10, 20, 30, 40, 50, 60)
//	foot := chain.Position(q)
//	jac := chain.Jacobian(q)
package kinematics

package kinematics

import "errors"

var (
	// ErrJointCount indicates a joint slice whose length is not NumJoints.
	ErrJointCount = errors.New("kinematics: joint vector must have exactly 6 entries")

	// ErrJointIndex indicates a joint index outside [0, NumJoints).
	ErrJointIndex = errors.New("kinematics: joint index out of range")

	// ErrNotRotation indicates a matrix that is not a proper 3x3 rotation.
	ErrNotRotation = errors.New("kinematics: matrix is not a rotation")

	// ErrUnknownAxis indicates an axis name other than x, y or z.
	ErrUnknownAxis = errors.New("kinematics: unknown joint axis")
)

package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Frames returns the base-to-frame-i transforms for every joint, i.e. the
// running prefix base*T01*...*T(i)(i+1), together with the base-to-foot transform.
func (c Chain) Frames(q JointVector) ([NumJoints]Transform, Transform) {
	var frames [NumJoints]Transform
	t := c.BaseTransform()
	for i := 0; i < NumJoints; i++ {
		t = t.Mul(c.jointTransform(q, i))
		frames[i] = t
	}
	return frames, t.Mul(c.ToolTransform())
}

// Forward composes the chain into the base-to-foot transform.
func (c Chain) Forward(q JointVector) Transform {
	_, foot := c.Frames(q)
	return foot
}

// Position returns the foot position in the base frame.
func (c Chain) Position(q JointVector) r3.Vector {
	return c.Forward(q).Translation()
}

// Rotation returns the foot orientation in the base frame.
func (c Chain) Rotation(q JointVector) *mat.Dense {
	return c.Forward(q).Rotation()
}

// Pose returns position and orientation from a single composed transform.
func (c Chain) Pose(q JointVector) Pose {
	t := c.Forward(q)
	return Pose{Position: t.Translation(), Rotation: t.Rotation()}
}

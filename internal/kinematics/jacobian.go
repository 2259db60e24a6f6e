package kinematics

import (
	"gonum.org/v1/gonum/mat"
)

// Jacobian returns the 6x6 geometric Jacobian at q. Rows 0-2 map joint rates
// to foot linear velocity, rows 3-5 to angular velocity, both in the base frame.
// It is rebuilt from scratch on every call; singular configurations are not
// special-cased.
func (c Chain) Jacobian(q JointVector) *mat.Dense {
	frames, foot := c.Frames(q)
	pe := foot.Translation()

	jac := mat.NewDense(6, NumJoints, nil)
	for i, f := range frames {
		n := rotate(f.m.Slice(0, 3, 0, 3), c.Links[i].Axis.Unit())
		lin := n.Cross(pe.Sub(f.Translation()))

		jac.Set(0, i, lin.X)
		jac.Set(1, i, lin.Y)
		jac.Set(2, i, lin.Z)
		jac.Set(3, i, n.X)
		jac.Set(4, i, n.Y)
		jac.Set(5, i, n.Z)
	}
	return jac
}

// PositionJacobian returns the top 3x6 block of the Jacobian.
func (c Chain) PositionJacobian(q JointVector) *mat.Dense {
	return mat.DenseCopyOf(c.Jacobian(q).Slice(0, 3, 0, NumJoints))
}

// RotationJacobian returns the bottom 3x6 block of the Jacobian.
func (c Chain) RotationJacobian(q JointVector) *mat.Dense {
	return mat.DenseCopyOf(c.Jacobian(q).Slice(3, 6, 0, NumJoints))
}

package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// smallAngle is the rotation angle below which the log map returns zero.
	smallAngle = 0.001

	// rotationTolerance bounds max|CᵀC - I| for a matrix to count as a rotation.
	rotationTolerance = 1e-6
)

// CheckRotation reports whether c is a proper 3x3 rotation matrix. A nil
// matrix, as in a zero Pose, is not one.
func CheckRotation(c mat.Matrix) error {
	if d, ok := c.(*mat.Dense); c == nil || (ok && d == nil) {
		return errors.Wrap(ErrNotRotation, "missing rotation")
	}
	if r, cols := c.Dims(); r != 3 || cols != 3 {
		return errors.Wrapf(ErrNotRotation, "dims %dx%d", r, cols)
	}
	var ctc mat.Dense
	ctc.Mul(c.T(), c)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if d := math.Abs(ctc.At(i, j) - want); d > rotationTolerance {
				return errors.Wrapf(ErrNotRotation, "not orthonormal (deviation %g at %d,%d)", d, i, j)
			}
		}
	}
	if det := mat.Det(c); det <= 0 {
		return errors.Wrapf(ErrNotRotation, "determinant %g", det)
	}
	return nil
}

// RotationVector returns the rotation vector (axis scaled by angle) of c.
// Angles below 0.001 rad map to the zero vector.
func RotationVector(c mat.Matrix) (r3.Vector, error) {
	if err := CheckRotation(c); err != nil {
		return r3.Vector{}, err
	}
	return logMap(c), nil
}

// logMap is RotationVector without the input check.
func logMap(c mat.Matrix) r3.Vector {
	cosTh := (c.At(0, 0) + c.At(1, 1) + c.At(2, 2) - 1) / 2
	th := math.Acos(math.Max(-1, math.Min(1, cosTh)))
	if math.Abs(th) < smallAngle {
		return r3.Vector{}
	}
	n := r3.Vector{
		X: c.At(2, 1) - c.At(1, 2),
		Y: c.At(0, 2) - c.At(2, 0),
		Z: c.At(1, 0) - c.At(0, 1),
	}
	return n.Mul(th / (2 * math.Sin(th)))
}

// EulerZYX extracts yaw (about z), pitch (about y) and roll (about x) from c,
// such that c = Rz(yaw) * Ry(pitch) * Rx(roll).
func EulerZYX(c mat.Matrix) (yaw, pitch, roll float64) {
	yaw = math.Atan2(c.At(1, 0), c.At(0, 0))
	pitch = math.Atan2(-c.At(2, 0), math.Hypot(c.At(2, 1), c.At(2, 2)))
	roll = math.Atan2(c.At(2, 1), c.At(2, 2))
	return yaw, pitch, roll
}

// RotationZYX builds Rz(yaw) * Ry(pitch) * Rx(roll).
func RotationZYX(yaw, pitch, roll float64) *mat.Dense {
	var zy, zyx mat.Dense
	zy.Mul(AxisZ.Rotation(yaw), AxisY.Rotation(pitch))
	zyx.Mul(&zy, AxisX.Rotation(roll))
	return &zyx
}

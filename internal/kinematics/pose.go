package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Pose is a foot position and orientation in the base frame.
type Pose struct {
	Position r3.Vector
	Rotation *mat.Dense
}

// NewPose validates rot and returns the pose.
func NewPose(p r3.Vector, rot mat.Matrix) (Pose, error) {
	if err := CheckRotation(rot); err != nil {
		return Pose{}, err
	}
	return Pose{Position: p, Rotation: mat.DenseCopyOf(rot)}, nil
}

// PoseFromEuler builds a pose from a position and ZYX Euler angles in radians.
func PoseFromEuler(p r3.Vector, yaw, pitch, roll float64) Pose {
	return Pose{Position: p, Rotation: RotationZYX(yaw, pitch, roll)}
}

// Error returns the 6-vector [p - actual.p; log(R * actual.Rᵀ)] that drives
// actual toward p.
func (p Pose) Error(actual Pose) *mat.VecDense {
	dr := p.Position.Sub(actual.Position)

	var cErr mat.Dense
	cErr.Mul(p.Rotation, actual.Rotation.T())
	dph := logMap(&cErr)

	return mat.NewVecDense(6, []float64{dr.X, dr.Y, dr.Z, dph.X, dph.Y, dph.Z})
}

func (p Pose) String() string {
	yaw, pitch, roll := EulerZYX(p.Rotation)
	return fmt.Sprintf("pos=(%.4f, %.4f, %.4f) ypr=(%.2f°, %.2f°, %.2f°)",
		p.Position.X, p.Position.Y, p.Position.Z,
		yaw*180/math.Pi, pitch*180/math.Pi, roll*180/math.Pi)
}

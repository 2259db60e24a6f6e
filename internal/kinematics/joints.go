package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumJoints is the number of revolute joints in one leg chain.
const NumJoints = 6

// JointVector holds one leg's joint angles in radians, in chain order:
// hip yaw, hip roll, hip pitch, knee pitch, ankle pitch, ankle roll.
type JointVector [NumJoints]float64

// FromSlice copies q into a JointVector. It fails if len(q) != NumJoints.
func FromSlice(q []float64) (JointVector, error) {
	var v JointVector
	if len(q) != NumJoints {
		return v, errors.Wrapf(ErrJointCount, "got %d", len(q))
	}
	copy(v[:], q)
	return v, nil
}

// FromDegrees builds a JointVector from six angles given in degrees.
func FromDegrees(d0, d1, d2, d3, d4, d5 float64) JointVector {
	return JointVector{
		d0 * math.Pi / 180,
		d1 * math.Pi / 180,
		d2 * math.Pi / 180,
		d3 * math.Pi / 180,
		d4 * math.Pi / 180,
		d5 * math.Pi / 180,
	}
}

// Degrees returns the angles converted to degrees.
func (q JointVector) Degrees() [NumJoints]float64 {
	var d [NumJoints]float64
	for i, v := range q {
		d[i] = v * 180 / math.Pi
	}
	return d
}

// Slice returns a copy of the angles as a slice.
func (q JointVector) Slice() []float64 {
	s := make([]float64, NumJoints)
	copy(s, q[:])
	return s
}

// Add returns q + o.
func (q JointVector) Add(o JointVector) JointVector {
	floats.Add(q[:], o[:])
	return q
}

// Scale returns f*q.
func (q JointVector) Scale(f float64) JointVector {
	floats.Scale(f, q[:])
	return q
}

// AddScaledVec returns q + f*v, where v is a length-NumJoints vector.
func (q JointVector) AddScaledVec(f float64, v mat.Vector) JointVector {
	for i := range q {
		q[i] += f * v.AtVec(i)
	}
	return q
}

// Norm returns the Euclidean norm of q.
func (q JointVector) Norm() float64 {
	return floats.Norm(q[:], 2)
}

// IsValid reports whether every angle is finite.
func (q JointVector) IsValid() bool {
	for _, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

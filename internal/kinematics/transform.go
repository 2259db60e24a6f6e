package kinematics

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Transform is a rigid homogeneous transform stored as a 4x4 matrix.
// It can only be built from a rotation block and a translation, so the
// bottom row is always [0 0 0 1].
type Transform struct {
	m *mat.Dense
}

// NewTransform builds [rot p; 0 1]. rot must be 3x3.
func NewTransform(rot mat.Matrix, p r3.Vector) Transform {
	if r, c := rot.Dims(); r != 3 || c != 3 {
		panic(fmt.Sprintf("kinematics: rotation block must be 3x3, got %dx%d", r, c))
	}
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot.At(i, j))
		}
	}
	m.Set(0, 3, p.X)
	m.Set(1, 3, p.Y)
	m.Set(2, 3, p.Z)
	m.Set(3, 3, 1)
	return Transform{m: m}
}

// Identity returns the identity transform.
func Identity() Transform {
	return NewTranslation(r3.Vector{})
}

// NewTranslation returns a pure translation with no rotation.
func NewTranslation(p r3.Vector) Transform {
	return NewTransform(identity3(), p)
}

// Mul returns t*o, i.e. o expressed through t. The left operand is the parent frame.
func (t Transform) Mul(o Transform) Transform {
	m := mat.NewDense(4, 4, nil)
	m.Mul(t.m, o.m)
	return Transform{m: m}
}

// At returns element (i, j).
func (t Transform) At(i, j int) float64 {
	return t.m.At(i, j)
}

// Rotation returns a copy of the 3x3 rotation block.
func (t Transform) Rotation() *mat.Dense {
	return mat.DenseCopyOf(t.m.Slice(0, 3, 0, 3))
}

// Translation returns the 3x1 translation block.
func (t Transform) Translation() r3.Vector {
	return r3.Vector{X: t.m.At(0, 3), Y: t.m.At(1, 3), Z: t.m.At(2, 3)}
}

// Apply maps a point expressed in the child frame into the parent frame.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return rotate(t.m.Slice(0, 3, 0, 3), p).Add(t.Translation())
}

// Matrix returns a copy of the full 4x4 matrix.
func (t Transform) Matrix() *mat.Dense {
	return mat.DenseCopyOf(t.m)
}

func (t Transform) String() string {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "[% .6f % .6f % .6f % .6f]", t.m.At(i, 0), t.m.At(i, 1), t.m.At(i, 2), t.m.At(i, 3))
		if i < 3 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

// rotate returns r*v for a 3x3 matrix r.
func rotate(r mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*v.X + r.At(0, 1)*v.Y + r.At(0, 2)*v.Z,
		Y: r.At(1, 0)*v.X + r.At(1, 1)*v.Y + r.At(1, 2)*v.Z,
		Z: r.At(2, 0)*v.X + r.At(2, 1)*v.Y + r.At(2, 2)*v.Z,
	}
}

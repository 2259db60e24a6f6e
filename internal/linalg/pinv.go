package linalg

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DampedPseudoInverse returns the n×m damped least-squares pseudo-inverse of
// the m×n matrix a:
//
//	m >= n: (AᵀA + λ²I)⁻¹Aᵀ
//	m <  n: Aᵀ(AAᵀ + λ²I)⁻¹
//
// With lambda > 0 the regularized matrix is always invertible; with lambda == 0
// and a full-rank a the result is the Moore-Penrose pseudo-inverse.
func DampedPseudoInverse(a mat.Matrix, lambda float64) (*mat.Dense, error) {
	if lambda < 0 || math.IsNaN(lambda) {
		return nil, errors.Wrapf(ErrNegativeDamping, "lambda=%g", lambda)
	}

	m, n := a.Dims()
	at := a.T()

	var reg, inv mat.Dense
	pinv := mat.NewDense(n, m, nil)
	if m >= n {
		reg.Mul(at, a)
		addDiagonal(&reg, lambda*lambda)
		if err := invert(&inv, &reg); err != nil {
			return nil, err
		}
		pinv.Mul(&inv, at)
	} else {
		reg.Mul(a, at)
		addDiagonal(&reg, lambda*lambda)
		if err := invert(&inv, &reg); err != nil {
			return nil, err
		}
		pinv.Mul(at, &inv)
	}
	return pinv, nil
}

// Solve returns the damped least-squares step a⁺b.
func Solve(a mat.Matrix, b mat.Vector, lambda float64) (*mat.VecDense, error) {
	pinv, err := DampedPseudoInverse(a, lambda)
	if err != nil {
		return nil, err
	}
	n, _ := pinv.Dims()
	x := mat.NewVecDense(n, nil)
	x.MulVec(pinv, b)
	return x, nil
}

func addDiagonal(m *mat.Dense, v float64) {
	if v == 0 {
		return
	}
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		m.Set(i, i, m.At(i, i)+v)
	}
}

// invert fails on an exactly singular matrix and on one whose condition number
// exceeds mat.ConditionTolerance.
func invert(dst *mat.Dense, a *mat.Dense) error {
	err := dst.Inverse(a)
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) {
		return errors.Wrapf(ErrSingular, "condition number %g", float64(cond))
	}
	return errors.Wrap(ErrSingular, err.Error())
}

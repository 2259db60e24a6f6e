package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/legkin/internal/dynamo"
)

// Euler is the explicit first-order method. It is only stable for the stiff
// leg joints when dt is well below 2ζ/ω.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	result := x.Clone()
	floats.AddScaled(result, dt, sys.Derive(x, u, t))
	return result
}

package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/legkin/internal/dynamo"
)

// RK4 is the classic fourth-order Runge-Kutta method. The control is held
// constant across the step.
type RK4 struct {
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) stage(x dynamo.State, h float64, k dynamo.State) dynamo.State {
	if len(r.scratch) != len(x) {
		r.scratch = make(dynamo.State, len(x))
	}
	floats.AddScaledTo(r.scratch, x, h, k)
	return r.scratch
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	k1 := sys.Derive(x, u, t)
	k2 := sys.Derive(r.stage(x, dt/2, k1), u, t+dt/2)
	k3 := sys.Derive(r.stage(x, dt/2, k2), u, t+dt/2)
	k4 := sys.Derive(r.stage(x, dt, k3), u, t+dt)

	result := x.Clone()
	floats.AddScaled(result, dt/6, k1)
	floats.AddScaled(result, dt/3, k2)
	floats.AddScaled(result, dt/3, k3)
	floats.AddScaled(result, dt/6, k4)
	return result
}

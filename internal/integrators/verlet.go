package integrators

import "github.com/san-kum/legkin/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [positions, velocities].
// The acceleration at the new position is evaluated with the old velocity,
// so velocity-dependent forces (joint damping) are only first-order accurate.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	acc := sys.Derive(x, u, t)
	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*acc[half+i]*dt*dt
	}

	copy(v.scratch[:half], result[:half])
	copy(v.scratch[half:], x[half:])
	accNew := sys.Derive(v.scratch, u, t+dt)

	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + 0.5*(acc[half+i]+accNew[half+i])*dt
	}
	return result
}

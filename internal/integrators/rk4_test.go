package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/legkin/internal/dynamo"
)

// oscillator is a unit harmonic oscillator with an optional constant force.
type oscillator struct{}

func (oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	f := 0.0
	if len(u) > 0 {
		f = u[0]
	}
	return dynamo.State{x[1], -x[0] + f}
}

func (oscillator) StateDim() int   { return 2 }
func (oscillator) ControlDim() int { return 1 }

func TestIntegratorAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 1e-2},
		{"rk4", NewRK4(), 1e-9},
		{"rk45", NewRK45(), 1e-6},
		{"verlet", NewVerlet(), 1e-4},
	}

	const (
		dt    = 0.01
		steps = 100
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := dynamo.State{1.0, 0.0}
			for i := 0; i < steps; i++ {
				x = tt.integ.Step(oscillator{}, x, dynamo.Control{0}, float64(i)*dt, dt)
			}

			wantX := math.Cos(steps * dt)
			wantV := -math.Sin(steps * dt)
			if math.Abs(x[0]-wantX) > tt.tol {
				t.Errorf("position error too large: got %.8f, expected %.8f", x[0], wantX)
			}
			if math.Abs(x[1]-wantV) > tt.tol {
				t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], wantV)
			}
		})
	}
}

func TestRK4DoesNotModifyInput(t *testing.T) {
	x := dynamo.State{0.5, -0.25}
	NewRK4().Step(oscillator{}, x, dynamo.Control{1}, 0, 0.1)
	if x[0] != 0.5 || x[1] != -0.25 {
		t.Errorf("input state modified: %v", x)
	}
}

// stiffJoint is a joint under a very stiff PD loop: a = -k x - c v.
type stiffJoint struct{ k, c float64 }

func (s stiffJoint) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -s.k*x[0] - s.c*x[1]}
}

func (stiffJoint) StateDim() int   { return 2 }
func (stiffJoint) ControlDim() int { return 0 }

func TestRK45SubstepsStiffJoint(t *testing.T) {
	// omega = 1000 rad/s, so omega*dt = 10 is far outside rk4's stability region
	sys := stiffJoint{k: 1e6, c: 20}
	const dt = 0.01

	x := dynamo.State{1, 0}
	rk45 := NewRK45()
	for i := 0; i < 50; i++ {
		x = rk45.Step(sys, x, nil, float64(i)*dt, dt)
	}
	if !x.IsValid() {
		t.Fatalf("rk45 diverged: %v", x)
	}
	// envelope e^(-c/2 t) at t = 0.5
	if math.Abs(x[0]) > 0.01 {
		t.Errorf("rk45 did not decay: x = %v", x)
	}
	if rk45.h >= dt {
		t.Errorf("expected substeps below dt, last substep %g", rk45.h)
	}

	y := dynamo.State{1, 0}
	rk4 := NewRK4()
	for i := 0; i < 50; i++ {
		y = rk4.Step(sys, y, nil, float64(i)*dt, dt)
	}
	if y.IsValid() && math.Abs(y[0]) < 1 {
		t.Errorf("rk4 was expected to blow up at this step size, got %v", y)
	}
}

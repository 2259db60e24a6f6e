package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/legkin/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. Row 5 of dpA holds the fifth-order weights,
// so the last stage is evaluated at the new state.
var (
	dpA = [6][6]float64{
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	// fifth-order minus embedded fourth-order weights
	dpE = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// RK45 is the adaptive Dormand-Prince method. Each Step covers dt with as
// many substeps as the error estimate needs, so stiff joint gains stay
// stable at a coarse host dt. The control is held across the step.
type RK45 struct {
	// Tol bounds the relative local error of a substep.
	Tol float64
	// MinStep is accepted regardless of error.
	MinStep float64

	safety, minScale, maxScale float64
	h                          float64
	k                          [7]dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:      1e-6,
		MinStep:  1e-9,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10,
	}
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	if dt <= 0 {
		return x.Clone()
	}
	h := dt
	if r.h > 0 && r.h < dt {
		h = r.h
	}

	cur := x
	for remaining := dt; remaining > dt*1e-12; {
		h = min(h, remaining)
		next, ratio := r.attempt(sys, cur, u, t, h)
		if math.IsNaN(ratio) {
			return next
		}
		if ratio <= 1 || h <= r.MinStep {
			cur, t, remaining = next, t+h, remaining-h
		}
		h = max(h*r.scale(ratio), r.MinStep)
	}
	r.h = h
	return cur
}

// attempt takes one substep of size h and returns the new state with its
// error relative to Tol.
func (r *RK45) attempt(sys dynamo.System, x dynamo.State, u dynamo.Control, t, h float64) (dynamo.State, float64) {
	r.k[0] = sys.Derive(x, u, t)
	var next dynamo.State
	for i := 1; i < len(r.k); i++ {
		y := x.Clone()
		for j := 0; j < i; j++ {
			if a := dpA[i-1][j]; a != 0 {
				floats.AddScaled(y, h*a, r.k[j])
			}
		}
		r.k[i] = sys.Derive(y, u, t+dpC[i]*h)
		next = y
	}

	errMax := 0.0
	for n := range x {
		est := 0.0
		for j, e := range dpE {
			est += e * r.k[j][n]
		}
		scale := math.Abs(x[n]) + math.Abs(h*r.k[0][n]) + 1e-10
		errMax = math.Max(errMax, math.Abs(h*est)/scale)
	}
	return next, errMax / r.Tol
}

func (r *RK45) scale(ratio float64) float64 {
	switch {
	case ratio > 1:
		return math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
	case ratio > 0:
		return math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
	}
	return r.maxScale
}

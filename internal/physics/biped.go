package physics

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

var ErrParams = errors.New("physics: invalid plant parameters")

// BipedParams are the per-joint rotor parameters.
type BipedParams struct {
	Inertia [robot.NumJoints]float64 // kg·m²
	Damping [robot.NumJoints]float64 // N·m·s/rad
	// TorqueLimit saturates every commanded torque to ±TorqueLimit. Zero disables it.
	TorqueLimit float64
}

// UniformParams gives every leg joint the same inertia and damping and the
// waist its own.
func UniformParams(legInertia, legDamping, waistInertia, waistDamping float64) BipedParams {
	var p BipedParams
	for i := range p.Inertia {
		p.Inertia[i], p.Damping[i] = legInertia, legDamping
	}
	p.Inertia[robot.Waist], p.Damping[robot.Waist] = waistInertia, waistDamping
	return p
}

func DefaultBipedParams() BipedParams {
	return UniformParams(0.5, 10, 1.0, 1.0)
}

func (p BipedParams) Validate() error {
	var err error
	for _, id := range robot.AllJoints() {
		if !(p.Inertia[id] > 0) {
			err = multierr.Append(err, errors.Wrapf(ErrParams, "%s: inertia must be positive, got %g", id.Short(), p.Inertia[id]))
		}
		if p.Damping[id] < 0 {
			err = multierr.Append(err, errors.Wrapf(ErrParams, "%s: damping must be non-negative, got %g", id.Short(), p.Damping[id]))
		}
	}
	if p.TorqueLimit < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrParams, "torque limit must be non-negative, got %g", p.TorqueLimit))
	}
	return err
}

// Biped is the 13-joint plant. State is [q(13), ω(13)], control is 13 torques.
type Biped struct {
	params BipedParams
}

func NewBiped(params BipedParams) *Biped {
	return &Biped{params: params}
}

func (b *Biped) Params() BipedParams { return b.params }

func (b *Biped) StateDim() int   { return robot.StateDim }
func (b *Biped) ControlDim() int { return robot.NumJoints }

// InitialState returns a state at rest at the given joint angles.
func (b *Biped) InitialState(q [robot.NumJoints]float64) dynamo.State {
	x := make(dynamo.State, robot.StateDim)
	copy(x, q[:])
	return x
}

func (b *Biped) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, robot.StateDim)
	for i := 0; i < robot.NumJoints; i++ {
		id := robot.JointID(i)
		omega := x[robot.VelocityIndex(id)]
		torque := 0.0
		if i < len(u) {
			torque = b.saturate(u[i])
		}
		dx[robot.AngleIndex(id)] = omega
		dx[robot.VelocityIndex(id)] = (torque - b.params.Damping[i]*omega) / b.params.Inertia[i]
	}
	return dx
}

func (b *Biped) saturate(tau float64) float64 {
	if lim := b.params.TorqueLimit; lim > 0 {
		return math.Max(-lim, math.Min(lim, tau))
	}
	return tau
}

// Energy is the total rotor kinetic energy.
func (b *Biped) Energy(x dynamo.State) float64 {
	e := 0.0
	for i := 0; i < robot.NumJoints; i++ {
		w := x[robot.VelocityIndex(robot.JointID(i))]
		e += 0.5 * b.params.Inertia[i] * w * w
	}
	return e
}

package control

import (
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

// PID adds integral action to a JointController. Each joint's torque gains
// Ki·∫(target - actual)dt, where Ki = rate·Kp of that joint.
type PID struct {
	pd       *JointController
	rate     float64
	integral [robot.NumJoints]float64
}

func NewPID(pd *JointController, rate float64) *PID {
	return &PID{pd: pd, rate: rate}
}

// Compute runs one cycle of the wrapped controller with the integral term
// added, so its state table holds the torque actually applied.
func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	dt := p.pd.tick(t)
	u := make(robot.TorqueBuffer, robot.NumJoints)
	p.pd.step(dt, robot.StateSensor(x), u, func(i int, j JointState) float64 {
		p.integral[i] += (j.TargetAngle - j.ActualAngle) * dt
		return p.rate * p.pd.gains[i].Kp * p.integral[i]
	})
	return dynamo.Control(u)
}

// Integral returns the accumulated angle error of one joint, in rad·s.
func (p *PID) Integral(id robot.JointID) float64 { return p.integral[id] }

// Reset clears the integrators and the wrapped controller.
func (p *PID) Reset() {
	p.pd.Reset()
	p.integral = [robot.NumJoints]float64{}
}

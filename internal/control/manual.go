package control

import (
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

// Passive commands zero torque on every joint.
type Passive struct{}

func (Passive) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, robot.NumJoints)
}

// Disturbance adds a manually set torque vector to the output of Base.
// The live view uses it to push joints off their targets.
type Disturbance struct {
	Base dynamo.Controller
	U    robot.TorqueBuffer
}

func NewDisturbance(base dynamo.Controller) *Disturbance {
	return &Disturbance{Base: base, U: make(robot.TorqueBuffer, robot.NumJoints)}
}

// SetTorque implements robot.Actuator: the torque is held until Clear.
func (d *Disturbance) SetTorque(id robot.JointID, torque float64) {
	d.U[id] = torque
}

// Clear removes every disturbance torque.
func (d *Disturbance) Clear() {
	for i := range d.U {
		d.U[i] = 0
	}
}

func (d *Disturbance) Compute(x dynamo.State, t float64) dynamo.Control {
	u := d.Base.Compute(x, t)
	for i := range u {
		if i < len(d.U) {
			u[i] += d.U[i]
		}
	}
	return u
}

package robot

import "errors"

var (
	ErrUnknownJoint = errors.New("robot: unknown joint")
	ErrUnknownLeg   = errors.New("robot: unknown leg")
	ErrDescription  = errors.New("robot: invalid model description")
)

// Sensor is the host's per-joint encoder readout, sampled once per step.
type Sensor interface {
	// JointAngle returns the joint angle in radians.
	JointAngle(id JointID) float64
	// JointVelocity returns the joint velocity in rad/s.
	JointVelocity(id JointID) float64
}

// Actuator accepts one torque command per joint per step, in N·m.
type Actuator interface {
	SetTorque(id JointID, torque float64)
}

// The host state vector holds all joint angles followed by all joint velocities.
const StateDim = 2 * NumJoints

// AngleIndex is the state-vector slot of the joint's angle.
func AngleIndex(id JointID) int { return int(id) }

// VelocityIndex is the state-vector slot of the joint's velocity.
func VelocityIndex(id JointID) int { return NumJoints + int(id) }

// StateSensor reads joint angles and velocities from a host state vector.
type StateSensor []float64

func (s StateSensor) JointAngle(id JointID) float64    { return s[AngleIndex(id)] }
func (s StateSensor) JointVelocity(id JointID) float64 { return s[VelocityIndex(id)] }

// TorqueBuffer collects actuator commands into a control vector indexed by JointID.
type TorqueBuffer []float64

func (b TorqueBuffer) SetTorque(id JointID, torque float64) { b[id] = torque }

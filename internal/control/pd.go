package control

import (
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/robot"
)

// Gains are the proportional and derivative gains of one joint.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Kd float64 `yaml:"kd" json:"kd"`
}

// GainTable holds one entry per joint, indexed by robot.JointID.
type GainTable [robot.NumJoints]Gains

// LegGains are the gains of one leg in chain order (hip yaw to ankle roll).
type LegGains [kinematics.NumJoints]Gains

// MirroredGains builds a table whose left and right legs share leg.
func MirroredGains(waist Gains, leg LegGains) GainTable {
	var t GainTable
	t[robot.Waist] = waist
	for i, id := range robot.Left.Joints() {
		t[id] = leg[i]
		t[id.Mirror()] = leg[i]
	}
	return t
}

// DefaultLegGains are the RoK-3 leg gains.
func DefaultLegGains() LegGains {
	return LegGains{
		{Kp: 2000, Kd: 2}, // hip yaw
		{Kp: 9000, Kd: 2}, // hip roll
		{Kp: 2000, Kd: 2}, // hip pitch
		{Kp: 5000, Kd: 4}, // knee
		{Kp: 3000, Kd: 2}, // ankle pitch
		{Kp: 3000, Kd: 2}, // ankle roll
	}
}

// DefaultGains returns the RoK-3 gain table.
func DefaultGains() GainTable {
	return MirroredGains(Gains{Kp: 2, Kd: 2}, DefaultLegGains())
}

// Scale multiplies every gain by f.
func (t GainTable) Scale(f float64) GainTable {
	for i := range t {
		t[i].Kp *= f
		t[i].Kd *= f
	}
	return t
}

// JointState is the per-joint bookkeeping record, updated once per step.
type JointState struct {
	TargetAngle    float64
	TargetVelocity float64
	TargetTorque   float64
	ActualAngle    float64
	ActualVelocity float64
	ActualTorque   float64
}

// PD returns Kp(target angle - actual angle) + Kd(target velocity - actual velocity).
func PD(g Gains, targetAngle, targetVelocity, actualAngle, actualVelocity float64) float64 {
	return g.Kp*(targetAngle-actualAngle) + g.Kd*(targetVelocity-actualVelocity)
}

// JointController is the biped's joint-space PD controller. It owns the
// per-joint state table; it is not safe for concurrent use. Its gains are
// fixed at construction: retuning builds a new controller.
type JointController struct {
	gains  GainTable
	joints [robot.NumJoints]JointState
	time   float64

	prevT   float64
	started bool
}

func NewJointController(gains GainTable) *JointController {
	return &JointController{gains: gains}
}

// Gains returns the controller's gain table.
func (c *JointController) Gains() GainTable { return c.gains }

// Time is the simulated time accumulated from the dt of each step.
func (c *JointController) Time() float64 { return c.time }

// Joint returns the state record of one joint.
func (c *JointController) Joint(id robot.JointID) JointState { return c.joints[id] }

// Joints returns a copy of the whole state table.
func (c *JointController) Joints() [robot.NumJoints]JointState { return c.joints }

// TargetAngles returns every joint's target angle.
func (c *JointController) TargetAngles() [robot.NumJoints]float64 {
	var q [robot.NumJoints]float64
	for i := range c.joints {
		q[i] = c.joints[i].TargetAngle
	}
	return q
}

// SetTarget sets the desired angle and velocity of one joint.
func (c *JointController) SetTarget(id robot.JointID, angle, velocity float64) {
	c.joints[id].TargetAngle = angle
	c.joints[id].TargetVelocity = velocity
}

// SetLegTargets sets a leg's six target angles from a chain joint vector,
// with zero target velocity.
func (c *JointController) SetLegTargets(leg robot.Leg, q kinematics.JointVector) {
	for i, id := range leg.Joints() {
		c.SetTarget(id, q[i], 0)
	}
}

// LegAngles returns the measured angles of a leg from the last step.
func (c *JointController) LegAngles(leg robot.Leg) kinematics.JointVector {
	var q kinematics.JointVector
	for i, id := range leg.Joints() {
		q[i] = c.joints[id].ActualAngle
	}
	return q
}

// Step runs one control cycle: read every sensor, compute every torque,
// then write every actuator.
func (c *JointController) Step(dt float64, s robot.Sensor, a robot.Actuator) {
	c.step(dt, s, a, nil)
}

// step is Step with an optional extra torque per joint, added to the PD term
// once the sensors are read. The table records the torque sent to a.
func (c *JointController) step(dt float64, s robot.Sensor, a robot.Actuator, extra func(i int, j JointState) float64) {
	c.time += dt

	for i := range c.joints {
		id := robot.JointID(i)
		c.joints[i].ActualAngle = s.JointAngle(id)
		c.joints[i].ActualVelocity = s.JointVelocity(id)
	}

	for i := range c.joints {
		j := &c.joints[i]
		j.TargetTorque = PD(c.gains[i], j.TargetAngle, j.TargetVelocity, j.ActualAngle, j.ActualVelocity)
		if extra != nil {
			j.TargetTorque += extra(i, *j)
		}
	}

	for i := range c.joints {
		j := &c.joints[i]
		a.SetTorque(robot.JointID(i), j.TargetTorque)
		j.ActualTorque = j.TargetTorque
	}
}

// tick returns the time since the previous call, zero on the first.
func (c *JointController) tick(t float64) float64 {
	dt := 0.0
	if c.started {
		dt = t - c.prevT
	}
	c.prevT = t
	c.started = true
	return dt
}

// Compute adapts Step to the simulator: x is the host state vector and dt
// is derived from successive calls.
func (c *JointController) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(robot.TorqueBuffer, robot.NumJoints)
	c.Step(c.tick(t), robot.StateSensor(x), u)
	return dynamo.Control(u)
}

// Reset clears the measured state and the clock, keeping gains and targets.
func (c *JointController) Reset() {
	for i := range c.joints {
		j := &c.joints[i]
		j.ActualAngle, j.ActualVelocity, j.ActualTorque, j.TargetTorque = 0, 0, 0, 0
	}
	c.time, c.prevT, c.started = 0, 0, false
}

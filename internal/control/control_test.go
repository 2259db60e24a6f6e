package control

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/robot"
)

func TestDefaultGainsMirrored(t *testing.T) {
	g := NewWithT(t)
	gains := DefaultGains()

	g.Expect(gains[robot.Waist]).To(Equal(Gains{Kp: 2, Kd: 2}))
	g.Expect(gains[robot.LHipRoll]).To(Equal(Gains{Kp: 9000, Kd: 2}))
	g.Expect(gains[robot.RKnee]).To(Equal(Gains{Kp: 5000, Kd: 4}))
	for _, id := range robot.Left.Joints() {
		g.Expect(gains[id]).To(Equal(gains[id.Mirror()]), id.String())
	}

	half := gains.Scale(0.5)
	g.Expect(half[robot.LKnee]).To(Equal(Gains{Kp: 2500, Kd: 2}))
	g.Expect(gains[robot.LKnee].Kp).To(Equal(5000.0))
}

func TestPD(t *testing.T) {
	tests := []struct {
		name                   string
		qt, vt, qa, va, torque float64
	}{
		{"at target", 0.3, 0.1, 0.3, 0.1, 0},
		{"angle error", 1, 0, 0.5, 0, 50},
		{"velocity error", 0, 0, 0, 2, -4},
		{"both", 0.2, 0, 0, -1, 22},
	}

	gains := Gains{Kp: 100, Kd: 2}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			g.Expect(PD(gains, tt.qt, tt.vt, tt.qa, tt.va)).To(BeNumerically("~", tt.torque, 1e-12))
		})
	}
}

func TestStepZeroError(t *testing.T) {
	g := NewWithT(t)
	c := NewJointController(DefaultGains())

	x := make([]float64, robot.StateDim)
	for _, id := range robot.AllJoints() {
		angle := 0.1 * float64(id)
		vel := -0.05 * float64(id)
		c.SetTarget(id, angle, vel)
		x[robot.AngleIndex(id)] = angle
		x[robot.VelocityIndex(id)] = vel
	}

	u := make(robot.TorqueBuffer, robot.NumJoints)
	for i := range u {
		u[i] = 99
	}
	c.Step(0.001, robot.StateSensor(x), u)

	for _, id := range robot.AllJoints() {
		g.Expect(u[id]).To(BeZero(), id.String())
		g.Expect(c.Joint(id).ActualTorque).To(BeZero())
	}
}

func TestStepUpdatesStateTable(t *testing.T) {
	g := NewWithT(t)
	c := NewJointController(DefaultGains())
	c.SetLegTargets(robot.Left, kinematics.FromDegrees(0, 0, 0, 10, 0, 0))

	x := make([]float64, robot.StateDim)
	x[robot.VelocityIndex(robot.LKnee)] = 0.5

	u := make(robot.TorqueBuffer, robot.NumJoints)
	c.Step(0.001, robot.StateSensor(x), u)
	c.Step(0.001, robot.StateSensor(x), u)

	want := 5000*kinematics.FromDegrees(0, 0, 0, 10, 0, 0)[3] - 4*0.5
	knee := c.Joint(robot.LKnee)
	g.Expect(knee.ActualVelocity).To(Equal(0.5))
	g.Expect(knee.TargetTorque).To(BeNumerically("~", want, 1e-9))
	g.Expect(u[robot.LKnee]).To(Equal(knee.TargetTorque))
	g.Expect(u[robot.RKnee]).To(BeZero())
	g.Expect(c.Time()).To(BeNumerically("~", 0.002, 1e-15))
	g.Expect(c.LegAngles(robot.Left)).To(Equal(kinematics.JointVector{}))
}

func TestComputeDerivesDt(t *testing.T) {
	g := NewWithT(t)
	c := NewJointController(DefaultGains())
	c.SetTarget(robot.Waist, 1, 0)

	x := make(dynamo.State, robot.StateDim)
	u := c.Compute(x, 0.5)
	g.Expect(u).To(HaveLen(robot.NumJoints))
	g.Expect(u[robot.Waist]).To(Equal(2.0))
	g.Expect(c.Time()).To(BeZero())

	c.Compute(x, 0.51)
	g.Expect(c.Time()).To(BeNumerically("~", 0.01, 1e-12))

	c.Reset()
	g.Expect(c.Time()).To(BeZero())
	g.Expect(c.Joint(robot.Waist).TargetAngle).To(Equal(1.0))
}

func TestScaledTableLeavesControllerUntouched(t *testing.T) {
	g := NewWithT(t)
	c := NewJointController(DefaultGains())

	retuned := NewJointController(c.Gains().Scale(0.5))
	g.Expect(retuned.Gains()[robot.LKnee]).To(Equal(Gains{Kp: 2500, Kd: 2}))
	g.Expect(c.Gains()[robot.LKnee]).To(Equal(Gains{Kp: 5000, Kd: 4}))
	g.Expect(c.Gains()).To(Equal(DefaultGains()))
}

func TestPassiveAndDisturbance(t *testing.T) {
	g := NewWithT(t)
	x := make(dynamo.State, robot.StateDim)

	u := Passive{}.Compute(x, 0)
	g.Expect(u).To(HaveLen(robot.NumJoints))
	g.Expect(u).To(HaveEach(0.0))

	d := NewDisturbance(Passive{})
	d.SetTorque(robot.RHipPitch, 15)
	u = d.Compute(x, 0)
	g.Expect(u[robot.RHipPitch]).To(Equal(15.0))
	g.Expect(u[robot.LHipPitch]).To(BeZero())

	d.Clear()
	g.Expect(d.Compute(x, 0)).To(HaveEach(0.0))
}

func TestPIDAccumulatesError(t *testing.T) {
	g := NewWithT(t)

	pd := NewJointController(DefaultGains())
	pd.SetTarget(robot.LKnee, 0.1, 0)
	pid := NewPID(pd, 1)
	x := make(dynamo.State, robot.StateDim)

	u := pid.Compute(x, 0)
	g.Expect(u[robot.LKnee]).To(BeNumerically("~", 500, 1e-9))
	g.Expect(pid.Integral(robot.LKnee)).To(BeZero())

	u = pid.Compute(x, 0.01)
	g.Expect(pid.Integral(robot.LKnee)).To(BeNumerically("~", 0.001, 1e-12))
	g.Expect(u[robot.LKnee]).To(BeNumerically("~", 505, 1e-9))

	u = pid.Compute(x, 0.02)
	g.Expect(u[robot.LKnee]).To(BeNumerically("~", 510, 1e-9))
	g.Expect(u[robot.RKnee]).To(BeZero())

	pid.Reset()
	g.Expect(pid.Integral(robot.LKnee)).To(BeZero())
	g.Expect(pd.Joint(robot.LKnee).TargetTorque).To(BeZero())
	g.Expect(pd.Time()).To(BeZero())
	u = pid.Compute(x, 0.5)
	g.Expect(u[robot.LKnee]).To(BeNumerically("~", 500, 1e-9))
}

func TestPIDTableMatchesAppliedTorque(t *testing.T) {
	g := NewWithT(t)

	pd := NewJointController(DefaultGains())
	pd.SetTarget(robot.LKnee, 0.5, 0)
	pid := NewPID(pd, 1)
	x := make(dynamo.State, robot.StateDim)

	pid.Compute(x, 0)
	u := pid.Compute(x, 0.1)
	g.Expect(u[robot.LKnee]).To(BeNumerically("~", 2750, 1e-9))

	joints := pd.Joints()
	for _, id := range robot.AllJoints() {
		g.Expect(joints[id].TargetTorque).To(Equal(u[id]), id.String())
		g.Expect(joints[id].ActualTorque).To(Equal(u[id]), id.String())
	}
}
